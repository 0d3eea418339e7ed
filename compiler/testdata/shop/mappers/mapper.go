package mappers

import (
	"example.com/shop/dto"
	"example.com/shop/entities"
)

type Mapper struct{}

// +spiderly:ProjectToDTO=.Map(dest => dest.CategoryName, src => src.Category.Name)
func (Mapper) ProductToDTO(p *entities.Product) dto.ProductDTO {
	return dto.ProductDTO{}
}
