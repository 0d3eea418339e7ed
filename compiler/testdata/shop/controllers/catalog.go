package controllers

import (
	"context"

	"github.com/deepakshirkem/spiderly"
	"github.com/go-chi/chi/v5"

	"example.com/shop/dto"
)

type CatalogController struct {
	*CatalogBaseController
}

// +spiderly:HttpGet
func (c *CatalogController) GetFeaturedProducts(ctx context.Context, limit int) ([]dto.ProductDTO, error) {
	return nil, nil
}

// +spiderly:HttpPost
// +spiderly:FromForm
func (c *CatalogController) ImportProducts(ctx context.Context, body dto.ImportDTO) (string, error) {
	return "", nil
}

// +spiderly:HttpGet
func (c *CatalogController) DownloadCatalog(ctx context.Context) ([]byte, error) {
	return nil, nil
}

// +spiderly:HttpGet
// +spiderly:SkipSpinner
func (c *CatalogController) GetProductList(ctx context.Context) ([]dto.ProductDTO, error) {
	return nil, nil
}

// +spiderly:HttpGet
func (c *CatalogController) GetCategoryNamebooks(ctx context.Context) ([]spiderly.Namebook[int32], error) {
	return nil, nil
}

// +spiderly:UIDoNotGenerate
func (c *CatalogController) Rebuild(ctx context.Context) error {
	return nil
}

func (c *CatalogController) Routes(r chi.Router) {
	c.CatalogBaseController.Routes(r)
}
