package entities

import (
	"time"

	"github.com/deepakshirkem/spiderly"
	"github.com/google/uuid"
)

// Product is sold in the catalog.
//
// +spiderly:Controller=Catalog
// +spiderly:TranslatePluralSrLatnRS=Proizvodi
// +spiderly:ProjectToDTO=CategoryCode=Category.Code
type Product struct {
	spiderly.BusinessObject[int64]

	// +spiderly:DisplayName
	Name  string
	Price float64
	Sku   uuid.UUID
	// +spiderly:UIControlType=Calendar
	ReleasedAt *time.Time
	Active     bool
	// +spiderly:ExcludeFromDTO
	Notes string
	// +spiderly:BlobName
	ImageBlobName string

	Category *Category

	// +spiderly:UIControlType=MultiSelect
	// +spiderly:GenerateCommaSeparatedDisplayName
	Tags []*Tag

	// +spiderly:UIOrderedOneToMany
	Reviews []*Review

	// +spiderly:SimpleManyToManyTableLazyLoad
	Suppliers []*Supplier
}
