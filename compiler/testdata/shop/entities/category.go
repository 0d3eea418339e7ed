package entities

import "github.com/deepakshirkem/spiderly"

// +spiderly:Controller=Catalog
// +spiderly:TranslateSrLatnRS=Kategorija
type Category struct {
	spiderly.BusinessObject[int32]

	// +spiderly:DisplayName
	Name string
	Code string
	// +spiderly:UIControlType=Dropdown
	Parent *Category
}
