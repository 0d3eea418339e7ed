package entities

import "github.com/deepakshirkem/spiderly"

// +spiderly:Controller=Catalog
type Review struct {
	spiderly.BusinessObject[int64]

	Text    string
	Rating  int32
	Product *Product
}
