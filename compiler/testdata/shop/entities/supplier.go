package entities

import (
	"github.com/deepakshirkem/spiderly"
	"github.com/google/uuid"
)

type Supplier struct {
	spiderly.BusinessObject[uuid.UUID]

	// +spiderly:DisplayName
	Name  string
	Email string
}

// ProductSupplier joins products and suppliers.
type ProductSupplier struct {
	Product  *Product
	Supplier *Supplier
}
