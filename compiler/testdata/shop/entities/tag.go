package entities

import "github.com/deepakshirkem/spiderly"

// +spiderly:Controller=Catalog
// +spiderly:DoNotAuthorize
type Tag struct {
	spiderly.ReadonlyObject[int64]

	// +spiderly:DisplayName
	Name string
}
