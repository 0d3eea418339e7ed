package entities

import "github.com/deepakshirkem/spiderly"

// +spiderly:Controller=Security
type User struct {
	spiderly.BusinessObject[int64]

	// +spiderly:DisplayName
	Email string
	// +spiderly:UIControlType=Autocomplete
	Role *Role
}

// +spiderly:Controller=Security
type Role struct {
	spiderly.BusinessObject[int32]

	// +spiderly:DisplayName
	Name string
}
