package entities

import "github.com/deepakshirkem/spiderly"

type Note struct {
	spiderly.BusinessObject[int64]

	Text string
}
