package dto

// ProductDTO extends the generated companion with projected fields.
type ProductDTO struct {
	CategoryCode string
	CategoryName string
	Discount     float64
}

// ImportDTO is posted as a form.
type ImportDTO struct {
	Source    string
	Overwrite bool
}
