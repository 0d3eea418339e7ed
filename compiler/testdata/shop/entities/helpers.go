package entities

// unexported declarations are never extracted.
type pricing struct {
	Rate float64
}

func (p *Product) Discounted(rate float64) float64 {
	return p.Price * (1 - rate)
}
