package booking

type PriceCalculator interface {
	Calculate(items []LineItem, units int64, feeCents int64) Pricing
}

// DefaultPriceCalculator charges price and tax per unit, per quantity, per night or day.
// The service fee is added once per booking.
type DefaultPriceCalculator struct{}

func NewDefaultPriceCalculator() *DefaultPriceCalculator {
	return &DefaultPriceCalculator{}
}

func (pc *DefaultPriceCalculator) Calculate(items []LineItem, units int64, feeCents int64) Pricing {
	var p Pricing
	for _, item := range items {
		qty := int64(item.Quantity)
		p.SubtotalCents += item.UnitPriceCents * qty * units
		p.TaxCents += item.UnitTaxCents * qty * units
	}
	if feeCents > 0 {
		p.FeeCents = feeCents
	}
	p.TotalCents = p.SubtotalCents + p.TaxCents + p.FeeCents
	return p
}
