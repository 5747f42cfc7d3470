package currency

// Conversions allows to get a conversion rate between two currencies.
// If one of the currencies is not known, it returns an error.
type Conversions interface {
	GetRate(from string, to string) (float64, error)
	GetRates() *map[string]map[string]float64
}

// Convert converts price from one currency into another.
func Convert(conversions Conversions, price float64, from, to string) (float64, error) {
	rate, err := conversions.GetRate(from, to)
	if err != nil {
		return 0, err
	}
	return price * rate, nil
}

// NewConversions picks the Conversions implementation for a static rate table. Without
// rates only same-currency conversions succeed.
func NewConversions(conversions map[string]map[string]float64) Conversions {
	if len(conversions) == 0 {
		return NewConstantRates()
	}
	return NewRates(conversions)
}
