package currency

import (
	"errors"
	"strings"

	"golang.org/x/text/currency"
)

// Rates holds a static conversion table keyed by ISO 4217 code, in the shape of
// https://cdn.jsdelivr.net/gh/prebid/currency-file@1/latest.json
type Rates struct {
	Conversions map[string]map[string]float64 `json:"conversions"`
}

// NewRates creates a new Rates object holding currencies rates. Codes are upper-cased
// so config files may use any case.
func NewRates(conversions map[string]map[string]float64) *Rates {
	normalized := make(map[string]map[string]float64, len(conversions))
	for from, targets := range conversions {
		row := make(map[string]float64, len(targets))
		for to, rate := range targets {
			row[strings.ToUpper(to)] = rate
		}
		normalized[strings.ToUpper(from)] = row
	}
	return &Rates{
		Conversions: normalized,
	}
}

// FindIntermediateConversionRate returns the conversion rate between two currencies
// if a valid conversion exists in the provided rates container.
// Otherwise, it returns a ConversionNotFoundError.
func FindIntermediateConversionRate(r *Rates, from, to currency.Unit) (float64, error) {
	for _, conversions := range r.Conversions {
		toRate, hasToRate := conversions[to.String()]
		fromRate, hasFromRate := conversions[from.String()]

		if hasToRate && hasFromRate && fromRate != 0 {
			return toRate / fromRate, nil
		}
	}

	return 0, ConversionNotFoundError{FromCur: from.String(), ToCur: to.String()}
}

// GetRate returns the conversion rate between two currencies or:
//   - An error if one of the currency strings is not well-formed
//   - An error if any of the currency strings is not a recognized currency code.
//   - A ConversionNotFoundError in case the conversion rate between the two
//     given currencies is not in the currencies rates map
func (r *Rates) GetRate(from, to string) (float64, error) {
	fromUnit, err := currency.ParseISO(from)
	if err != nil {
		return 0, err
	}
	toUnit, err := currency.ParseISO(to)
	if err != nil {
		return 0, err
	}
	if fromUnit.String() == toUnit.String() {
		return 1, nil
	}
	if r.Conversions == nil {
		return 0, errors.New("rates are nil")
	}
	if conversion, present := r.Conversions[fromUnit.String()][toUnit.String()]; present {
		return conversion, nil
	}
	if conversion, present := r.Conversions[toUnit.String()][fromUnit.String()]; present && conversion != 0 {
		return 1 / conversion, nil
	}

	return FindIntermediateConversionRate(r, fromUnit, toUnit)
}

// GetRates returns current rates
func (r *Rates) GetRates() *map[string]map[string]float64 {
	return &r.Conversions
}
