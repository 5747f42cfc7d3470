package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatesGetRate(t *testing.T) {
	rates := NewRates(map[string]map[string]float64{
		"usd": {"eur": 0.5, "GBP": 0.25},
	})

	testCases := []struct {
		name         string
		from         string
		to           string
		expectedRate float64
		hasError     bool
	}{
		{name: "direct", from: "USD", to: "EUR", expectedRate: 0.5},
		{name: "reciprocal", from: "EUR", to: "USD", expectedRate: 2},
		{name: "intermediate", from: "GBP", to: "EUR", expectedRate: 2},
		{name: "same", from: "JPY", to: "JPY", expectedRate: 1},
		{name: "missing", from: "JPY", to: "EUR", hasError: true},
		{name: "malformed", from: "EU", to: "USD", hasError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := rates.GetRate(tc.from, tc.to)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.InDelta(t, tc.expectedRate, rate, 0.0001)
		})
	}
}

func TestRatesMissingIsConversionNotFound(t *testing.T) {
	rates := NewRates(map[string]map[string]float64{"USD": {"EUR": 0.9}})
	_, err := rates.GetRate("JPY", "EUR")
	assert.Equal(t, ConversionNotFoundError{FromCur: "JPY", ToCur: "EUR"}, err)
}

func TestConvert(t *testing.T) {
	conversions := NewConversions(map[string]map[string]float64{"USD": {"EUR": 0.9}})
	price, err := Convert(conversions, 2, "USD", "EUR")
	assert.NoError(t, err)
	assert.InDelta(t, 1.8, price, 0.0001)

	_, err = Convert(NewConversions(nil), 2, "USD", "EUR")
	assert.Error(t, err)
}
