package currency

import "fmt"

// ConversionNotFoundError is returned by GetRate when the table holds neither the rate nor its
// reciprocal, and no shared intermediate currency links the two.
type ConversionNotFoundError struct {
	FromCur, ToCur string
}

func (err ConversionNotFoundError) Error() string {
	return fmt.Sprintf("Currency conversion rate not found: '%s' => '%s'", err.FromCur, err.ToCur)
}
