package endpoints

import (
	"net/http"

	"github.com/golang/glog"

	"github.com/dspxtv/prebid-dspx/currency"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

const currencyRatesSourceConfig = "config"

// currencyRatesInfo holds currency rates information.
type currencyRatesInfo struct {
	Active bool                           `json:"active"`
	Source string                         `json:"source,omitempty"`
	Rates  *map[string]map[string]float64 `json:"rates,omitempty"`
}

// newCurrencyRatesInfo describes the rates used to convert bid floors before they go to dspx.
// A table without rates only converts a currency to itself and is reported as inactive.
func newCurrencyRatesInfo(conversions currency.Conversions) currencyRatesInfo {
	if conversions == nil {
		return currencyRatesInfo{}
	}

	rates := conversions.GetRates()
	if rates == nil || len(*rates) == 0 {
		return currencyRatesInfo{}
	}

	return currencyRatesInfo{
		Active: true,
		Source: currencyRatesSourceConfig,
		Rates:  rates,
	}
}

// NewCurrencyRatesEndpoint returns the currency rates applied by the server.
func NewCurrencyRatesEndpoint(conversions currency.Conversions) http.HandlerFunc {
	currencyRateInfo := newCurrencyRatesInfo(conversions)

	return func(w http.ResponseWriter, _ *http.Request) {
		jsonOutput, err := jsonutil.Marshal(currencyRateInfo)
		if err != nil {
			glog.Errorf("/currency/rates Critical error when trying to marshal currencyRateInfo: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonOutput)
	}
}
