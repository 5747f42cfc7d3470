package config

import (
	"encoding/json"
	"fmt"

	validator "github.com/asaskevich/govalidator"
)

type Adapter struct {
	Endpoint string `mapstructure:"endpoint"` // Required
	// ExtraAdapterInfo is a JSON document handed to the bidder builder as-is. dspx reads its
	// developer endpoint from it.
	ExtraAdapterInfo string `mapstructure:"extra_info"`
	Disabled         bool   `mapstructure:"disabled"`
}

// validateAdapters validates adapter's endpoint and extra info
func validateAdapters(adapterMap map[string]Adapter, errs []error) []error {
	for adapterName, adapter := range adapterMap {
		if !adapter.Disabled {
			// Verify that every adapter has a valid endpoint associated with it
			errs = validateAdapterEndpoint(adapter.Endpoint, adapterName, errs)
			errs = validateAdapterExtraInfo(adapter.ExtraAdapterInfo, adapterName, errs)
		}
	}
	return errs
}

// validateAdapterEndpoint makes sure that an adapter has a valid endpoint
// associated with it
func validateAdapterEndpoint(endpoint string, adapterName string, errs []error) []error {
	if endpoint == "" {
		return append(errs, fmt.Errorf("There's no default endpoint available for %s. Calls to this bidder/exchange will fail. "+
			"Please set adapters.%s.endpoint in your app config", adapterName, adapterName))
	}

	// Validating using both IsURL and IsRequestURL because IsURL allows relative paths
	// whereas IsRequestURL requires absolute path but fails to check other valid URL
	// format constraints.
	//
	// For example: IsURL will allow "abcd.com" but IsRequestURL won't
	// IsRequestURL will allow "http://http://abcd.com" but IsURL won't
	if !IsValidEndpoint(endpoint) {
		errs = append(errs, fmt.Errorf("The endpoint: %s for %s is not a valid URL", endpoint, adapterName))
	}
	return errs
}

func validateAdapterExtraInfo(extraInfo string, adapterName string, errs []error) []error {
	if extraInfo != "" && !json.Valid([]byte(extraInfo)) {
		errs = append(errs, fmt.Errorf("The extra_info for %s is not valid JSON", adapterName))
	}
	return errs
}

// IsValidEndpoint reports whether endpoint is an absolute URL a bidder request can be sent to.
func IsValidEndpoint(endpoint string) bool {
	return validator.IsURL(endpoint) && validator.IsRequestURL(endpoint)
}
