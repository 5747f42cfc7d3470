package usersync

import (
	"net/url"
	"strings"
)

// Sync represents a user sync for the user's device to perform.
type Sync struct {
	URL  string   `json:"url"`
	Type SyncType `json:"type"`
}

// Consent carries the privacy values appended to sync URLs. Signal is "", "0" or "1".
type Consent struct {
	Signal  string
	Consent string
}

// AppendConsent adds gdpr and gdpr_consent query parameters to syncURL. gdpr is only added
// when the signal is known. Existing query strings are extended with "&".
func AppendConsent(syncURL string, consent Consent) string {
	var params []string
	if consent.Signal != "" {
		params = append(params, "gdpr="+url.QueryEscape(consent.Signal))
	}
	if consent.Consent != "" {
		params = append(params, "gdpr_consent="+url.QueryEscape(consent.Consent))
	}
	if len(params) == 0 {
		return syncURL
	}

	separator := "?"
	if strings.Contains(syncURL, "?") {
		separator = "&"
	}
	return syncURL + separator + strings.Join(params, "&")
}
