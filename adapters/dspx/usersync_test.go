package dspx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/usersync"
)

const syncResponseBody = `{
	"requestId": "23beaa6af6cdde",
	"cpm": 500000,
	"currency": "EUR",
	"type": "sspHTML",
	"ad": "<!-- test creative -->",
	"userSync": {
		"iframeUrl": ["anyIframeUrl?a=1"],
		"imageUrl": ["anyImageUrl", "anyImageUrl2"]
	}
}`

func TestUserSyncs(t *testing.T) {
	responses := []*adapters.ResponseData{{StatusCode: 200, Body: []byte(syncResponseBody)}}
	gdprConsent := usersync.Consent{Signal: "1", Consent: "anyString"}

	tests := []struct {
		name      string
		opts      usersync.Options
		responses []*adapters.ResponseData
		consent   usersync.Consent
		expected  []usersync.Sync
	}{
		{
			name:      "iframe",
			opts:      usersync.Options{IFrameEnabled: true},
			responses: responses,
			expected:  []usersync.Sync{{URL: "anyIframeUrl?a=1", Type: usersync.SyncTypeIFrame}},
		},
		{
			name:      "iframe-consent-without-applies",
			opts:      usersync.Options{IFrameEnabled: true},
			responses: responses,
			consent:   usersync.Consent{Consent: "anyString"},
			expected:  []usersync.Sync{{URL: "anyIframeUrl?a=1&gdpr_consent=anyString", Type: usersync.SyncTypeIFrame}},
		},
		{
			name:      "image-gdpr",
			opts:      usersync.Options{PixelEnabled: true},
			responses: responses,
			consent:   gdprConsent,
			expected: []usersync.Sync{
				{URL: "anyImageUrl?gdpr=1&gdpr_consent=anyString", Type: usersync.SyncTypeImage},
				{URL: "anyImageUrl2?gdpr=1&gdpr_consent=anyString", Type: usersync.SyncTypeImage},
			},
		},
		{
			name:      "both",
			opts:      usersync.Options{IFrameEnabled: true, PixelEnabled: true},
			responses: responses,
			consent:   gdprConsent,
			expected: []usersync.Sync{
				{URL: "anyIframeUrl?a=1&gdpr=1&gdpr_consent=anyString", Type: usersync.SyncTypeIFrame},
				{URL: "anyImageUrl?gdpr=1&gdpr_consent=anyString", Type: usersync.SyncTypeImage},
				{URL: "anyImageUrl2?gdpr=1&gdpr_consent=anyString", Type: usersync.SyncTypeImage},
			},
		},
		{
			name:      "gdpr-not-applying",
			opts:      usersync.Options{PixelEnabled: true},
			responses: []*adapters.ResponseData{{StatusCode: 200, Body: []byte(`{"userSync":{"imageUrl":"single"}}`)}},
			consent:   usersync.Consent{Signal: "0"},
			expected:  []usersync.Sync{{URL: "single?gdpr=0", Type: usersync.SyncTypeImage}},
		},
		{
			name: "first-iframe-across-responses",
			opts: usersync.Options{IFrameEnabled: true},
			responses: []*adapters.ResponseData{
				{StatusCode: 200, Body: []byte(`{"userSync":{"iframeUrl":"first"}}`)},
				{StatusCode: 200, Body: []byte(`{"userSync":{"iframeUrl":["second"]}}`)},
			},
			expected: []usersync.Sync{{URL: "first", Type: usersync.SyncTypeIFrame}},
		},
		{
			name:      "disabled",
			responses: responses,
			expected:  []usersync.Sync{},
		},
		{
			name:      "passback",
			opts:      usersync.Options{IFrameEnabled: true, PixelEnabled: true},
			responses: []*adapters.ResponseData{{StatusCode: 200, Body: []byte(`{"reason":8002,"status":"error","msg":"passback"}`)}},
			expected:  []usersync.Sync{},
		},
		{
			name:      "nil-responses",
			opts:      usersync.Options{IFrameEnabled: true, PixelEnabled: true},
			responses: []*adapters.ResponseData{nil},
			expected:  []usersync.Sync{},
		},
		{
			name:     "no-responses",
			opts:     usersync.Options{IFrameEnabled: true},
			expected: []usersync.Sync{},
		},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			syncs := a.UserSyncs(test.opts, test.responses, test.consent)
			assert.NotNil(t, syncs)
			assert.Equal(t, test.expected, syncs)
		})
	}
}

func TestUserSyncsPassbackHasNoBids(t *testing.T) {
	resp, errs := makeBids(t, bannerImp("imp", `{"placement":"6682"}`), 200, `{"reason":8002,"status":"error","msg":"passback"}`)
	assert.Empty(t, errs)
	assert.Empty(t, resp.Bids)
}
