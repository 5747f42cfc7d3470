package gdpr

import (
	"encoding/json"
	"testing"

	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
)

func int8Ptr(v int8) *int8 {
	return &v
}

func TestReadPolicy(t *testing.T) {
	testCases := []struct {
		description   string
		request       *openrtb2.BidRequest
		expected      Policy
		expectedError bool
	}{
		{
			description: "Nil Request",
			request:     nil,
			expected:    Policy{},
		},
		{
			description: "Empty Request",
			request:     &openrtb2.BidRequest{},
			expected:    Policy{},
		},
		{
			description: "OpenRTB 2.6 Locations",
			request: &openrtb2.BidRequest{
				Regs: &openrtb2.Regs{GDPR: int8Ptr(1)},
				User: &openrtb2.User{Consent: "BOJ/P2HOJ/P2HABABMAAAAAZ+A=="},
			},
			expected: Policy{Signal: "1", Consent: "BOJ/P2HOJ/P2HABABMAAAAAZ+A=="},
		},
		{
			description: "OpenRTB 2.5 Extension Locations",
			request: &openrtb2.BidRequest{
				Regs: &openrtb2.Regs{Ext: json.RawMessage(`{"gdpr":0}`)},
				User: &openrtb2.User{Ext: json.RawMessage(`{"consent":"anyConsent"}`)},
			},
			expected: Policy{Signal: "0", Consent: "anyConsent"},
		},
		{
			description: "2.6 Wins Over 2.5",
			request: &openrtb2.BidRequest{
				Regs: &openrtb2.Regs{GDPR: int8Ptr(0), Ext: json.RawMessage(`{"gdpr":1}`)},
				User: &openrtb2.User{Consent: "new", Ext: json.RawMessage(`{"consent":"old"}`)},
			},
			expected: Policy{Signal: "0", Consent: "new"},
		},
		{
			description: "Out Of Range Signal",
			request: &openrtb2.BidRequest{
				Regs: &openrtb2.Regs{GDPR: int8Ptr(7)},
			},
			expected: Policy{},
		},
		{
			description: "Malformed Regs Ext Keeps Consent",
			request: &openrtb2.BidRequest{
				Regs: &openrtb2.Regs{Ext: json.RawMessage(`malformed`)},
				User: &openrtb2.User{Consent: "anyConsent"},
			},
			expected:      Policy{Consent: "anyConsent"},
			expectedError: true,
		},
		{
			description: "Malformed User Ext",
			request: &openrtb2.BidRequest{
				User: &openrtb2.User{Ext: json.RawMessage(`{"consent":1}`)},
			},
			expected:      Policy{},
			expectedError: true,
		},
	}

	for _, test := range testCases {
		t.Run(test.description, func(t *testing.T) {
			policy, err := ReadPolicy(test.request)
			assert.Equal(t, test.expected, policy)
			if test.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyApplies(t *testing.T) {
	applies, known := Policy{}.Applies()
	assert.False(t, applies)
	assert.False(t, known)
	assert.Equal(t, "", Policy{}.AppliesString())
	assert.False(t, Policy{}.Present())

	applies, known = Policy{Signal: SignalYes}.Applies()
	assert.True(t, applies)
	assert.True(t, known)
	assert.Equal(t, "true", Policy{Signal: SignalYes}.AppliesString())
	assert.Equal(t, "false", Policy{Signal: SignalNo}.AppliesString())
	assert.True(t, Policy{Consent: "c"}.Present())
}
