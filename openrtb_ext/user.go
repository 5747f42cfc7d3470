package openrtb_ext

import (
	"github.com/prebid/openrtb/v20/openrtb2"
)

// ExtUser defines the contract for bidrequest.user.ext. OpenRTB 2.6 moved these fields to
// bidrequest.user, but 2.5 callers still send them here.
type ExtUser struct {
	// Consent is a GDPR consent string. See "Advised Extensions" of
	// https://iabtechlab.com/wp-content/uploads/2018/02/OpenRTB_Advisory_GDPR_2018-02.pdf
	Consent string `json:"consent,omitempty"`

	Eids []openrtb2.EID `json:"eids,omitempty"`
}
