package gdpr

import (
	"fmt"
	"strconv"

	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

// Signal values as carried in regs.gdpr.
const (
	SignalNo  = "0"
	SignalYes = "1"
)

// Policy represents the GDPR regulatory information from an OpenRTB bid request. The consent
// string is forwarded as-is; it is never decoded here.
type Policy struct {
	Signal  string
	Consent string
}

// ReadPolicy extracts the GDPR regulatory information from an OpenRTB bid request. OpenRTB 2.6
// locations win over the 2.5 extension locations. Malformed extensions are reported, and the
// fields that could be read are still returned.
func ReadPolicy(req *openrtb2.BidRequest) (Policy, error) {
	var policy Policy
	if req == nil {
		return policy, nil
	}

	var err error
	if req.Regs != nil {
		if req.Regs.GDPR != nil {
			policy.Signal = signalString(*req.Regs.GDPR)
		} else if len(req.Regs.Ext) > 0 {
			var extRegs openrtb_ext.ExtRegs
			if jsonErr := jsonutil.Unmarshal(req.Regs.Ext, &extRegs); jsonErr != nil {
				err = fmt.Errorf("error reading request.regs.ext: %s", jsonErr)
			} else if extRegs.GDPR != nil {
				policy.Signal = signalString(*extRegs.GDPR)
			}
		}
	}

	if req.User != nil {
		if req.User.Consent != "" {
			policy.Consent = req.User.Consent
		} else if len(req.User.Ext) > 0 {
			var extUser openrtb_ext.ExtUser
			if jsonErr := jsonutil.Unmarshal(req.User.Ext, &extUser); jsonErr != nil {
				if err == nil {
					err = fmt.Errorf("error reading request.user.ext: %s", jsonErr)
				}
			} else {
				policy.Consent = extUser.Consent
			}
		}
	}

	return policy, err
}

func signalString(v int8) string {
	switch v {
	case 0:
		return SignalNo
	case 1:
		return SignalYes
	}
	return ""
}

// Present reports whether the request carried any GDPR information at all.
func (p Policy) Present() bool {
	return p.Signal != "" || p.Consent != ""
}

// Applies returns the gdpr applies flag and whether it was known.
func (p Policy) Applies() (applies bool, known bool) {
	if p.Signal == "" {
		return false, false
	}
	return p.Signal == SignalYes, true
}

// AppliesString renders the applies flag the way dspx expects it inside pfilter.
func (p Policy) AppliesString() string {
	applies, known := p.Applies()
	if !known {
		return ""
	}
	return strconv.FormatBool(applies)
}
