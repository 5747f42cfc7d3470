package ccpa

import (
	"fmt"

	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

// Policy represents the CCPA regulatory information from an OpenRTB bid request.
type Policy struct {
	Consent string
}

// ReadFromRequest extracts the CCPA regulatory information from an OpenRTB bid request,
// preferring regs.us_privacy over the 2.5 regs.ext.us_privacy location.
func ReadFromRequest(req *openrtb2.BidRequest) (Policy, error) {
	if req == nil || req.Regs == nil {
		return Policy{}, nil
	}

	if req.Regs.USPrivacy != "" {
		return Policy{Consent: req.Regs.USPrivacy}, nil
	}

	if len(req.Regs.Ext) == 0 {
		return Policy{}, nil
	}

	var extRegs openrtb_ext.ExtRegs
	if err := jsonutil.Unmarshal(req.Regs.Ext, &extRegs); err != nil {
		return Policy{}, fmt.Errorf("error reading request.regs.ext: %s", err)
	}
	return Policy{Consent: extRegs.USPrivacy}, nil
}
