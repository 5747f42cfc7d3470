package dspx

import (
	"encoding/json"
	"fmt"

	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/errortypes"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

// impTarget is where one imp is sent and with which placement and filter.
type impTarget struct {
	endpoint  string
	placement string
	pfilter   json.RawMessage
	devMode   bool
}

func parseImpExt(imp *openrtb2.Imp) (*openrtb_ext.ExtImpDspx, error) {
	var bidderExt adapters.ExtImpBidder
	if err := jsonutil.Unmarshal(imp.Ext, &bidderExt); err != nil {
		return nil, &errortypes.BadInput{
			Message: fmt.Sprintf("ignoring imp id=%s, error while decoding extImpBidder, err: %s", imp.ID, err),
		}
	}

	var impExt openrtb_ext.ExtImpDspx
	if err := jsonutil.Unmarshal(bidderExt.Bidder, &impExt); err != nil {
		return nil, &errortypes.BadInput{
			Message: fmt.Sprintf("ignoring imp id=%s, error while decoding impExt, err: %s", imp.ID, err),
		}
	}

	if impExt.Placement == "" {
		return nil, &errortypes.BadInput{
			Message: fmt.Sprintf("ignoring imp id=%s, placement is required", imp.ID),
		}
	}
	return &impExt, nil
}

// resolveTarget picks the endpoint for an imp. A dev endpoint that is not an absolute
// http(s) url is reported and the configured dev endpoint is used instead.
func (a *adapter) resolveTarget(imp *openrtb2.Imp, impExt *openrtb_ext.ExtImpDspx) (impTarget, error) {
	target := impTarget{
		endpoint:  a.endpoint,
		placement: string(impExt.Placement),
		pfilter:   impExt.PFilter,
		devMode:   impExt.DevMode,
	}
	if !impExt.DevMode {
		return target, nil
	}

	target.endpoint = a.devEndpoint

	dev := impExt.Dev
	if dev == nil {
		return target, nil
	}
	if dev.Placement != "" {
		target.placement = string(dev.Placement)
	}
	if len(dev.PFilter) > 0 {
		target.pfilter = dev.PFilter
	}

	if dev.Endpoint == "" {
		return target, nil
	}
	if !config.IsValidEndpoint(dev.Endpoint) {
		return target, &errortypes.Warning{
			Message:     fmt.Sprintf("imp id=%s: dev endpoint %q is not a valid url, using %s", imp.ID, dev.Endpoint, a.devEndpoint),
			WarningCode: errortypes.InvalidDevEndpointWarningCode,
		}
	}
	target.endpoint = dev.Endpoint
	return target, nil
}
