package openrtb_ext

import (
	"encoding/json"

	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

// ExtImpDspx defines the contract for bidrequest.imp[i].ext.prebid.bidder.dspx
type ExtImpDspx struct {
	Placement  jsonutil.IntString `json:"placement"`
	DevMode    bool               `json:"devMode,omitempty"`
	Dev        *ExtImpDspxDev     `json:"dev,omitempty"`
	PFilter    json.RawMessage    `json:"pfilter,omitempty"`
	BCat       string             `json:"bcat,omitempty"`
	DVT        string             `json:"dvt,omitempty"`
	VastFormat string             `json:"vastFormat,omitempty"`
}

// ExtImpDspxDev overrides endpoint and targeting while integrating against a dspx test stack.
type ExtImpDspxDev struct {
	Endpoint  string             `json:"endpoint,omitempty"`
	Placement jsonutil.IntString `json:"placement,omitempty"`
	PFilter   json.RawMessage    `json:"pfilter,omitempty"`
}
