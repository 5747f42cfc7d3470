package exchange

import (
	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/adapters/dspx"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
)

// newAdapterBuilders returns the builders of every bidder compiled into this server.
func newAdapterBuilders() map[openrtb_ext.BidderName]adapters.Builder {
	return map[openrtb_ext.BidderName]adapters.Builder{
		openrtb_ext.BidderDspx: dspx.Builder,
	}
}
