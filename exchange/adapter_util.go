package exchange

import (
	"fmt"
	"net/http"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/metrics"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
)

// BuildAdapters builds an executor for every enabled bidder. Endpoints from the app config
// win over the ones shipped in static/bidder-info.
func BuildAdapters(client *http.Client, cfg *config.Configuration, infos config.BidderInfos, me metrics.MetricsEngine) (map[openrtb_ext.BidderName]*adapters.HTTPBidder, []error) {
	server := config.Server{ExternalUrl: cfg.ExternalURL}
	bidders, errs := buildBidders(cfg.Adapters, infos, newAdapterBuilders(), server)
	if len(errs) > 0 {
		return nil, errs
	}

	httpBidders := make(map[openrtb_ext.BidderName]*adapters.HTTPBidder, len(bidders))
	for bidderName, bidder := range bidders {
		httpBidders[bidderName] = adapters.NewHTTPBidder(bidder, bidderName, client, me)
	}
	return httpBidders, nil
}

func buildBidders(adapterConfigs map[string]config.Adapter, infos config.BidderInfos, builders map[openrtb_ext.BidderName]adapters.Builder, server config.Server) (map[openrtb_ext.BidderName]adapters.Bidder, []error) {
	bidders := make(map[openrtb_ext.BidderName]adapters.Bidder)
	var errs []error

	for bidder, info := range infos {
		bidderName, bidderNameFound := openrtb_ext.GetBidderName(bidder)
		if !bidderNameFound {
			errs = append(errs, fmt.Errorf("%v: unknown bidder", bidder))
			continue
		}

		builder, builderFound := builders[bidderName]
		if !builderFound {
			errs = append(errs, fmt.Errorf("%v: builder not registered", bidder))
			continue
		}

		if !info.Enabled {
			continue
		}

		adapterInfo := info.ApplyDefaults(adapterConfigs[string(bidderName)])
		bidderInstance, builderErr := builder(bidderName, adapterInfo, server)
		if builderErr != nil {
			errs = append(errs, fmt.Errorf("%v: %v", bidder, builderErr))
			continue
		}
		bidders[bidderName] = bidderInstance
	}
	return bidders, errs
}
