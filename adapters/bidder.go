package adapters

import (
	"encoding/json"
	"net/http"

	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/currency"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/usersync"
)

// Bidder describes how to connect to external demand.
type Bidder interface {
	// MakeRequests makes the HTTP requests which should be made to fetch bids.
	//
	// Bidder implementations can assume that the incoming BidRequest has:
	//
	//   1. Only {Imp.Type, Platform} combinations which are valid, as defined by the static/bidder-info.{bidder}.yaml file.
	//   2. Imp.Ext of the form {"bidder": params}, where params has been validated against the static/bidder-params/{bidder}.json JSON Schema.
	//
	// nil return values are acceptable, but nil elements *inside* those slices are not.
	//
	// The errors should contain a list of errors which explain why this bidder's bids will be
	// "subpar" in some way. For example: the request contained ad types which this bidder doesn't support.
	//
	// If the error is caused by bad user input, return an errortypes.BadInput.
	MakeRequests(request *openrtb2.BidRequest, reqInfo *ExtraRequestInfo) ([]*RequestData, []error)

	// MakeBids unpacks the server's response into Bids.
	//
	// The internal request is the BidRequest the bidder received. The external request is the
	// RequestData this bidder built for it.
	//
	// The errors should contain a list of errors which explain why this bidder's bids will be
	// "subpar" in some way. For example: the server response didn't have the expected format.
	//
	// If the error was caused by bad user input, return a errortypes.BadInput.
	// If the error was caused by a bad server response, return a errortypes.BadServerResponse
	MakeBids(internalRequest *openrtb2.BidRequest, externalRequest *RequestData, response *ResponseData) (*BidderResponse, []error)
}

// ResponseSyncer is implemented by bidders whose responses carry user sync urls. It is called
// once, after every response of an auction has arrived.
type ResponseSyncer interface {
	UserSyncs(opts usersync.Options, responses []*ResponseData, consent usersync.Consent) []usersync.Sync
}

// Builder is a function which creates a Bidder from its name, its host config and the server settings.
type Builder func(openrtb_ext.BidderName, config.Adapter, config.Server) (Bidder, error)

// TypedBid packages the openrtb2.Bid with any bidder-specific information that the host needs to populate an
// openrtb_ext.ExtBidPrebid.
//
// TypedBid.Bid.Ext will become "response.seatbid[i].bid.ext.bidder" in the final OpenRTB response.
// TypedBid.BidMeta will become "response.seatbid[i].bid.ext.prebid.meta" in the final OpenRTB response.
// TypedBid.BidType will become "response.seatbid[i].bid.ext.prebid.type" in the final OpenRTB response.
// TypedBid.BidVideo will become "response.seatbid[i].bid.ext.prebid.video" in the final OpenRTB response.
type TypedBid struct {
	Bid      *openrtb2.Bid
	BidMeta  *openrtb_ext.ExtBidPrebidMeta
	BidType  openrtb_ext.BidType
	BidVideo *openrtb_ext.ExtBidPrebidVideo
}

// BidderResponse wraps the server's response with the list of bids and the currency used by the bidder.
//
// Currency declaration is not mandatory but helps to detect an eventual currency mismatch issue.
// From the bid response, the bidder accepts a list of valid currencies for the bid.
// The currency is the same across all bids.
type BidderResponse struct {
	Currency string
	Bids     []*TypedBid
}

// NewBidderResponseWithBidsCapacity create a new BidderResponse initialising the bids array capacity and the default currency value
// to "USD".
//
// bidsCapacity allows to set initial Bids array capacity.
// By default, currency is USD but this behavior might be subject to change.
func NewBidderResponseWithBidsCapacity(bidsCapacity int) *BidderResponse {
	return &BidderResponse{
		Currency: "USD",
		Bids:     make([]*TypedBid, 0, bidsCapacity),
	}
}

// NewBidderResponse create a new BidderResponse initialising the bids array and the default currency value
// to "USD".
//
// By default, Bids capacity will be set to 0.
// By default, currency is USD but this behavior might be subject to change.
func NewBidderResponse() *BidderResponse {
	return NewBidderResponseWithBidsCapacity(0)
}

// ResponseData packages together information from the server's http.Response.
//
// This exists so that the host can implement its "debug" functionality
// uniformly across all Bidders.
type ResponseData struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// RequestData packages together the fields needed to make an http.Request.
type RequestData struct {
	Method  string
	Uri     string
	Body    []byte
	Headers http.Header
	ImpIDs  []string
}

// ExtImpBidder can be used by Bidders to unmarshal any request.imp[i].ext.
type ExtImpBidder struct {
	Prebid json.RawMessage `json:"prebid,omitempty"`

	// Bidder contains the bidder specific extension.
	// Bidders should unmarshal this using their corresponding openrtb_ext.ExtImp{Bidder} struct.
	Bidder json.RawMessage `json:"bidder"`
}

// ExtraRequestInfo carries the auction context a bidder may need beyond the BidRequest itself.
type ExtraRequestInfo struct {
	CurrencyConversions currency.Conversions
}

func NewExtraRequestInfo(c currency.Conversions) ExtraRequestInfo {
	return ExtraRequestInfo{
		CurrencyConversions: c,
	}
}

// ConvertCurrency converts a given amount from one currency to another, or returns:
//   - Error if the 'from' or 'to' arguments are malformed or unknown ISO-4217 codes.
//   - ConversionNotFoundError if the conversion mapping is unknown to the server
//     and not provided in the bid request.
func (r ExtraRequestInfo) ConvertCurrency(value float64, from, to string) (float64, error) {
	conversions := r.CurrencyConversions
	if conversions == nil {
		conversions = currency.NewConstantRates()
	}
	if rate, err := conversions.GetRate(from, to); err == nil {
		return value * rate, nil
	} else {
		return 0, err
	}
}
