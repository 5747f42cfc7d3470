package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prebid/openrtb/v20/openrtb2"
	"golang.org/x/net/context/ctxhttp"

	"github.com/dspxtv/prebid-dspx/errortypes"
	"github.com/dspxtv/prebid-dspx/metrics"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/usersync"
)

// HTTPBidder runs a Bidder's requests over HTTP and gathers what comes back.
type HTTPBidder struct {
	Bidder     Bidder
	BidderName openrtb_ext.BidderName
	Client     *http.Client
	me         metrics.MetricsEngine
}

// BidOptions controls what the executor records beyond the bids themselves.
type BidOptions struct {
	// Debug captures every outbound call in SeatBid.HttpCalls.
	Debug       bool
	SyncOptions usersync.Options
	Consent     usersync.Consent
}

// SeatBid is everything a single bidder contributed to an auction.
type SeatBid struct {
	Bids     []*TypedBid
	Currency string
	// HttpCalls will become response.ext.debug.httpcalls.{bidder} on the final Response.
	HttpCalls []*openrtb_ext.ExtHttpCall
	Syncs     []usersync.Sync
}

// NewHTTPBidder wraps bidder so its requests are sent with client.
func NewHTTPBidder(bidder Bidder, name openrtb_ext.BidderName, client *http.Client, me metrics.MetricsEngine) *HTTPBidder {
	return &HTTPBidder{
		Bidder:     bidder,
		BidderName: name,
		Client:     client,
		me:         me,
	}
}

// RequestBid makes the bidder's requests in parallel and feeds every response to MakeBids. If
// the bidder also implements ResponseSyncer, the sync urls are collected once all responses
// are in.
//
// A SeatBid may come back together with errors. The errors describe why the seat is less than
// ideal: requests that could not be built, connection failures, timeouts or bad responses.
func (bidder *HTTPBidder) RequestBid(ctx context.Context, request *openrtb2.BidRequest, reqInfo *ExtraRequestInfo, opts BidOptions) (*SeatBid, []error) {
	start := time.Now()
	reqData, errs := bidder.Bidder.MakeRequests(request, reqInfo)

	if len(reqData) == 0 {
		// If the bidder failed to generate requests, there's nothing to send.
		if len(errs) == 0 {
			errs = append(errs, &errortypes.FailedToRequestBids{Message: "The adapter failed to generate any bid requests, but also failed to generate an error explaining why"})
		}
		bidder.recordAdapterRequest(nil, errs, time.Since(start))
		return nil, errs
	}

	// Make any HTTP requests in parallel.
	// If the bidder only needs to make one, save some cycles by just using the current one.
	responseChannel := make(chan *httpCallInfo, len(reqData))
	if len(reqData) == 1 {
		responseChannel <- bidder.doRequest(ctx, reqData[0])
	} else {
		for _, oneReqData := range reqData {
			go func(data *RequestData) {
				responseChannel <- bidder.doRequest(ctx, data)
			}(oneReqData) // Method arg avoids a race condition on oneReqData
		}
	}

	seatBid := &SeatBid{
		Bids:      make([]*TypedBid, 0, len(reqData)),
		Currency:  "USD",
		HttpCalls: make([]*openrtb_ext.ExtHttpCall, 0, len(reqData)),
	}
	responses := make([]*ResponseData, 0, len(reqData))

	// If the bidder made multiple requests, we still want them to enter as many bids as possible...
	// even if the timeout occurs sometime halfway through.
	for i := 0; i < len(reqData); i++ {
		httpInfo := <-responseChannel
		if opts.Debug {
			seatBid.HttpCalls = append(seatBid.HttpCalls, makeExt(httpInfo))
		}

		if httpInfo.err != nil {
			errs = append(errs, httpInfo.err)
			continue
		}

		responses = append(responses, httpInfo.response)
		bidResponse, moreErrs := bidder.Bidder.MakeBids(request, httpInfo.request, httpInfo.response)
		errs = append(errs, moreErrs...)
		if bidResponse == nil {
			continue
		}

		if bidResponse.Currency != "" {
			seatBid.Currency = bidResponse.Currency
		}
		for _, typedBid := range bidResponse.Bids {
			if typedBid == nil || typedBid.Bid == nil {
				continue
			}
			seatBid.Bids = append(seatBid.Bids, typedBid)
		}
	}

	if syncer, ok := bidder.Bidder.(ResponseSyncer); ok {
		seatBid.Syncs = syncer.UserSyncs(opts.SyncOptions, responses, opts.Consent)
		if bidder.me != nil && len(seatBid.Syncs) > 0 {
			bidder.me.RecordUserSyncs(bidder.BidderName, len(seatBid.Syncs))
		}
	}

	bidder.recordAdapterRequest(seatBid.Bids, errs, time.Since(start))
	return seatBid, errs
}

func (bidder *HTTPBidder) recordAdapterRequest(bids []*TypedBid, errs []error, elapsed time.Duration) {
	if bidder.me == nil {
		return
	}

	labels := metrics.AdapterLabels{
		Adapter:       bidder.BidderName,
		AdapterBids:   metrics.AdapterBidNone,
		AdapterErrors: make(map[metrics.AdapterError]struct{}),
	}
	if len(bids) > 0 {
		labels.AdapterBids = metrics.AdapterBidPresent
	}
	for _, err := range errortypes.FatalOnly(errs) {
		labels.AdapterErrors[adapterErrorFor(err)] = struct{}{}
	}

	bidder.me.RecordAdapterRequest(labels)
	bidder.me.RecordAdapterTime(labels, elapsed)
	for _, bid := range bids {
		bidder.me.RecordAdapterBidReceived(labels, bid.BidType, bid.Bid.AdM != "")
		bidder.me.RecordAdapterPrice(labels, bid.Bid.Price)
	}
}

func adapterErrorFor(err error) metrics.AdapterError {
	switch errortypes.ReadCode(err) {
	case errortypes.TimeoutErrorCode:
		return metrics.AdapterErrorTimeout
	case errortypes.BadInputErrorCode:
		return metrics.AdapterErrorBadInput
	case errortypes.BadServerResponseErrorCode:
		return metrics.AdapterErrorBadServerResponse
	case errortypes.FailedToRequestBidsErrorCode:
		return metrics.AdapterErrorFailedToRequestBids
	default:
		return metrics.AdapterErrorUnknown
	}
}

// makeExt transforms information about the HTTP call into the contract class for the auction response.
func makeExt(httpInfo *httpCallInfo) *openrtb_ext.ExtHttpCall {
	ext := &openrtb_ext.ExtHttpCall{}

	if httpInfo != nil && httpInfo.request != nil {
		ext.Uri = httpInfo.request.Uri
		ext.RequestBody = string(httpInfo.request.Body)
		ext.RequestHeaders = httpInfo.request.Headers

		if httpInfo.err == nil && httpInfo.response != nil {
			ext.ResponseBody = string(httpInfo.response.Body)
			ext.Status = httpInfo.response.StatusCode
		}
	}

	return ext
}

// doRequest makes a request, handles the response, and returns the data needed by the
// Bidder interface. Every HTTP status reaches MakeBids; only transport failures are errors here.
func (bidder *HTTPBidder) doRequest(ctx context.Context, req *RequestData) *httpCallInfo {
	httpReq, err := http.NewRequest(req.Method, req.Uri, bytes.NewBuffer(req.Body))
	if err != nil {
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}
	httpReq.Header = req.Headers

	httpResp, err := ctxhttp.Do(ctx, bidder.Client, httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &errortypes.Timeout{Message: err.Error()}
		} else {
			glog.Warningf("%s request to %s failed: %v", bidder.BidderName, req.Uri, err)
		}
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}

	return &httpCallInfo{
		request: req,
		response: &ResponseData{
			StatusCode: httpResp.StatusCode,
			Body:       respBody,
			Headers:    httpResp.Header,
		},
	}
}

type httpCallInfo struct {
	request  *RequestData
	response *ResponseData
	err      error
}
