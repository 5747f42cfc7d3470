package openrtb2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/currency"
	"github.com/dspxtv/prebid-dspx/errortypes"
	"github.com/dspxtv/prebid-dspx/metrics"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/privacy/gdpr"
	"github.com/dspxtv/prebid-dspx/usersync"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
	"github.com/dspxtv/prebid-dspx/util/uuidutil"
)

// Bidder is the part of the HTTP executor this endpoint relies on.
type Bidder interface {
	RequestBid(ctx context.Context, request *openrtb2.BidRequest, reqInfo *adapters.ExtraRequestInfo, opts adapters.BidOptions) (*adapters.SeatBid, []error)
}

// NewDspxEndpoint serves POST /openrtb2/dspx. The incoming OpenRTB request is handed to the dspx
// bidder and the seat it returns is written back as an OpenRTB response.
func NewDspxEndpoint(bidder Bidder, validator openrtb_ext.BidderParamValidator, cfg *config.Configuration, me metrics.MetricsEngine, conversions currency.Conversions) (httprouter.Handle, error) {
	if bidder == nil || validator == nil || cfg == nil || me == nil {
		return nil, errors.New("NewDspxEndpoint requires non-nil arguments.")
	}
	if conversions == nil {
		conversions = currency.NewConstantRates()
	}

	return httprouter.Handle((&endpointDeps{
		bidder:          bidder,
		bidderName:      openrtb_ext.BidderDspx,
		paramsValidator: validator,
		cfg:             cfg,
		metricsEngine:   me,
		conversions:     conversions,
		uuidGenerator:   uuidutil.UUIDRandomGenerator{},
	}).Auction), nil
}

type endpointDeps struct {
	bidder          Bidder
	bidderName      openrtb_ext.BidderName
	paramsValidator openrtb_ext.BidderParamValidator
	cfg             *config.Configuration
	metricsEngine   metrics.MetricsEngine
	conversions     currency.Conversions
	uuidGenerator   uuidutil.UUIDGenerator
}

func (deps *endpointDeps) Auction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	labels := metrics.Labels{
		RType:         metrics.ReqTypeORTB2Web,
		RequestStatus: metrics.RequestStatusOK,
	}
	defer func() {
		deps.metricsEngine.RecordRequest(labels)
		deps.metricsEngine.RecordRequestTime(labels, time.Since(start))
	}()

	req, errL := deps.parseRequest(r)
	if req != nil && req.App != nil {
		labels.RType = metrics.ReqTypeORTB2App
	}
	if len(errL) > 0 {
		labels.RequestStatus = metrics.RequestStatusBadInput
		w.WriteHeader(http.StatusBadRequest)
		for _, err := range errL {
			fmt.Fprintf(w, "Invalid request format: %s\n", err.Error())
		}
		return
	}

	for _, imp := range req.Imp {
		deps.metricsEngine.RecordImps(metrics.ImpLabels{
			BannerImps: imp.Banner != nil,
			VideoImps:  imp.Video != nil,
		})
	}

	timeout := deps.cfg.AuctionTimeouts.LimitAuctionTimeout(time.Duration(req.TMax) * time.Millisecond)
	ctx := context.Background()
	cancel := func() {}
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	debug := req.Test == 1
	reqInfo := adapters.NewExtraRequestInfo(deps.conversions)
	bidderStart := time.Now()
	seatBid, errs := deps.bidder.RequestBid(ctx, req, &reqInfo, adapters.BidOptions{
		Debug:       debug,
		SyncOptions: deps.syncOptions(),
		Consent:     readConsent(req),
	})

	response, err := deps.buildResponse(req, seatBid, errs, debug, time.Since(bidderStart), timeout)
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusErr
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Critical error while running the auction: %v", err)
		glog.Errorf("/openrtb2/dspx critical error: %v", err)
		return
	}

	responseBytes, err := jsonutil.Marshal(response)
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusErr
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Failed to marshal auction response: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(responseBytes)
}

// parseRequest turns the HTTP request into an OpenRTB request. If the errors list is empty, the
// returned request carries an id and at least one imp whose bidder params pass the JSON schema.
func (deps *endpointDeps) parseRequest(httpRequest *http.Request) (req *openrtb2.BidRequest, errs []error) {
	reader := io.Reader(httpRequest.Body)
	if deps.cfg.MaxRequestSize > 0 {
		reader = io.LimitReader(httpRequest.Body, deps.cfg.MaxRequestSize+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, []error{err}
	}
	if deps.cfg.MaxRequestSize > 0 && int64(len(body)) > deps.cfg.MaxRequestSize {
		return nil, []error{fmt.Errorf("request size exceeded max size of %d bytes.", deps.cfg.MaxRequestSize)}
	}

	req = &openrtb2.BidRequest{}
	if err := jsonutil.UnmarshalValid(body, req); err != nil {
		return nil, []error{err}
	}

	if req.ID == "" {
		id, err := deps.uuidGenerator.Generate()
		if err != nil {
			return req, []error{fmt.Errorf("request.id could not be generated: %v", err)}
		}
		req.ID = id
	}

	if err := deps.validateRequest(req); err != nil {
		return req, []error{err}
	}
	return req, nil
}

func (deps *endpointDeps) validateRequest(req *openrtb2.BidRequest) error {
	if req.TMax < 0 {
		return fmt.Errorf("request.tmax must be nonnegative. Got %d", req.TMax)
	}

	if req.Site != nil && req.App != nil {
		return errors.New("request.site or request.app must be defined, but not both.")
	}

	if len(req.Imp) < 1 {
		return errors.New("request.imp must contain at least one element.")
	}

	impIDs := make(map[string]int, len(req.Imp))
	for index := range req.Imp {
		imp := &req.Imp[index]
		if err := deps.validateImp(imp, index); err != nil {
			return err
		}

		if firstIndex, ok := impIDs[imp.ID]; ok {
			return fmt.Errorf("request.imp[%d].id and request.imp[%d].id are both %q. Imp IDs must be unique.", firstIndex, index, imp.ID)
		}
		impIDs[imp.ID] = index
	}
	return nil
}

func (deps *endpointDeps) validateImp(imp *openrtb2.Imp, index int) error {
	if imp.ID == "" {
		return fmt.Errorf("request.imp[%d] missing required field: \"id\"", index)
	}

	if imp.Banner == nil && imp.Video == nil {
		return fmt.Errorf("request.imp[%d] must contain at least one of \"banner\" or \"video\"", index)
	}

	if imp.Video != nil && len(imp.Video.MIMEs) < 1 {
		return fmt.Errorf("request.imp[%d].video.mimes must contain at least one supported MIME type", index)
	}

	return deps.validateImpExt(imp, index)
}

func (deps *endpointDeps) validateImpExt(imp *openrtb2.Imp, index int) error {
	if len(imp.Ext) == 0 {
		return fmt.Errorf("request.imp[%d].ext is required", index)
	}

	var impExt adapters.ExtImpBidder
	if err := jsonutil.Unmarshal(imp.Ext, &impExt); err != nil {
		return fmt.Errorf("request.imp[%d].ext is invalid: %v", index, err)
	}
	if len(impExt.Bidder) == 0 {
		return fmt.Errorf("request.imp[%d].ext.bidder is required", index)
	}

	if err := deps.paramsValidator.Validate(deps.bidderName, impExt.Bidder); err != nil {
		return fmt.Errorf("request.imp[%d].ext.bidder failed validation.\n%v", index, err)
	}
	return nil
}

func (deps *endpointDeps) syncOptions() usersync.Options {
	return usersync.Options{
		IFrameEnabled: deps.cfg.UserSync.IFrameEnabled,
		PixelEnabled:  deps.cfg.UserSync.PixelEnabled,
	}
}

// readConsent pulls the values appended to sync urls. A malformed regs.ext still yields whatever
// could be read; the bidder reports the problem itself.
func readConsent(req *openrtb2.BidRequest) usersync.Consent {
	policy, _ := gdpr.ReadPolicy(req)
	return usersync.Consent{
		Signal:  policy.Signal,
		Consent: policy.Consent,
	}
}

func (deps *endpointDeps) buildResponse(req *openrtb2.BidRequest, seatBid *adapters.SeatBid, errs []error, debug bool, elapsed, timeout time.Duration) (*openrtb2.BidResponse, error) {
	response := &openrtb2.BidResponse{
		ID: req.ID,
	}

	ext := openrtb_ext.ExtBidResponse{
		ResponseTimeMillis: map[openrtb_ext.BidderName]int{
			deps.bidderName: int(elapsed / time.Millisecond),
		},
		RequestTimeoutMillis: int64(timeout / time.Millisecond),
	}

	if fatal := errortypes.FatalOnly(errs); len(fatal) > 0 {
		ext.Errors = map[openrtb_ext.BidderName][]openrtb_ext.ExtBidderMessage{
			deps.bidderName: makeMessages(fatal),
		}
	}
	if warnings := errortypes.WarningOnly(errs); len(warnings) > 0 {
		ext.Warnings = map[openrtb_ext.BidderName][]openrtb_ext.ExtBidderMessage{
			deps.bidderName: makeMessages(warnings),
		}
	}

	if seatBid != nil {
		bids, err := makeBids(seatBid.Bids)
		if err != nil {
			return nil, err
		}
		if len(bids) > 0 {
			response.Cur = seatBid.Currency
			response.SeatBid = []openrtb2.SeatBid{{
				Seat: string(deps.bidderName),
				Bid:  bids,
			}}
		}

		if len(seatBid.Syncs) > 0 {
			ext.Usersync = map[openrtb_ext.BidderName]*openrtb_ext.ExtResponseSyncData{
				deps.bidderName: makeSyncData(seatBid.Syncs),
			}
		}

		if debug && len(seatBid.HttpCalls) > 0 {
			ext.Debug = &openrtb_ext.ExtResponseDebug{
				HttpCalls: map[openrtb_ext.BidderName][]*openrtb_ext.ExtHttpCall{
					deps.bidderName: seatBid.HttpCalls,
				},
			}
		}
	}

	if debug {
		resolved, err := jsonutil.Marshal(req)
		if err != nil {
			return nil, err
		}
		if ext.Debug == nil {
			ext.Debug = &openrtb_ext.ExtResponseDebug{}
		}
		ext.Debug.ResolvedRequest = resolved
	}

	extBytes, err := jsonutil.Marshal(ext)
	if err != nil {
		return nil, err
	}
	response.Ext = extBytes
	return response, nil
}

// makeBids moves what the bidder knows about each bid into bid.ext.prebid and keeps the bidder's
// own ext under bid.ext.bidder.
func makeBids(typedBids []*adapters.TypedBid) ([]openrtb2.Bid, error) {
	bids := make([]openrtb2.Bid, 0, len(typedBids))
	for _, typedBid := range typedBids {
		bid := *typedBid.Bid

		bidExt := openrtb_ext.ExtBid{
			Prebid: &openrtb_ext.ExtBidPrebid{
				Meta:  typedBid.BidMeta,
				Type:  typedBid.BidType,
				Video: typedBid.BidVideo,
			},
			Bidder: bid.Ext,
		}
		extBytes, err := jsonutil.Marshal(bidExt)
		if err != nil {
			return nil, err
		}
		bid.Ext = extBytes
		bids = append(bids, bid)
	}
	return bids, nil
}

func makeMessages(errs []error) []openrtb_ext.ExtBidderMessage {
	messages := make([]openrtb_ext.ExtBidderMessage, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, openrtb_ext.ExtBidderMessage{
			Code:    errortypes.ReadCode(err),
			Message: err.Error(),
		})
	}
	return messages
}

func makeSyncData(syncs []usersync.Sync) *openrtb_ext.ExtResponseSyncData {
	data := &openrtb_ext.ExtResponseSyncData{
		Syncs: make([]*openrtb_ext.ExtUserSync, 0, len(syncs)),
	}
	for _, sync := range syncs {
		data.Syncs = append(data.Syncs, &openrtb_ext.ExtUserSync{
			Url:  sync.URL,
			Type: string(sync.Type),
		})
	}
	return data
}
