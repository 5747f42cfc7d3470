package dspx

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/errortypes"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/privacy/ccpa"
	"github.com/dspxtv/prebid-dspx/privacy/gdpr"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
	"github.com/dspxtv/prebid-dspx/util/randomutil"
	"github.com/dspxtv/prebid-dspx/version"
)

const (
	defaultEndpoint    = "https://buyer.dspx.tv/request/"
	defaultDevEndpoint = "https://dcbuyer.dspx.tv/request/"

	floorCurrency = "EUR"

	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

type adapter struct {
	endpoint        string
	devEndpoint     string
	randomGenerator randomutil.RandomGenerator
}

type extraInfo struct {
	DevEndpoint string `json:"dev_endpoint,omitempty"`
}

// Builder builds a new instance of the dspx adapter for the given bidder with the given config.
func Builder(bidderName openrtb_ext.BidderName, cfg config.Adapter, server config.Server) (adapters.Bidder, error) {
	var info extraInfo
	if cfg.ExtraAdapterInfo != "" {
		if err := jsonutil.Unmarshal([]byte(cfg.ExtraAdapterInfo), &info); err != nil {
			return nil, fmt.Errorf("invalid extra info: %w", err)
		}
	}

	bidder := &adapter{
		endpoint:        cfg.Endpoint,
		devEndpoint:     info.DevEndpoint,
		randomGenerator: randomutil.RandomNumberGenerator{},
	}
	if bidder.endpoint == "" {
		bidder.endpoint = defaultEndpoint
	}
	if bidder.devEndpoint == "" {
		bidder.devEndpoint = defaultDevEndpoint
	}
	return bidder, nil
}

// MakeRequests builds one GET request per imp. An imp whose params cannot be read is
// skipped and reported; the remaining imps are still sent.
func (a *adapter) MakeRequests(request *openrtb2.BidRequest, reqInfo *adapters.ExtraRequestInfo) ([]*adapters.RequestData, []error) {
	var errs []error
	if reqInfo == nil {
		reqInfo = &adapters.ExtraRequestInfo{}
	}

	shared, sharedErrs := readRequestContext(request)
	errs = append(errs, sharedErrs...)

	requests := make([]*adapters.RequestData, 0, len(request.Imp))
	for i := range request.Imp {
		imp := &request.Imp[i]

		impExt, err := parseImpExt(imp)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		target, err := a.resolveTarget(imp, impExt)
		if err != nil {
			errs = append(errs, err)
		}

		q, impErrs := a.buildQuery(request, imp, impExt, target, shared, reqInfo)
		errs = append(errs, impErrs...)

		requests = append(requests, &adapters.RequestData{
			Method:  http.MethodGet,
			Uri:     appendQuery(target.endpoint, q.Encode()),
			Headers: requestHeaders(request.Device),
			ImpIDs:  []string{imp.ID},
		})
	}
	return requests, errs
}

// requestContext holds what every imp of a request shares.
type requestContext struct {
	gdpr      gdpr.Policy
	usPrivacy string
	schain    string
	eids      []openrtb2.EID
	topics    topics
	hasTopics bool
}

func readRequestContext(request *openrtb2.BidRequest) (requestContext, []error) {
	var errs []error
	ctx := requestContext{
		schain: serializeSupplyChain(supplyChain(request.Source)),
		eids:   userEIDs(request.User),
	}

	policy, err := gdpr.ReadPolicy(request)
	if err != nil {
		errs = append(errs, &errortypes.Warning{
			Message:     err.Error(),
			WarningCode: errortypes.InvalidPrivacyConsentWarningCode,
		})
	}
	ctx.gdpr = policy

	if ccpaPolicy, err := ccpa.ReadFromRequest(request); err != nil {
		errs = append(errs, &errortypes.Warning{
			Message:     err.Error(),
			WarningCode: errortypes.InvalidPrivacyConsentWarningCode,
		})
	} else {
		ctx.usPrivacy = ccpaPolicy.Consent
	}

	ctx.topics, ctx.hasTopics = googleTopics(request.User)
	return ctx, errs
}

func (a *adapter) buildQuery(request *openrtb2.BidRequest, imp *openrtb2.Imp, impExt *openrtb_ext.ExtImpDspx, target impTarget, shared requestContext, reqInfo *adapters.ExtraRequestInfo) (*queryBuilder, []error) {
	var errs []error
	q := newQueryBuilder()

	q.Set("_f", requestFormat(imp))
	q.Set("alternative", "prebid_js")
	q.Set("inventory_item_id", target.placement)
	if s, ok := primarySize(imp); ok {
		q.Set("srw", strconv.FormatInt(s.w, 10))
		q.Set("srh", strconv.FormatInt(s.h, 10))
	}
	q.Set("idt", "100")
	q.Set("bid_id", imp.ID)
	q.Set("pbver", version.OrUnknown())

	vpw, vph := viewport(request.Device)
	q.Set("vpw", strconv.FormatInt(vpw, 10))
	q.Set("vph", strconv.FormatInt(vph, 10))

	flattenObject("pfilter", target.pfilter, q.Set)
	if !q.Has("pfilter[floorprice]") {
		floor, err := floorPrice(imp, reqInfo)
		if err != nil {
			errs = append(errs, err)
		} else if floor > 0 {
			q.Set("pfilter[floorprice]", strconv.FormatFloat(floor, 'f', -1, 64))
		}
	}

	if shared.gdpr.Present() {
		if shared.gdpr.Consent != "" {
			q.Set("pfilter[gdpr_consent]", shared.gdpr.Consent)
		}
		if applies := shared.gdpr.AppliesString(); applies != "" {
			q.Set("pfilter[gdpr]", applies)
		}
	}
	if content := iabContent(request); content != "" {
		q.Set("pfilter[iab_content]", content)
	}

	if bcat := blockedCategories(request, impExt.BCat); bcat != "" {
		q.Set("bcat", bcat)
	}
	if pcat := pageCategories(request); pcat != "" {
		q.Set("pcat", pcat)
	}
	if dvt := deviceType(request.Device, impExt.DVT); dvt != "" {
		q.Set("dvt", dvt)
	}
	if target.devMode {
		q.Set("prebidDevMode", "1")
	}

	q.Set("pbcode", adUnitCode(imp))
	q.Set("auctionId", request.ID)
	if shared.schain != "" {
		q.Set("schain", shared.schain)
	}
	appendEIDs(q, shared.eids)

	if sizes := bannerSizes(imp.Banner); len(sizes) > 0 {
		q.Set("media_types[banner]", joinSizes(sizes))
	}
	if imp.Video != nil {
		if s, ok := videoSize(imp.Video); ok {
			q.Set("media_types[video]", s.String())
		}
		q.Set("vctx", videoContext(imp.Video))
		if impExt.VastFormat != "" && impExt.VastFormat != defaultVastFormat {
			q.Set("vf", impExt.VastFormat)
		}
		appendVideoPlayerParams(q, imp.Video)
	}

	if shared.hasTopics {
		q.Set("segtx", shared.topics.taxonomy)
		if shared.topics.class != "" {
			q.Set("segcl", shared.topics.class)
		}
		q.Set("segs", strings.Join(shared.topics.segments, ","))
	}
	if shared.usPrivacy != "" {
		q.Set("us_privacy", shared.usPrivacy)
	}

	q.Set("rnd", strconv.FormatInt(a.randomGenerator.GenerateInt63(), 10))
	q.Set("ref", referrer(request))
	return q, errs
}

// floorPrice converts the imp floor to EUR. Floors without a currency are USD, as in OpenRTB.
func floorPrice(imp *openrtb2.Imp, reqInfo *adapters.ExtraRequestInfo) (float64, error) {
	if imp.BidFloor <= 0 {
		return 0, nil
	}
	cur := imp.BidFloorCur
	if cur == "" {
		cur = "USD"
	}
	if strings.EqualFold(cur, floorCurrency) {
		return imp.BidFloor, nil
	}

	floor, err := reqInfo.ConvertCurrency(imp.BidFloor, cur, floorCurrency)
	if err != nil {
		return 0, &errortypes.Warning{
			Message:     fmt.Sprintf("imp id=%s: floor not sent, %s", imp.ID, err),
			WarningCode: errortypes.DisabledCurrencyConversionWarningCode,
		}
	}
	return floor, nil
}

func viewport(device *openrtb2.Device) (int64, int64) {
	w, h := int64(defaultViewportWidth), int64(defaultViewportHeight)
	if device != nil && device.W > 0 && device.H > 0 {
		w, h = device.W, device.H
	}
	return w, h
}

func adUnitCode(imp *openrtb2.Imp) string {
	if imp.TagID != "" {
		return imp.TagID
	}
	return imp.ID
}

func appendQuery(endpoint, query string) string {
	if strings.Contains(endpoint, "?") {
		return endpoint + "&" + query
	}
	return endpoint + "?" + query
}

func requestHeaders(device *openrtb2.Device) http.Header {
	headers := http.Header{}
	headers.Add("Accept", "application/json")
	if device == nil {
		return headers
	}
	if device.UA != "" {
		headers.Add("User-Agent", device.UA)
	}
	if device.IP != "" {
		headers.Add("X-Forwarded-For", device.IP)
	} else if device.IPv6 != "" {
		headers.Add("X-Forwarded-For", device.IPv6)
	}
	if device.Language != "" {
		headers.Add("Accept-Language", device.Language)
	}
	return headers
}
