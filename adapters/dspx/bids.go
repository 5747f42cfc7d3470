package dspx

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/errortypes"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
)

const rendererName = "dspx"

// MakeBids turns one dspx answer into at most one bid. Passbacks are not errors.
func (a *adapter) MakeBids(internalRequest *openrtb2.BidRequest, externalRequest *adapters.RequestData, response *adapters.ResponseData) (*adapters.BidderResponse, []error) {
	if adapters.IsResponseStatusCodeNoContent(response) {
		return nil, nil
	}
	if err := adapters.CheckResponseStatusCodeForErrors(response); err != nil {
		return nil, []error{err}
	}

	resp, warnings, err := decodeResponse(response.Body)
	if err != nil {
		return nil, []error{&errortypes.BadServerResponse{
			Message: fmt.Sprintf("error while decoding response, err: %s", err),
		}}
	}

	if resp.kind == passback {
		bidResponse := adapters.NewBidderResponse()
		bidResponse.Currency = defaultCurrency
		return bidResponse, nil
	}

	imp := originatingImp(internalRequest, externalRequest)
	impID := ""
	if imp != nil {
		impID = imp.ID
	}

	bid := &openrtb2.Bid{
		ID:      resp.requestID,
		ImpID:   impID,
		Price:   resp.cpm / cpmDivisor,
		W:       resp.width,
		H:       resp.height,
		CrID:    resp.crid,
		DealID:  "",
		Exp:     resp.ttl,
		ADomain: resp.adomain,
	}
	if bid.ID == "" {
		bid.ID = impID
	}

	bidType := openrtb_ext.BidTypeBanner
	switch resp.kind {
	case vastInlineCreative:
		bid.AdM = resp.adm
		bidType = openrtb_ext.BidTypeVideo
	case vastURLCreative:
		bid.NURL = resp.vastURL
		bidType = openrtb_ext.BidTypeVideo
	default:
		bid.AdM = resp.adm
	}

	meta := &openrtb_ext.ExtBidPrebidMeta{
		AdvertiserDomains: resp.adomain,
		MediaType:         string(bidType),
	}

	outstream := bidType == openrtb_ext.BidTypeVideo && isOutstream(imp)
	if outstream {
		meta.RendererName = rendererName
	}

	ext, err := buildBidExt(resp, outstream)
	if err != nil {
		return nil, []error{&errortypes.BadServerResponse{
			Message: fmt.Sprintf("error while encoding bid ext, err: %s", err),
		}}
	}
	bid.Ext = ext

	bidResponse := adapters.NewBidderResponseWithBidsCapacity(1)
	bidResponse.Currency = resp.currency
	bidResponse.Bids = append(bidResponse.Bids, &adapters.TypedBid{
		Bid:     bid,
		BidMeta: meta,
		BidType: bidType,
	})

	var errs []error
	for _, warning := range warnings {
		errs = append(errs, &errortypes.Warning{
			Message:     fmt.Sprintf("bid id=%s: %s", bid.ID, warning),
			WarningCode: errortypes.InvalidResponseFieldWarningCode,
		})
	}
	return bidResponse, errs
}

// originatingImp resolves the imp the request was built for.
func originatingImp(internalRequest *openrtb2.BidRequest, externalRequest *adapters.RequestData) *openrtb2.Imp {
	if internalRequest == nil || externalRequest == nil || len(externalRequest.ImpIDs) == 0 {
		return nil
	}
	for i := range internalRequest.Imp {
		if internalRequest.Imp[i].ID == externalRequest.ImpIDs[0] {
			return &internalRequest.Imp[i]
		}
	}
	return nil
}

// buildBidExt merges the documented fields over the appendix, so the appendix can never
// override them.
func buildBidExt(resp *dspxResponse, outstream bool) (json.RawMessage, error) {
	appendix := make(map[string]json.RawMessage, len(resp.appendix))
	for _, field := range resp.appendix {
		appendix[field.key] = field.value
	}
	appendixJSON, err := json.Marshal(appendix)
	if err != nil {
		return nil, err
	}

	ext := make(map[string]interface{}, 5)
	ext["netRevenue"] = resp.netRevenue
	for key, value := range map[string]string{
		"zone":          resp.zone,
		"type":          resp.adType,
		"videoCacheKey": resp.videoCacheKey,
	} {
		if value != "" {
			ext[key] = value
		}
	}
	if outstream {
		ext["renderer"] = struct{}{}
	}
	extJSON, err := json.Marshal(ext)
	if err != nil {
		return nil, err
	}

	return jsonpatch.MergePatch(appendixJSON, extJSON)
}
