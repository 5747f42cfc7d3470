package dspx

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/prebid/openrtb/v20/adcom1"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspxtv/prebid-dspx/adapters"
	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/currency"
	"github.com/dspxtv/prebid-dspx/errortypes"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/util/ptrutil"
	"github.com/dspxtv/prebid-dspx/util/randomutil"
	"github.com/dspxtv/prebid-dspx/version"
)

const (
	testEndpoint    = "https://buyer.dspx.tv/request/"
	testDevEndpoint = "https://dcbuyer.dspx.tv/request/"
	testConsent     = "BOJ/P2HOJ/P2HABABMAAAAAZ+A=="
)

func newTestAdapter(t *testing.T) *adapter {
	t.Helper()
	bidder, err := Builder(openrtb_ext.BidderDspx, config.Adapter{
		Endpoint:         testEndpoint,
		ExtraAdapterInfo: `{"dev_endpoint":"` + testDevEndpoint + `"}`,
	}, config.Server{ExternalUrl: "http://hosturl.com", GvlID: 1, DataCenter: "2"})
	require.NoError(t, err, "Builder returned unexpected error")

	a := bidder.(*adapter)
	a.randomGenerator = randomutil.FixedGenerator{Value: 42}
	return a
}

func bidderExt(params string) json.RawMessage {
	return json.RawMessage(`{"bidder":` + params + `}`)
}

func bannerImp(id, params string) openrtb2.Imp {
	return openrtb2.Imp{
		ID:     id,
		TagID:  "testDiv1",
		Banner: &openrtb2.Banner{Format: []openrtb2.Format{{W: 300, H: 250}}},
		Ext:    bidderExt(params),
	}
}

func videoImp(id, params string, plcmt adcom1.VideoPlcmtSubtype) openrtb2.Imp {
	return openrtb2.Imp{
		ID: id,
		Video: &openrtb2.Video{
			W:         ptrutil.ToPtr[int64](640),
			H:         ptrutil.ToPtr[int64](480),
			MIMEs:     []string{"video/mp4"},
			Protocols: []adcom1.MediaCreativeSubtype{2, 3},
			Plcmt:     plcmt,
		},
		Ext: bidderExt(params),
	}
}

// queryOf returns the encoded query of a built request.
func queryOf(t *testing.T, req *adapters.RequestData) string {
	t.Helper()
	parts := strings.SplitN(req.Uri, "?", 2)
	require.Len(t, parts, 2, "uri has no query: %s", req.Uri)
	return parts[1]
}

func TestBuilder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		bidder, err := Builder(openrtb_ext.BidderDspx, config.Adapter{}, config.Server{})
		require.NoError(t, err)
		a := bidder.(*adapter)
		assert.Equal(t, defaultEndpoint, a.endpoint)
		assert.Equal(t, defaultDevEndpoint, a.devEndpoint)
	})

	t.Run("configured", func(t *testing.T) {
		bidder, err := Builder(openrtb_ext.BidderDspx, config.Adapter{
			Endpoint:         "https://eu.buyer.dspx.tv/request/",
			ExtraAdapterInfo: `{"dev_endpoint":"https://dev.dspx.tv/request/"}`,
		}, config.Server{})
		require.NoError(t, err)
		a := bidder.(*adapter)
		assert.Equal(t, "https://eu.buyer.dspx.tv/request/", a.endpoint)
		assert.Equal(t, "https://dev.dspx.tv/request/", a.devEndpoint)
	})

	t.Run("invalid-extra-info", func(t *testing.T) {
		_, err := Builder(openrtb_ext.BidderDspx, config.Adapter{ExtraAdapterInfo: `{"dev_endpoint":`}, config.Server{})
		assert.Error(t, err)
	})
}

func TestMakeRequestsBanner(t *testing.T) {
	a := newTestAdapter(t)
	request := &openrtb2.BidRequest{
		ID: "1d1a030790a475",
		Imp: []openrtb2.Imp{{
			ID:    "30b31c1838de1e",
			TagID: "testDiv1",
			Banner: &openrtb2.Banner{Format: []openrtb2.Format{
				{W: 300, H: 250},
				{W: 300, H: 600},
			}},
			Ext: bidderExt(`{"placement":"6682","pfilter":{"floorprice":1000000,"private_auction":0,"geo":{"country":"DE"}},"bcat":"IAB2,IAB4","dvt":"desktop"}`),
		}},
		Site: &openrtb2.Site{Page: "some_referrer.net"},
		Regs: &openrtb2.Regs{GDPR: ptrutil.ToPtr[int8](1)},
		User: &openrtb2.User{Consent: testConsent},
	}

	reqs, errs := a.MakeRequests(request, &adapters.ExtraRequestInfo{})
	require.Empty(t, errs)
	require.Len(t, reqs, 1)

	expected := testEndpoint + "?_f=banner&alternative=prebid_js&inventory_item_id=6682&srw=300&srh=250&idt=100" +
		"&bid_id=30b31c1838de1e&pbver=" + version.OrUnknown() + "&vpw=1280&vph=720" +
		"&pfilter%5Bfloorprice%5D=1000000&pfilter%5Bprivate_auction%5D=0&pfilter%5Bgeo%5D%5Bcountry%5D=DE" +
		"&pfilter%5Bgdpr_consent%5D=BOJ%2FP2HOJ%2FP2HABABMAAAAAZ%2BA%3D%3D&pfilter%5Bgdpr%5D=true" +
		"&bcat=IAB2%2CIAB4&dvt=desktop&pbcode=testDiv1&auctionId=1d1a030790a475" +
		"&media_types%5Bbanner%5D=300x250%2C300x600&rnd=42&ref=some_referrer.net"

	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, expected, reqs[0].Uri)
	assert.Equal(t, []string{"30b31c1838de1e"}, reqs[0].ImpIDs)
	assert.Nil(t, reqs[0].Body)
}

func TestMakeRequestsVideo(t *testing.T) {
	a := newTestAdapter(t)
	request := &openrtb2.BidRequest{
		ID:  "1d1a030790a478",
		Imp: []openrtb2.Imp{videoImp("30b31c1838de1e4", `{"placement":"101","devMode":true,"vastFormat":"vast4"}`, adcom1.VideoPlcmtInstream)},
	}

	reqs, errs := a.MakeRequests(request, &adapters.ExtraRequestInfo{})
	require.Empty(t, errs)
	require.Len(t, reqs, 1)

	expected := testDevEndpoint + "?_f=video&alternative=prebid_js&inventory_item_id=101&srw=640&srh=480&idt=100" +
		"&bid_id=30b31c1838de1e4&pbver=" + version.OrUnknown() + "&vpw=1280&vph=720" +
		"&prebidDevMode=1&pbcode=30b31c1838de1e4&auctionId=1d1a030790a478" +
		"&media_types%5Bvideo%5D=640x480&vctx=instream&vf=vast4" +
		"&vpl%5Bmimes%5D%5B0%5D=video%2Fmp4&vpl%5Bprotocols%5D%5B0%5D=2&vpl%5Bprotocols%5D%5B1%5D=3&vpl%5Bplcmt%5D=1" +
		"&rnd=42&ref="
	assert.Equal(t, expected, reqs[0].Uri)
}

func TestMakeRequestsVideoContext(t *testing.T) {
	tests := []struct {
		name     string
		video    *openrtb2.Video
		expected string
	}{
		{name: "plcmt-instream", video: &openrtb2.Video{Plcmt: adcom1.VideoPlcmtInstream}, expected: "vctx=instream"},
		{name: "plcmt-outstream", video: &openrtb2.Video{Plcmt: adcom1.VideoPlcmtAccompanyingContent}, expected: "vctx=outstream"},
		{name: "placement-instream", video: &openrtb2.Video{Placement: 1}, expected: "vctx=instream"},
		{name: "placement-outstream", video: &openrtb2.Video{Placement: 3}, expected: "vctx=outstream"},
		{name: "undeclared", video: &openrtb2.Video{}, expected: "vctx=instream"},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := &openrtb2.BidRequest{
				ID:  "auction",
				Imp: []openrtb2.Imp{{ID: "imp", Video: test.video, Ext: bidderExt(`{"placement":"101"}`)}},
			}
			reqs, errs := a.MakeRequests(request, nil)
			require.Empty(t, errs)
			require.Len(t, reqs, 1)
			assert.Contains(t, queryOf(t, reqs[0]), test.expected)
		})
	}
}

func TestMakeRequestsFormat(t *testing.T) {
	banner := &openrtb2.Banner{Format: []openrtb2.Format{{W: 300, H: 250}}}
	sizedVideo := &openrtb2.Video{W: ptrutil.ToPtr[int64](640), H: ptrutil.ToPtr[int64](480)}

	tests := []struct {
		name       string
		imp        openrtb2.Imp
		expected   string
		expectSize string
	}{
		{
			name:       "banner",
			imp:        openrtb2.Imp{Banner: banner},
			expected:   "_f=banner",
			expectSize: "srw=300&srh=250",
		},
		{
			name:       "banner-without-format",
			imp:        openrtb2.Imp{Banner: &openrtb2.Banner{W: ptrutil.ToPtr[int64](728), H: ptrutil.ToPtr[int64](90)}},
			expected:   "_f=banner",
			expectSize: "srw=728&srh=90",
		},
		{
			name:       "video-with-size",
			imp:        openrtb2.Imp{Video: sizedVideo},
			expected:   "_f=video",
			expectSize: "srw=640&srh=480",
		},
		{
			name:     "video-without-size",
			imp:      openrtb2.Imp{Video: &openrtb2.Video{}},
			expected: "_f=auto",
		},
		{
			name:       "banner-and-video",
			imp:        openrtb2.Imp{Banner: banner, Video: sizedVideo},
			expected:   "_f=auto",
			expectSize: "srw=640&srh=480",
		},
		{
			name:     "nothing-declared",
			imp:      openrtb2.Imp{Native: &openrtb2.Native{Request: "{}"}},
			expected: "_f=auto",
		},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			imp := test.imp
			imp.ID = "imp"
			imp.Ext = bidderExt(`{"placement":"6682"}`)

			reqs, errs := a.MakeRequests(&openrtb2.BidRequest{ID: "auction", Imp: []openrtb2.Imp{imp}}, nil)
			require.Empty(t, errs)
			require.Len(t, reqs, 1)

			query := queryOf(t, reqs[0])
			assert.True(t, strings.HasPrefix(query, test.expected+"&"), query)
			if test.expectSize != "" {
				assert.Contains(t, query, test.expectSize)
			} else {
				assert.NotContains(t, query, "srw=")
			}
		})
	}
}

func TestMakeRequestsDevOverrides(t *testing.T) {
	a := newTestAdapter(t)

	t.Run("valid-endpoint", func(t *testing.T) {
		request := &openrtb2.BidRequest{
			ID:  "auction",
			Imp: []openrtb2.Imp{bannerImp("imp", `{"placement":"101","devMode":true,"dev":{"endpoint":"http://localhost","placement":"107","pfilter":{"test":1}}}`)},
		}
		reqs, errs := a.MakeRequests(request, nil)
		require.Empty(t, errs)
		require.Len(t, reqs, 1)

		assert.True(t, strings.HasPrefix(reqs[0].Uri, "http://localhost?"), reqs[0].Uri)
		assert.Contains(t, reqs[0].Uri, "inventory_item_id=107")
		assert.Contains(t, reqs[0].Uri, "pfilter%5Btest%5D=1")
		assert.Contains(t, reqs[0].Uri, "prebidDevMode=1")
	})

	t.Run("invalid-endpoint", func(t *testing.T) {
		request := &openrtb2.BidRequest{
			ID:  "auction",
			Imp: []openrtb2.Imp{bannerImp("imp", `{"placement":"101","devMode":true,"dev":{"endpoint":"not a url"}}`)},
		}
		reqs, errs := a.MakeRequests(request, nil)
		require.Len(t, reqs, 1)
		require.Len(t, errs, 1)

		assert.True(t, strings.HasPrefix(reqs[0].Uri, testDevEndpoint+"?"), reqs[0].Uri)
		assert.Equal(t, errortypes.InvalidDevEndpointWarningCode, errortypes.ReadCode(errs[0]))
		assert.True(t, errortypes.IsWarning(errs[0]))
	})

	t.Run("overrides-ignored-without-dev-mode", func(t *testing.T) {
		request := &openrtb2.BidRequest{
			ID:  "auction",
			Imp: []openrtb2.Imp{bannerImp("imp", `{"placement":"101","dev":{"endpoint":"http://localhost","placement":"107"}}`)},
		}
		reqs, errs := a.MakeRequests(request, nil)
		require.Empty(t, errs)
		require.Len(t, reqs, 1)

		assert.True(t, strings.HasPrefix(reqs[0].Uri, testEndpoint+"?"), reqs[0].Uri)
		assert.Contains(t, reqs[0].Uri, "inventory_item_id=101")
		assert.NotContains(t, reqs[0].Uri, "prebidDevMode")
	})
}

func TestMakeRequestsInvalidImpIsSkipped(t *testing.T) {
	a := newTestAdapter(t)
	request := &openrtb2.BidRequest{
		ID: "auction",
		Imp: []openrtb2.Imp{
			{ID: "broken", Banner: &openrtb2.Banner{}, Ext: json.RawMessage(`{"bidder":"not-an-object"}`)},
			{ID: "no-placement", Banner: &openrtb2.Banner{}, Ext: bidderExt(`{"bcat":"IAB1"}`)},
			bannerImp("ok", `{"placement":6682}`),
		},
	}

	reqs, errs := a.MakeRequests(request, nil)
	require.Len(t, reqs, 1)
	require.Len(t, errs, 2)

	assert.IsType(t, &errortypes.BadInput{}, errs[0])
	assert.IsType(t, &errortypes.BadInput{}, errs[1])
	assert.Equal(t, []string{"ok"}, reqs[0].ImpIDs)
	assert.Contains(t, reqs[0].Uri, "inventory_item_id=6682")
}

func TestMakeRequestsOnePerImp(t *testing.T) {
	a := newTestAdapter(t)
	request := &openrtb2.BidRequest{
		ID: "auction",
		Imp: []openrtb2.Imp{
			bannerImp("first", `{"placement":"1"}`),
			videoImp("second", `{"placement":"2"}`, adcom1.VideoPlcmtInstream),
		},
	}

	reqs, errs := a.MakeRequests(request, nil)
	require.Empty(t, errs)
	require.Len(t, reqs, 2)
	assert.Equal(t, []string{"first"}, reqs[0].ImpIDs)
	assert.Equal(t, []string{"second"}, reqs[1].ImpIDs)
	assert.Contains(t, reqs[0].Uri, "bid_id=first")
	assert.Contains(t, reqs[1].Uri, "bid_id=second")
}

func TestMakeRequestsFloor(t *testing.T) {
	tests := []struct {
		name          string
		params        string
		bidFloor      float64
		bidFloorCur   string
		rates         map[string]map[string]float64
		expected      string
		expectWarning bool
		expectNoFloor bool
	}{
		{
			name:        "euro-floor",
			params:      `{"placement":"6682"}`,
			bidFloor:    0.5,
			bidFloorCur: "EUR",
			expected:    "floorprice%5D=0.5",
		},
		{
			name:        "converted-floor",
			params:      `{"placement":"6682"}`,
			bidFloor:    10,
			bidFloorCur: "USD",
			rates:       map[string]map[string]float64{"USD": {"EUR": 0.5}},
			expected:    "floorprice%5D=5",
		},
		{
			name:        "params-floor-wins",
			params:      `{"placement":"6682","pfilter":{"floorprice":0.35}}`,
			bidFloor:    5,
			bidFloorCur: "EUR",
			expected:    "floorprice%5D=0.35",
		},
		{
			name:          "conversion-unavailable",
			params:        `{"placement":"6682"}`,
			bidFloor:      1,
			bidFloorCur:   "GBP",
			expectWarning: true,
			expectNoFloor: true,
		},
		{
			name:          "no-floor",
			params:        `{"placement":"6682"}`,
			expectNoFloor: true,
		},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			imp := bannerImp("imp", test.params)
			imp.BidFloor = test.bidFloor
			imp.BidFloorCur = test.bidFloorCur

			reqInfo := adapters.NewExtraRequestInfo(currency.NewConversions(test.rates))
			reqs, errs := a.MakeRequests(&openrtb2.BidRequest{ID: "auction", Imp: []openrtb2.Imp{imp}}, &reqInfo)
			require.Len(t, reqs, 1)

			if test.expectWarning {
				require.Len(t, errs, 1)
				assert.Equal(t, errortypes.DisabledCurrencyConversionWarningCode, errortypes.ReadCode(errs[0]))
			} else {
				assert.Empty(t, errs)
			}

			if test.expectNoFloor {
				assert.NotContains(t, reqs[0].Uri, "floorprice")
			} else {
				assert.Contains(t, reqs[0].Uri, test.expected)
				assert.Equal(t, 1, strings.Count(reqs[0].Uri, "floorprice"))
			}
		})
	}
}

func TestMakeRequestsConsent(t *testing.T) {
	tests := []struct {
		name        string
		regs        *openrtb2.Regs
		user        *openrtb2.User
		contains    []string
		notContains []string
		expectErrs  int
	}{
		{
			name:        "absent",
			notContains: []string{"gdpr", "us_privacy"},
		},
		{
			name:        "regs-without-gdpr",
			regs:        &openrtb2.Regs{COPPA: 1},
			user:        &openrtb2.User{ID: "u"},
			notContains: []string{"gdpr"},
		},
		{
			name:        "signal-without-consent",
			regs:        &openrtb2.Regs{GDPR: ptrutil.ToPtr[int8](0)},
			contains:    []string{"pfilter%5Bgdpr%5D=false"},
			notContains: []string{"gdpr_consent"},
		},
		{
			name:        "consent-without-signal",
			user:        &openrtb2.User{Consent: "anyString"},
			contains:    []string{"pfilter%5Bgdpr_consent%5D=anyString"},
			notContains: []string{"pfilter%5Bgdpr%5D"},
		},
		{
			name:     "extension-locations",
			regs:     &openrtb2.Regs{Ext: json.RawMessage(`{"gdpr":1,"us_privacy":"1YNN"}`)},
			user:     &openrtb2.User{Ext: json.RawMessage(`{"consent":"extConsent"}`)},
			contains: []string{"pfilter%5Bgdpr_consent%5D=extConsent&pfilter%5Bgdpr%5D=true", "&us_privacy=1YNN&rnd=42"},
		},
		{
			name:       "malformed-regs-ext",
			regs:       &openrtb2.Regs{Ext: json.RawMessage(`{"gdpr":"yes"}`)},
			user:       &openrtb2.User{Consent: "anyString"},
			contains:   []string{"pfilter%5Bgdpr_consent%5D=anyString"},
			expectErrs: 2,
		},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := &openrtb2.BidRequest{
				ID:   "auction",
				Imp:  []openrtb2.Imp{bannerImp("imp", `{"placement":"6682"}`)},
				Regs: test.regs,
				User: test.user,
			}
			reqs, errs := a.MakeRequests(request, nil)
			require.Len(t, reqs, 1)
			assert.Len(t, errs, test.expectErrs)
			for _, err := range errs {
				assert.True(t, errortypes.IsWarning(err))
			}

			for _, s := range test.contains {
				assert.Contains(t, reqs[0].Uri, s)
			}
			for _, s := range test.notContains {
				assert.NotContains(t, reqs[0].Uri, s)
			}
		})
	}
}

func TestMakeRequestsFirstPartyData(t *testing.T) {
	a := newTestAdapter(t)
	request := &openrtb2.BidRequest{
		ID:   "auction",
		Imp:  []openrtb2.Imp{bannerImp("imp", `{"placement":"6682","bcat":"IAB2,IAB4"}`)},
		BCat: []string{"BSW1", "BSW2"},
		Site: &openrtb2.Site{
			Page:    "https://example.com/page",
			PageCat: []string{"IAB3"},
			Content: &openrtb2.Content{Cat: []string{"IAB1-1", "IAB1-2", "", "IAB2-10"}},
		},
	}

	reqs, errs := a.MakeRequests(request, nil)
	require.Empty(t, errs)
	require.Len(t, reqs, 1)

	query := queryOf(t, reqs[0])
	assert.Contains(t, query, "pfilter%5Biab_content%5D=cat%3AIAB1-1%7CIAB1-2%7CIAB2-10")
	assert.Contains(t, query, "bcat=BSW1%2CBSW2")
	assert.NotContains(t, query, "IAB2%2CIAB4")
	assert.Contains(t, query, "pcat=IAB3")
	assert.True(t, strings.HasSuffix(query, "&rnd=42&ref=https%3A%2F%2Fexample.com%2Fpage"), query)
}

func TestMakeRequestsAppContent(t *testing.T) {
	a := newTestAdapter(t)
	request := &openrtb2.BidRequest{
		ID:  "auction",
		Imp: []openrtb2.Imp{bannerImp("imp", `{"placement":"6682"}`)},
		App: &openrtb2.App{Bundle: "com.example.app", Content: &openrtb2.Content{Cat: []string{"", ""}}},
	}

	reqs, errs := a.MakeRequests(request, nil)
	require.Empty(t, errs)
	require.Len(t, reqs, 1)

	query := queryOf(t, reqs[0])
	assert.NotContains(t, query, "iab_content")
	assert.True(t, strings.HasSuffix(query, "&ref=com.example.app"), query)
}

func TestMakeRequestsSupplyChain(t *testing.T) {
	schain := &openrtb2.SupplyChain{
		Ver:      "1.0",
		Complete: 1,
		Nodes: []openrtb2.SupplyChainNode{{
			ASI:    "example.com",
			SID:    "0",
			HP:     ptrutil.ToPtr[int8](1),
			RID:    "bidrequestid",
			Domain: "example.com",
		}},
	}
	expected := "schain=1.0%2C1!example.com%2C0%2C1%2Cbidrequestid%2C%2Cexample.com"

	extSChain, err := json.Marshal(openrtb_ext.ExtSource{SChain: schain})
	require.NoError(t, err)

	tests := []struct {
		name   string
		source *openrtb2.Source
	}{
		{name: "source", source: &openrtb2.Source{SChain: schain}},
		{name: "source-ext", source: &openrtb2.Source{Ext: extSChain}},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := &openrtb2.BidRequest{
				ID:     "auction",
				Imp:    []openrtb2.Imp{bannerImp("imp", `{"placement":"6682"}`)},
				Source: test.source,
			}
			reqs, errs := a.MakeRequests(request, nil)
			require.Empty(t, errs)
			require.Len(t, reqs, 1)
			assert.Contains(t, reqs[0].Uri, expected)
		})
	}
}

func TestSerializeSupplyChainEscapesNodeFields(t *testing.T) {
	schain := &openrtb2.SupplyChain{
		Ver:      "1.0",
		Complete: 0,
		Nodes: []openrtb2.SupplyChainNode{
			{ASI: "a.com", SID: "1,2", Name: "Name & Co"},
			{ASI: "b.com", SID: "3", HP: ptrutil.ToPtr[int8](1)},
		},
	}
	assert.Equal(t, "1.0,0!a.com,1%2C2,,,Name%20%26%20Co,!b.com,3,1,,,", serializeSupplyChain(schain))
	assert.Empty(t, serializeSupplyChain(nil))
	assert.Empty(t, serializeSupplyChain(&openrtb2.SupplyChain{Ver: "1.0"}))
}

func TestMakeRequestsEIDs(t *testing.T) {
	eids := []openrtb2.EID{
		{Source: "criteo.com", UIDs: []openrtb2.UID{{ID: "criteo"}}},
		{Source: "id5-sync.com", UIDs: []openrtb2.UID{{ID: "ID5UID", Ext: json.RawMessage(`{"linkType":2}`)}}},
		{Source: "pubcid.org", UIDs: []openrtb2.UID{{ID: "first"}, {ID: "second"}}},
		{Source: "publisher.example", UIDs: []openrtb2.UID{{ID: "pp1", Ext: json.RawMessage(`{"stype":"ppuid"}`)}}},
		{Source: "unknown.example", UIDs: []openrtb2.UID{{ID: "ignored"}}},
	}
	extUser, err := json.Marshal(openrtb_ext.ExtUser{Eids: eids})
	require.NoError(t, err)

	tests := []struct {
		name string
		user *openrtb2.User
	}{
		{name: "user", user: &openrtb2.User{EIDs: eids}},
		{name: "user-ext", user: &openrtb2.User{Ext: extUser}},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := &openrtb2.BidRequest{
				ID:   "auction",
				Imp:  []openrtb2.Imp{bannerImp("imp", `{"placement":"6682"}`)},
				User: test.user,
			}
			reqs, errs := a.MakeRequests(request, nil)
			require.Empty(t, errs)
			require.Len(t, reqs, 1)

			query := queryOf(t, reqs[0])
			assert.Contains(t, query, "did_cruid=criteo&did_id5uid=ID5UID&did_id5_linktype=2&did_pubcid=first&did_ppuid=pp1")
			assert.NotContains(t, query, "second")
			assert.NotContains(t, query, "ignored")
		})
	}
}

func TestMakeRequestsGoogleTopics(t *testing.T) {
	tests := []struct {
		name     string
		data     []openrtb2.Data
		expected string
	}{
		{
			name: "valid",
			data: []openrtb2.Data{{
				Ext:     json.RawMessage(`{"segtax":600,"segclass":"v1"}`),
				Segment: []openrtb2.Segment{{ID: "717"}, {ID: "808"}},
			}},
			expected: "segtx=600&segcl=v1&segs=717%2C808",
		},
		{
			name: "first-usable-entry",
			data: []openrtb2.Data{
				{Ext: json.RawMessage(`{"segtax":600}`), Segment: []openrtb2.Segment{{ID: "1"}}},
				{Ext: json.RawMessage(`{"segtax":"601","segclass":"v2"}`), Segment: []openrtb2.Segment{{ID: "2"}, {ID: ""}, {ID: "3"}}},
			},
			expected: "segtx=601&segcl=v2&segs=2%2C3",
		},
		{
			name: "invalid",
			data: []openrtb2.Data{
				{Segment: []openrtb2.Segment{}},
				{Segment: []openrtb2.Segment{{ID: ""}}},
				{Segment: []openrtb2.Segment{{ID: "dummy"}, {ID: "123"}}},
				{Ext: json.RawMessage(`{"segtax":600,"segclass":"v1"}`), Segment: []openrtb2.Segment{{Name: "dummy"}}},
			},
		},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := &openrtb2.BidRequest{
				ID:   "auction",
				Imp:  []openrtb2.Imp{bannerImp("imp", `{"placement":"6682"}`)},
				User: &openrtb2.User{Data: test.data},
			}
			reqs, errs := a.MakeRequests(request, nil)
			require.Empty(t, errs)
			require.Len(t, reqs, 1)

			if test.expected == "" {
				assert.NotContains(t, reqs[0].Uri, "segtx")
				assert.NotContains(t, reqs[0].Uri, "segcl")
				assert.NotContains(t, reqs[0].Uri, "segs")
				return
			}
			assert.Contains(t, reqs[0].Uri, test.expected)
		})
	}
}

func TestMakeRequestsViewport(t *testing.T) {
	tests := []struct {
		name     string
		device   *openrtb2.Device
		expected string
	}{
		{name: "no-device", expected: "vpw=1280&vph=720"},
		{name: "device-size", device: &openrtb2.Device{W: 1920, H: 1080}, expected: "vpw=1920&vph=1080"},
		{name: "non-positive", device: &openrtb2.Device{W: -1, H: 0}, expected: "vpw=1280&vph=720"},
	}

	a := newTestAdapter(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			request := &openrtb2.BidRequest{
				ID:     "auction",
				Imp:    []openrtb2.Imp{bannerImp("imp", `{"placement":"6682"}`)},
				Device: test.device,
			}
			reqs, _ := a.MakeRequests(request, nil)
			require.Len(t, reqs, 1)
			assert.Contains(t, reqs[0].Uri, test.expected)
		})
	}
}

func TestMakeRequestsHeaders(t *testing.T) {
	a := newTestAdapter(t)
	request := &openrtb2.BidRequest{
		ID:     "auction",
		Imp:    []openrtb2.Imp{bannerImp("imp", `{"placement":"6682"}`)},
		Device: &openrtb2.Device{UA: "test-agent", IP: "123.123.123.123", Language: "de"},
	}

	reqs, _ := a.MakeRequests(request, nil)
	require.Len(t, reqs, 1)
	assert.Equal(t, "test-agent", reqs[0].Headers.Get("User-Agent"))
	assert.Equal(t, "123.123.123.123", reqs[0].Headers.Get("X-Forwarded-For"))
	assert.Equal(t, "de", reqs[0].Headers.Get("Accept-Language"))
}

func TestDeviceType(t *testing.T) {
	const (
		iPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 9_1 like Mac OS X) AppleWebKit/601.1.46 (KHTML, like Gecko) Version/9.0 Mobile/13B143 Safari/601.1"
		iPadUA    = "Mozilla/5.0 (iPad; CPU OS 9_1 like Mac OS X) AppleWebKit/601.1.46 (KHTML, like Gecko) Version/9.0 Mobile/13B143 Safari/601.1"
		desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	)

	tests := []struct {
		name     string
		device   *openrtb2.Device
		params   string
		expected string
	}{
		{name: "params-win", device: &openrtb2.Device{DeviceType: 4}, params: "desktop", expected: "desktop"},
		{name: "no-device", expected: ""},
		{name: "phone", device: &openrtb2.Device{DeviceType: 4}, expected: "mobile"},
		{name: "mobile-tablet", device: &openrtb2.Device{DeviceType: 1}, expected: "mobile"},
		{name: "tablet", device: &openrtb2.Device{DeviceType: 5}, expected: "tablet"},
		{name: "pc", device: &openrtb2.Device{DeviceType: 2}, expected: "desktop"},
		{name: "ua-iphone", device: &openrtb2.Device{UA: iPhoneUA}, expected: "mobile"},
		{name: "ua-ipad", device: &openrtb2.Device{UA: iPadUA}, expected: "tablet"},
		{name: "ua-desktop", device: &openrtb2.Device{UA: desktopUA}, expected: "desktop"},
		{name: "no-signal", device: &openrtb2.Device{}, expected: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, deviceType(test.device, test.params))
		})
	}
}
