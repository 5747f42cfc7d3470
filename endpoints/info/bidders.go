package info

import (
	"net/http"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

const (
	statusActive   = "ACTIVE"
	statusDisabled = "DISABLED"
)

// NewBiddersEndpoint implements /info/bidders. Only enabled bidders are listed, sorted by name.
func NewBiddersEndpoint(infos config.BidderInfos) httprouter.Handle {
	bidderNames := make([]string, 0, len(infos))
	for name, info := range infos {
		if info.Enabled {
			bidderNames = append(bidderNames, name)
		}
	}
	sort.Strings(bidderNames)

	response, err := jsonutil.Marshal(bidderNames)
	if err != nil {
		glog.Fatalf("error creating /info/bidders endpoint response: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(response); err != nil {
			glog.Errorf("error writing response to /info/bidders: %v", err)
		}
	}
}

// NewBidderDetailsEndpoint implements /info/bidders/:bidderName
func NewBidderDetailsEndpoint(infos config.BidderInfos) httprouter.Handle {
	// Build all the responses up front, since there are a finite number and it won't use much memory.
	responses, err := prepareBidderDetailResponses(infos)
	if err != nil {
		glog.Fatalf("error creating /info/bidders/:bidderName endpoint response: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		forBidder := ps.ByName("bidderName")
		bidderName, ok := openrtb_ext.GetBidderName(forBidder)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		response, ok := responses[string(bidderName)]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(response); err != nil {
			glog.Errorf("error writing response to /info/bidders/%s: %v", forBidder, err)
		}
	}
}

func prepareBidderDetailResponses(infos config.BidderInfos) (map[string][]byte, error) {
	responses := make(map[string][]byte, len(infos))
	for name, info := range infos {
		jsonBytes, err := jsonutil.Marshal(mapDetailFromConfig(info))
		if err != nil {
			return nil, err
		}
		responses[name] = jsonBytes
	}
	return responses, nil
}

type bidderDetail struct {
	Status       string        `json:"status"`
	UsesHTTPS    *bool         `json:"usesHttps,omitempty"`
	Maintainer   *maintainer   `json:"maintainer,omitempty"`
	Capabilities *capabilities `json:"capabilities,omitempty"`
	GVLVendorID  uint16        `json:"gvlVendorId,omitempty"`
}

type maintainer struct {
	Email string `json:"email"`
}

type capabilities struct {
	App  *platform `json:"app,omitempty"`
	Site *platform `json:"site,omitempty"`
}

type platform struct {
	MediaTypes []string `json:"mediaTypes"`
}

func mapDetailFromConfig(c config.BidderInfo) bidderDetail {
	var bidderDetail bidderDetail

	if c.Maintainer != nil {
		bidderDetail.Maintainer = &maintainer{
			Email: c.Maintainer.Email,
		}
	}

	if c.Enabled {
		bidderDetail.Status = statusActive

		usesHTTPS := isSecureEndpoint(c.Endpoint)
		bidderDetail.UsesHTTPS = &usesHTTPS

		if c.Capabilities != nil {
			bidderDetail.Capabilities = &capabilities{
				App:  mapPlatform(c.Capabilities.App),
				Site: mapPlatform(c.Capabilities.Site),
			}
		}
	} else {
		bidderDetail.Status = statusDisabled
	}

	bidderDetail.GVLVendorID = c.GVLVendorID

	return bidderDetail
}

func mapPlatform(p *config.PlatformInfo) *platform {
	if p == nil {
		return nil
	}

	mediaTypes := make([]string, len(p.MediaTypes))
	for i, v := range p.MediaTypes {
		mediaTypes[i] = string(v)
	}
	return &platform{MediaTypes: mediaTypes}
}

func isSecureEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, "https://")
}
