package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/currency"
	"github.com/dspxtv/prebid-dspx/endpoints"
	infoEndpoints "github.com/dspxtv/prebid-dspx/endpoints/info"
	"github.com/dspxtv/prebid-dspx/endpoints/openrtb2"
	"github.com/dspxtv/prebid-dspx/errortypes"
	"github.com/dspxtv/prebid-dspx/exchange"
	"github.com/dspxtv/prebid-dspx/metrics"
	metricsConf "github.com/dspxtv/prebid-dspx/metrics/config"
	"github.com/dspxtv/prebid-dspx/openrtb_ext"
	"github.com/dspxtv/prebid-dspx/router/aspects"
	"github.com/dspxtv/prebid-dspx/util/jsonutil"
)

// NewJsonDirectoryServer is used to serve .json files from a directory as a single blob. For example,
// given a directory containing the files "a.json" and "b.json", this returns a Handle which serves JSON like:
//
//	{
//	  "a": { ... content from the file a.json ... },
//	  "b": { ... content from the file b.json ... }
//	}
//
// This function stores the file contents in memory, and should not be used on large directories.
func NewJsonDirectoryServer(schemaDirectory string, validator openrtb_ext.BidderParamValidator) (httprouter.Handle, error) {
	// Slurp the files into memory first, since they're small and it minimizes request latency.
	files, err := os.ReadDir(schemaDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %v", schemaDirectory, err)
	}

	data := make(map[string]json.RawMessage, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		bidder := strings.TrimSuffix(file.Name(), ".json")
		bidderName, isValid := openrtb_ext.GetBidderName(bidder)
		if !isValid {
			return nil, fmt.Errorf("schema exists for an unknown bidder: %s", bidder)
		}
		data[bidder] = json.RawMessage(validator.Schema(bidderName))
	}

	response, err := jsonutil.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bidder param JSON-schema: %v", err)
	}

	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Add("Content-Type", "application/json")
		w.Write(response)
	}, nil
}

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

// Router serves the public endpoints and keeps a handle on what the admin and metrics
// listeners need.
type Router struct {
	*httprouter.Router
	MetricsEngine   *metricsConf.DetailedMetricsEngine
	ParamsValidator openrtb_ext.BidderParamValidator
	Conversions     currency.Conversions
}

func getTransport(cfg *config.Configuration) *http.Transport {
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxConnsPerHost: cfg.Client.MaxConnsPerHost,
		IdleConnTimeout: time.Duration(cfg.Client.IdleConnTimeout) * time.Second,
	}

	if cfg.Client.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.Client.MaxIdleConns
	}

	if cfg.Client.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.Client.MaxIdleConnsPerHost
	}

	return transport
}

// New builds the dspx bidder from the static bidder info and the app config and wires it to
// the public routes.
func New(cfg *config.Configuration) (r *Router, err error) {
	r = &Router{
		Router: httprouter.New(),
	}

	generalHttpClient := &http.Client{
		Transport: getTransport(cfg),
	}

	r.MetricsEngine = metricsConf.NewMetricsEngine(cfg, openrtb_ext.CoreBidderNames())

	r.ParamsValidator, err = openrtb_ext.NewBidderParamsValidator(cfg.BidderParamsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create the bidder params validator: %v", err)
	}

	bidderInfos, err := config.LoadBidderInfoFromDisk(cfg.BidderInfoDir, cfg.Adapters, bidderNames())
	if err != nil {
		return nil, err
	}

	bidders, adaptersErrs := exchange.BuildAdapters(generalHttpClient, cfg, bidderInfos, r.MetricsEngine)
	if len(adaptersErrs) > 0 {
		return nil, errortypes.NewAggregateErrors("Failed to initialize adapters", adaptersErrs)
	}

	r.Conversions = currency.NewConversions(cfg.CurrencyConverter.Rates)

	paramsServer, err := NewJsonDirectoryServer(cfg.BidderParamsDir, r.ParamsValidator)
	if err != nil {
		return nil, err
	}

	if dspxBidder, ok := bidders[openrtb_ext.BidderDspx]; ok {
		dspxEndpoint, err := openrtb2.NewDspxEndpoint(dspxBidder, r.ParamsValidator, cfg, r.MetricsEngine, r.Conversions)
		if err != nil {
			return nil, fmt.Errorf("failed to create the dspx endpoint handler: %v", err)
		}
		if cfg.RequestTimeoutHeaders != (config.RequestTimeoutHeaders{}) {
			dspxEndpoint = aspects.QueuedRequestTimeout(dspxEndpoint, cfg.RequestTimeoutHeaders, r.MetricsEngine, metrics.ReqTypeORTB2Web)
		}
		r.POST("/openrtb2/dspx", dspxEndpoint)
	} else {
		glog.Warning("dspx is disabled; /openrtb2/dspx will not be served")
	}

	r.GET("/info/bidders", infoEndpoints.NewBiddersEndpoint(bidderInfos))
	r.GET("/info/bidders/:bidderName", infoEndpoints.NewBidderDetailsEndpoint(bidderInfos))
	r.GET("/bidders/params", paramsServer)
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))
	r.Handler(http.MethodGet, "/currency/rates", endpoints.NewCurrencyRatesEndpoint(r.Conversions))

	return r, nil
}

func bidderNames() []string {
	names := openrtb_ext.CoreBidderNames()
	bidders := make([]string, 0, len(names))
	for _, name := range names {
		bidders = append(bidders, string(name))
	}
	return bidders
}

// SupportCORS wraps the handler with CORS support.
//
// Publishers call the auction straight from the page, so every origin is allowed and
// credentials are passed through. For more info, see:
//
// - https://github.com/rs/cors/issues/55
// - https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS/Errors/CORSNotSupportingCredentials
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}
