package router

import (
	"net/http"
	"net/http/pprof"

	"github.com/rcrowley/go-metrics/exp"

	"github.com/dspxtv/prebid-dspx/endpoints"
	metricsConf "github.com/dspxtv/prebid-dspx/metrics/config"
	"github.com/dspxtv/prebid-dspx/version"
)

// Admin serves the endpoints which should never be exposed publicly: profiling, the build
// version and, when go-metrics is enabled, a JSON dump of its registry.
func Admin(revision string, metricsEngine *metricsConf.DetailedMetricsEngine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/version", endpoints.NewVersionEndpoint(version.Ver, revision))

	if metricsEngine != nil && metricsEngine.GoMetrics != nil {
		mux.Handle("/debug/metrics", exp.ExpHandler(metricsEngine.GoMetrics.MetricsRegistry))
	}

	return mux
}
