package aspects

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/metrics"
)

// QueuedRequestTimeout rejects requests which already spent their whole budget waiting in a
// load balancer queue. Both header values are in seconds.
func QueuedRequestTimeout(f httprouter.Handle, reqTimeoutHeaders config.RequestTimeoutHeaders, me metrics.MetricsEngine, requestType metrics.RequestType) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		reqTimeInQueue := r.Header.Get(reqTimeoutHeaders.RequestTimeInQueue)
		reqTimeout := r.Header.Get(reqTimeoutHeaders.RequestTimeoutInQueue)

		// If request timeout headers are not specified - process request as usual
		if reqTimeInQueue == "" || reqTimeout == "" {
			f(w, r, params)
			return
		}

		reqTimeFloat, reqTimeFloatErr := strconv.ParseFloat(reqTimeInQueue, 64)
		reqTimeoutFloat, reqTimeoutFloatErr := strconv.ParseFloat(reqTimeout, 64)

		if reqTimeFloatErr != nil || reqTimeoutFloatErr != nil {
			me.RecordRequest(metrics.Labels{RType: requestType, RequestStatus: metrics.RequestStatusBadInput})
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Request timeout headers are incorrect (wrong format)"))
			return
		}

		if reqTimeFloat >= reqTimeoutFloat {
			me.RecordRequest(metrics.Labels{RType: requestType, RequestStatus: metrics.RequestStatusQueueTimeout})
			w.WriteHeader(http.StatusRequestTimeout)
			w.Write([]byte("Queued request processing time exceeded maximum"))
			return
		}

		f(w, r, params)
	}
}
