package intake

import (
	"net/http"
	"strconv"
	"time"

	"vrproute/pkg/metrics"
)

// statusWriter captures the status code written by the wrapped handler so it
// can be recorded after the fact.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// WithMetrics wraps a handler so every request is counted and timed under
// the given path label.
func WithMetrics(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next(sw, r)

		if m := metrics.Get(); m != nil {
			m.RecordHTTPRequest(r.Method, path, strconv.Itoa(sw.status), time.Since(start))
		}
	}
}
