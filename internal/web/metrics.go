package web

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type metrics struct {
	analyses *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meanstat_analyses_total",
			Help: "Completed analyses by kind and method.",
		}, []string{"kind", "method"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meanstat_analysis_failures_total",
			Help: "Rejected analysis requests by kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meanstat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		elapsed := s.now().Sub(start)
		s.metrics.duration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed))
	})
}
