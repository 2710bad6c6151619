// Package metrics provides Prometheus instrumentation for the deal service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled  bool
	initOnce sync.Once

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	dealValidationTotal       *prometheus.CounterVec
	dealValidationErrorsTotal *prometheus.CounterVec
	dealDraftsSavedTotal      prometheus.Counter

	nftCollectionsTotal *prometheus.CounterVec
)

// Init registers the collectors once. Calls after the first are no-ops.
func Init(enabledFlag bool) {
	initOnce.Do(func() {
		enabled = enabledFlag
		if !enabled {
			return
		}

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		)
		httpDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		dealValidationTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_validation_total",
				Help: "Deal draft validations by outcome",
			},
			[]string{"result"},
		)
		dealValidationErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_validation_errors_total",
				Help: "Failed wizard steps across validations",
			},
			[]string{"step"},
		)
		dealDraftsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "deal_drafts_saved_total",
			Help: "Deal drafts persisted",
		})
		nftCollectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nft_collections_collected_total",
				Help: "NFT collection metadata records collected",
			},
			[]string{"source", "status"},
		)
	})
}

func Enabled() bool { return enabled }

// Handler returns the Prometheus scrape handler, or 404 when metrics are off.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Middleware records request counts and latency labelled by chi route pattern,
// which keeps ids out of the label set.
func Middleware(next http.Handler) http.Handler {
	if !enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (rw *statusWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// ObserveValidation counts one validation and each step it failed.
func ObserveValidation(valid bool, failedSteps []string) {
	if !enabled {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	dealValidationTotal.WithLabelValues(result).Inc()
	for _, s := range failedSteps {
		dealValidationErrorsTotal.WithLabelValues(s).Inc()
	}
}

func DraftSaved() {
	if enabled {
		dealDraftsSavedTotal.Inc()
	}
}

func NFTCollections(source, status string, n int) {
	if enabled && n > 0 {
		nftCollectionsTotal.WithLabelValues(source, status).Add(float64(n))
	}
}
