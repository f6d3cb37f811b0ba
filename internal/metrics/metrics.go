// Package metrics defines the Prometheus collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billbook"

// Metrics groups the application collectors.
type Metrics struct {
	ReqTotal      *prometheus.CounterVec
	ReqDur        *prometheus.HistogramVec
	BillsCreated  prometheus.Counter
	BillsDeleted  prometheus.Counter
	ReportDur     prometheus.Histogram
	CacheRequests *prometheus.CounterVec
	SyncTotal     *prometheus.CounterVec
	RateLimited   prometheus.Counter
	StoreDur      *prometheus.HistogramVec
}

// New creates and registers the collectors. reg defaults to the global registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Bills saved.",
		}),
		BillsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_deleted_total",
			Help:      "Bills deleted.",
		}),
		ReportDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent building profit/loss reports, cache misses only.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by cache name and result (hit or miss).",
		}, []string{"cache", "result"}),
		SyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_total",
			Help:      "Ledger export attempts by result.",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		StoreDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Storage call latency by operation and result (ok or error).",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op", "result"}),
	}
	m.ReqTotal = register(reg, m.ReqTotal)
	m.ReqDur = register(reg, m.ReqDur)
	m.BillsCreated = register(reg, m.BillsCreated)
	m.BillsDeleted = register(reg, m.BillsDeleted)
	m.ReportDur = register(reg, m.ReportDur)
	m.CacheRequests = register(reg, m.CacheRequests)
	m.SyncTotal = register(reg, m.SyncTotal)
	m.RateLimited = register(reg, m.RateLimited)
	m.StoreDur = register(reg, m.StoreDur)
	return m
}

// register returns the already registered collector when one exists, so a
// second New against the same registerer shares counters.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) BillCreated() {
	if m != nil {
		m.BillsCreated.Inc()
	}
}

func (m *Metrics) BillDeleted() {
	if m != nil {
		m.BillsDeleted.Inc()
	}
}

func (m *Metrics) ObserveReport(d time.Duration) {
	if m != nil {
		m.ReportDur.Observe(d.Seconds())
	}
}

// CacheResult records a lookup against the named cache.
func (m *Metrics) CacheResult(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}

// SyncResult records a ledger export outcome: "synced", "error" or "retry".
func (m *Metrics) SyncResult(result string) {
	if m != nil {
		m.SyncTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) RateLimitHit() {
	if m != nil {
		m.RateLimited.Inc()
	}
}

// ObserveStore records one storage call.
func (m *Metrics) ObserveStore(op string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.StoreDur.WithLabelValues(op, result).Observe(d.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and latency labelled by the chi route
// pattern. Unmatched routes are labelled "unmatched" to bound cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.ReqDur.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
