package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/bills/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/bills/abc", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	total := testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodGet, "/api/bills/{id}", "404"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}
	if n := testutil.CollectAndCount(m.ReqDur); n == 0 {
		t.Fatalf("expected histogram sample")
	}
}

func TestDomainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.BillCreated()
	m.BillCreated()
	m.BillDeleted()
	m.CacheResult("report", true)
	m.CacheResult("report", false)
	m.SyncResult("synced")
	m.RateLimitHit()
	m.ObserveReport(10 * time.Millisecond)

	if v := testutil.ToFloat64(m.BillsCreated); v != 2 {
		t.Fatalf("bills created = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.CacheRequests.WithLabelValues("report", "hit")); v != 1 {
		t.Fatalf("cache hits = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.SyncTotal.WithLabelValues("synced")); v != 1 {
		t.Fatalf("sync synced = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.RateLimited); v != 1 {
		t.Fatalf("rate limited = %v, want 1", v)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BillCreated()
	m.CacheResult("report", true)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestNewTwiceSharesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg)
	b := New(reg)
	a.BillCreated()
	if v := testutil.ToFloat64(b.BillsCreated); v != 1 {
		t.Fatalf("expected shared counter, got %v", v)
	}
}
