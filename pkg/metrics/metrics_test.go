package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	t.Run("records cache lookups by tier", func(t *testing.T) {
		m := New()
		m.CacheLookup("local", true)
		m.CacheLookup("persistent", false)
		m.CacheLookup("persistent", false)

		if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("persistent", "miss")); got != 2 {
			t.Errorf("expected 2 persistent misses, got %v", got)
		}
		if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("local", "hit")); got != 1 {
			t.Errorf("expected 1 local hit, got %v", got)
		}
	})

	t.Run("records write failures", func(t *testing.T) {
		m := New()
		m.CacheWrite("persistent", errors.New("locked"))

		if got := testutil.ToFloat64(m.cacheWrites.WithLabelValues("persistent", "error")); got != 1 {
			t.Errorf("expected 1 failed write, got %v", got)
		}
	})

	t.Run("records provider calls", func(t *testing.T) {
		m := New()
		m.ProviderRequest("ticketmaster", "ok", 120*time.Millisecond)
		m.ProviderRequest("ticketmaster", "rate_limited", 10*time.Millisecond)

		if got := testutil.ToFloat64(m.providerRequests.WithLabelValues("ticketmaster", "rate_limited")); got != 1 {
			t.Errorf("expected 1 rate limited call, got %v", got)
		}
	})

	t.Run("nil metrics are no-ops", func(t *testing.T) {
		var m *Metrics
		m.CacheLookup("local", true)
		m.Outcome("combined", "aggregated", 3)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("handler exposes registry", func(t *testing.T) {
		m := New()
		m.Outcome("combined", "aggregated", 3)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if !strings.Contains(rec.Body.String(), `gigscout_aggregation_outcomes_total{operation="combined",outcome="aggregated"} 1`) {
			t.Errorf("expected outcome counter in output, got:\n%s", rec.Body.String())
		}
	})
}
