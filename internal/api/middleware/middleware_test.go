package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type observation struct {
	method, route string
	status        int
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method, route, status})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	obs := &fakeObserver{}

	var seenID string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dna/{id}", func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})
	h := Logger(logger, obs)(mux)

	t.Run("GeneratesRequestID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dna/7", nil))

		id := rec.Header().Get(RequestIDHeader)
		if id == "" || id != seenID {
			t.Errorf("expected handler and response to share a generated id, got %q and %q", seenID, id)
		}
		if !strings.Contains(buf.String(), "status=404") {
			t.Errorf("expected status in log line, got %q", buf.String())
		}
	})

	t.Run("ReusesCallerID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dna/8", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected caller id to be echoed, got %q", got)
		}
	})

	t.Run("ObservesRoutePattern", func(t *testing.T) {
		obs.mu.Lock()
		defer obs.mu.Unlock()
		if len(obs.seen) != 2 {
			t.Fatalf("expected 2 observations, got %d", len(obs.seen))
		}
		want := observation{http.MethodGet, "GET /dna/{id}", http.StatusNotFound}
		if obs.seen[0] != want {
			t.Errorf("expected %+v, got %+v", want, obs.seen[0])
		}
	})
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("Disabled", func(t *testing.T) {
		h := RateLimit(0, 0)(ok)
		for range 50 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusNoContent {
				t.Fatalf("expected 204, got %d", rec.Code)
			}
		}
	})

	t.Run("RejectsOverBurst", func(t *testing.T) {
		h := RateLimit(0.001, 2)(ok)
		codes := make([]int, 0, 3)
		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			codes = append(codes, rec.Code)
			if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
				t.Error("expected Retry-After on rejection")
			}
		}
		if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
			t.Errorf("expected two allowed then rejected, got %v", codes)
		}
	})
}
