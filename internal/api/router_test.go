package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rohits-web03/dnastore/internal/api/handlers"
	"github.com/rohits-web03/dnastore/internal/config"
	"github.com/rohits-web03/dnastore/internal/metrics"
	"github.com/rohits-web03/dnastore/internal/models"
	"github.com/rohits-web03/dnastore/internal/repositories"
	"github.com/rohits-web03/dnastore/internal/utils"
)

// stubUsers answers only the lookups these routes reach.
type stubUsers struct {
	handlers.UserStore
}

func (stubUsers) GetByExternalID(_ context.Context, benchlingID string) (*models.User, error) {
	if benchlingID != "ent_1" {
		return nil, repositories.ErrNotFound
	}
	return &models.User{ID: 1, BenchlingID: "ent_1", Name: "Ada"}, nil
}

func (stubUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

type stubBatches struct{}

func (stubBatches) GetBatchStatus(_ context.Context, id uint) (models.BatchStatus, error) {
	if id == 5 {
		return models.BatchFailed, nil
	}
	return "", repositories.ErrNotFound
}

func newTestRouter(t *testing.T, m *metrics.Metrics) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	return NewRouter(Deps{
		Users:     stubUsers{},
		Batches:   stubBatches{},
		Metrics:   m,
		Logger:    utils.DiscardLogger(),
		Cors:      cfg.CorsConfig(),
		RateLimit: cfg.RateLimit,
	})
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter(t *testing.T) {
	m := metrics.New()
	h := newTestRouter(t, m)

	t.Run("Health", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/health")
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Errorf("expected 200 OK, got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("ExternalLookupBeatsIDWildcard", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/users/external?benchlingId=ent_1")
		if rec.Code != http.StatusOK {
			t.Errorf("expected external lookup to route, got %d", rec.Code)
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		if rec := serve(h, http.MethodGet, "/users/12"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("BatchStatus", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/dna/batch/5/status")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"failed"`) {
			t.Errorf("expected failed status, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		if rec := serve(h, http.MethodDelete, "/dna/batch/5/status"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("RequestID", func(t *testing.T) {
		if rec := serve(h, http.MethodGet, "/health"); rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/metrics")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body, _ := io.ReadAll(rec.Body)
		if !strings.Contains(string(body), `route="GET /dna/batch/{id}/status"`) {
			t.Errorf("expected route pattern label in exposition")
		}
	})
}

func TestRouterWithoutMetrics(t *testing.T) {
	h := newTestRouter(t, nil)

	if rec := serve(h, http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("expected /metrics to be absent, got %d", rec.Code)
	}
}
