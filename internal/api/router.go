package api

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	_ "github.com/rohits-web03/dnastore/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/rohits-web03/dnastore/internal/api/handlers"
	"github.com/rohits-web03/dnastore/internal/api/middleware"
	"github.com/rohits-web03/dnastore/internal/config"
	"github.com/rohits-web03/dnastore/internal/metrics"
	"github.com/rs/cors"
)

// Deps wires the router. Archive and Metrics may be nil.
type Deps struct {
	Users     handlers.UserStore
	Sequences handlers.SequenceStore
	Batches   handlers.BatchStatusReader
	Submitter handlers.BatchSubmitter
	Archive   handlers.ArchiveLinker
	Metrics   *metrics.Metrics
	Logger    *log.Logger
	Cors      cors.Options
	RateLimit config.RateLimitConfig
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// ---------- OPERATIONAL ROUTES ----------
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("GET /docs/", httpSwagger.WrapHandler)

	var observer middleware.RequestObserver
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
		observer = d.Metrics
	}

	// ---------- DNA ROUTES ----------
	dna := handlers.NewDNAHandler(d.Sequences, d.Logger)
	mux.HandleFunc("GET /dna", dna.List)
	mux.HandleFunc("POST /dna", dna.Create)
	mux.HandleFunc("POST /dna:bulk", dna.BulkCreate)
	mux.HandleFunc("GET /dna/search", dna.Search)
	mux.HandleFunc("GET /dna/external", dna.GetByExternalID)
	mux.HandleFunc("GET /dna/{id}", dna.Get)

	batches := handlers.NewBatchHandler(d.Batches, d.Sequences, d.Submitter, d.Archive, d.Logger)
	mux.HandleFunc("POST /dna/batch", batches.Submit)
	mux.HandleFunc("GET /dna/batch/{id}", batches.Sequences)
	mux.HandleFunc("GET /dna/batch/{id}/status", batches.Status)
	mux.HandleFunc("GET /dna/batch/{id}/archive", batches.Archive)

	// ---------- USER ROUTES ----------
	users := handlers.NewUserHandler(d.Users, d.Sequences, d.Logger)
	mux.HandleFunc("GET /users", users.List)
	mux.HandleFunc("POST /users", users.Create)
	mux.HandleFunc("POST /users:bulk", users.BulkCreate)
	mux.HandleFunc("GET /users/external", users.GetByExternalID)
	mux.HandleFunc("GET /users/{id}", users.Get)
	mux.HandleFunc("GET /users/{id}/dna", users.Sequences)

	d.Logger.Debug("router initialized")

	var handler http.Handler = mux
	handler = middleware.RateLimit(d.RateLimit.RPS, d.RateLimit.Burst)(handler)
	handler = middleware.Logger(d.Logger.With("component", "http"), observer)(handler)
	handler = cors.New(d.Cors).Handler(handler)
	return handler
}
