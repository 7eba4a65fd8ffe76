// Package server exposes the reconciliation engine over HTTP: the full
// two-file compare, the standalone reconciliation tools, token downloads,
// and the split check.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trade-reconcile-service/internal/engine"
	"trade-reconcile-service/internal/resultcache"
	"trade-reconcile-service/pkg/logger"
)

// Uploads larger than this are rejected during multipart parsing.
const maxUploadBytes = 64 << 20

// Server holds the handler dependencies.
type Server struct {
	log    logger.Logger
	engine *engine.Engine
	cache  resultcache.Cache
}

// New creates a server around the given cache.
func New(log logger.Logger, cache resultcache.Cache) *Server {
	if log == nil {
		log = logger.Global()
	}
	return &Server{
		log:    log.WithComponent("server"),
		engine: engine.New(log),
		cache:  cache,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/compare", s.handleCompare)
		r.Post("/export", s.handleExport)
		r.Post("/check-splits", s.handleCheckSplits)

		r.Route("/tools/reconcile", func(r chi.Router) {
			r.Post("/duplicates-single", s.handleDuplicatesSingle)
			r.Post("/amount-paper-two-files", s.handleAmountPaperTwoFiles)
			r.Post("/instrument-direction", s.handleInstrumentDirection)
			r.Get("/download/{token}", s.handleDownload)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.WithFields(logger.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
