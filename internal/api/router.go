// Package api wires dropit's HTTP surface: chi routing, the upload,
// download, admin and info handlers, and the ambient /health and
// /metrics endpoints. Middleware stack and request-logging style are
// grounded on the teacher's pkg/api/router.go.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scotow/dropit/internal/logger"
)

// Config configures the router's ambient behavior.
type Config struct {
	MetricsEnabled bool
	MetricsPath    string
}

// NewRouter builds the chi router. Routes mirror spec §6's endpoint list.
func NewRouter(h *Handlers, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", h.Health)
	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Post("/", h.Upload)
	r.Post("/upload", h.Upload)

	r.Get("/valid/{alias}", h.Info)

	r.Route("/{alias}", func(r chi.Router) {
		r.Get("/", h.Download)
		r.Delete("/", h.Revoke)
		r.Patch("/alias", h.RegenerateAlias)
		r.Patch("/alias/{which}", h.RegenerateAlias)
		r.Patch("/expiration/{spec}", h.SetExpiration)
		r.Patch("/downloads/{count}", h.SetDownloads)
	})

	return r
}

// requestLogger logs request completion with the fields internal/logger's
// context type understands, grounded on the teacher's requestLogger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lc := logger.NewLogContext(r.Method, r.URL.Path)
		lc.RequestID = chimw.GetReqID(r.Context())
		ctx := logger.WithContext(r.Context(), lc)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoCtx(ctx, "request completed",
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
