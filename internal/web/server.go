// Package web provides the HTTP server and handlers for the Data Sweeper UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/sweeper/internal/config"
	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/web/middleware"
	"github.com/JonMunkholm/sweeper/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the Data Sweeper application.
type Server struct {
	cfg     *config.Config
	store   *core.WorkspaceStore
	runs    *core.RunLimiter
	metrics *metrics
	router  *chi.Mux
	server  *http.Server

	// stop ends the rate limiter cleanup loops.
	stop context.CancelFunc
}

// NewServer creates a Server over store. Pipeline runs are bounded by runs.
func NewServer(cfg *config.Config, store *core.WorkspaceStore, runs *core.RunLimiter) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		store:   store,
		runs:    runs,
		metrics: newMetrics(store, runs),
		router:  chi.NewRouter(),
		stop:    cancel,
	}

	var uploads *rateLimiter
	if cfg.Rate.Enabled {
		general := newRateLimiter(ctx, cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.setupMiddleware(general)...)
		uploads = newRateLimiter(ctx, cfg.Rate.UploadLimit, time.Minute)
	} else {
		s.router.Use(s.setupMiddleware(nil)...)
	}
	s.setupRoutes(uploads)
	return s
}

// setupMiddleware returns the middleware stack shared by every route.
func (s *Server) setupMiddleware(limiter *rateLimiter) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		chimw.RequestID,
		middleware.TrustedRealIP(s.cfg.Security.TrustedProxies),
		middleware.Logger,
		chimw.Recoverer,
		chimw.Compress(5),
		chimw.Timeout(s.cfg.Server.RequestTimeout),
		s.securityHeaders,
	}
	if limiter != nil {
		stack = append(stack, s.rateLimit(limiter))
	}
	return stack
}

// setupRoutes configures all HTTP routes. Upload routes additionally pass
// through uploads when it is non-nil.
func (s *Server) setupRoutes(uploads *rateLimiter) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	upload := func(r chi.Router) chi.Router {
		if uploads == nil {
			return r
		}
		return r.With(s.rateLimit(uploads))
	}

	s.router.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", s.metrics.handler())
	}

	s.router.Get("/", templ.Handler(templates.UploadPage(s.cfg.Upload.MaxFiles, s.cfg.Upload.MaxFileSize)).ServeHTTP)
	upload(s.router).Post("/upload", s.handleUpload)

	s.router.Route("/w/{workspaceID}", func(r chi.Router) {
		r.Get("/", s.handleWorkspace)
		upload(r).Post("/files", s.handleAddFiles)
		r.Post("/files/{fileID}/delete", s.handleDeleteFile)
		r.Get("/files/{fileID}/chart.png", s.handleChart)
		r.Get("/files/{fileID}/export", s.handleExport)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/w/{workspaceID}/files/{fileID}", s.handleFileSummary)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops background loops and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Heatmap cells carry inline background colours.
		if s.cfg.Security.EnableCSP {
			h.Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
		}

		next.ServeHTTP(w, r)
	})
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status     string             `json:"status"`
	Workspaces int                `json:"workspaces"`
	Runs       core.LimiterStatus `json:"runs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, healthResponse{
		Status:     "ok",
		Workspaces: s.store.Len(),
		Runs:       s.runs.Status(),
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "json encode error", "error", err, "request_id", chimw.GetReqID(r.Context()))
	}
}
