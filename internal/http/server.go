// Package http serves the goals web UI (htmx partials) and the JSON API.
package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/cors"

	"goals/internal/log"
	"goals/internal/middleware/ratelimit"
	"goals/internal/middleware/security"
	"goals/internal/middleware/trace"
	"goals/internal/store"
	appweb "goals/web"
)

type Config struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	// Ready reports backend readiness for /readyz; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
	Clock  store.Clock
}

type Server struct {
	http.Server
	templates *template.Template
	goals     store.Repository
	ready     func(ctx context.Context) error
	logger    *log.Logger
	clock     store.Clock

	limiter  *ratelimit.Limiter
	resolver *security.Resolver
	metrics  appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	started      time.Time
	goalsCreated atomic.Int64
	goalsUpdated atomic.Int64
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(cfg Config, goals store.Repository) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default(log.ComponentHTTP)
	}
	if cfg.Clock == nil {
		cfg.Clock = store.SystemClock
	}
	if cfg.Ready == nil {
		cfg.Ready = func(context.Context) error { return nil }
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	staticFS, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		templates: t,
		goals:     goals,
		ready:     cfg.Ready,
		logger:    cfg.Logger.WithComponent(log.ComponentHTTP),
		clock:     cfg.Clock,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		resolver:  security.NewResolver(),
	}
	s.metrics.started = cfg.Clock()

	mux := http.NewServeMux()
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServerFS(staticFS))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /ui/goals", s.handleGoalList)
	mux.HandleFunc("GET /ui/goals/new", s.handleNewGoalModal)
	mux.HandleFunc("GET /ui/goals/{id}/modal", s.handleGoalModal)
	mux.HandleFunc("GET /ui/icon-field", s.handleIconField)
	mux.HandleFunc("POST /goals", s.handleCreateGoal)
	mux.HandleFunc("POST /goals/{id}", s.handleUpdateGoal)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/goals", s.apiListGoals)
	api.HandleFunc("POST /api/goals", s.apiCreateGoal)
	api.HandleFunc("GET /api/goals/{id}", s.apiGetGoal)
	api.HandleFunc("PATCH /api/goals/{id}", s.apiPatchGoal)
	mux.Handle("/api/", newCORS(cfg.CORSAllowedOrigins).Handler(api))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.resolver.ClientIP, ratelimit.WriteMethods, s.onRateLimit)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = trace.NewMiddleware(s.logger, s.resolver.ClientIP).Handler(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// newCORS allows the listed origins; with none, cross-origin calls are
// refused rather than allowed from anywhere.
func newCORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{"Location", trace.HeaderRequestID},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts)
}

// Shutdown stops the rate limiter and the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.resolver.ClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again shortly").
		TriggerErrorNotification("Too many requests").
		Write(w)
}

// render executes a template into a buffer so a failure still yields a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.NewFields().
				WithOperation(log.OpRender).
				WithError(err, log.ErrorTypeInternal).
				ToSlice()...)
		InternalServerError("Rendering failed").Write(w)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.BodyHTML(buf.String()).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.clock().Format(time.RFC3339),
		"uptime":    s.clock().Sub(s.metrics.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"templates": "ok",
		"rate_limiter": map[string]any{
			"active_clients": s.limiter.ActiveClients(),
			"status":         "ok",
		},
	}
	if err := s.ready(ctx); err != nil {
		checks["backend"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.clock().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	write := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	write("goals_created_total", "Goals created through this server", "counter", s.metrics.goalsCreated.Load())
	write("goals_updated_total", "Goals updated through this server", "counter", s.metrics.goalsUpdated.Load())
	write("rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", s.limiter.Hits())
	write("rate_limit_active_clients", "Clients tracked by the rate limiter", "gauge", s.limiter.ActiveClients())
	write("uptime_seconds", "Seconds since start", "gauge", int64(s.clock().Sub(s.metrics.started).Seconds()))
}
