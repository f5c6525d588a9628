// Package api exposes the compliance pipeline over HTTP. Each upload is an
// independent run; nothing is kept between requests.
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/compliance-tracker/internal/fetcher"
	"github.com/sells-group/compliance-tracker/internal/threshold"
	"github.com/sells-group/compliance-tracker/internal/tracker"
)

// Options configures a Server.
type Options struct {
	Registry       *threshold.Registry
	Defaults       tracker.Options // columns, policies and schema used when a request omits them
	Fetch          fetcher.Options
	MaxUploadBytes int64
	RatePerSecond  float64
	RateBurst      int
	AllowedOrigins []string
}

// Server handles roster uploads.
type Server struct {
	registry  *threshold.Registry
	defaults  tracker.Options
	fetch     fetcher.Options
	maxUpload int64
	limiter   *rate.Limiter
	origins   []string
}

// NewServer builds a Server from opts.
func NewServer(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = threshold.NewRegistry()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 2
	}
	if opts.RateBurst < 1 {
		opts.RateBurst = 1
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		registry:  opts.Registry,
		defaults:  opts.Defaults,
		fetch:     opts.Fetch,
		maxUpload: opts.MaxUploadBytes,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RateBurst),
		origins:   opts.AllowedOrigins,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", runIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/schemas", s.handleSchemas)
		r.With(rateLimit(s.limiter)).Post("/process", s.handleProcess)
	})

	return r
}

type schemaInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Labels      []string         `json:"labels"`
	Vacancy     bool             `json:"vacancy"`
	Tiers       []threshold.Tier `json:"tiers"`
}

func (s *Server) handleSchemas(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.Names()
	out := make([]schemaInfo, 0, len(names))
	for _, n := range names {
		sc, err := s.registry.Get(n)
		if err != nil {
			continue
		}
		out = append(out, schemaInfo{
			Name:        sc.Name,
			Description: sc.Description,
			Labels:      sc.Labels(),
			Vacancy:     sc.Vacancy,
			Tiers:       sc.Tiers,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// writeJSON encodes v before sending the status so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "could not encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
