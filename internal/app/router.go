// Package app wires the HTTP router and service composition.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/flookyhq/flooky-tools/internal/adapter/httpserver"
	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	"github.com/flookyhq/flooky-tools/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{"*"}
	}
	if s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	// Analysis requests hold the connection while the model responds, so the
	// per-request deadline tracks the configured request timeout rather than
	// a short constant.
	r.Use(httpserver.TimeoutMiddleware(cfg.RequestTimeout))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limit the analysis and chat endpoints
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Post("/v1/bill/analyze", srv.BillAnalyzeHandler())
		wr.Post("/v1/contract/analyze", srv.ContractAnalyzeHandler())
		wr.Post("/v1/financial/analyze", srv.FinancialAnalyzeHandler())
		wr.Post("/v1/cv/rank", srv.CVRankHandler())
		wr.Post("/v1/video/analyze", srv.VideoAnalyzeHandler())
		wr.Post("/v1/chat", srv.ChatHandler())
		wr.Post("/v1/chat/reset", srv.ChatResetHandler())
		wr.Post("/v1/transcribe", srv.TranscribeHandler())
		wr.Post("/v1/language/detect", srv.DetectLanguageHandler())
	})

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/readyz", srv.ReadyzHandler())

	return httpserver.SecurityHeaders(r)
}
