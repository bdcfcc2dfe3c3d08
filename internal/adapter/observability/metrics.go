package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Task outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of model API calls by operation and status",
		},
		[]string{"operation", "status"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Model API call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)
	AIRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_retries_total",
			Help: "Total number of model call retries scheduled by the overload policy",
		},
		[]string{"task"},
	)
	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Estimated tokens consumed by model calls",
		},
		[]string{"operation", "direction"},
	)

	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_total",
			Help: "Analysis pipeline completions by task and outcome",
		},
		[]string{"task", "outcome"},
	)
	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "End-to-end analysis pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"task"},
	)
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalize_fallbacks_total",
			Help: "Responses that could not be parsed and resolved to the schema fallback",
		},
		[]string{"task"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIRetriesTotal)
	prometheus.MustRegister(AITokensTotal)
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(FallbacksTotal)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			// fallback when route pattern is unavailable
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveTask records one pipeline completion.
func ObserveTask(task, outcome string, dur time.Duration) {
	TasksTotal.WithLabelValues(task, outcome).Inc()
	TaskDuration.WithLabelValues(task).Observe(dur.Seconds())
}

// RecordFallback counts a degraded normalization for task.
func RecordFallback(task string) {
	FallbacksTotal.WithLabelValues(task).Inc()
}

// RecordRetry counts one scheduled retry for task.
func RecordRetry(task string) {
	AIRetriesTotal.WithLabelValues(task).Inc()
}

// RecordTokens records estimated token usage for one call.
func RecordTokens(operation string, prompt, completion int) {
	AITokensTotal.WithLabelValues(operation, "prompt").Add(float64(prompt))
	AITokensTotal.WithLabelValues(operation, "completion").Add(float64(completion))
}
