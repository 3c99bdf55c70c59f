package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/pdf-summary-service/internal/config"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
	"github.com/kirillkom/pdf-summary-service/internal/observability/metrics"
)

const (
	maxJSONBodyBytes    = 1 << 20
	maxProfileBodyBytes = 6 << 20
	multipartOverhead   = 1 << 20
	maxLoginFormMemory  = 64 << 10
)

type Dependencies struct {
	Auth      ports.AuthService
	Files     ports.FileService
	Summaries ports.SummaryService
	Profile   ports.ProfileService
	// Metrics is optional.
	Metrics *metrics.HTTPServerMetrics
}

type Router struct {
	auth      ports.AuthService
	files     ports.FileService
	summaries ports.SummaryService
	profile   ports.ProfileService
	metrics   *metrics.HTTPServerMetrics

	corsOrigins          []string
	maxUploadBytes       int64
	summaryRatePerMinute int
	summaryRateBurst     int
	summaryMaxConcurrent int
	summaryQueueTimeout  time.Duration
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	return &Router{
		auth:                 deps.Auth,
		files:                deps.Files,
		summaries:            deps.Summaries,
		profile:              deps.Profile,
		metrics:              deps.Metrics,
		corsOrigins:          cfg.GetCORSAllowedOrigins(),
		maxUploadBytes:       cfg.MaxUploadBytes,
		summaryRatePerMinute: cfg.SummaryRatePerMinute,
		summaryRateBurst:     cfg.SummaryRateBurst,
		summaryMaxConcurrent: cfg.SummaryMaxConcurrent,
		summaryQueueTimeout:  cfg.SummaryQueueTimeout,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(recoverMiddleware)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	r.Use(corsMiddleware(rt.corsOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	})

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", rt.register)
		r.Post("/login", rt.login)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(rt.auth))

		r.Route("/files", func(r chi.Router) {
			r.Get("/", rt.listFiles)
			r.Post("/upload", rt.uploadFile)
			r.Get("/{id}", rt.getFile)
			r.Get("/{id}/download", rt.downloadFile)
		})

		r.Route("/summary", func(r chi.Router) {
			r.Get("/", rt.listSummaries)
			r.Get("/{id}", rt.getSummary)
			r.Group(func(r chi.Router) {
				r.Use(func(next http.Handler) http.Handler {
					return rateLimitMiddleware(next, rt.summaryRatePerMinute, rt.summaryRateBurst)
				})
				r.Use(func(next http.Handler) http.Handler {
					return backpressureMiddleware(next, rt.summaryMaxConcurrent, rt.summaryQueueTimeout)
				})
				r.Post("/single", rt.summarizeSingle)
				r.Post("/multi", rt.summarizeMulti)
			})
		})

		r.Route("/user/profile", func(r chi.Router) {
			r.Get("/", rt.getProfile)
			r.Put("/", rt.updateProfile)
			r.Delete("/", rt.deleteAccount)
		})
	})

	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
