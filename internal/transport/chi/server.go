// Package chi exposes the ranking service over HTTP: multipart job intake,
// server-sent progress events, result retrieval and document download.
package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/progress"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/repository/upload"
	healthuc "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/health"
)

// JobService runs ranking jobs.
type JobService interface {
	Submit(ctx context.Context, j domjob.Job) error
	Status(ctx context.Context, id string) (domjob.Record, error)
	Result(ctx context.Context, id string) (domjob.Result, error)
}

// UploadStore persists uploaded documents.
type UploadStore interface {
	Save(ctx context.Context, kind upload.Kind, filename string, data []byte) (string, error)
	Open(ctx context.Context, handle string) (upload.Stored, error)
	Remove(ctx context.Context, handle string) error
}

// Config holds intake limits and streaming settings.
type Config struct {
	MaxUploadBytes    int64
	DefaultTopN       int
	MaxCandidates     int
	HeartbeatInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 32 << 20
	}
	if c.DefaultTopN <= 0 {
		c.DefaultTopN = 5
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 200
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 15 * time.Second
	}
}

// Server holds the HTTP handlers.
type Server struct {
	jobs          JobService
	uploads       UploadStore
	events        progress.Broker
	health        *healthuc.Service
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
	newJobID      func() string
}

// NewServer creates an HTTP API server.
func NewServer(
	jobs JobService,
	uploads UploadStore,
	events progress.Broker,
	health *healthuc.Service,
	cfg Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	return &Server{
		jobs:          jobs,
		uploads:       uploads,
		events:        events,
		health:        health,
		cfg:           cfg,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
		newJobID:      newJobID,
	}
}

// Router mounts every route with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/jobs", s.CreateJob)
		r.Get("/jobs/{jobID}/events", s.JobEvents)
		r.Get("/jobs/{jobID}/results", s.JobResults)
		r.Get("/documents/{kind}/{name}", s.DownloadDocument)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := requestLogger(r, s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
