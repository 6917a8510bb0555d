package ats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// Rank outcomes used as the "outcome" metric label.
const (
	outcomeOK             = "ok"
	outcomeRejected       = "rejected"
	outcomeCanceled       = "canceled"
	outcomeEmptyReference = "empty_reference"
	outcomeNoValidCVs     = "no_valid_cvs"
	outcomeEmbedding      = "embedding"
	outcomeInternal       = "internal"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	ranks    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cvs      *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		ranks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ats",
			Subsystem: "sdk",
			Name:      "rank_total",
			Help:      "Rank calls by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ats",
			Subsystem: "sdk",
			Name:      "rank_duration_seconds",
			Help:      "Rank call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		cvs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ats",
			Subsystem: "sdk",
			Name:      "cvs_total",
			Help:      "CVs handed to Rank, by what happened to them.",
		}, []string{"status"}),
	}
	if err := registerOrReuse(reg, &m.ranks); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.cvs); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("ats: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("ats: register metric: %w", err)
	}
	return nil
}

// rankReport summarises one Rank call.
type rankReport struct {
	jobID   string
	cvs     int // CVs handed in
	skipped int // dropped before ranking for their format
	matches int
	err     error
}

// outcome classifies err into a bounded label value.
func (r rankReport) outcome() string {
	if r.err == nil {
		return outcomeOK
	}
	var je *domain.JobError
	if errors.As(r.err, &je) {
		switch je.Reason {
		case domjob.ReasonEmptyReference:
			return outcomeEmptyReference
		case domjob.ReasonNoValidCandidates:
			return outcomeNoValidCVs
		case domjob.ReasonEmbedding:
			return outcomeEmbedding
		default:
			return outcomeInternal
		}
	}
	if errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded) {
		return outcomeCanceled
	}
	if errors.Is(r.err, domain.ErrInvalidJob) || errors.Is(r.err, domain.ErrUnsupportedFormat) {
		return outcomeRejected
	}
	return outcomeInternal
}

// observer provides logging and metrics for Rank calls.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) skipped(jobID, filename string) {
	if o == nil || o.logger == nil {
		return
	}
	o.logger.Warn("skipping CV with unsupported format", "job_id", jobID, "filename", filename)
}

func (o *observer) rankDone(r rankReport, start time.Time) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	outcome := r.outcome()

	if o.metrics != nil {
		o.metrics.ranks.WithLabelValues(outcome).Inc()
		o.metrics.duration.WithLabelValues(outcome).Observe(dur.Seconds())
		o.metrics.cvs.WithLabelValues("skipped").Add(float64(r.skipped))
		if r.err == nil {
			o.metrics.cvs.WithLabelValues("ranked").Add(float64(r.cvs - r.skipped))
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []any{
		"job_id", r.jobID,
		"outcome", outcome,
		"cvs", r.cvs,
		"skipped", r.skipped,
		"duration", dur,
	}
	if r.err != nil {
		o.logger.Warn("rank failed", append(attrs, "error", r.err)...)
		return
	}
	o.logger.Debug("rank completed", append(attrs, "matches", r.matches)...)
}
