// Package job runs ranking jobs: extraction, normalization, one embedding
// batch and scoring, with progress reported to a publisher.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/logger"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
)

// Service accepts jobs and runs each on its own goroutine.
type Service struct {
	extractor  Extractor
	normalizer Normalizer
	embedder   domain.BatchEmbedder
	results    ResultStore
	events     Publisher
	slots      *semaphore.Weighted
	logger     *zap.Logger
	now        func() time.Time
	wg         sync.WaitGroup
}

// New creates a job service. Jobs run without a concurrency limit until
// WithMaxConcurrentJobs is set.
func New(
	extractor Extractor,
	normalizer Normalizer,
	embedder domain.BatchEmbedder,
	results ResultStore,
	events Publisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.RegisterRankingMetrics()
	return &Service{
		extractor:  extractor,
		normalizer: normalizer,
		embedder:   embedder,
		results:    results,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// WithMaxConcurrentJobs bounds the number of jobs running at once.
// Jobs over the limit stay pending until a slot frees up.
func (s *Service) WithMaxConcurrentJobs(n int) *Service {
	if n > 0 {
		s.slots = semaphore.NewWeighted(int64(n))
	}
	return s
}

// Submit registers the job as pending and starts it in the background.
// The job outlives ctx; only ctx values are kept.
func (s *Service) Submit(ctx context.Context, j domjob.Job) error {
	if err := s.results.Create(ctx, j.ID()); err != nil {
		return fmt.Errorf("create job record: %w", err)
	}
	s.logger.Info("Job submitted",
		zap.String("job_id", j.ID()),
		zap.Int("candidates", len(j.Candidates())),
		zap.Int("top_n", j.TopN()),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.WithoutCancel(ctx), j)
	}()
	return nil
}

// Wait blocks until every submitted job reached a terminal state.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Rank runs the job synchronously and reports every event, terminal ones
// included, to observe. Nothing is stored.
func (s *Service) Rank(ctx context.Context, j domjob.Job, observe func(domjob.Event)) (res domjob.Result, err error) {
	if observe == nil {
		observe = func(domjob.Event) {}
	}
	ctx, log := logger.WithJob(ctx, s.logger, j.ID())

	defer func() {
		if r := recover(); r != nil {
			log.Error("Ranking panicked", zap.Any("panic", r))
			err = domain.NewJobError(domjob.ReasonInternal, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			observe(domjob.Failure(j.ID(), reasonOf(err)))
			return
		}
		observe(domjob.Complete(j.ID()))
	}()

	return s.execute(ctx, j, observe)
}

// Status returns the stored record of a job.
func (s *Service) Status(ctx context.Context, id string) (domjob.Record, error) {
	rec, err := s.results.Get(ctx, id)
	if err != nil {
		return domjob.Record{}, fmt.Errorf("get job %q: %w", id, err)
	}
	return rec, nil
}

// Result returns the ranked result of a completed job. A job still in flight
// yields ErrNotReady; a failed job yields a *domain.JobError wrapping ErrJobFailed.
func (s *Service) Result(ctx context.Context, id string) (domjob.Result, error) {
	rec, err := s.Status(ctx, id)
	if err != nil {
		return domjob.Result{}, err
	}
	switch rec.Status {
	case domjob.StatusComplete:
		return rec.Result, nil
	case domjob.StatusFailed:
		return domjob.Result{}, domain.NewJobError(rec.Reason, domain.ErrJobFailed)
	default:
		return domjob.Result{}, fmt.Errorf("job %q is %s: %w", id, rec.Status, domain.ErrNotReady)
	}
}

// run executes one job in the background and stores its terminal record.
func (s *Service) run(ctx context.Context, j domjob.Job) {
	ctx, log := logger.WithJob(ctx, s.logger, j.ID())
	ctx, usage := domain.NewContextWithUsage(ctx)

	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			s.fail(ctx, j.ID(), domjob.ReasonInternal, err)
			return
		}
		defer s.slots.Release(1)
	}

	metrics.RankingJobsRunning.Inc()
	defer metrics.RankingJobsRunning.Dec()
	start := s.now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", zap.Any("panic", r))
			s.fail(ctx, j.ID(), domjob.ReasonInternal, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := s.results.Save(ctx, domjob.Record{ID: j.ID(), Status: domjob.StatusRunning, UpdatedAt: start}); err != nil {
		log.Warn("Failed to mark job running", zap.Error(err))
	}

	res, err := s.execute(ctx, j, func(ev domjob.Event) { s.publish(ctx, ev) })
	metrics.RankingJobDuration.Observe(s.now().Sub(start).Seconds())
	if err != nil {
		s.fail(ctx, j.ID(), reasonOf(err), err)
		return
	}

	rec := domjob.Record{ID: j.ID(), Status: domjob.StatusComplete, Result: res, UpdatedAt: s.now()}
	if err := s.results.Save(ctx, rec); err != nil {
		s.fail(ctx, j.ID(), domjob.ReasonInternal, fmt.Errorf("store result: %w", err))
		return
	}
	metrics.RankingJobsTotal.WithLabelValues(string(domjob.StatusComplete)).Inc()
	log.Info("Job complete",
		zap.Int("ranked", res.Len()),
		zap.Int("tokens", usage.TotalTokens()),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	s.publish(ctx, domjob.Complete(j.ID()))
}

// fail stores the failed record before the terminal event goes out, so a
// client reacting to the event always finds the reason.
func (s *Service) fail(ctx context.Context, id, reason string, cause error) {
	log := logger.FromContext(ctx)
	log.Warn("Job failed", zap.String("reason", reason), zap.Error(cause))
	metrics.RankingJobsTotal.WithLabelValues(string(domjob.StatusFailed)).Inc()

	rec := domjob.Record{ID: id, Status: domjob.StatusFailed, Reason: reason, UpdatedAt: s.now()}
	if err := s.results.Save(ctx, rec); err != nil {
		log.Error("Failed to store failed job", zap.Error(err))
	}
	s.publish(ctx, domjob.Failure(id, reason))
}

// publish is fire-and-forget: a lost event never affects the job.
func (s *Service) publish(ctx context.Context, ev domjob.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		logger.FromContext(ctx).Warn("Failed to publish job event",
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
	}
}

func reasonOf(err error) string {
	var jobErr *domain.JobError
	if errors.As(err, &jobErr) {
		return jobErr.Reason
	}
	return domjob.ReasonInternal
}
