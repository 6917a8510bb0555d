package ats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/document"
	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/extract"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/normalize"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/transport/tfidf"
	healthuc "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/health"
	jobuc "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/job"
)

const defaultTopN = 5

// rankUseCase is the internal interface for synchronous ranking.
type rankUseCase interface {
	Rank(ctx context.Context, j domjob.Job, observe func(domjob.Event)) (domjob.Result, error)
}

// Client is the ATS SDK entry point. It is safe for concurrent use.
type Client struct {
	rankSvc   rankUseCase
	healthSvc healthUseCase
	topN      int
	newID     func() string
	obs       *observer
}

// New creates a Client. Loading the English dictionary takes a moment,
// so create one Client and reuse it.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		defaultTopN: defaultTopN,
		lemmatize:   true,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.defaultTopN < 1 {
		return nil, fmt.Errorf("ats: default top N must be >= 1, got %d", cfg.defaultTopN)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var norm *normalize.Normalizer
	if cfg.lemmatize {
		norm, err = normalize.NewEnglish(nil)
		if err != nil {
			return nil, fmt.Errorf("ats: %w", err)
		}
	} else {
		norm = normalize.New(nil, nil)
	}

	var emb domain.Embedder = tfidf.NewEmbedder(nil)
	if cfg.embedder != nil {
		emb = adaptEmbedder(cfg.embedder)
	}
	if cfg.instruction != "" {
		emb = domain.NewInstructionEmbedder(emb, cfg.instruction)
	}

	// Rank keeps nothing, so the job service runs without a result store or publisher.
	rankSvc := jobuc.New(extract.New(), norm, domain.AsBatch(emb), nil, nil, nil)

	var checker healthuc.EmbeddingChecker
	if hc, ok := emb.(domain.HealthChecker); ok {
		checker = hc
	}

	return &Client{
		rankSvc:   rankSvc,
		healthSvc: healthuc.New(nil, checker),
		topN:      cfg.defaultTopN,
		newID:     uuid.NewString,
		obs:       obs,
	}, nil
}

// Rank scores every CV against the job description and returns the best
// matches first. CVs that cannot be read are dropped; the job fails only
// when the job description is unusable, no CV survives or embedding fails.
// A failed job returns a *JobError.
func (c *Client) Rank(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	report := rankReport{jobID: req.JobID, cvs: len(req.CVs)}
	defer func() {
		report.err = err
		report.matches = len(res.Matches)
		c.obs.rankDone(report, start)
	}()

	j, skipped, err := c.buildJob(req)
	if err != nil {
		return Result{}, err
	}
	report.jobID = j.ID()
	report.skipped = len(skipped)
	for _, name := range skipped {
		c.obs.skipped(j.ID(), name)
	}

	observe := func(ev domjob.Event) {
		if ev.Type == domjob.EventProgress && req.OnProgress != nil {
			req.OnProgress(ev.Percent)
		}
	}

	out, err := c.rankSvc.Rank(ctx, j, observe)
	if err != nil {
		return Result{}, fmt.Errorf("ats: rank: %w", err)
	}
	return toResult(out, skipped), nil
}

func (c *Client) buildJob(req Request) (domjob.Job, []string, error) {
	ref, err := toDocument(req.JobDescription)
	if err != nil {
		return domjob.Job{}, nil, fmt.Errorf("ats: job description: %w", err)
	}

	var (
		cvs     []document.Document
		skipped []string
	)
	for _, f := range req.CVs {
		doc, err := toDocument(f)
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			skipped = append(skipped, f.Name)
			continue
		}
		if err != nil {
			return domjob.Job{}, nil, fmt.Errorf("ats: cv: %w", err)
		}
		cvs = append(cvs, doc)
	}
	if len(req.CVs) > 0 && len(cvs) == 0 {
		return domjob.Job{}, nil, fmt.Errorf("ats: no CV has a supported format: %w", domain.ErrUnsupportedFormat)
	}

	id := req.JobID
	if id == "" {
		id = c.newID()
	}
	topN := req.TopN
	if topN == 0 {
		topN = c.topN
	}

	j, err := domjob.New(id, ref, cvs, topN)
	if err != nil {
		return domjob.Job{}, nil, fmt.Errorf("ats: %w", err)
	}
	return j, skipped, nil
}

func toDocument(f File) (document.Document, error) {
	format, err := document.FormatFromFilename(f.Name)
	if err != nil {
		return document.Document{}, err //nolint:wrapcheck // caller adds context
	}
	return document.New(f.Name, "", format, f.Data) //nolint:wrapcheck // caller adds context
}

func toResult(r domjob.Result, skipped []string) Result {
	cands := r.Candidates()
	matches := make([]Match, len(cands))
	for i, c := range cands {
		matches[i] = Match{Rank: c.Rank(), Filename: c.Filename(), Score: c.Score()}
	}
	return Result{JobID: r.JobID(), Matches: matches, Skipped: skipped}
}
