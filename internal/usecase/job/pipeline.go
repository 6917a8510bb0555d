package job

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/document"
	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/logger"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/ranking"
)

// machine tracks the state of one job. It is owned by a single goroutine.
type machine struct {
	id    string
	state domjob.State
	log   *zap.Logger
}

func (m *machine) advance(to domjob.State) error {
	if !m.state.CanTransition(to) {
		return domain.NewJobError(domjob.ReasonInternal,
			fmt.Errorf("illegal transition %s -> %s: %w", m.state, to, domain.ErrRankingInvariant))
	}
	m.log.Debug("Job state changed", zap.String("from", string(m.state)), zap.String("to", string(to)))
	m.state = to
	return nil
}

// execute drives one job from Validating to Ranking and returns the ranked result.
// Progress events go to emit; terminal events are the caller's concern.
// Every failure is a *domain.JobError carrying the user-visible reason.
func (s *Service) execute(ctx context.Context, j domjob.Job, emit func(domjob.Event)) (domjob.Result, error) {
	log := logger.FromContext(ctx)
	m := &machine{id: j.ID(), state: domjob.StateValidating, log: log}

	if err := m.advance(domjob.StateExtractingReference); err != nil {
		return domjob.Result{}, err
	}
	reference := s.prepare(ctx, log, "reference", j.Reference())
	if !reference.Usable() {
		return domjob.Result{}, domain.NewJobError(domjob.ReasonEmptyReference, domain.ErrEmptyReference)
	}

	if err := m.advance(domjob.StateExtractingCandidates); err != nil {
		return domjob.Result{}, err
	}
	candidates := j.Candidates()
	valid := make([]document.Normalized, 0, len(candidates))
	for i, c := range candidates {
		if n := s.prepare(ctx, log, "candidate", c); n.Usable() {
			valid = append(valid, n)
		}
		emit(domjob.Progress(j.ID(), domjob.Percent(i+1, len(candidates))))
	}
	if len(valid) == 0 {
		return domjob.Result{}, domain.NewJobError(domjob.ReasonNoValidCandidates, domain.ErrNoValidCandidates)
	}
	log.Info("Candidates extracted",
		zap.Int("total", len(candidates)),
		zap.Int("valid", len(valid)),
	)

	if err := m.advance(domjob.StateEmbedding); err != nil {
		return domjob.Result{}, err
	}
	texts := make([]string, 0, len(valid)+1)
	texts = append(texts, reference.Text)
	for _, n := range valid {
		texts = append(texts, n.Text)
	}
	emb, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return domjob.Result{}, domain.NewJobError(domjob.ReasonEmbedding, err)
	}

	if err := m.advance(domjob.StateRanking); err != nil {
		return domjob.Result{}, err
	}
	if len(emb.Embeddings) != len(texts) {
		return domjob.Result{}, domain.NewJobError(domjob.ReasonInternal,
			fmt.Errorf("got %d vectors for %d texts: %w", len(emb.Embeddings), len(texts), domain.ErrRankingInvariant))
	}
	scored := make([]ranking.Candidate, len(valid))
	for i, n := range valid {
		scored[i] = ranking.Candidate{Filename: n.Filename, Handle: n.Handle, Vector: emb.Embeddings[i+1]}
	}
	ranked, err := ranking.Rank(emb.Embeddings[0], scored, j.TopN())
	if err != nil {
		return domjob.Result{}, domain.NewJobError(domjob.ReasonInternal, err)
	}

	if err := m.advance(domjob.StateComplete); err != nil {
		return domjob.Result{}, err
	}
	return domjob.NewResult(j.ID(), ranked, s.now()), nil
}

// prepare extracts and normalizes one document. Failures are logged and yield
// an unusable document; they never abort the job.
func (s *Service) prepare(ctx context.Context, log *zap.Logger, kind string, doc document.Document) document.Normalized {
	out := document.Normalized{Filename: doc.Filename(), Handle: doc.Handle()}

	text, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		log.Warn("Text extraction failed",
			zap.String("kind", kind),
			zap.String("filename", doc.Filename()),
			zap.Error(err),
		)
		metrics.RankingDocumentsTotal.WithLabelValues(kind, "error").Inc()
		return out
	}

	out.Text = s.normalizer.Normalize(text)
	if !out.Usable() {
		log.Warn("Document has no usable text",
			zap.String("kind", kind),
			zap.String("filename", doc.Filename()),
		)
		metrics.RankingDocumentsTotal.WithLabelValues(kind, "empty").Inc()
		return out
	}
	metrics.RankingDocumentsTotal.WithLabelValues(kind, "ok").Inc()
	return out
}
