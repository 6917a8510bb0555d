package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// JobEvents handles GET /api/v1/jobs/{jobID}/events as a server-sent event stream.
// The stream ends after the terminal event. A client that connects after the
// job finished gets the terminal event rebuilt from the stored record.
func (s *Server) JobEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	ctx := r.Context()
	log := requestLogger(r, s.logger).With(zap.String("job_id", id))

	if _, err := s.jobs.Status(ctx, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	// Subscribe before the second status read so a terminal event
	// published in between is not lost.
	events, err := s.events.Subscribe(ctx, id)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("subscribe to job events: %w", err))
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	rec, err := s.jobs.Status(ctx, id)
	if err == nil && rec.Status.Done() {
		_ = writeEvent(w, rc, terminalEvent(rec))
		return
	}

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Event stream closed by client")
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case ev, ok := <-events:
			if !ok {
				// The broker gave up on this subscriber; fall back to the record.
				if rec, err := s.jobs.Status(ctx, id); err == nil && rec.Status.Done() {
					_ = writeEvent(w, rc, terminalEvent(rec))
				}
				return
			}
			if err := writeEvent(w, rc, ev); err != nil {
				log.Debug("Event stream write failed", zap.Error(err))
				return
			}
			if ev.Terminal() {
				return
			}
		}
	}
}

func terminalEvent(rec domjob.Record) domjob.Event {
	if rec.Status == domjob.StatusFailed {
		return domjob.Failure(rec.ID, rec.Reason)
	}
	return domjob.Complete(rec.ID)
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, ev domjob.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := rc.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	return nil
}
