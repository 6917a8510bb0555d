package chi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/document"
	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/repository/upload"
)

// Multipart form fields of POST /api/v1/jobs.
const (
	fieldJobDescription = "job_description"
	fieldCVs            = "cvs"
	fieldTopN           = "top_n"
	fieldJobID          = "job_id"
)

// CreateJob handles POST /api/v1/jobs.
func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, s.logger)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	topN, err := s.parseTopN(r.FormValue(fieldTopN))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	jdFiles := r.MultipartForm.File[fieldJobDescription]
	if len(jdFiles) != 1 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "exactly one job_description file is required")
		return
	}
	if _, err := document.FormatFromFilename(jdFiles[0].Filename); err != nil {
		writeError(w, http.StatusBadRequest, CodeUnsupportedFormat,
			"job description must be a .pdf or .txt file")
		return
	}

	cvFiles := r.MultipartForm.File[fieldCVs]
	if len(cvFiles) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "at least one cvs file is required")
		return
	}
	if len(cvFiles) > s.cfg.MaxCandidates {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("at most %d cvs per job", s.cfg.MaxCandidates))
		return
	}

	var accepted []*multipart.FileHeader
	var skipped []string
	for _, fh := range cvFiles {
		if _, err := document.FormatFromFilename(fh.Filename); err != nil {
			log.Warn("Skipping CV with unsupported format", zap.String("filename", fh.Filename))
			skipped = append(skipped, fh.Filename)
			continue
		}
		accepted = append(accepted, fh)
	}
	if len(accepted) == 0 {
		writeError(w, http.StatusBadRequest, CodeUnsupportedFormat, "no CV with a supported format (.pdf, .txt)")
		return
	}

	var stored []string
	submitted := false
	defer func() {
		if !submitted {
			s.discardUploads(r, stored)
		}
	}()

	reference, err := s.storeUpload(r, upload.KindJobDescription, jdFiles[0])
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	stored = append(stored, reference.Handle())
	candidates := make([]document.Document, 0, len(accepted))
	for _, fh := range accepted {
		doc, err := s.storeUpload(r, upload.KindCV, fh)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		stored = append(stored, doc.Handle())
		candidates = append(candidates, doc)
	}

	id := strings.TrimSpace(r.FormValue(fieldJobID))
	if id == "" {
		id = s.newJobID()
	}
	j, err := domjob.New(id, reference, candidates, topN)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.jobs.Submit(r.Context(), j); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	submitted = true

	base := "/api/v1/jobs/" + j.ID()
	w.Header().Set("Location", base+"/results")
	writeJSON(w, http.StatusAccepted, JobAccepted{
		JobID:      j.ID(),
		Status:     string(domjob.StatusPending),
		Candidates: len(candidates),
		Skipped:    skipped,
		EventsURL:  base + "/events",
		ResultsURL: base + "/results",
	})
}

// JobResults handles GET /api/v1/jobs/{jobID}/results.
func (s *Server) JobResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	res, err := s.jobs.Result(r.Context(), id)
	if errors.Is(err, domain.ErrNotReady) {
		status := string(domjob.StatusPending)
		if rec, statusErr := s.jobs.Status(r.Context(), id); statusErr == nil {
			status = string(rec.Status)
		}
		writeJSON(w, http.StatusAccepted, JobPending{JobID: id, Status: status})
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(res))
}

func (s *Server) parseTopN(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.cfg.DefaultTopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("top_n must be an integer >= 1, got %q", raw)
	}
	return n, nil
}

// discardUploads removes files stored for a job that was never accepted.
func (s *Server) discardUploads(r *http.Request, handles []string) {
	ctx := context.WithoutCancel(r.Context())
	for _, h := range handles {
		if err := s.uploads.Remove(ctx, h); err != nil {
			requestLogger(r, s.logger).Warn("Failed to remove orphaned upload",
				zap.String("handle", h), zap.Error(err))
		}
	}
}

// storeUpload persists one uploaded file and returns it as a document.
func (s *Server) storeUpload(r *http.Request, kind upload.Kind, fh *multipart.FileHeader) (document.Document, error) {
	format, err := document.FormatFromFilename(fh.Filename)
	if err != nil {
		return document.Document{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return document.Document{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return document.Document{}, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}

	handle, err := s.uploads.Save(r.Context(), kind, fh.Filename, data)
	if err != nil {
		return document.Document{}, fmt.Errorf("store upload %q: %w", fh.Filename, err)
	}
	return document.New(fh.Filename, handle, format, data)
}
