package chi

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/document"
)

// DownloadDocument handles GET /api/v1/documents/{kind}/{name}.
func (s *Server) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "kind") + "/" + chi.URLParam(r, "name")

	stored, err := s.uploads.Open(r.Context(), handle)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	contentType := "application/octet-stream"
	if format, err := document.FormatFromFilename(stored.DisplayName); err == nil {
		switch format {
		case document.PDF:
			contentType = "application/pdf"
		case document.PlainText:
			contentType = "text/plain; charset=utf-8"
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": stored.DisplayName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(stored.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stored.Data)
}
