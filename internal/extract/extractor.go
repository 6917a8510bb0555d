// Package extract turns raw uploaded documents into plain text.
package extract

import (
	"context"
	"fmt"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/document"
)

// Extractor dispatches on the declared document format.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text of doc.
// Structural corruption and malformed encodings are reported as
// domain.ErrExtraction wrapped in a *domain.DocumentError.
func (e *Extractor) Extract(ctx context.Context, doc document.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	var (
		text string
		err  error
	)
	switch doc.Format() {
	case document.PDF:
		text, err = extractPDF(doc.Data())
	case document.PlainText:
		text, err = extractText(doc.Data())
	default:
		err = fmt.Errorf("format %q: %w", doc.Format(), domain.ErrUnsupportedFormat)
	}
	if err != nil {
		return "", domain.NewDocumentError(doc.Filename(), err)
	}
	return text, nil
}
