package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

// Format is the declared document format, resolved once at intake.
type Format string

// Supported formats.
const (
	PDF       Format = "pdf"
	PlainText Format = "text"
)

// IsValid reports whether f is a supported format.
func (f Format) IsValid() bool {
	return f == PDF || f == PlainText
}

// FormatFromFilename resolves the format from the file extension.
// Only .pdf and .txt are accepted.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDF, nil
	case ".txt":
		return PlainText, nil
	default:
		return "", fmt.Errorf("%q: %w", name, domain.ErrUnsupportedFormat)
	}
}

// Document is a raw uploaded document (immutable value object).
type Document struct {
	filename string
	handle   string
	format   Format
	data     []byte
}

// New validates and creates a Document.
// filename is the caller-visible original name, handle the opaque storage handle.
// Empty data is allowed: it fails later at extraction, per document.
func New(filename, handle string, format Format, data []byte) (Document, error) {
	if filename == "" {
		return Document{}, fmt.Errorf("document filename is required: %w", domain.ErrInvalidJob)
	}
	if !format.IsValid() {
		return Document{}, fmt.Errorf("document %q format %q: %w", filename, format, domain.ErrUnsupportedFormat)
	}
	return Document{filename: filename, handle: handle, format: format, data: data}, nil
}

// Filename returns the caller-visible original filename.
func (d Document) Filename() string { return d.filename }

// Handle returns the opaque storage handle (empty when the document was never stored).
func (d Document) Handle() string { return d.handle }

// Format returns the declared format.
func (d Document) Format() Format { return d.format }

// Data returns the raw bytes.
func (d Document) Data() []byte { return d.data }

// Normalized is a document after extraction and normalization.
// Empty text marks the document unusable for scoring.
type Normalized struct {
	Filename string
	Handle   string
	Text     string
}

// Usable reports whether the document can take part in scoring.
func (n Normalized) Usable() bool { return n.Text != "" }
