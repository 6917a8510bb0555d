package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

// pageSeparator is inserted between the texts of consecutive pages.
const pageSeparator = " "

// pageSource abstracts a paginated document for text joining.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

// PageText returns the plain text of the 1-based page i.
func (p pdfPages) PageText(i int) (text string, err error) {
	// The PDF reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", i, r)
		}
	}()

	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil) //nolint:wrapcheck // wrapped by joinPages caller
}

func extractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf: %w", domain.ErrExtraction)
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("corrupt pdf: %v: %w", r, domain.ErrExtraction)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %v: %w", err, domain.ErrExtraction)
	}
	return joinPages(pdfPages{r: r}), nil
}

// joinPages concatenates the text of every page. Pages that yield no text,
// or fail to decode, are skipped.
func joinPages(src pageSource) string {
	var b strings.Builder
	for i := 1; i <= src.NumPage(); i++ {
		text, err := src.PageText(i)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(pageSeparator)
		}
		b.WriteString(text)
	}
	return b.String()
}
