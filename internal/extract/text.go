package extract

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractText decodes data as strict UTF-8. A leading BOM is dropped.
func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("malformed UTF-8 at byte %d: %w", firstInvalid(data), domain.ErrExtraction)
	}
	return string(data), nil
}

func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
