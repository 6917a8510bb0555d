package job

import (
	"context"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/document"
	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// Extractor turns a raw document into text.
type Extractor interface {
	Extract(ctx context.Context, doc document.Document) (string, error)
}

// Normalizer turns text into the normalized token stream. It never fails;
// an empty result marks the document unusable.
type Normalizer interface {
	Normalize(text string) string
}

// ResultStore holds job records. Create fails for an id that is still live.
type ResultStore interface {
	Create(ctx context.Context, id string) error
	Save(ctx context.Context, rec domjob.Record) error
	Get(ctx context.Context, id string) (domjob.Record, error)
}

// Publisher delivers job events to observers.
type Publisher interface {
	Publish(ctx context.Context, ev domjob.Event) error
}
