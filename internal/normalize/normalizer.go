// Package normalize turns extracted text into the token stream fed to embedding.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// tokenPattern matches word runs (letters and digits, with inner apostrophes)
// or runs of punctuation and symbols.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*|[\p{P}\p{S}]+`)

// Lemmatizer maps an inflected word to its base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Normalizer lowercases, tokenizes, lemmatizes and filters text.
type Normalizer struct {
	lemmatizer Lemmatizer
	stopwords  map[string]struct{}
	lower      cases.Caser
	logger     *zap.Logger
}

// New creates a Normalizer over the given lemmatizer.
// A nil lemmatizer keeps tokens as they are.
func New(lemmatizer Lemmatizer, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		lemmatizer: lemmatizer,
		stopwords:  englishStopwords(),
		lower:      cases.Lower(language.English),
		logger:     logger,
	}
}

// NewEnglish creates a Normalizer backed by the golem English dictionary.
func NewEnglish(logger *zap.Logger) (*Normalizer, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemmatizer: %w", err)
	}
	return New(lem, logger), nil
}

// Normalize returns the surviving lemmas joined by single spaces.
// It never fails: empty input or an internal failure yields "".
func (n *Normalizer) Normalize(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("normalization failed", zap.Any("panic", r))
			out = ""
		}
	}()

	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = n.lower.String(norm.NFKC.String(text))
	tokens := tokenPattern.FindAllString(text, -1)

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isPunct(tok) || n.isStop(tok) {
			continue
		}
		lemma := tok
		if n.lemmatizer != nil {
			if l := n.lemmatizer.Lemma(tok); l != "" {
				lemma = strings.ToLower(l)
			}
		}
		if n.isStop(lemma) {
			continue
		}
		kept = append(kept, lemma)
	}
	return strings.Join(kept, " ")
}

func (n *Normalizer) isStop(tok string) bool {
	_, ok := n.stopwords[strings.ReplaceAll(tok, "’", "'")]
	return ok
}

// isPunct reports whether tok consists only of punctuation or symbols.
func isPunct(tok string) bool {
	for _, r := range tok {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
