// Package upload persists uploaded documents on the local filesystem
// under collision-free names of the form <uuid>_<sanitized name>.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

// Kind is the folder a document is stored under.
type Kind string

// Document kinds.
const (
	KindCV             Kind = "cvs"
	KindJobDescription Kind = "job_description"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool { return k == KindCV || k == KindJobDescription }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Stored is a document read back from storage.
type Stored struct {
	Handle      string
	DisplayName string
	Data        []byte
}

// Store writes documents below baseDir/<kind>/.
type Store struct {
	baseDir string
	mu      sync.RWMutex
	newID   func() string
}

// NewStore creates the kind folders below baseDir.
func NewStore(baseDir string) (*Store, error) {
	for _, k := range []Kind{KindCV, KindJobDescription} {
		if err := os.MkdirAll(filepath.Join(baseDir, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("create upload directory: %w", err)
		}
	}
	return &Store{baseDir: baseDir, newID: func() string { return uuid.NewString() }}, nil
}

// Save writes data and returns its handle, "<kind>/<uuid>_<sanitized name>".
func (s *Store) Save(ctx context.Context, kind Kind, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown upload kind %q: %w", kind, domain.ErrInvalidJob)
	}
	name := SanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("filename %q has no usable characters: %w", filename, domain.ErrInvalidJob)
	}

	stored := s.newID() + "_" + name
	path := filepath.Join(s.baseDir, string(kind), stored)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return string(kind) + "/" + stored, nil
}

// Open reads the document behind handle. Unknown or malformed handles are
// domain.ErrDocumentNotFound.
func (s *Store) Open(ctx context.Context, handle string) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, fmt.Errorf("open upload: %w", err)
	}
	kind, name, err := ParseHandle(handle)
	if err != nil {
		return Stored{}, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(filepath.Join(s.baseDir, string(kind), name))
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Stored{}, fmt.Errorf("%s: %w", handle, domain.ErrDocumentNotFound)
		}
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	return Stored{Handle: handle, DisplayName: DisplayName(name), Data: data}, nil
}

// Remove deletes the document behind handle. A missing file is not an error.
func (s *Store) Remove(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("remove upload: %w", err)
	}
	kind, name, err := ParseHandle(handle)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(filepath.Join(s.baseDir, string(kind), name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// ParseHandle splits a handle into kind and stored name, rejecting anything that
// could escape the kind folder.
func ParseHandle(handle string) (Kind, string, error) {
	k, name, ok := strings.Cut(handle, "/")
	kind := Kind(k)
	if !ok || !kind.IsValid() || name == "" || name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", "", fmt.Errorf("invalid handle %q: %w", handle, domain.ErrDocumentNotFound)
	}
	if SanitizeFilename(name) != name {
		return "", "", fmt.Errorf("invalid handle %q: %w", handle, domain.ErrDocumentNotFound)
	}
	return kind, name, nil
}

// DisplayName strips the "<uuid>_" prefix from a stored name.
func DisplayName(stored string) string {
	prefix, rest, ok := strings.Cut(stored, "_")
	if !ok || rest == "" {
		return stored
	}
	if _, err := uuid.Parse(prefix); err != nil {
		return stored
	}
	return rest
}

// SanitizeFilename reduces name to a safe ASCII base name: accents are folded,
// whitespace becomes "_", other unsafe characters are dropped, and leading dots
// or underscores are trimmed.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		}
	}
	out := unsafeChars.ReplaceAllString(b.String(), "")
	return strings.TrimLeft(out, "._")
}

// Ping checks that every kind folder is still a reachable directory.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ping upload store: %w", err)
	}
	for _, k := range []Kind{KindCV, KindJobDescription} {
		info, err := os.Stat(filepath.Join(s.baseDir, string(k)))
		if err != nil {
			return fmt.Errorf("upload folder %s: %w", k, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("upload folder %s is not a directory", k)
		}
	}
	return nil
}
