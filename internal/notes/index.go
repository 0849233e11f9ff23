package notes

import (
	"context"
	"sort"
	"strings"
)

// Provider supplies the copilot with a point-in-time view of the notes
// collection. The copilot core never mutates the index; it only takes a
// fresh snapshot per send, so a long tool-chaining conversation may observe
// the index as it was when the send started.
type Provider interface {
	// Snapshot returns the current file index.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Content returns the full body of one file, fetching it on demand if
	// the provider indexes lazily.
	Content(ctx context.Context, path string) (string, error)
}

// Snapshot is an immutable path-to-content mapping. Lookups are exact,
// case-sensitive path matches; there is no fuzzy matching.
type Snapshot struct {
	files map[string]string
}

// NewSnapshot copies the given mapping into a Snapshot.
func NewSnapshot(files map[string]string) *Snapshot {
	copied := make(map[string]string, len(files))
	for path, content := range files {
		copied[path] = content
	}
	return &Snapshot{files: copied}
}

// Get returns the content for an exact path and whether it exists.
func (s *Snapshot) Get(path string) (string, bool) {
	content, ok := s.files[path]
	return content, ok
}

// Paths returns all indexed paths in lexical order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of indexed files.
func (s *Snapshot) Len() int {
	return len(s.files)
}

// Listing renders the index as one path per line, for tool results and
// debugging output.
func (s *Snapshot) Listing() string {
	return strings.Join(s.Paths(), "\n")
}
