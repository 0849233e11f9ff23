package notes

import (
	"context"
	"fmt"
)

// mockProvider is the built-in fallback used when no GitHub repository or
// local directory is configured. It serves a tiny static collection so the
// viewer and the copilot tools still have something to work with.
type mockProvider struct {
	snapshot *Snapshot
}

// NewMockProvider returns a provider over a small static notes collection.
func NewMockProvider() Provider {
	return &mockProvider{snapshot: NewSnapshot(map[string]string{
		"README.md":         "# Notes\n\nThis is a demo notes collection. Configure NOTES_SOURCE to point at a real one.",
		"notes/welcome.md":  "# Welcome\n\nThese sample notes exist so the copilot has files to read.",
		"notes/go-tips.md":  "# Go tips\n\n- Accept interfaces, return structs.\n- Errors are values.",
		"snippets/hello.go": "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n",
		"diagrams/flow.mmd": "graph TD\n    A[Start] --> B[End]\n",
	})}
}

func (p *mockProvider) Snapshot(_ context.Context) (*Snapshot, error) {
	return p.snapshot, nil
}

func (p *mockProvider) Content(_ context.Context, path string) (string, error) {
	content, ok := p.snapshot.Get(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return content, nil
}
