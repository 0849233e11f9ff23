package service

import (
	"context"
	"errors"

	app_errors "notepilot/backend/internal/errors"
	"notepilot/backend/internal/notes"
)

// FileIndexService exposes the read-only notes collection to the API
// layer. It is a thin translation shim over the notes provider: provider
// errors are mapped onto the application's error vocabulary here, so
// handlers never depend on the notes package directly.
type FileIndexService struct {
	provider notes.Provider
}

func NewFileIndexService(provider notes.Provider) *FileIndexService {
	return &FileIndexService{provider: provider}
}

// ListFiles returns all indexed paths, sorted.
func (s *FileIndexService) ListFiles(ctx context.Context) ([]string, error) {
	snap, err := s.provider.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Paths(), nil
}

// ReadFile returns the full content of one indexed file.
func (s *FileIndexService) ReadFile(ctx context.Context, path string) (string, error) {
	content, err := s.provider.Content(ctx, path)
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return "", app_errors.ErrNotFound
		}
		return "", err
	}
	return content, nil
}
