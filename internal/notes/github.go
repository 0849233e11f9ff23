package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	githubAPIBase = "https://api.github.com"

	// Blobs above this size are indexed by path only and fetched on demand.
	maxPrefetchBytes = 256 * 1024

	// Concurrent blob downloads during a refresh.
	prefetchWorkers = 8
)

// githubProvider serves notes from a GitHub repository tree. The tree is
// listed once per refresh; file bodies are downloaded concurrently up front
// for small files and on demand for large ones.
type githubProvider struct {
	apiBase string
	repo    string // "owner/name"
	ref     string
	token   string
	client  *http.Client

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewGithubProvider builds the initial index from the repository tree.
func NewGithubProvider(ctx context.Context, repo, ref, token string) (Provider, error) {
	p := &githubProvider{
		apiBase: githubAPIBase,
		repo:    repo,
		ref:     ref,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	if err := p.Refresh(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *githubProvider) Snapshot(_ context.Context) (*Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, nil
}

func (p *githubProvider) Content(ctx context.Context, path string) (string, error) {
	p.mu.RLock()
	content, ok := p.snapshot.Get(path)
	p.mu.RUnlock()
	if ok && content != "" {
		return content, nil
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return p.fetchBlob(ctx, path)
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

type treeResponse struct {
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Refresh re-lists the repository tree and downloads small blobs.
func (p *githubProvider) Refresh(ctx context.Context) error {
	url := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", p.apiBase, p.repo, p.ref)
	body, err := p.get(ctx, url, "application/vnd.github+json")
	if err != nil {
		return fmt.Errorf("could not list repository tree: %w", err)
	}

	var tree treeResponse
	if err := json.Unmarshal(body, &tree); err != nil {
		return fmt.Errorf("could not decode tree response: %w", err)
	}
	if tree.Truncated {
		slog.Warn("GitHub tree listing truncated, index is partial", "repo", p.repo)
	}

	var (
		filesMu sync.Mutex
		files   = map[string]string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchWorkers)

	for _, entry := range tree.Tree {
		if entry.Type != "blob" {
			continue
		}
		if entry.Size > maxPrefetchBytes {
			filesMu.Lock()
			files[entry.Path] = ""
			filesMu.Unlock()
			continue
		}
		g.Go(func() error {
			content, err := p.fetchBlob(gctx, entry.Path)
			if err != nil {
				// A single failed blob should not fail the refresh; the
				// path stays indexed for an on-demand retry.
				slog.Warn("Could not prefetch blob", "path", entry.Path, "error", err)
				content = ""
			}
			filesMu.Lock()
			files[entry.Path] = content
			filesMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.mu.Lock()
	p.snapshot = NewSnapshot(files)
	p.mu.Unlock()
	slog.Info("Refreshed GitHub notes index", "repo", p.repo, "files", len(files))
	return nil
}

func (p *githubProvider) fetchBlob(ctx context.Context, path string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s", p.apiBase, p.repo, path, p.ref)
	body, err := p.get(ctx, url, "application/vnd.github.raw+json")
	if err != nil {
		return "", fmt.Errorf("could not fetch %s: %w", path, err)
	}
	return string(body), nil
}

func (p *githubProvider) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github api returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return io.ReadAll(resp.Body)
}
