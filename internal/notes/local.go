package notes

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// localProvider serves notes from a directory on disk. The directory is
// scanned once at startup and rescanned whenever fsnotify reports a change,
// so snapshots stay cheap to take.
type localProvider struct {
	root string

	mu       sync.RWMutex
	snapshot *Snapshot

	watcher *fsnotify.Watcher
}

// NewLocalProvider scans root and starts watching it for changes. Call
// Close to stop the watcher.
func NewLocalProvider(root string) (Provider, error) {
	p := &localProvider{root: root}
	if err := p.rescan(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %w", err)
	}
	p.watcher = watcher

	if err := watcher.Add(root); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("could not watch %s: %w", root, err)
	}
	// Watch subdirectories too; fsnotify is not recursive by itself.
	for _, dir := range p.subdirs() {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("Could not watch notes subdirectory", "dir", dir, "error", err)
		}
	}

	go p.watch()
	return p, nil
}

func (p *localProvider) Snapshot(_ context.Context) (*Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, nil
}

func (p *localProvider) Content(_ context.Context, path string) (string, error) {
	p.mu.RLock()
	content, ok := p.snapshot.Get(path)
	p.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return content, nil
}

// Close stops the filesystem watcher.
func (p *localProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	return p.watcher.Close()
}

func (p *localProvider) watch() {
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Notes directory changed, rescanning", "event", event.String())
			if err := p.rescan(); err != nil {
				slog.Warn("Failed to rescan notes directory", "error", err)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Notes watcher error", "error", err)
		}
	}
}

func (p *localProvider) rescan() error {
	files := map[string]string{}
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != p.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable note", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not scan notes directory: %w", err)
	}

	p.mu.Lock()
	p.snapshot = NewSnapshot(files)
	p.mu.Unlock()
	return nil
}

func (p *localProvider) subdirs() []string {
	var dirs []string
	_ = filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != p.root {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}
