package zone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

const defaultDebounce = 250 * time.Millisecond

// Update describes a zone file that changed on disk. Removed is set when the
// file is gone, in which case Records is empty and Root is the root the file
// last declared.
type Update struct {
	Path    string
	Root    string
	Records []domain.ResourceRecord
	Removed bool
}

// Watcher watches a zone directory and reports changed zone files once
// writes to them have settled.
type Watcher struct {
	dir        string
	defaultTTL time.Duration
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	logger     log.Logger

	mu       sync.Mutex
	roots    map[string]string // path → zone root
	onChange func(Update)
}

// NewWatcher watches dir. known seeds the path → root mapping, normally with
// the result of the initial LoadFiles.
func NewWatcher(dir string, defaultTTL time.Duration, known []File, logger log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create zone watcher: %w", err)
	}
	w := &Watcher{
		dir:        dir,
		defaultTTL: defaultTTL,
		debounce:   defaultDebounce,
		watcher:    fw,
		logger:     log.OrGlobal(logger),
		roots:      make(map[string]string, len(known)),
	}
	if _, err := w.watchTree(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch zone directory: %w", err)
	}
	for _, f := range known {
		w.roots[filepath.Clean(f.Path)] = f.Root
	}
	return w, nil
}

// OnChange registers the callback invoked for every settled change.
func (w *Watcher) OnChange(fn func(Update)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start runs the watch loop until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info(map[string]any{"dir": w.dir}, "Starting zone watcher")

	// Editors write several times per save; only act once they stop.
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(nil, "Zone watcher stopped")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("zone watcher events channel closed")
			}
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				// Files may land in a new directory before its watch exists.
				files, err := w.watchTree(event.Name)
				if err != nil {
					w.logger.Error(map[string]any{"path": event.Name, "error": err}, "Failed to watch zone subdirectory")
				}
				for _, f := range files {
					pending[f] = struct{}{}
				}
				if len(files) > 0 {
					timer.Reset(w.debounce)
				}
				continue
			}
			if !Supported(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending[filepath.Clean(event.Name)] = struct{}{}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("zone watcher errors channel closed")
			}
			w.logger.Error(map[string]any{"error": err}, "Zone watcher error")

		case <-timer.C:
			for path := range pending {
				w.reload(path)
			}
			clear(pending)
		}
	}
}

func (w *Watcher) reload(path string) {
	w.mu.Lock()
	fn := w.onChange
	prevRoot := w.roots[path]
	w.mu.Unlock()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if prevRoot == "" {
			return
		}
		w.forget(path)
		w.logger.Info(map[string]any{"zone": prevRoot, "path": path}, "Zone file removed")
		if fn != nil {
			fn(Update{Path: path, Root: prevRoot, Removed: true})
		}
		return
	}

	f, err := LoadFile(path, w.defaultTTL)
	if err != nil {
		w.logger.Error(map[string]any{"path": path, "error": err}, "Failed to reload zone file")
		return
	}
	if prevRoot != "" && prevRoot != f.Root {
		// The file now declares another zone; the old one is gone.
		if fn != nil {
			fn(Update{Path: path, Root: prevRoot, Removed: true})
		}
	}

	w.mu.Lock()
	w.roots[path] = f.Root
	w.mu.Unlock()

	w.logger.Info(map[string]any{"zone": f.Root, "path": path, "records": len(f.Records)}, "Zone file reloaded")
	if fn != nil {
		fn(Update{Path: path, Root: f.Root, Records: f.Records})
	}
}

// watchTree watches root and every directory below it, matching the
// recursive walk of LoadFiles. It returns the zone files found on the way.
func (w *Watcher) watchTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		if Supported(path) {
			files = append(files, filepath.Clean(path))
		}
		return nil
	})
	return files, err
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.roots, path)
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
