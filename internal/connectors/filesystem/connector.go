// Package filesystem scans and watches local folders for files to ingest.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before its change is
// reported. Editors often write a file several times in a row.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned when the connector has been closed.
var ErrClosed = errors.New("filesystem connector closed")

// Option configures a Connector.
type Option func(*Connector)

// WithFilter limits the connector to files for which fn returns true.
func WithFilter(fn func(path string) bool) Option {
	return func(c *Connector) {
		if fn != nil {
			c.filter = fn
		}
	}
}

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(c *Connector) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithRecursive controls whether subdirectories are scanned and watched.
func WithRecursive(recursive bool) Option {
	return func(c *Connector) {
		c.recursive = recursive
	}
}

// Connector reads a local folder. Hidden files and directories are skipped.
type Connector struct {
	rootPath  string
	filter    func(path string) bool
	debounce  time.Duration
	recursive bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector for the folder at rootPath.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath:  rootPath,
		filter:    func(string) bool { return true },
		debounce:  DefaultDebounce,
		recursive: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the folder being read.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks that the root exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("root path does not exist: %s", c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path is not a directory: %s", c.rootPath)
	}
	return nil
}

// Scan returns the absolute paths of all matching files, sorted.
func (c *Connector) Scan(ctx context.Context) ([]string, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	root := c.absRoot()

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !c.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && c.filter(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// Watch reports file changes under the root until ctx is cancelled, after
// which the channel is closed. Bursts of events for one file are merged
// and reported once the file has been quiet for the debounce period.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	c.watcher = watcher
	c.mu.Unlock()

	if err := c.addDirs(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}

	changes := make(chan domain.FileChange)
	go c.run(ctx, watcher, changes)
	return changes, nil
}

// addDirs watches dir and, when recursive, every non-hidden directory below it.
func (c *Connector) addDirs(watcher *fsnotify.Watcher, dir string) error {
	if !c.recursive {
		return watcher.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if path != dir && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (c *Connector) run(ctx context.Context, watcher *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)
	defer watcher.Close()

	pending := make(map[string]domain.ChangeType)
	var order []string
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	flush := func() bool {
		for _, path := range order {
			change := domain.FileChange{Type: pending[path], Path: path}
			select {
			case out <- change:
			case <-ctx.Done():
				return false
			}
		}
		pending = make(map[string]domain.ChangeType)
		order = order[:0]
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if c.recursive && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := c.addDirs(watcher, event.Name); err != nil {
						logger.Warn("%v", err)
					}
					continue
				}
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			prev, seen := pending[change.Path]
			if !seen {
				order = append(order, change.Path)
			}
			pending[change.Path] = mergeChange(prev, seen, change.Type)
			timer.Reset(c.debounce)

		case <-timer.C:
			if !flush() {
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// mergeChange combines a pending change with a newer one for the same file.
// A file created and then written is still new; a deletion always wins.
func mergeChange(prev domain.ChangeType, seen bool, next domain.ChangeType) domain.ChangeType {
	if !seen {
		return next
	}
	if next == domain.ChangeUpdated && prev == domain.ChangeCreated {
		return domain.ChangeCreated
	}
	return next
}

// handleFsEvent converts an fsnotify event into a file change, or nil when
// the event is not relevant.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.FileChange {
	path := event.Name
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if rel, err := filepath.Rel(c.absRoot(), path); err == nil && isHidden(rel) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !c.filter(path) {
			return nil
		}
		return &domain.FileChange{Type: domain.ChangeDeleted, Path: path}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !c.filter(path) {
			return nil
		}
		if event.Has(fsnotify.Create) {
			return &domain.FileChange{Type: domain.ChangeCreated, Path: path}
		}
		return &domain.FileChange{Type: domain.ChangeUpdated, Path: path}
	}
	return nil
}

func (c *Connector) absRoot() string {
	if abs, err := filepath.Abs(c.rootPath); err == nil {
		return abs
	}
	return c.rootPath
}

// Close stops watching. Watch returns ErrClosed afterwards.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

// ResolvePath converts a file:// URI to a local path. Bare paths pass
// through unchanged.
func ResolvePath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
