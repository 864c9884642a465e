// Package fswatch watches storage roots with fsnotify and reports coalesced,
// rate-limited change events.
package fswatch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/camdeck/internal/core/ports/driven"
	"github.com/custodia-labs/camdeck/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.RootWatcher = (*Watcher)(nil)

// Defaults used when Config leaves a field empty.
const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultMinInterval = 10 * time.Second
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher closed")

// Config configures a Watcher.
type Config struct {
	// Debounce is how long a root must be quiet before its changes are
	// reported.
	Debounce time.Duration

	// MinInterval is the minimum time between two reports.
	MinInterval time.Duration

	Logger *logger.Logger
}

// Watcher reports changes beneath storage roots. Every directory under a
// root is watched and directories created later are added as they appear.
type Watcher struct {
	cfg     Config
	limiter *rate.Limiter

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	closed bool
}

// NewWatcher creates a watcher.
func NewWatcher(cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Watcher{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

// Watch starts watching roots.
func (w *Watcher) Watch(ctx context.Context, roots []string) (<-chan driven.WatchEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.fsw != nil {
		return nil, errors.New("watcher already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	clean := make([]string, 0, len(roots))
	for _, root := range roots {
		root = filepath.Clean(root)
		if err := w.addTree(fsw, root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
		clean = append(clean, root)
	}
	w.fsw = fsw

	out := make(chan driven.WatchEvent)
	go w.loop(ctx, fsw, clean, out)
	return out, nil
}

// addTree watches dir and every directory beneath it. Subtrees that cannot
// be read are skipped; an unreadable root is an error.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.cfg.Logger.Warn("Not watching %s: %v", path, err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.cfg.Logger.Warn("Not watching %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, roots []string, out chan<- driven.WatchEvent) {
	defer close(out)
	defer func() { _ = fsw.Close() }()

	pending := make(map[string][]string)
	flush := time.NewTimer(time.Hour)
	flush.Stop()
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			root, relevant := w.handle(fsw, roots, ev)
			if !relevant {
				continue
			}
			pending[root] = append(pending[root], ev.Name)
			flush.Reset(w.cfg.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Warn("Watch error: %v", err)

		case <-flush.C:
			if len(pending) == 0 {
				continue
			}
			r := w.limiter.Reserve()
			if d := r.Delay(); d > 0 {
				r.Cancel()
				flush.Reset(d)
				continue
			}
			for _, ev := range drain(pending) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handle reports whether ev concerns a clip and which root it belongs to.
// New directories are added to the watch.
func (w *Watcher) handle(fsw *fsnotify.Watcher, roots []string, ev fsnotify.Event) (string, bool) {
	if ev.Op == fsnotify.Chmod || hidden(ev.Name) {
		return "", false
	}
	root := rootOf(roots, ev.Name)
	if root == "" {
		return "", false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, ev.Name); err != nil {
				w.cfg.Logger.Warn("Not watching %s: %v", ev.Name, err)
			}
		}
	}
	return root, true
}

// Close stops watching. The event channel is closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

// drain turns pending paths into events ordered by root and empties pending.
func drain(pending map[string][]string) []driven.WatchEvent {
	events := make([]driven.WatchEvent, 0, len(pending))
	for root, paths := range pending {
		events = append(events, driven.WatchEvent{Root: root, Paths: dedupe(paths)})
		delete(pending, root)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Root < events[j].Root })
	return events
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// rootOf returns the longest root containing path.
func rootOf(roots []string, path string) string {
	best := ""
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			if len(root) > len(best) {
				best = root
			}
		}
	}
	return best
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
