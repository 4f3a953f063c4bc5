package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is one file that changed during a debounce window.
type Change struct {
	Path string
	Op   fsnotify.Op
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch, recursively.
	Paths []string

	// Ignore lists names, path fragments or globs to skip.
	Ignore []string

	// Debounce is the quiet period after the last event before OnChange runs.
	Debounce time.Duration

	Logger *slog.Logger
}

// DefaultIgnore contains the patterns skipped when Ignore is empty.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	".DS_Store",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher reports batches of file changes under a set of directories.
type Watcher struct {
	config   WatcherConfig
	fsw      *fsnotify.Watcher
	ready    chan struct{}
	mu       sync.Mutex
	onChange func([]Change)
	pending  map[string]Change
}

// NewWatcher creates a watcher. Call Run to start it.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:  config,
		fsw:     fsw,
		ready:   make(chan struct{}),
		pending: make(map[string]Change),
	}, nil
}

// OnChange sets the callback for change batches. Changes are sorted by path.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Ready is closed once every watched directory has been registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for _, p := range w.config.Paths {
		if err := w.addTree(p); err != nil {
			close(w.ready)
			return err
		}
	}
	close(w.ready)

	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.config.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Warn("watch error", "error", err)

		case <-timer.C:
			w.flush()
		}
	}
}

// handle records ev and reports whether it counts as a change.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.shouldIgnore(ev.Name) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.config.Logger.Warn("watch new directory failed", "path", ev.Name, "error", err)
			}
		}
	}

	w.mu.Lock()
	prev := w.pending[ev.Name]
	w.pending[ev.Name] = Change{Path: ev.Name, Op: prev.Op | ev.Op}
	w.mu.Unlock()
	return true
}

func (w *Watcher) flush() {
	w.mu.Lock()
	fn := w.onChange
	changes := make([]Change, 0, len(w.pending))
	for _, c := range w.pending {
		changes = append(changes, c)
	}
	w.pending = make(map[string]Change)
	w.mu.Unlock()

	if fn == nil || len(changes) == 0 {
		return
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	fn(changes)
}

// addTree registers root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// shouldIgnore matches a path against the ignore list. Plain names match any
// path segment, names with a separator match a run of segments, and globs
// match the base name (or the whole path when they contain a separator).
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasSep := strings.ContainsAny(pattern, `/\`)
		if strings.ContainsAny(pattern, "*?[") {
			target := name
			if hasSep {
				target = normalized
				pattern = filepath.ToSlash(pattern)
			}
			if ok, _ := path.Match(pattern, target); ok {
				return true
			}
			continue
		}

		if containsSegments(splitSegments(normalized), splitSegments(filepath.ToSlash(pattern))) {
			return true
		}
	}
	return false
}

func containsSegments(parts, want []string) bool {
	if len(want) == 0 || len(want) > len(parts) {
		return false
	}
	for i := 0; i+len(want) <= len(parts); i++ {
		match := true
		for j := range want {
			if parts[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}
