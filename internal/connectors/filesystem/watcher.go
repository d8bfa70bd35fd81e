// Package filesystem watches a directory and adds new or rewritten files to
// the knowledge base.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DefaultDebounce is the quiet period after the last write before a file is ingested.
const DefaultDebounce = 500 * time.Millisecond

// ErrWatcherClosed is returned when Run is called on a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Ingester adds a file to the knowledge base.
type Ingester interface {
	AddFile(ctx context.Context, path string) (*domain.IngestResult, error)
}

// ResultFunc is called after each ingestion attempt.
type ResultFunc func(path string, result *domain.IngestResult, err error)

// Watcher feeds supported files written under a root directory to an Ingester.
// Hidden files and directories are ignored. Removals are not propagated: the
// knowledge base is append-only.
type Watcher struct {
	root        string
	ingester    Ingester
	debounce    time.Duration
	initialScan bool
	onResult    ResultFunc

	mu      sync.Mutex
	closed  bool
	pending map[string]*time.Timer
	cancel  context.CancelFunc
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the per-file quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInitialScan ingests supported files already present when Run starts.
func WithInitialScan() Option {
	return func(w *Watcher) {
		w.initialScan = true
	}
}

// WithResultHandler registers a callback for every ingestion attempt.
func WithResultHandler(fn ResultFunc) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// New creates a watcher for root.
func New(root string, ingester Ingester, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		ingester: ingester,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Run watches until ctx is cancelled or Close is called. Files are ingested
// one at a time, in the order their quiet periods end.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()
	defer cancel()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	var existing []string
	if err := w.addTree(fsw, w.root, &existing); err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	if !w.initialScan {
		existing = nil
	}
	return w.serve(ctx, fsw, existing)
}

// serve runs the event loop until ctx is cancelled or fsw shuts down.
// Paths in initial are scheduled before the first event.
func (w *Watcher) serve(ctx context.Context, fsw *fsnotify.Watcher, initial []string) error {
	ctx, cancel := context.WithCancel(ctx)
	ready := make(chan string, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.ingestLoop(ctx, ready)
	}()
	defer func() {
		cancel()
		w.stopTimers()
		wg.Wait()
	}()

	for _, path := range initial {
		w.schedule(ctx, path, ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, event, ready)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// Close stops a running watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}

// handleEvent schedules supported files and starts watching new directories.
func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event, ready chan<- string) {
	path := event.Name
	if isHidden(relativeTo(w.root, path)) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			logger.Debug("Ignoring removal of %s", path)
		}
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			var created []string
			if err := w.addTree(fsw, path, &created); err != nil {
				logger.Warn("%v", err)
			}
			// Files copied in with the directory produce no events of their own.
			for _, p := range created {
				w.schedule(ctx, p, ready)
			}
		}
		return
	}

	if !Supported(path) {
		logger.Debug("Skipping unsupported file %s", path)
		return
	}
	w.schedule(ctx, path, ready)
}

// schedule (re)starts the quiet period for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) ingestLoop(ctx context.Context, ready <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-ready:
			result, err := w.ingester.AddFile(ctx, path)
			switch {
			case err != nil:
				logger.Warn("Failed to add %s: %v", path, err)
			case result != nil:
				logger.Info("%s", result.Message)
			}
			if w.onResult != nil {
				w.onResult(path, result, err)
			}
		}
	}
}

// addTree watches dir and its visible subdirectories, collecting the
// supported files found along the way.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, files *[]string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Cannot read %s: %v", path, err)
			return nil
		}
		if path != w.root && isHidden(relativeTo(w.root, path)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			return nil
		}
		if Supported(path) {
			*files = append(*files, path)
		}
		return nil
	})
}

// Supported reports whether path has a format the knowledge base can load
// and is not hidden.
func Supported(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	_, err := domain.FormatFromPath(path)
	return err == nil
}

// relativeTo returns path relative to root, or path itself if it is outside root.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
