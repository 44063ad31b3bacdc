package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"spacesync/internal/domain"
)

// DefaultDebounce is the quiet period before a batch of changes is delivered
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports batches of changed markdown files below a working directory
type Watcher struct {
	root     string
	debounce time.Duration
	logger   zerolog.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	closed  bool
}

// NewWatcher creates a recursive watcher on root. Hidden directories are ignored.
func NewWatcher(root string, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:     ExpandHome(root),
		debounce: debounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
		fsw:      fsw,
		pending:  map[string]struct{}{},
	}
	if err := w.addRecursive(w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return afero.Walk(afero.NewOsFs(), dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if p != w.root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// Run delivers changed paths, relative to the root, until ctx is done.
// onBatch is called from a single goroutine, never concurrently.
func (w *Watcher) Run(ctx context.Context, onBatch func([]string)) error {
	defer w.fsw.Close()

	batches := make(chan []string, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for batch := range batches {
			onBatch(batch)
		}
	}()
	defer func() {
		w.mu.Lock()
		w.closed = true
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		close(batches)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event, batches)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, batches chan<- []string) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if isHidden(rel) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn().Err(err).Str("dir", rel).Msg("failed to watch new directory")
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(rel), domain.PageExt) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[rel] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(batches) })
}

// flush hands the pending paths to the consumer. While the previous batch is
// still running the paths stay pending and the timer is re-armed.
func (w *Watcher) flush(batches chan<- []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || len(w.pending) == 0 {
		return
	}

	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	sort.Strings(batch)

	select {
	case batches <- batch:
		w.pending = map[string]struct{}{}
	default:
		w.timer = time.AfterFunc(w.debounce, func() { w.flush(batches) })
	}
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
