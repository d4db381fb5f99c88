package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
)

// DefaultDebounce collapses bursts of file events, such as a corpus being
// copied in, into one rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Watcher rebuilds the collection when the documents directory changes and
// swaps it into a Service. A failed rebuild keeps the previous collection.
type Watcher struct {
	svc      *Service
	paths    evaluation.Paths
	analyzer analyzer.TextAnalyzer
	workers  int
	debounce time.Duration
	logger   *slog.Logger
}

func NewWatcher(svc *Service, paths evaluation.Paths, a analyzer.TextAnalyzer, workers int) *Watcher {
	return &Watcher{
		svc:      svc,
		paths:    paths,
		analyzer: a,
		workers:  workers,
		debounce: DefaultDebounce,
		logger:   slog.Default().With("component", "corpus-watcher"),
	}
}

// Dir is the directory being watched. A glob is watched through its parent.
func (w *Watcher) Dir() string {
	if w.paths.DocumentsGlob != "" {
		return filepath.Dir(w.paths.DocumentsGlob)
	}
	return w.paths.Documents
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			w.logger.Warn("closing watcher failed", "error", err)
		}
	}()
	if err := fw.Add(w.Dir()); err != nil {
		return fmt.Errorf("watching %s: %w", w.Dir(), err)
	}
	w.logger.Info("watching corpus", "dir", w.Dir(), "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			w.Rebuild(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.paths.DocumentsGlob == "" {
		return true
	}
	ok, err := filepath.Match(w.paths.DocumentsGlob, ev.Name)
	return err == nil && ok
}

// Rebuild reloads the documents and swaps the new collection in.
func (w *Watcher) Rebuild(ctx context.Context) {
	start := time.Now()
	coll, problems, err := evaluation.LoadCollection(w.paths, w.analyzer, w.workers)
	for _, p := range problems {
		w.logger.Warn("document skipped", "error", p)
	}
	if err != nil {
		w.logger.Error("rebuild failed, keeping current collection", "error", err)
		return
	}
	w.svc.Swap(ctx, coll)
	w.logger.Info("collection rebuilt",
		"documents", coll.Len(),
		"vocabulary_size", coll.Index().Size(),
		"duration", time.Since(start),
	)
}
