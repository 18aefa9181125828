package textcontent

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps a parsed snapshot of a document file current. The directory
// is watched rather than the file so editors that replace the file on save
// still trigger a reload.
type Watcher struct {
	path     string
	fetcher  *Fetcher
	logger   *zap.Logger
	current  atomic.Pointer[TextContent]
	onReload func(TextContent)
}

// NewWatcher loads path once and returns a watcher ready to Run.
func NewWatcher(ctx context.Context, path string, opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("textcontent: watch path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fetcher := NewFetcher(FileSource{Path: abs}, opts...)
	w := &Watcher{
		path:    abs,
		fetcher: fetcher,
		logger:  fetcher.logger,
	}
	w.reload(ctx)
	return w, nil
}

// OnReload registers fn to be called after every reload. Must be called
// before Run.
func (w *Watcher) OnReload(fn func(TextContent)) {
	w.onReload = fn
}

// Current returns the latest snapshot.
func (w *Watcher) Current() TextContent {
	if snap := w.current.Load(); snap != nil {
		return *snap
	}
	return Empty()
}

// Fetch implements the same contract as Fetcher.Fetch using the snapshot.
func (w *Watcher) Fetch(context.Context) TextContent {
	return w.Current()
}

// Run blocks until ctx is cancelled, reloading on every change to the file.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("textcontent: watching", zap.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// A rename or remove leaves nothing to read; the save that follows
			// arrives as a Create.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(ctx)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("textcontent: watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	snap := w.fetcher.Fetch(ctx)
	w.current.Store(&snap)
	w.logger.Debug("textcontent: reloaded", zap.String("path", w.path))
	if w.onReload != nil {
		w.onReload(snap)
	}
}
