package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// DefaultDebounce is how long the watcher waits after the last change
	// before reloading.
	DefaultDebounce = 250 * time.Millisecond
	// MinDebounce is the shortest quiet period a watcher accepts.
	MinDebounce = 10 * time.Millisecond
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// OnReload registers fn to receive the result of every watched reload. fn
// runs on the watcher's event loop and must not block.
func OnReload(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// Watcher reloads a Catalog when system or override files in a DirSource
// change. Bursts of events are coalesced into one reload.
type Watcher struct {
	catalog  *Catalog
	source   *DirSource
	logger   *zap.Logger
	debounce time.Duration

	watcher  *fsnotify.Watcher
	done     chan struct{}
	onReload func(error)
}

// NewWatcher creates a watcher over source's directories.
//
// Precondition: catalog and source must be non-nil.
// Postcondition: Returns a Watcher that is not yet started, or an error if the
// file notification backend is unavailable.
func NewWatcher(catalog *Catalog, source *DirSource, logger *zap.Logger, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		catalog:  catalog,
		source:   source,
		logger:   logger,
		debounce: DefaultDebounce,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SetDebounce changes the quiet period before a reload. Call before Start.
// Zero or negative keeps the current value; anything shorter than MinDebounce
// is raised to it.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d <= 0 {
		return
	}
	w.debounce = max(d, MinDebounce)
}

// Start begins watching. Reloads run with ctx until Stop is called.
//
// Postcondition: Returns nil once the data directory is being watched. The
// overrides directory is watched only if it exists.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.source.Dir); err != nil {
		return err
	}
	overrides := w.source.overridesDir()
	if info, err := os.Stat(overrides); err == nil && info.IsDir() {
		if err := w.watcher.Add(overrides); err != nil {
			return err
		}
	}
	go w.loop(ctx)
	return nil
}

// Stop closes the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isCatalogFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watch error", zap.Error(err))

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	err := w.catalog.Reload(ctx, w.source)
	if err != nil {
		w.logger.Warn("catalog reload failed; keeping previous snapshot", zap.Error(err))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

func isCatalogFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}
