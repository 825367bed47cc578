package dataset

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of write events editors and copies
// produce into a single reload.
const debounceWindow = 500 * time.Millisecond

// Watcher invalidates the store when the source CSV files change on disk
// and notifies listeners so connected clients can refresh.
type Watcher struct {
	store    *Store
	logger   *slog.Logger
	dir      string
	files    map[string]bool
	onChange func(file string)
}

// NewWatcher creates a watcher over the directory containing the dataset
// files. onChange may be nil.
func NewWatcher(store *Store, dailyPath, hourlyPath string, onChange func(file string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:  store,
		logger: logger.With(slog.String("component", "dataset.watcher")),
		dir:    filepath.Dir(dailyPath),
		files: map[string]bool{
			filepath.Clean(dailyPath):  true,
			filepath.Clean(hourlyPath): true,
		},
		onChange: onChange,
	}
}

// Run watches until the context is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "watching dataset directory", slog.String("dir", w.dir))

	var (
		timer   *time.Timer
		pending string
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = filepath.Base(event.Name)
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.store.Invalidate()
			w.logger.InfoContext(ctx, "dataset changed, cache invalidated",
				slog.String("file", pending))
			if w.onChange != nil {
				w.onChange(pending)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "watch error", slog.String("error", err.Error()))
		}
	}
}
