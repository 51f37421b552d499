package files

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"gdpwaterfall/internal/infrastructure"
)

// Watcher calls OnChange after the watched file is written, created or
// renamed into place. Bursts of events within Delay collapse into one call.
type Watcher struct {
	path     string
	delay    time.Duration
	onChange func(ctx context.Context)
	logger   *slog.Logger
}

// NewWatcher creates a watcher for path
func NewWatcher(path string, delay time.Duration, onChange func(ctx context.Context), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		delay:    delay,
		onChange: onChange,
		logger:   infrastructure.WithComponent(logger, "file_watcher").With(slog.String("path", path)),
	}
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that editors replacing the file atomically are still noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.InfoContext(ctx, "Watching data file")

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.DebugContext(ctx, "Data file changed", slog.String("op", event.Op.String()))
			timer.Reset(w.delay)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "File watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			w.onChange(ctx)
		}
	}
}
