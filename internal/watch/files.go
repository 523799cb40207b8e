package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
)

// fileWatcher calls onChange once a burst of writes to path has settled.
type fileWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

func newFileWatcher(path string, debounce time.Duration, onChange func(), logger *slog.Logger) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve watched file").
			WithContext("path", path).
			Build()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}
	return &fileWatcher{path: abs, debounce: debounce, onChange: onChange, watcher: w, logger: logger}, nil
}

// Start watches the directory holding the file; editors often replace the
// file instead of writing it in place.
func (fw *fileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
			WithContext("path", dir).
			Build()
	}
	fw.logger.Info("Watching snapcraft file", logfields.File(fw.path))
	go fw.loop(ctx)
	return nil
}

func (fw *fileWatcher) loop(ctx context.Context) {
	name := filepath.Base(fw.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				fw.logger.Debug("Snapcraft file changed", logfields.File(event.Name), slog.String("op", event.Op.String()))
				fw.trigger()
			} else if event.Has(fsnotify.Remove) {
				fw.logger.Warn("Snapcraft file removed", logfields.File(event.Name))
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

// trigger restarts the debounce timer.
func (fw *fileWatcher) trigger() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.onChange)
}

func (fw *fileWatcher) Close() error {
	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	return fw.watcher.Close()
}
