package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parcel-labs/shipsync/internal/ports"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads the TOML config file when it changes on disk and hands
// the rebuilt Config to a callback. Reloads preserve precedence: values
// pinned by flags or environment variables are not overridden by the file.
type Watcher struct {
	path     string
	base     Config
	changed  map[string]bool
	onChange func(Config)
	logger   ports.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a watcher for the given config file path. The base
// config is the fully resolved startup configuration; reloads start from
// a copy of it.
func NewWatcher(path string, base Config, changed map[string]bool, onChange func(Config), logger ports.Logger) *Watcher {
	return &Watcher{
		path:     path,
		base:     base,
		changed:  changed,
		onChange: onChange,
		logger:   logger,
	}
}

// Run watches the config file's directory until the context is done.
// Editors replace files on save, so the directory is watched rather than
// the file itself.
func (w *Watcher) Run(ctx context.Context) {
	if w.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("config watcher: create failed", ports.Err(err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		w.logger.Warn("config watcher: watch failed",
			ports.String("dir", dir),
			ports.Err(err),
		)
		return
	}

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher: error", ports.Err(err))
		}
	}
}

func (w *Watcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.reload)
}

// reload rebuilds the config from the base plus the file's current
// contents. A file that fails to parse or validate is ignored and the
// previous configuration stays in effect.
func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload: read failed", ports.Err(err))
		return
	}

	cfg := w.base
	if err := ApplyFileConfig(&cfg, fc, w.changed); err != nil {
		w.logger.Warn("config reload: apply failed", ports.Err(err))
		return
	}
	// Environment still outranks the file.
	if err := ApplyEnvConfig(&cfg, w.changed); err != nil {
		w.logger.Warn("config reload: env failed", ports.Err(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("config reload: invalid, keeping previous", ports.Err(err))
		return
	}

	w.logger.Info("configuration reloaded", ports.String("path", w.path))
	w.onChange(cfg)
}
