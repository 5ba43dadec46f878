package content

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultReloadDebounce = 250 * time.Millisecond

// ErrStoreNotWatchable indicates the store was built from defaults and has no file to watch.
var ErrStoreNotWatchable = errors.New("content: store has no file to watch")

// Store serves the current Site and swaps in a new one when the content file changes.
type Store struct {
	path     string
	current  atomic.Pointer[Site]
	logger   *zap.Logger
	debounce time.Duration

	mutex   sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore loads path (or the defaults when path is empty).
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	site, err := Load(path)
	if err != nil {
		return nil, err
	}
	store := &Store{path: strings.TrimSpace(path), logger: logger, debounce: defaultReloadDebounce}
	store.current.Store(&site)
	return store, nil
}

// StaticStore wraps an already prepared Site.
func StaticStore(site Site) *Store {
	store := &Store{logger: zap.NewNop(), debounce: defaultReloadDebounce}
	store.current.Store(&site)
	return store
}

// Site returns the content currently served.
func (store *Store) Site() Site {
	return *store.current.Load()
}

// Reload re-reads the content file. A broken file keeps the previous content.
func (store *Store) Reload() error {
	if store.path == "" {
		return ErrStoreNotWatchable
	}
	site, err := Load(store.path)
	if err != nil {
		store.logger.Warn("content_reload_failed", zap.String("path", store.path), zap.Error(err))
		return err
	}
	store.current.Store(&site)
	store.logger.Info("content_reloaded", zap.String("path", store.path))
	return nil
}

// Watch reloads the content whenever the file is written or replaced, until ctx ends or Close is called.
// The parent directory is watched so editors that rename over the file are seen.
func (store *Store) Watch(ctx context.Context) error {
	if store.path == "" {
		return ErrStoreNotWatchable
	}
	store.mutex.Lock()
	if store.watcher != nil {
		store.mutex.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		store.mutex.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(store.path)); err != nil {
		store.mutex.Unlock()
		_ = watcher.Close()
		return err
	}
	store.watcher = watcher
	store.done = make(chan struct{})
	store.mutex.Unlock()

	go store.run(ctx, watcher, store.done)
	return nil
}

// Close stops watching and waits for the watch loop to exit.
func (store *Store) Close() error {
	store.mutex.Lock()
	watcher := store.watcher
	done := store.done
	store.watcher = nil
	store.done = nil
	store.mutex.Unlock()
	if watcher == nil {
		return nil
	}
	closeErr := watcher.Close()
	<-done
	return closeErr
}

func (store *Store) run(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	target := filepath.Clean(store.path)
	var reloadTimer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reloadTimer = time.After(store.debounce)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			store.logger.Warn("content_watch_error", zap.Error(watchErr))
		case <-reloadTimer:
			reloadTimer = nil
			_ = store.Reload()
		}
	}
}
