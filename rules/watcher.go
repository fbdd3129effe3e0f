package rules

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
)

// ReloadCallback receives the freshly loaded scope after the rules file changes.
type ReloadCallback func(Scope) error

// Watcher reloads a rules file when it changes on disk.
// The parent directory is watched so editors that replace the file on save
// are still noticed.
type Watcher struct {
	path           string
	watcher        *fsnotify.Watcher
	logger         *zap.SugaredLogger
	mu             sync.Mutex
	reloadMu       sync.Mutex // held for a whole reload; Stop waits on it
	callbacks      []ReloadCallback
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	started        bool
	stopped        bool
	done           chan struct{}
}

// NewWatcher creates a watcher for the rules file at path. Call Start to begin.
func NewWatcher(path string, log *zap.SugaredLogger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve rules file %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch rules file %s", abs)
	}

	return &Watcher{
		path:           abs,
		watcher:        fw,
		logger:         logger.OrNop(log),
		debouncePeriod: 200 * time.Millisecond,
		done:           make(chan struct{}),
	}, nil
}

// OnReload registers a callback.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Debugw("Rules file changed", logger.FieldFile, event.Name, "op", event.Op.String())
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Rules watcher error", logger.FieldError, err)
		}
	}
}

// scheduleReload debounces bursts of events from a single save.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		if err := w.reload(); err != nil {
			w.logger.Errorw("Rules reload failed", logger.FieldFile, w.path, logger.FieldError, err)
		}
	})
}

func (w *Watcher) reload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return nil
	}

	scope, err := LoadFile(w.path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Infow("Rules reloaded", logger.FieldFile, w.path,
		"rules", len(scope.Rules), logger.FieldRulesets, len(scope.Rulesets))

	for _, cb := range callbacks {
		if err := cb(scope); err != nil {
			w.logger.Warnw("Rules reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching and waits for the event loop and any in-flight
// reload to finish. No callback runs after Stop returns.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	started := w.started
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}

	// wait out a reload that passed the stopped check before we set it
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	return err
}
