package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/strataconf/strata/pkg/events"
	"github.com/strataconf/strata/pkg/log"
	"github.com/strataconf/strata/pkg/metrics"
	"github.com/strataconf/strata/pkg/resolver"
)

// DefaultDebounce batches the burst of filesystem events an editor or
// atomic rename produces for a single logical change.
const DefaultDebounce = 250 * time.Millisecond

// Watcher invalidates resolver cache entries when a namespace's file
// sources change on disk. It watches parent directories rather than the
// files themselves so atomic replace-by-rename is still observed.
type Watcher struct {
	resolver *resolver.Resolver
	broker   *events.Broker
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	paths    map[string]string      // absolute file path -> namespace
	pending  map[string]*time.Timer // namespace -> debounce timer
	watching map[string]bool        // directories already added
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates a watcher bound to a resolver. The broker is optional;
// when present, a source.changed event is published per invalidation.
func NewWatcher(res *resolver.Resolver, broker *events.Broker) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		resolver: res,
		broker:   broker,
		fs:       fs,
		debounce: DefaultDebounce,
		logger:   log.WithComponent("watch"),
		paths:    make(map[string]string),
		pending:  make(map[string]*time.Timer),
		watching: make(map[string]bool),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// WatchNamespace registers every file-backed source of a namespace
func (w *Watcher) WatchNamespace(name string) error {
	ns, ok := w.resolver.Namespace(name)
	if !ok {
		return fmt.Errorf("unknown namespace %q", name)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, src := range ns.Sources {
		if src.Location == "" {
			continue
		}
		abs, err := filepath.Abs(src.Location)
		if err != nil {
			return err
		}
		w.paths[abs] = name

		dir := filepath.Dir(abs)
		if !w.watching[dir] {
			if err := w.fs.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			w.watching[dir] = true
		}
	}
	return nil
}

// Start begins the watch loop
func (w *Watcher) Start() {
	go w.run()
}

// Stop stops the watch loop and releases the underlying watcher
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	_ = w.fs.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.handle(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handle(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	namespace, ok := w.paths[abs]
	if !ok {
		return
	}

	// Reset the namespace's debounce window on every event
	if timer, ok := w.pending[namespace]; ok {
		timer.Stop()
	}
	w.pending[namespace] = time.AfterFunc(w.debounce, func() {
		w.fire(namespace, abs)
	})
}

func (w *Watcher) fire(namespace, path string) {
	w.mu.Lock()
	delete(w.pending, namespace)
	w.mu.Unlock()

	w.logger.Debug().
		Str("namespace", namespace).
		Str("path", path).
		Msg("source changed, invalidating")

	w.resolver.Invalidate(namespace)
	metrics.WatchEventsTotal.WithLabelValues(namespace).Inc()

	if w.broker != nil {
		w.broker.Publish(&events.Event{
			Type:    events.EventSourceChanged,
			Message: "source file changed",
			Metadata: map[string]string{
				"namespace": namespace,
				"path":      path,
			},
		})
	}
}
