package filestore

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow delays reloads after a change notification so a burst of
// writes (or our own write followed by its notification) triggers a single
// reload once the file has settled.
const debounceWindow = 300 * time.Millisecond

// CatalogWatcher watches the catalog's backing files and reloads the
// affected collection when they change, so external edits are picked up
// without a restart.
type CatalogWatcher struct {
	catalog *Catalog
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	stopCh  chan struct{}

	mu       sync.Mutex
	timers   map[string]*time.Timer
	onReload func(kind string)
}

// NewCatalogWatcher creates a watcher over the catalog's concepts directory
// and the directories holding the topics and barriers files. Watching the
// parent directories also catches atomic saves done via rename.
func NewCatalogWatcher(catalog *Catalog, logger *zap.Logger) (*CatalogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	paths := []string{
		catalog.conceptsDir,
		filepath.Dir(catalog.topicsFile),
	}
	if filepath.Dir(catalog.barriersFile) != filepath.Dir(catalog.topicsFile) {
		paths = append(paths, filepath.Dir(catalog.barriersFile))
	}
	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	return &CatalogWatcher{
		catalog: catalog,
		watcher: watcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
		timers:  make(map[string]*time.Timer),
	}, nil
}

// OnReload registers a callback invoked after each completed reload with
// the reloaded collection name ("concepts", "topics" or "barriers").
func (w *CatalogWatcher) OnReload(fn func(kind string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Start begins watching for catalog file changes.
func (w *CatalogWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Catalog watcher started", zap.String("conceptsDir", w.catalog.conceptsDir))
}

// Stop stops watching for catalog file changes.
func (w *CatalogWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Catalog watcher stopped")
}

func (w *CatalogWatcher) watchLoop() {
	for {
		select {
		case <-w.stopCh:
			w.stopTimers()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if kind := w.classify(event.Name); kind != "" {
				w.scheduleReload(kind)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// classify maps a changed path to the collection it backs. Temp files from
// atomic writes are ignored until the final rename lands.
func (w *CatalogWatcher) classify(path string) string {
	if strings.HasSuffix(path, ".tmp") {
		return ""
	}
	switch {
	case filepath.Base(path) == filepath.Base(w.catalog.topicsFile):
		return "topics"
	case filepath.Base(path) == filepath.Base(w.catalog.barriersFile):
		return "barriers"
	case filepath.Dir(path) == filepath.Clean(w.catalog.conceptsDir) && strings.HasSuffix(path, ".yaml"):
		return "concepts"
	}
	return ""
}

// scheduleReload resets the debounce timer for the collection so rapid
// successive events collapse into one reload.
func (w *CatalogWatcher) scheduleReload(kind string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[kind]; ok {
		timer.Stop()
	}
	w.timers[kind] = time.AfterFunc(debounceWindow, func() {
		w.reload(kind)
	})
}

func (w *CatalogWatcher) reload(kind string) {
	w.logger.Info("Catalog files changed, reloading", zap.String("collection", kind))

	switch kind {
	case "concepts":
		if err := w.catalog.ReloadConcepts(); err != nil {
			w.logger.Error("Failed to reload concepts", zap.Error(err))
			return
		}
	case "topics":
		w.catalog.ReloadTopics()
	case "barriers":
		w.catalog.ReloadBarriers()
	}

	w.mu.Lock()
	fn := w.onReload
	w.mu.Unlock()
	if fn != nil {
		fn(kind)
	}
}

func (w *CatalogWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, timer := range w.timers {
		timer.Stop()
	}
}
