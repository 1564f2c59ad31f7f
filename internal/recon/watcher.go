package recon

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// Watcher следит за директорией с файлами и прячет записи,
// чьи файлы удалили мимо API (вручную, внешним скриптом).
type Watcher struct {
	dir     string
	store   *storage.Store
	blobs   *blob.Store
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}

	// Группировка событий: редакторы и копирование генерируют
	// серии событий по одному файлу
	pending       map[string]fsnotify.Op
	debounceTimer *time.Timer
	debounceMu    sync.Mutex

	onChange func() // вызывается после обработки пачки событий
}

// NewWatcher создает наблюдатель за директорией dir
func NewWatcher(dir string, store *storage.Store, blobs *blob.Store) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		store:    store,
		blobs:    blobs,
		watcher:  fsWatcher,
		stopChan: make(chan struct{}),
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// OnChange задает колбэк, вызываемый после обработки пачки событий
func (w *Watcher) OnChange(fn func()) {
	w.onChange = fn
}

// Start запускает наблюдение
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	absPath, err := filepath.Abs(w.dir)
	if err != nil {
		return err
	}
	if err := w.watcher.Add(absPath); err != nil {
		return err
	}

	go w.eventLoop()

	logger.InfoLog.Printf("[WATCHER] watching %s", absPath)
	return nil
}

// Stop останавливает наблюдение
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	// Отложенная пачка событий не должна трогать хранилище
	// после начала остановки
	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.pending = make(map[string]fsnotify.Op)
	w.debounceMu.Unlock()

	close(w.stopChan)
	w.watcher.Close()

	logger.InfoLog.Println("[WATCHER] stopped")
	return nil
}

// IsRunning возвращает состояние наблюдателя
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.ErrorLog.Printf("[WATCHER] error: %v", err)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	// Интересуют только пропажи файлов
	if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return
	}

	w.debounceMu.Lock()
	w.pending[event.Name] = event.Op

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(500*time.Millisecond, w.processPending)
	w.debounceMu.Unlock()
}

func (w *Watcher) processPending() {
	// Таймер мог сработать одновременно с остановкой
	if !w.IsRunning() {
		return
	}

	w.debounceMu.Lock()
	events := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.debounceMu.Unlock()

	changed := false
	for path := range events {
		// Rename может означать перемещение внутри директории:
		// если файл всё ещё на месте, запись не трогаем
		if _, err := os.Stat(path); err == nil {
			continue
		}

		url := w.blobs.URL(filepath.Base(path))
		ok, err := w.store.SoftDeleteByURL(url)
		if err != nil {
			logger.ErrorLog.Printf("[WATCHER] failed to mark %s deleted: %v", url, err)
			continue
		}
		if ok {
			logger.InfoLog.Printf("[WATCHER] file removed externally, marked deleted: %s", url)
			changed = true
		}
	}

	if changed && w.onChange != nil {
		w.onChange()
	}
}
