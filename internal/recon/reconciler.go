package recon

import (
	"fmt"
	"sync"
	"time"

	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// Reconciler сверяет метаданные с файлами на диске.
// Записи, у которых файл пропал, помечаются удалёнными одной пачкой.
type Reconciler struct {
	store *storage.Store
	blobs *blob.Store

	mu       sync.RWMutex
	running  bool
	progress Progress
}

// Progress содержит результат последней сверки
type Progress struct {
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Checked    int       `json:"checked"`
	Missing    int       `json:"missing"`
	Marked     int       `json:"marked"`
}

// NewReconciler создает сверку метаданных с диском
func NewReconciler(store *storage.Store, blobs *blob.Store) *Reconciler {
	return &Reconciler{
		store: store,
		blobs: blobs,
	}
}

// Run выполняет одну сверку синхронно. Параллельные запуски не
// допускаются: второй вызов во время работы возвращает ошибку.
// Повторная сверка без изменений на диске ничего не помечает.
func (r *Reconciler) Run() (Progress, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return Progress{}, fmt.Errorf("reconcile already in progress")
	}
	r.running = true
	r.progress = Progress{
		Running:   true,
		StartedAt: time.Now(),
	}
	r.mu.Unlock()

	// Снимок возвращается после финализации, чтобы вызывающий
	// никогда не увидел Running=true для завершённой сверки
	finish := func() Progress {
		r.mu.Lock()
		r.running = false
		r.progress.Running = false
		r.progress.FinishedAt = time.Now()
		snapshot := r.progress
		r.mu.Unlock()
		return snapshot
	}

	active, err := r.store.ListActiveMedia()
	if err != nil {
		return finish(), fmt.Errorf("list active media: %w", err)
	}

	// Ошибка stat трактуется как отсутствие файла: лучше лишний раз
	// спрятать запись, чем показывать битую ссылку.
	var missing []string
	for _, m := range active {
		r.mu.Lock()
		r.progress.Checked++
		r.mu.Unlock()

		if !r.blobs.Exists(m.Filename) {
			missing = append(missing, m.ID)
			logger.InfoLog.Printf("[RECON] file missing for %s (%s)", m.ID, m.URL)
		}
	}

	r.mu.Lock()
	r.progress.Missing = len(missing)
	r.mu.Unlock()

	if len(missing) == 0 {
		return finish(), nil
	}

	marked, err := r.store.SoftDeleteMedia(missing)
	if err != nil {
		return finish(), fmt.Errorf("mark missing media: %w", err)
	}

	r.mu.Lock()
	r.progress.Marked = marked
	r.mu.Unlock()

	logger.InfoLog.Printf("[RECON] checked %d, marked %d missing", len(active), marked)
	return finish(), nil
}

// Progress возвращает снимок прогресса последней сверки
func (r *Reconciler) Progress() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress
}

// IsRunning сообщает, идёт ли сверка сейчас
func (r *Reconciler) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}
