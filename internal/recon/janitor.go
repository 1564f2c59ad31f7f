package recon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/worker"
)

// Purger окончательно чистит корзину от старых записей
type Purger interface {
	Purge(olderThanDays int) (int, error)
}

// Janitor по расписанию ставит в пул задачи сверки и чистки корзины
type Janitor struct {
	cfg        *config.Config
	pool       *worker.Pool
	reconciler *Reconciler
	purger     Purger
	onChange   func() // вызывается после задач, изменивших данные

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewJanitor создает планировщик фоновых задач обслуживания
func NewJanitor(cfg *config.Config, pool *worker.Pool, reconciler *Reconciler, purger Purger) *Janitor {
	return &Janitor{
		cfg:        cfg,
		pool:       pool,
		reconciler: reconciler,
		purger:     purger,
		stopChan:   make(chan struct{}),
	}
}

// OnChange задает колбэк, вызываемый после задач, изменивших данные
func (j *Janitor) OnChange(fn func()) {
	j.onChange = fn
}

// Start регистрирует обработчики и запускает тикеры
func (j *Janitor) Start() {
	j.pool.RegisterHandler(worker.TaskReconcile, j.handleReconcile)
	j.pool.RegisterHandler(worker.TaskPurgeTrash, j.handlePurge)

	reconcileEvery := time.Duration(j.cfg.Cleanup.ReconcileIntervalMin) * time.Minute
	purgeEvery := time.Duration(j.cfg.Cleanup.PurgeIntervalHours) * time.Hour

	j.wg.Add(2)
	go j.loop(worker.TaskReconcile, reconcileEvery)
	go j.loop(worker.TaskPurgeTrash, purgeEvery)

	logger.InfoLog.Printf("[JANITOR] started: reconcile every %v, purge every %v", reconcileEvery, purgeEvery)
}

// Stop останавливает тикеры. Уже поставленные задачи доработают в пуле.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
	})
	j.wg.Wait()
}

// TriggerReconcile ставит внеплановую сверку в очередь
func (j *Janitor) TriggerReconcile() bool {
	return j.submit(worker.TaskReconcile)
}

// TriggerPurge ставит внеплановую чистку корзины в очередь
func (j *Janitor) TriggerPurge() bool {
	return j.submit(worker.TaskPurgeTrash)
}

func (j *Janitor) loop(taskType worker.TaskType, interval time.Duration) {
	defer j.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.submit(taskType)
		}
	}
}

func (j *Janitor) submit(taskType worker.TaskType) bool {
	return j.pool.Submit(&worker.Task{
		ID:        fmt.Sprintf("%s-%d", taskType, time.Now().UnixNano()),
		Type:      taskType,
		CreatedAt: time.Now(),
	})
}

func (j *Janitor) handleReconcile(ctx context.Context, task *worker.Task) error {
	progress, err := j.reconciler.Run()
	if err != nil {
		return err
	}
	if progress.Marked > 0 && j.onChange != nil {
		j.onChange()
	}
	return nil
}

func (j *Janitor) handlePurge(ctx context.Context, task *worker.Task) error {
	n, err := j.purger.Purge(j.cfg.Cleanup.RetentionDays)
	if err != nil {
		return err
	}
	if n > 0 && j.onChange != nil {
		j.onChange()
	}
	return nil
}
