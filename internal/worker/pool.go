package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jordanrcarlson/jordancloud/internal/logger"
)

// TaskType определяет тип фоновой задачи
type TaskType string

const (
	TaskGenerateThumbnail TaskType = "generate_thumbnail"
	TaskReconcile         TaskType = "reconcile"
	TaskPurgeTrash        TaskType = "purge_trash"
)

// Task представляет задачу для фоновой обработки
type Task struct {
	ID        string
	Type      TaskType
	MediaID   string
	Size      string // для превью: small или large
	CreatedAt time.Time
}

// TaskResult содержит результат выполнения задачи
type TaskResult struct {
	TaskID   string
	Success  bool
	Error    error
	Duration time.Duration
}

// Handler обрабатывает задачи определенного типа
type Handler func(ctx context.Context, task *Task) error

// Pool управляет пулом воркеров
type Pool struct {
	numWorkers  int
	taskQueue   chan *Task
	resultQueue chan *TaskResult
	handlers    map[TaskType]Handler
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex

	stats Stats
}

// Stats содержит статистику пула
type Stats struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	QueuedTasks    int64
	ActiveWorkers  int64
}

// NewPool создает новый пул воркеров
func NewPool(numWorkers int, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		numWorkers:  numWorkers,
		taskQueue:   make(chan *Task, queueSize),
		resultQueue: make(chan *TaskResult, queueSize),
		handlers:    make(map[TaskType]Handler),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// RegisterHandler регистрирует обработчик для типа задачи
func (p *Pool) RegisterHandler(taskType TaskType, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[taskType] = handler
}

// Start запускает воркеры
func (p *Pool) Start() {
	logger.InfoLog.Printf("[WORKER] starting pool with %d workers", p.numWorkers)

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.drainResults()
}

// Stop останавливает пул и дожидается воркеров
func (p *Pool) Stop() {
	logger.InfoLog.Println("[WORKER] stopping pool...")
	p.cancel()
	close(p.taskQueue)
	p.wg.Wait()
	close(p.resultQueue)
	logger.InfoLog.Println("[WORKER] pool stopped")
}

// Submit добавляет задачу в очередь без блокировки.
// При переполненной очереди задача отбрасывается.
func (p *Pool) Submit(task *Task) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.taskQueue <- task:
		atomic.AddInt64(&p.stats.TotalTasks, 1)
		atomic.AddInt64(&p.stats.QueuedTasks, 1)
		return true
	default:
		logger.ErrorLog.Printf("[WORKER] queue full, dropping task %s (%s)", task.ID, task.Type)
		return false
	}
}

// PoolStats возвращает снимок статистики пула
func (p *Pool) PoolStats() Stats {
	return Stats{
		TotalTasks:     atomic.LoadInt64(&p.stats.TotalTasks),
		CompletedTasks: atomic.LoadInt64(&p.stats.CompletedTasks),
		FailedTasks:    atomic.LoadInt64(&p.stats.FailedTasks),
		QueuedTasks:    atomic.LoadInt64(&p.stats.QueuedTasks),
		ActiveWorkers:  atomic.LoadInt64(&p.stats.ActiveWorkers),
	}
}

// QueueLength возвращает текущую длину очереди
func (p *Pool) QueueLength() int {
	return len(p.taskQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			p.processTask(id, task)
		}
	}
}

func (p *Pool) processTask(workerID int, task *Task) {
	atomic.AddInt64(&p.stats.ActiveWorkers, 1)
	atomic.AddInt64(&p.stats.QueuedTasks, -1)
	defer atomic.AddInt64(&p.stats.ActiveWorkers, -1)

	start := time.Now()

	p.mu.RLock()
	handler, ok := p.handlers[task.Type]
	p.mu.RUnlock()

	if !ok {
		logger.ErrorLog.Printf("[WORKER] worker %d: no handler for task type %s", workerID, task.Type)
		atomic.AddInt64(&p.stats.FailedTasks, 1)
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Minute)
	err := handler(ctx, task)
	cancel()

	result := &TaskResult{
		TaskID:   task.ID,
		Success:  err == nil,
		Error:    err,
		Duration: time.Since(start),
	}

	if result.Success {
		atomic.AddInt64(&p.stats.CompletedTasks, 1)
	} else {
		atomic.AddInt64(&p.stats.FailedTasks, 1)
	}

	select {
	case p.resultQueue <- result:
	default:
	}
}

func (p *Pool) drainResults() {
	for result := range p.resultQueue {
		if !result.Success && result.Error != nil {
			logger.ErrorLog.Printf("[WORKER] task %s failed: %v (took %v)", result.TaskID, result.Error, result.Duration)
		}
	}
}
