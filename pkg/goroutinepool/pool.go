package goroutinepool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"estate-listing/pkg/logger"

	"go.uber.org/zap"
)

// Task a unit of background work
type Task struct {
	Function func(ctx context.Context) error
	Callback func(error)
	Timeout  time.Duration
	Retry    int
}

// Worker 工作协程
type Worker struct {
	ID         int
	TaskChan   chan *Task
	WorkerPool chan chan *Task
	pool       *Pool
}

// Pool a fixed set of workers fed from a bounded queue. Submit never blocks.
type Pool struct {
	WorkerPool chan chan *Task
	TaskQueue  chan *Task
	Workers    []*Worker
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once

	totalTasks     int64
	completedTasks int64
	failedTasks    int64
	activeTasks    int64
}

var (
	globalPool *Pool
	poolOnce   sync.Once
)

// GetPool returns the process-wide pool, starting it on first use.
func GetPool() *Pool {
	poolOnce.Do(func() {
		globalPool = NewPool(runtime.NumCPU()*2, 10000)
		globalPool.Start()
	})
	return globalPool
}

// NewPool 创建新的goroutine池
func NewPool(maxWorkers int, maxQueue int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		WorkerPool: make(chan chan *Task, maxWorkers),
		TaskQueue:  make(chan *Task, maxQueue),
		Workers:    make([]*Worker, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < maxWorkers; i++ {
		pool.Workers[i] = &Worker{
			ID:         i + 1,
			TaskChan:   make(chan *Task),
			WorkerPool: pool.WorkerPool,
			pool:       pool,
		}
	}

	return pool
}

// Start launches the dispatcher and workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.wg.Add(1)
		go p.dispatcher()

		for _, worker := range p.Workers {
			p.wg.Add(1)
			go worker.start(&p.wg)
		}

		logger.L().Info("goroutine pool started", zap.Int("workers", len(p.Workers)))
	})
}

// Stop cancels the pool and waits up to timeout for workers to exit.
func (p *Pool) Stop(timeout time.Duration) {
	p.stopOnce.Do(func() {
		p.cancel()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			logger.L().Info("goroutine pool stopped")
		case <-time.After(timeout):
			logger.L().Warn("goroutine pool stop timed out")
		}
	})
}

// Submit 提交任务到池
func (p *Pool) Submit(task *Task) error {
	if task.Timeout == 0 {
		task.Timeout = 10 * time.Second
	}

	atomic.AddInt64(&p.totalTasks, 1)

	select {
	case <-p.ctx.Done():
		atomic.AddInt64(&p.failedTasks, 1)
		return p.ctx.Err()
	default:
	}

	select {
	case p.TaskQueue <- task:
		return nil
	default:
		atomic.AddInt64(&p.failedTasks, 1)
		return ErrPoolOverloaded
	}
}

// SubmitFunc 提交简单函数
func (p *Pool) SubmitFunc(fn func(ctx context.Context) error) error {
	return p.Submit(&Task{Function: fn})
}

// dispatcher 任务分发器
func (p *Pool) dispatcher() {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.TaskQueue:
			select {
			case workerTaskChan := <-p.WorkerPool:
				workerTaskChan <- task
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// start 启动工作协程
func (w *Worker) start(wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case w.WorkerPool <- w.TaskChan:
			select {
			case task := <-w.TaskChan:
				w.executeTask(task)
			case <-w.pool.ctx.Done():
				return
			}
		case <-w.pool.ctx.Done():
			return
		}
	}
}

// executeTask runs a task with its timeout, retrying up to task.Retry times.
func (w *Worker) executeTask(task *Task) {
	p := w.pool
	atomic.AddInt64(&p.activeTasks, 1)
	defer atomic.AddInt64(&p.activeTasks, -1)

	var err error
	for attempt := 0; attempt <= task.Retry; attempt++ {
		err = w.runOnce(task)
		if err == nil || p.ctx.Err() != nil {
			break
		}
	}

	if err != nil {
		atomic.AddInt64(&p.failedTasks, 1)
	} else {
		atomic.AddInt64(&p.completedTasks, 1)
	}

	if task.Callback != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.L().Error("task callback panic", zap.Any("panic", r))
				}
			}()
			task.Callback(err)
		}()
	}
}

func (w *Worker) runOnce(task *Task) error {
	ctx, cancel := context.WithTimeout(w.pool.ctx, task.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- NewTaskPanicError(r)
			}
		}()
		done <- task.Function(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetStats 获取统计信息
func (p *Pool) GetStats() map[string]int64 {
	return map[string]int64{
		"total_tasks":     atomic.LoadInt64(&p.totalTasks),
		"completed_tasks": atomic.LoadInt64(&p.completedTasks),
		"failed_tasks":    atomic.LoadInt64(&p.failedTasks),
		"active_tasks":    atomic.LoadInt64(&p.activeTasks),
		"worker_count":    int64(len(p.Workers)),
	}
}

var (
	ErrPoolOverloaded = NewPoolError("goroutine pool is overloaded")
)

type PoolError struct {
	Message string
}

func (e *PoolError) Error() string {
	return e.Message
}

func NewPoolError(message string) *PoolError {
	return &PoolError{Message: message}
}

type TaskPanicError struct {
	Panic interface{}
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Panic)
}

func NewTaskPanicError(panic interface{}) *TaskPanicError {
	return &TaskPanicError{Panic: panic}
}

// Submit 便捷函数
func Submit(fn func(ctx context.Context) error) error {
	return GetPool().SubmitFunc(fn)
}

func Stop() {
	GetPool().Stop(30 * time.Second)
}
