package picker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/alitto/pond/v2"

	"imagepick/internal/logging"
)

// Background runs blocking work off the coordinator's task queue and waits for it
type Background interface {
	Run(task func() error) error
}

// PoolExecutor is a Background backed by a bounded worker pool
type PoolExecutor struct {
	pool pond.Pool
}

// NewPoolExecutor creates a pool with at most workers concurrent tasks. The
// pool stops accepting work when ctx is cancelled.
func NewPoolExecutor(ctx context.Context, workers int) *PoolExecutor {
	if workers < 1 {
		workers = 1
	}
	return &PoolExecutor{
		pool: pond.NewPool(workers, pond.WithContext(ctx)),
	}
}

// Run submits task and blocks until it finishes. A panicking task is reported
// as an error.
func (p *PoolExecutor) Run(task func() error) error {
	return p.pool.SubmitErr(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("background task panic: %v\nStack: %s", r, debug.Stack())
				err = fmt.Errorf("background task panicked: %v", r)
			}
		}()
		return task()
	}).Wait()
}

// Stop waits for running tasks and shuts the pool down
func (p *PoolExecutor) Stop() {
	p.pool.StopAndWait()
}

// TaskQueue runs tasks one at a time, in submission order, on its own goroutine
type TaskQueue struct {
	mu      sync.Mutex
	closed  bool
	tasks   chan queuedTask
	pending sync.WaitGroup
	done    chan struct{}
}

type queuedTask struct {
	name string
	fn   func()
}

// NewTaskQueue starts the queue goroutine
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{
		tasks: make(chan queuedTask, 256),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

// Go enqueues fn. Tasks submitted after Close are dropped.
func (q *TaskQueue) Go(name string, fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		logging.Warn("task queue closed, dropping %s", name)
		return false
	}
	q.pending.Add(1)
	q.mu.Unlock()

	q.tasks <- queuedTask{name: name, fn: fn}
	return true
}

// Wait blocks until every queued task has run
func (q *TaskQueue) Wait() {
	q.pending.Wait()
}

// Close drains the queue and stops its goroutine
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.pending.Wait()
	close(q.tasks)
	<-q.done
}

func (q *TaskQueue) loop() {
	defer close(q.done)
	for t := range q.tasks {
		q.run(t)
	}
}

func (q *TaskQueue) run(t queuedTask) {
	defer q.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			logging.Error("task %s panic: %v\nStack: %s", t.name, r, debug.Stack())
		}
	}()
	logging.Debug("running task %s", t.name)
	t.fn()
}
