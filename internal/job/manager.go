// Package job runs background work for the engine on a worker pool.
//
// Workers are the only source of parallelism in the engine: job
// functions run off the loop goroutine, but their results are never
// handed to caller-visible state directly. Completed jobs land in a
// completion queue that the engine drains exactly once per frame, at the
// start of the tick phase, on the loop goroutine. Callbacks therefore
// always observe results at a tick boundary and never race with
// simulation or draw code.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is a job's lifecycle position.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateFailed
	StateCancelled
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Fn is the unit of background work. It runs on a worker goroutine and
// must honor ctx for cancellation. It must not touch engine-owned state;
// anything the caller needs back goes through the return value.
type Fn func(ctx context.Context) (any, error)

// Callback receives a job's outcome. Callbacks run on the engine loop
// goroutine during Drain, so they may safely touch engine-owned state.
type Callback func(result any, err error)

// Job is one queued unit of background work.
type Job struct {
	id       uuid.UUID
	name     string
	fn       Fn
	callback Callback

	state  atomic.Int32
	runCtx context.Context
	cancel context.CancelFunc

	// set by the worker before the job is pushed to the completion
	// queue, read by Drain on the loop goroutine afterwards
	result any
	err    error
}

// ID returns the job's unique ID.
func (j *Job) ID() uuid.UUID { return j.id }

// Name returns the caller-supplied job name, used in logs.
func (j *Job) Name() string { return j.name }

// State returns the job's current lifecycle state.
func (j *Job) State() State { return State(j.state.Load()) }

// Cancel requests cooperative cancellation. A pending job is dropped
// without running; a running job observes ctx cancellation if it checks.
func (j *Job) Cancel() {
	j.state.CompareAndSwap(int32(StatePending), int32(StateCancelled))
	j.cancel()
}

// Manager owns the worker pool and the completion queue.
//
// The queue channel stays open for the manager's lifetime; shutdown is
// signalled through baseCtx, which both Submit and the workers select
// on.
type Manager struct {
	workers int
	queue   chan *Job
	wg      sync.WaitGroup

	mu        sync.Mutex
	completed []*Job

	baseCtx   context.Context
	baseStop  context.CancelFunc
	closeOnce sync.Once
}

// NewManager starts a manager with the given worker count.
// workers <= 0 selects GOMAXPROCS.
func NewManager(workers int) *Manager {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		workers:  workers,
		queue:    make(chan *Job, workers*4),
		baseCtx:  ctx,
		baseStop: stop,
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// Workers returns the pool size.
func (m *Manager) Workers() int { return m.workers }

// Submit queues fn for background execution. The callback may be nil.
// Returns an error if the manager has been closed. Safe to call from
// any goroutine, including a job fn submitting follow-up work.
func (m *Manager) Submit(name string, fn Fn, cb Callback) (*Job, error) {
	if m.baseCtx.Err() != nil {
		return nil, fmt.Errorf("job manager closed")
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	j := &Job{
		id:       uuid.Must(uuid.NewV7()),
		name:     name,
		fn:       fn,
		callback: cb,
		runCtx:   ctx,
		cancel:   cancel,
	}
	select {
	case m.queue <- j:
		return j, nil
	case <-m.baseCtx.Done():
		cancel()
		return nil, fmt.Errorf("job manager closed")
	}
}

// Drain pops every completed job and invokes its callback. It must be
// called from the loop goroutine; the engine does so once per frame at
// the start of the tick phase. Returns the number of jobs delivered.
func (m *Manager) Drain() int {
	m.mu.Lock()
	done := m.completed
	m.completed = nil
	m.mu.Unlock()

	for _, j := range done {
		if j.callback != nil {
			j.callback(j.result, j.err)
		}
	}
	return len(done)
}

// Pending reports whether completed jobs are waiting to be drained.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.completed) > 0
}

// Close stops accepting work, cancels running jobs, and waits for the
// workers to exit. Completed-but-undrained jobs are discarded; the
// engine drains before closing during orderly teardown.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.baseStop()
		m.wg.Wait()
	})
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.baseCtx.Done():
			return
		case j := <-m.queue:
			m.runJob(j)
		}
	}
}

// runJob executes one job with panic recovery. Failures are absorbed
// here and logged: a background error must never terminate the loop.
func (m *Manager) runJob(j *Job) {
	if !j.state.CompareAndSwap(int32(StatePending), int32(StateRunning)) {
		// cancelled before it ran; the callback still sees the
		// cancellation as an error
		j.err = context.Canceled
		m.complete(j)
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				j.err = fmt.Errorf("job %s panicked: %v", j.name, r)
				slog.Error("background job panic",
					"job", j.name,
					"id", j.id,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		j.result, j.err = j.fn(j.runCtx)
	}()

	switch {
	case j.runCtx.Err() != nil && (j.err == nil || errors.Is(j.err, context.Canceled)):
		if j.err == nil {
			j.err = j.runCtx.Err()
		}
		j.state.Store(int32(StateCancelled))
	case j.err != nil:
		j.state.Store(int32(StateFailed))
		slog.Warn("background job failed", "job", j.name, "id", j.id, "error", j.err)
	default:
		j.state.Store(int32(StateDone))
	}
	m.complete(j)
}

func (m *Manager) complete(j *Job) {
	j.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, j)
}
