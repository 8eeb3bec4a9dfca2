package battle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("battle manager closed")
	// ErrBattleClosed is returned to jobs queued behind a teardown.
	ErrBattleClosed = errors.New("battle torn down")
)

// Job is one unit of work for a battle. Jobs of the same battle run strictly
// one after another on the battle's worker goroutine.
type Job func(st *State) error

type request struct {
	ctx      context.Context
	job      Job
	teardown bool
	done     chan error
}

type worker struct {
	id      int64
	jobs    chan *request
	quit    chan struct{}
	pending int  // submitted but not yet received; guarded by Manager.mu
	closing bool // teardown queued; guarded by Manager.mu
}

// Manager runs one worker goroutine per active battle. Incoming jobs are
// queued and drained in arrival order; different battles run in parallel.
// A worker that stays idle for idleTimeout exits; the battle's State is kept
// until Teardown.
type Manager struct {
	mu        sync.Mutex
	workers   map[int64]*worker
	states    map[int64]*State
	closed    bool
	quit      chan struct{}
	group     errgroup.Group
	queueSize int
	idle      time.Duration
	log       *zap.Logger
}

// NewManager creates a manager. queueSize bounds each battle's queue; a zero
// idleTimeout keeps workers alive until teardown.
func NewManager(queueSize int, idleTimeout time.Duration, log *zap.Logger) *Manager {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Manager{
		workers:   make(map[int64]*worker),
		states:    make(map[int64]*State),
		quit:      make(chan struct{}),
		queueSize: queueSize,
		idle:      idleTimeout,
		log:       log,
	}
}

// Submit queues job on the battle's worker and waits for it to finish.
// If ctx ends while waiting, Submit returns ctx.Err(); a job that already
// started still runs to completion, and one that has not started is skipped.
func (m *Manager) Submit(ctx context.Context, battleID int64, job Job) error {
	return m.enqueue(ctx, battleID, &request{ctx: ctx, job: job, done: make(chan error, 1)})
}

// Teardown drops the battle's state after every job queued before it has run.
func (m *Manager) Teardown(ctx context.Context, battleID int64) error {
	m.mu.Lock()
	if _, running := m.workers[battleID]; !running {
		if m.closed {
			m.mu.Unlock()
			return ErrClosed
		}
		// No worker: nothing queued, drop the state directly.
		delete(m.states, battleID)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	return m.enqueue(ctx, battleID, &request{ctx: ctx, teardown: true, done: make(chan error, 1)})
}

func (m *Manager) enqueue(ctx context.Context, battleID int64, req *request) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	w, ok := m.workers[battleID]
	if ok && w.closing {
		m.mu.Unlock()
		return ErrBattleClosed
	}
	if !ok {
		w = m.spawnLocked(battleID)
	}
	w.pending++
	if req.teardown {
		w.closing = true
	}
	m.mu.Unlock()

	// The worker cannot exit while pending > 0, so this send always lands.
	w.jobs <- req

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) spawnLocked(battleID int64) *worker {
	st, ok := m.states[battleID]
	if !ok {
		st = NewState(battleID)
		m.states[battleID] = st
	}
	w := &worker{
		id:   battleID,
		jobs: make(chan *request, m.queueSize),
		quit: m.quit,
	}
	m.workers[battleID] = w
	m.group.Go(func() error {
		m.run(w, st)
		return nil
	})
	m.log.Debug("battle worker started", zap.Int64("battle", battleID))
	return w
}

func (m *Manager) run(w *worker, st *State) {
	var idle <-chan time.Time
	var timer *time.Timer
	if m.idle > 0 {
		timer = time.NewTimer(m.idle)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case req := <-w.jobs:
			m.mu.Lock()
			w.pending--
			m.mu.Unlock()

			if req.teardown {
				m.finish(w, ErrBattleClosed)
				m.log.Debug("battle torn down", zap.Int64("battle", w.id))
				req.done <- nil
				return
			}
			req.done <- m.execute(w.id, st, req)

			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(m.idle)
			}

		case <-idle:
			m.mu.Lock()
			if w.pending == 0 {
				delete(m.workers, w.id)
				m.mu.Unlock()
				m.log.Debug("battle worker idle, exiting", zap.Int64("battle", w.id))
				return
			}
			m.mu.Unlock()
			timer.Reset(m.idle)

		case <-w.quit:
			m.mu.Lock()
			remaining := w.pending
			w.pending = 0
			m.mu.Unlock()
			for i := 0; i < remaining; i++ {
				req := <-w.jobs
				req.done <- ErrClosed
			}
			return
		}
	}
}

// finish removes the worker and its state, then fails everything still
// queued behind the teardown.
func (m *Manager) finish(w *worker, reason error) {
	m.mu.Lock()
	remaining := w.pending
	w.pending = 0
	delete(m.workers, w.id)
	delete(m.states, w.id)
	m.mu.Unlock()

	for i := 0; i < remaining; i++ {
		req := <-w.jobs
		req.done <- reason
	}
}

// execute runs one job with panic recovery so a bad job cannot kill the
// battle's worker.
func (m *Manager) execute(battleID int64, st *State, req *request) (err error) {
	if req.ctx != nil {
		if cerr := req.ctx.Err(); cerr != nil {
			return cerr
		}
	}
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("battle job panic recovered",
				zap.Int64("battle", battleID),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("battle %d job panic: %v", battleID, rec)
		}
	}()
	return req.job(st)
}

// State returns the live state of a battle, if any.
func (m *Manager) State(battleID int64) (*State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[battleID]
	return st, ok
}

// ActiveBattles returns the number of battles holding state.
func (m *Manager) ActiveBattles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

// Close stops every worker after its current job and waits for them.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.quit)
	m.mu.Unlock()
	return m.group.Wait()
}
