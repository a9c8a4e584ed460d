// Package loop provides the single goroutine all game logic runs on.
//
// Host engines deliver tracking, contact and gesture callbacks from their own
// threads. Callers redispatch those callbacks with Dispatch so that every
// mutation of game state happens sequentially on the goroutine running Run.
// Timers registered with Every fire on the same goroutine.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrLoopStopped    = errors.New("loop: stopped")
	ErrLoopRunning    = errors.New("loop: already running")
	ErrInvalidPeriod  = errors.New("loop: timer interval must be positive")
	ErrQueueSaturated = errors.New("loop: dispatch queue is full")
)

const DefaultQueueSize = 256

// Loop serialises closures onto one goroutine.
type Loop struct {
	queue    chan func()
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool
	stopped  atomic.Bool

	mu     sync.Mutex
	timers map[*Timer]struct{}

	executed atomic.Uint64
}

// New creates a loop with a buffered dispatch queue of the given size.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		queue:    make(chan func(), queueSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		timers:   make(map[*Timer]struct{}),
	}
}

// Run executes dispatched closures until ctx is done or Stop is called.
// Closures still queued when the loop stops are discarded.
func (l *Loop) Run(ctx context.Context) error {
	if l.stopped.Load() {
		return ErrLoopStopped
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.done)
	defer l.stopTimers()

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stopChan:
			return nil
		case fn := <-l.queue:
			// Stop wins over queued work
			select {
			case <-l.stopChan:
				return nil
			default:
			}
			fn()
			l.executed.Add(1)
		}
	}
}

// Stop halts the loop and invalidates every timer. Safe to call repeatedly.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stopChan)
		if !l.running.Load() {
			l.stopTimers()
		}
	})
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool { return l.stopped.Load() }

// Executed counts closures run so far.
func (l *Loop) Executed() uint64 { return l.executed.Load() }

// Dispatch enqueues fn to run on the loop goroutine. It blocks while the
// queue is full, until the loop stops.
func (l *Loop) Dispatch(fn func()) error {
	if l.stopped.Load() {
		return ErrLoopStopped
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.stopChan:
		return ErrLoopStopped
	}
}

// TryDispatch is Dispatch without blocking.
func (l *Loop) TryDispatch(fn func()) error {
	if l.stopped.Load() {
		return ErrLoopStopped
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.stopChan:
		return ErrLoopStopped
	default:
		return ErrQueueSaturated
	}
}

// Call dispatches fn and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Dispatch(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.stopChan:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) stopTimers() {
	l.mu.Lock()
	timers := make([]*Timer, 0, len(l.timers))
	for t := range l.timers {
		timers = append(timers, t)
	}
	l.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}

func (l *Loop) forget(t *Timer) {
	l.mu.Lock()
	delete(l.timers, t)
	l.mu.Unlock()
}
