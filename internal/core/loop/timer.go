package loop

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a repeating callback scheduled on a Loop.
type Timer struct {
	loop     *Loop
	interval time.Duration
	fn       func()
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	fired    atomic.Uint64
}

// Every runs fn on the loop goroutine once per interval until the timer or
// the loop is stopped. A tick that arrives while the previous one is still
// queued is dropped rather than piling up.
func (l *Loop) Every(interval time.Duration, fn func()) (*Timer, error) {
	if interval <= 0 {
		return nil, ErrInvalidPeriod
	}
	if l.stopped.Load() {
		return nil, ErrLoopStopped
	}

	t := &Timer{
		loop:     l,
		interval: interval,
		fn:       fn,
		ticker:   time.NewTicker(interval),
		stopChan: make(chan struct{}),
	}

	l.mu.Lock()
	l.timers[t] = struct{}{}
	l.mu.Unlock()

	go t.run()
	return t, nil
}

func (t *Timer) run() {
	var pending atomic.Bool
	for {
		select {
		case <-t.stopChan:
			return
		case <-t.ticker.C:
			if !pending.CompareAndSwap(false, true) {
				continue
			}
			err := t.loop.TryDispatch(func() {
				pending.Store(false)
				// invalidated timers never reach the scene
				if t.stopped.Load() {
					return
				}
				t.fired.Add(1)
				t.fn()
			})
			if err == ErrLoopStopped {
				t.Stop()
				return
			}
			if err != nil {
				pending.Store(false)
			}
		}
	}
}

// Stop invalidates the timer. Callbacks already queued become no-ops.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		t.stopped.Store(true)
		t.ticker.Stop()
		close(t.stopChan)
		t.loop.forget(t)
	})
}

func (t *Timer) Stopped() bool           { return t.stopped.Load() }
func (t *Timer) Fired() uint64           { return t.fired.Load() }
func (t *Timer) Interval() time.Duration { return t.interval }
