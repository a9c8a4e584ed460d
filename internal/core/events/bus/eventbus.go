package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrNilHandler = errors.New("bus: nil handler")

type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent creates a simple Event implementation.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	active    atomic.Bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.active.CompareAndSwap(true, false) && s.cancel != nil {
		s.cancel()
	}
	return nil
}

// inMemoryBus is a thread-safe EventBus with optional observers.
type inMemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string][]*subscription
	metrics   EventBusMetrics
	observers map[EventBusObserver]struct{}
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[string][]*subscription),
		observers: make(map[EventBusObserver]struct{}),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver(event)
}

func (b *inMemoryBus) PublishWithFilters(event Event, filters ...EventFilter) error {
	for _, f := range filters {
		if !f(event) {
			b.mu.Lock()
			if len(b.observers) > 0 {
				b.metrics.DroppedByFilters++
			}
			b.mu.Unlock()
			return nil
		}
	}
	return b.Publish(event)
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &subscription{id: uuid.NewString(), eventType: eventType, handler: handler}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, cur := range subs {
			if cur == s {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], s)
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) deliver(event Event) error {
	start := time.Now()
	etype := event.Type()

	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[etype])+len(b.handlers[Wildcard]))
	subs = append(subs, b.handlers[etype]...)
	if etype != Wildcard {
		subs = append(subs, b.handlers[Wildcard]...)
	}
	observers := make([]EventBusObserver, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(etype, event)
	}

	var all error
	delivered := 0
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		dur := time.Since(start)
		for _, obs := range observers {
			obs.OnDelivered(etype, delivered, all, dur)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(delivered)
		if all != nil {
			b.metrics.Errors++
		}
		var active uint64
		for _, list := range b.handlers {
			active += uint64(len(list))
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}
