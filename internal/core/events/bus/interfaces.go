package bus

import "time"

// EventBus is an in-process pub/sub bus carrying game events.
//
// - Type-based fan-out: handlers subscribe by Event.Type() string; "*" receives every event.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in subscription order.
// - Error aggregation: handler errors are joined and returned from Publish/PublishBatch.
// - Observers: metrics are produced only when observers are registered.
//
// Handlers should be quick; the game loop publishes from its own goroutine.
type EventBus interface {
	// Publish delivers the event to all active subscribers of event.Type().
	Publish(event Event) error
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is ignored.
	Unsubscribe(Subscription) error

	// PublishWithFilters drops the event silently if any filter returns false.
	PublishWithFilters(event Event, filters ...EventFilter) error
	// PublishBatch publishes events in order and aggregates errors across them.
	PublishBatch(events ...Event) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot; counters move only while observed.
	GetMetrics() EventBusMetrics
}

// Wildcard subscribes to every event type.
const Wildcard = "*"

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered.
	EventFilter func(event Event) bool
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
}
