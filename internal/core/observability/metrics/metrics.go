// Package metrics exports game bus traffic as OpenTelemetry instruments.
// Without a configured provider the global meter is a no-op and only the
// local totals are kept.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/bricksmash/internal/core/events/bus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zeusync/bricksmash/internal/core/observability/metrics"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

var _ bus.EventBusObserver = (*Recorder)(nil)

// Recorder counts every event published on a bus, by type, and times
// handler delivery.
type Recorder struct {
	events   metric.Int64Counter
	failures metric.Int64Counter
	delivery metric.Float64Histogram
	types    metric.Int64ObservableGauge

	mu     sync.RWMutex
	counts map[string]uint64
	errors uint64
	sub    bus.Subscription
	bus    bus.EventBus
}

// New creates a Recorder on the global meter provider.
func New() (*Recorder, error) {
	return NewWithMeter(meter())
}

func NewWithMeter(m metric.Meter) (*Recorder, error) {
	r := &Recorder{counts: make(map[string]uint64)}

	var err error
	r.events, err = m.Int64Counter(
		"game.events",
		metric.WithDescription("Game events published, by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	r.failures, err = m.Int64Counter(
		"game.events.handler_errors",
		metric.WithDescription("Publishes where at least one handler failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating handler error counter: %w", err)
	}

	r.delivery, err = m.Float64Histogram(
		"game.events.delivery",
		metric.WithDescription("Time spent in bus handlers per publish"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivery histogram: %w", err)
	}

	r.types, err = m.Int64ObservableGauge(
		"game.events.types",
		metric.WithDescription("Distinct event types seen"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating event type gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.ObserveInt64(r.types, int64(len(r.counts)))
			return nil
		},
		r.types,
	)
	if err != nil {
		return nil, fmt.Errorf("registering event type callback: %w", err)
	}

	return r, nil
}

// Attach subscribes to every event on b. A Recorder follows one bus at a time.
func (r *Recorder) Attach(b bus.EventBus) error {
	r.Detach()
	sub, err := b.Subscribe(bus.Wildcard, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe recorder: %w", err)
	}
	b.AddObserver(r)

	r.mu.Lock()
	r.sub = sub
	r.bus = b
	r.mu.Unlock()
	return nil
}

// Detach stops recording. Totals are kept.
func (r *Recorder) Detach() {
	r.mu.Lock()
	sub, b := r.sub, r.bus
	r.sub, r.bus = nil, nil
	r.mu.Unlock()

	if sub != nil {
		_ = sub.Cancel()
	}
	if b != nil {
		b.RemoveObserver(r)
	}
}

func (r *Recorder) handle(e bus.Event) error {
	r.mu.Lock()
	r.counts[e.Type()]++
	r.mu.Unlock()

	r.events.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event", e.Type())))
	return nil
}

func (r *Recorder) OnPublish(string, bus.Event) {}

func (r *Recorder) OnDelivered(eventType string, _ int, err error, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("event", eventType))
	r.delivery.Record(context.Background(), float64(duration)/float64(time.Millisecond), attrs)
	if err != nil {
		r.mu.Lock()
		r.errors++
		r.mu.Unlock()
		r.failures.Add(context.Background(), 1, attrs)
	}
}

// Count returns how many events of eventType were seen.
func (r *Recorder) Count(eventType string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[eventType]
}

// Counts returns a copy of every per-type total.
func (r *Recorder) Counts() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// HandlerErrors counts publishes that returned an error.
func (r *Recorder) HandlerErrors() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errors
}
