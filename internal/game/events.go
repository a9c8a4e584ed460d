package game

import (
	"time"

	"github.com/zeusync/bricksmash/internal/core/events/bus"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
)

// Event types published on the bus.
const (
	EventSessionStarted     = "session.started"
	EventSessionStopped     = "session.stopped"
	EventSessionFailed      = "session.failed"
	EventSessionInterrupted = "session.interrupted"
	EventSessionResumed     = "session.resumed"

	EventSurfaceDetected = "surface.detected"
	EventSurfaceUpdated  = "surface.updated"
	EventSurfaceRemoved  = "surface.removed"

	EventWallAnchored = "wall.anchored"
	EventWallBuilt    = "wall.built"
	EventWallReset    = "wall.reset"

	EventBrickActivated   = "brick.activated"
	EventBrickDeactivated = "brick.deactivated"
	EventBrickDestroyed   = "brick.destroyed"

	EventProjectileFired    = "projectile.fired"
	EventProjectileAbsorbed = "projectile.absorbed"
	EventProjectileExpired  = "projectile.expired"
)

// eventTypes lists every type above; muting anything else is a config error.
var eventTypes = []string{
	EventSessionStarted, EventSessionStopped, EventSessionFailed, EventSessionInterrupted, EventSessionResumed,
	EventSurfaceDetected, EventSurfaceUpdated, EventSurfaceRemoved,
	EventWallAnchored, EventWallBuilt, EventWallReset,
	EventBrickActivated, EventBrickDeactivated, EventBrickDestroyed,
	EventProjectileFired, EventProjectileAbsorbed, EventProjectileExpired,
}

const eventSource = "game"

type SessionEvent struct {
	Session string `json:"session"`
	Reason  string `json:"reason,omitempty"`
}

type SurfaceEvent struct {
	Surface models.AnchorID `json:"surface"`
	Center  physics.Vec3    `json:"center"`
	Extent  physics.Vec2    `json:"extent"`
}

type WallEvent struct {
	Anchor models.AnchorID `json:"anchor"`
	Bricks int             `json:"bricks"`
	Origin physics.Vec3    `json:"origin"`
	Reason string          `json:"reason,omitempty"`
}

type BrickEvent struct {
	Brick     models.EntityID `json:"brick"`
	Row       int             `json:"row"`
	Column    int             `json:"column"`
	Cause     string          `json:"cause,omitempty"`
	Remaining int             `json:"remaining"`
}

type ProjectileEvent struct {
	Projectile models.EntityID `json:"projectile"`
	Impulse    physics.Vec3    `json:"impulse,omitempty"`
	Age        time.Duration   `json:"age,omitempty"`
}

// Brick destruction causes.
const (
	CauseImpact  = "impact"
	CauseGesture = "gesture"
)

// publisher wraps the bus so components never see a nil bus. Filters drop
// muted event types before delivery.
type publisher struct {
	bus     bus.EventBus
	filters []bus.EventFilter
}

func newPublisher(b bus.EventBus, cfg EventsConfig) publisher {
	p := publisher{bus: b}
	if len(cfg.Mute) > 0 {
		p.filters = append(p.filters, muteFilter(cfg.Mute))
	}
	return p
}

func muteFilter(types []string) bus.EventFilter {
	muted := make(map[string]struct{}, len(types))
	for _, typ := range types {
		muted[typ] = struct{}{}
	}
	return func(e bus.Event) bool {
		_, ok := muted[e.Type()]
		return !ok
	}
}

func (p publisher) publish(typ string, data any) error {
	if p.bus == nil {
		return nil
	}
	return p.bus.PublishWithFilters(bus.NewEvent(typ, eventSource, data), p.filters...)
}

// publishBatch delivers events in order, skipping muted ones.
func (p publisher) publishBatch(events ...bus.Event) error {
	if p.bus == nil {
		return nil
	}
	kept := make([]bus.Event, 0, len(events))
	for _, e := range events {
		if p.allows(e) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return p.bus.PublishBatch(kept...)
}

func (p publisher) allows(e bus.Event) bool {
	for _, f := range p.filters {
		if !f(e) {
			return false
		}
	}
	return true
}
