package models

import "fmt"

// EntityID identifies an entity spawned in the host engine's scene.
type EntityID uint64

// NoEntity is never handed out by an engine.
const NoEntity EntityID = 0

// AnchorID is the tracking engine's stable key for an anchor or plane.
type AnchorID string

// Kind classifies the entities the game layer owns.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSurface
	KindBrick
	KindProjectile
)

func (k Kind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindBrick:
		return "brick"
	case KindProjectile:
		return "projectile"
	default:
		return "unknown"
	}
}

// BrickState is the tri-state tag carried by every brick.
type BrickState uint8

const (
	BrickIdle BrickState = iota
	BrickActive
	BrickRemoved
)

func (s BrickState) String() string {
	switch s {
	case BrickIdle:
		return "idle"
	case BrickActive:
		return "active"
	case BrickRemoved:
		return "removed"
	default:
		return fmt.Sprintf("brick_state(%d)", uint8(s))
	}
}

// MarshalText lets states appear by name in JSON snapshots.
func (s BrickState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
