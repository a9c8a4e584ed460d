// Package engine defines the narrow contract between the game layer and the
// host AR/physics/rendering engine. Camera tracking, plane estimation,
// dynamics and rendering all live behind it.
package engine

import (
	"context"
	"errors"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
)

var (
	ErrSessionNotRunning = errors.New("engine: session not running")
	ErrUnknownEntity     = errors.New("engine: unknown entity")
	ErrUnknownAnchor     = errors.New("engine: unknown anchor")
	ErrNoCameraFrame     = errors.New("engine: no camera frame available")
)

// Engine is implemented by the host. Calls that mutate the scene graph must be
// made from the game loop goroutine.
type Engine interface {
	StartSession(ctx context.Context, cfg SessionConfig) error
	PauseSession() error

	// AddAnchor registers a world anchor. The engine later reports it through
	// TrackingEventListener.AnchorAdded.
	AddAnchor(transform physics.Mat4) (models.AnchorID, error)
	RemoveAnchor(id models.AnchorID) error

	// HitTest returns results nearest first; an empty slice is a miss.
	HitTest(point ScreenPoint, mode HitTestMode) []HitResult
	// Camera reports the current camera pose.
	Camera() (Camera, error)

	Spawn(spec SpawnSpec) (models.EntityID, error)
	Reshape(id models.EntityID, geometry Geometry, transform physics.Mat4) error
	SetMaterial(id models.EntityID, material Material) error
	ApplyImpulse(id models.EntityID, impulse physics.Vec3) error
	Remove(id models.EntityID) error
}

// TrackingEventListener receives session and anchor callbacks.
type TrackingEventListener interface {
	SessionFailed(err error)
	SessionInterrupted()
	SessionInterruptionEnded()
	AnchorAdded(anchor Anchor)
	AnchorUpdated(anchor Anchor)
	AnchorRemoved(anchor Anchor)
}

// PhysicsContactListener receives collision-begin notifications.
type PhysicsContactListener interface {
	CollisionBegan(a, b models.EntityID)
}

// GestureListener receives screen taps.
type GestureListener interface {
	Tapped(point ScreenPoint)
}

// Listener is the full set of callbacks one controller implements.
type Listener interface {
	TrackingEventListener
	PhysicsContactListener
	GestureListener
}

type SessionConfig struct {
	PlaneDetection bool
}
