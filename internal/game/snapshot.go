package game

import (
	"context"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
)

// BrickView is the externally visible state of one brick.
type BrickView struct {
	ID     models.EntityID   `json:"id"`
	Row    int               `json:"row"`
	Column int               `json:"column"`
	Offset physics.Vec3      `json:"offset"`
	State  models.BrickState `json:"state"`
}

// ProjectileView is a projectile still in flight.
type ProjectileView struct {
	ID      models.EntityID `json:"id"`
	Impulse physics.Vec3    `json:"impulse"`
	FiredAt int64           `json:"fired_at_unix_ms"`
}

// Snapshot is a point-in-time copy of the game state, safe to share across
// goroutines.
type Snapshot struct {
	Session     string            `json:"session"`
	State       SessionState      `json:"state"`
	Error       string            `json:"error,omitempty"`
	Interrupted bool              `json:"interrupted"`
	Placed      bool              `json:"placed"`
	Built       bool              `json:"built"`
	Anchor      models.AnchorID   `json:"anchor,omitempty"`
	Origin      physics.Vec3      `json:"origin"`
	Bricks      []BrickView       `json:"bricks"`
	Active      []models.EntityID `json:"active"`
	Surfaces    int               `json:"surfaces"`
	Projectiles []ProjectileView  `json:"projectiles"`
	Fired       uint64            `json:"fired"`
}

// Snapshot copies the current state on the loop goroutine.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.call(ctx, func() error {
		snap = c.snapshot()
		return nil
	})
	return snap, err
}

func (c *Controller) snapshot() Snapshot {
	snap := Snapshot{
		Session:     c.session.ID(),
		State:       c.session.State(),
		Interrupted: c.session.Interrupted(),
		Placed:      c.wall.Placed(),
		Built:       c.wall.Built(),
		Anchor:      c.wall.Anchor(),
		Origin:      c.wall.Transform().Translation(),
		Bricks:      make([]BrickView, 0, c.wall.Len()),
		Active:      c.wall.Active(),
		Surfaces:    c.planes.Len(),
		Fired:       c.launcher.Fired(),
	}
	for _, b := range c.wall.Bricks() {
		snap.Bricks = append(snap.Bricks, BrickView{
			ID:     b.ID,
			Row:    b.Cell.Row,
			Column: b.Cell.Column,
			Offset: b.Cell.Offset,
			State:  b.State,
		})
	}
	inFlight := c.launcher.InFlight()
	snap.Projectiles = make([]ProjectileView, 0, len(inFlight))
	for _, p := range inFlight {
		snap.Projectiles = append(snap.Projectiles, ProjectileView{
			ID:      p.ID,
			Impulse: p.Impulse,
			FiredAt: p.FiredAt.UnixMilli(),
		})
	}
	if err := c.session.LastError(); err != nil {
		snap.Error = err.Error()
	}
	if snap.Active == nil {
		snap.Active = []models.EntityID{}
	}
	return snap
}
