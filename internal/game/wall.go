package game

import (
	"errors"
	"fmt"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

// Cell is one slot of the wall grid, relative to the wall anchor.
type Cell struct {
	Row    int
	Column int
	Offset physics.Vec3
}

// Layout returns rows*cols cells, column by column, starting at origin and
// stepping by spacing along X (columns) and Y (rows).
func Layout(rows, cols int, spacing, origin physics.Vec2) []Cell {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	cells := make([]Cell, 0, rows*cols)
	for c := 0; c < cols; c++ {
		x := origin.X + float64(c)*spacing.X
		for r := 0; r < rows; r++ {
			cells = append(cells, Cell{
				Row:    r,
				Column: c,
				Offset: physics.V3(x, origin.Y+float64(r)*spacing.Y, 0),
			})
		}
	}
	return cells
}

// Brick is one destructible entity of the wall.
type Brick struct {
	ID    models.EntityID
	Cell  Cell
	State models.BrickState
}

// Wall is the ordered brick collection plus the one-shot placement flag.
type Wall struct {
	placed    bool
	built     bool
	anchor    models.AnchorID
	transform physics.Mat4
	bricks    []*Brick
	index     map[models.EntityID]*Brick
}

func NewWall() *Wall {
	return &Wall{index: make(map[models.EntityID]*Brick)}
}

func (w *Wall) Placed() bool            { return w.placed }
func (w *Wall) Built() bool             { return w.built }
func (w *Wall) Anchor() models.AnchorID { return w.anchor }
func (w *Wall) Transform() physics.Mat4 { return w.transform }
func (w *Wall) Len() int                { return len(w.bricks) }

// Bricks returns the remaining bricks in layout order.
func (w *Wall) Bricks() []Brick {
	out := make([]Brick, len(w.bricks))
	for i, b := range w.bricks {
		out[i] = *b
	}
	return out
}

func (w *Wall) Brick(id models.EntityID) (Brick, bool) {
	b, ok := w.index[id]
	if !ok {
		return Brick{}, false
	}
	return *b, true
}

// Active lists bricks currently tagged active.
func (w *Wall) Active() []models.EntityID {
	var out []models.EntityID
	for _, b := range w.bricks {
		if b.State == models.BrickActive {
			out = append(out, b.ID)
		}
	}
	return out
}

func (w *Wall) setState(id models.EntityID, state models.BrickState) bool {
	b, ok := w.index[id]
	if !ok {
		return false
	}
	b.State = state
	return true
}

// remove takes a brick out of the collection and tags it removed. The tag is
// final: the brick is no longer reachable through the wall.
func (w *Wall) remove(id models.EntityID) (Brick, bool) {
	b, ok := w.index[id]
	if !ok {
		return Brick{}, false
	}
	delete(w.index, id)
	for i, cur := range w.bricks {
		if cur == b {
			w.bricks = append(w.bricks[:i], w.bricks[i+1:]...)
			break
		}
	}
	b.State = models.BrickRemoved
	return *b, true
}

func (w *Wall) reset() {
	*w = Wall{index: make(map[models.EntityID]*Brick)}
}

// TapOutcome says what a tap did.
type TapOutcome uint8

const (
	TapIgnored TapOutcome = iota
	TapMissed
	TapAnchored
	TapDeleted
	TapFired
)

func (o TapOutcome) String() string {
	switch o {
	case TapMissed:
		return "missed"
	case TapAnchored:
		return "anchored"
	case TapDeleted:
		return "deleted"
	case TapFired:
		return "fired"
	default:
		return "ignored"
	}
}

// WallPlacer anchors the wall on the first surface tap and builds its bricks
// once the engine confirms the anchor.
type WallPlacer struct {
	eng    engine.Engine
	cfg    WallConfig
	logger log.Log
	pub    publisher
	wall   *Wall
}

func NewWallPlacer(eng engine.Engine, cfg WallConfig, wall *Wall, logger log.Log, pub publisher) *WallPlacer {
	return &WallPlacer{
		eng:    eng,
		cfg:    cfg,
		logger: logger.With(log.String("component", "wall")),
		pub:    pub,
		wall:   wall,
	}
}

// DeleteAt handles the delete gesture: a precise hit on a brick removes it.
func (p *WallPlacer) DeleteAt(point engine.ScreenPoint) (bool, error) {
	if !p.cfg.DeleteOnPreciseHit {
		return false, nil
	}
	for _, hit := range p.eng.HitTest(point, engine.HitPrecise) {
		if _, ok := p.wall.Brick(hit.Entity); !ok {
			continue
		}
		if err := p.RemoveBrick(hit.Entity, CauseGesture); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Place hit-tests the estimated horizontal plane at point and registers the
// wall anchor, oriented to the camera's yaw. It returns ErrAlreadyPlaced once
// the wall exists and (false, nil) on a miss. Nothing changes on failure.
func (p *WallPlacer) Place(point engine.ScreenPoint) (bool, error) {
	if p.wall.placed {
		return false, ErrAlreadyPlaced
	}
	hits := p.eng.HitTest(point, engine.HitEstimatedHorizontalPlane)
	if len(hits) == 0 {
		return false, nil
	}
	cam, err := p.eng.Camera()
	if err != nil {
		return false, fmt.Errorf("place wall: %w", err)
	}

	transform := AnchorTransform(hits[0].WorldTransform, cam.Yaw())
	id, err := p.eng.AddAnchor(transform)
	if err != nil {
		return false, fmt.Errorf("place wall: %w", err)
	}

	p.wall.placed = true
	p.wall.anchor = id
	p.wall.transform = transform
	p.logger.Info("wall anchored", log.String("anchor", string(id)))
	_ = p.pub.publish(EventWallAnchored, WallEvent{Anchor: id, Origin: transform.Translation()})
	return true, nil
}

// AnchorTransform orients the hit pose to the camera's facing: hit ⊗ Ry(yaw).
func AnchorTransform(hit physics.Mat4, yaw float64) physics.Mat4 {
	return hit.Mul(physics.RotationY(yaw))
}

// Build spawns the brick grid under the confirmed wall anchor. If any brick
// fails to spawn, the spawned bricks and the anchor are removed and the wall
// returns to unplaced, so the next tap places it again.
func (p *WallPlacer) Build(anchor engine.Anchor) error {
	if !p.wall.placed || anchor.ID != p.wall.anchor {
		return ErrAnchorMismatch
	}
	if p.wall.built {
		return ErrWallBuilt
	}

	cells := Layout(p.cfg.Rows, p.cfg.Columns, p.cfg.Spacing, p.cfg.Origin)
	bricks := make([]*Brick, 0, len(cells))
	for _, cell := range cells {
		id, err := p.eng.Spawn(p.brickSpec(anchor.ID, cell))
		if err != nil {
			err = fmt.Errorf("build wall: brick r%d c%d: %w", cell.Row, cell.Column, err)
			return errors.Join(err, p.abandon(bricks, err))
		}
		bricks = append(bricks, &Brick{ID: id, Cell: cell, State: models.BrickIdle})
	}

	p.wall.bricks = bricks
	for _, b := range bricks {
		p.wall.index[b.ID] = b
	}
	p.wall.built = true
	p.wall.transform = anchor.Transform

	p.logger.Info("wall built", log.Int("bricks", len(bricks)), log.String("anchor", string(anchor.ID)))
	_ = p.pub.publish(EventWallBuilt, WallEvent{Anchor: anchor.ID, Bricks: len(bricks), Origin: anchor.Transform.Translation()})
	return nil
}

// abandon undoes a partial build: spawned bricks go, then the anchor.
func (p *WallPlacer) abandon(spawned []*Brick, cause error) error {
	var errs error
	for _, b := range spawned {
		errs = errors.Join(errs, p.eng.Remove(b.ID))
	}
	anchor := p.wall.anchor
	if err := p.eng.RemoveAnchor(anchor); err != nil && !errors.Is(err, engine.ErrUnknownAnchor) {
		errs = errors.Join(errs, err)
	}
	p.wall.reset()
	p.logger.Warn("wall build abandoned", log.String("anchor", string(anchor)), log.Error(cause))
	_ = p.pub.publish(EventWallReset, WallEvent{Anchor: anchor, Reason: cause.Error()})
	return errs
}

// RemoveBrick takes a brick out of the world and then out of the wall. The
// wall is untouched when the engine refuses the removal.
func (p *WallPlacer) RemoveBrick(id models.EntityID, cause string) error {
	if _, ok := p.wall.Brick(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBrick, id)
	}
	if err := p.eng.Remove(id); err != nil && !errors.Is(err, engine.ErrUnknownEntity) {
		return fmt.Errorf("remove brick %d: %w", id, err)
	}
	b, _ := p.wall.remove(id)
	_ = p.pub.publish(EventBrickDestroyed, BrickEvent{
		Brick:     id,
		Row:       b.Cell.Row,
		Column:    b.Cell.Column,
		Cause:     cause,
		Remaining: p.wall.Len(),
	})
	return nil
}

// Reset removes every brick and the anchor so the wall can be placed again.
func (p *WallPlacer) Reset() error {
	if !p.wall.placed {
		return nil
	}
	var errs error
	for _, b := range p.wall.bricks {
		errs = errors.Join(errs, p.eng.Remove(b.ID))
	}
	anchor := p.wall.anchor
	if anchor != "" {
		if err := p.eng.RemoveAnchor(anchor); err != nil && !errors.Is(err, engine.ErrUnknownAnchor) {
			errs = errors.Join(errs, err)
		}
	}
	p.wall.reset()
	p.logger.Info("wall reset", log.String("anchor", string(anchor)))
	_ = p.pub.publish(EventWallReset, WallEvent{Anchor: anchor})
	return errs
}

// BaseMaterial is the look of an idle brick for the configured style.
func (p *WallPlacer) BaseMaterial() engine.Material {
	switch p.cfg.Style {
	case StyleTextured:
		return engine.Material{Texture: p.cfg.Texture, Opacity: 1}
	case StyleGlass:
		return engine.Material{Color: p.cfg.Color, Opacity: 0.6}
	default:
		return engine.Material{Color: p.cfg.Color, Opacity: 1}
	}
}

func (p *WallPlacer) brickSpec(anchor models.AnchorID, cell Cell) engine.SpawnSpec {
	size := physics.V3(p.cfg.BrickSize, p.cfg.BrickSize, p.cfg.BrickSize)
	geometry := engine.Box(size)
	if p.cfg.Style == StyleGlass {
		geometry = engine.Model(p.cfg.Model, size)
	}
	return engine.SpawnSpec{
		Name:      fmt.Sprintf("brick:r%d:c%d", cell.Row, cell.Column),
		Kind:      models.KindBrick,
		Geometry:  geometry,
		Material:  p.BaseMaterial(),
		Body:      physics.Static(physics.ShapeBox),
		Parent:    engine.ParentAnchor,
		Anchor:    anchor,
		Transform: physics.Translation(cell.Offset),
	}
}
