package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

const eps = 1e-9

func TestLayoutColumnMajor(t *testing.T) {
	cells := Layout(2, 2, physics.Vec2{X: 0.1, Y: 0.1}, physics.Vec2{X: -0.1, Y: 0})
	require.Len(t, cells, 4)

	want := []physics.Vec3{
		physics.V3(-0.1, 0, 0),
		physics.V3(-0.1, 0.1, 0),
		physics.V3(0, 0, 0),
		physics.V3(0, 0.1, 0),
	}
	for i, c := range cells {
		assert.True(t, c.Offset.ApproxEqual(want[i], eps), "cell %d: got %+v want %+v", i, c.Offset, want[i])
	}
	assert.Equal(t, Cell{Row: 1, Column: 0, Offset: cells[1].Offset}, cells[1])
	assert.Equal(t, 1, cells[2].Column)
}

func TestLayoutCounts(t *testing.T) {
	for _, tc := range []struct{ rows, cols int }{{1, 1}, {3, 2}, {4, 7}} {
		assert.Len(t, Layout(tc.rows, tc.cols, physics.Vec2{X: 1, Y: 1}, physics.Vec2{}), tc.rows*tc.cols)
	}
	assert.Empty(t, Layout(0, 3, physics.Vec2{X: 1, Y: 1}, physics.Vec2{}))
}

func TestAnchorTransform(t *testing.T) {
	hit := physics.Translation(physics.V3(1, 0, -2))
	got := AnchorTransform(hit, math.Pi/2)

	assert.True(t, got.Translation().ApproxEqual(physics.V3(1, 0, -2), eps))
	// the wall's forward axis follows the camera's yaw
	assert.True(t, got.TransformDirection(physics.Forward3).ApproxEqual(physics.V3(-1, 0, 0), eps))
	assert.True(t, got.ApproxEqual(hit.Mul(physics.RotationY(math.Pi/2)), eps))
}

func TestPlaceAnchorsOnce(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.eng.SetHitResults(engine.HitEstimatedHorizontalPlane, floorHit)
	r.eng.SetCamera(physics.V3(0, 1.5, 0), 0.3, 0)

	ok, err := r.placer.Place(engine.ScreenPoint{X: 10, Y: 20})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.wall.Placed())
	assert.False(t, r.wall.Built(), "bricks wait for the anchor notification")
	assert.Zero(t, r.eng.Count(models.KindBrick))

	anchors := r.eng.Anchors()
	require.Len(t, anchors, 1)
	assert.True(t, anchors[0].Transform.ApproxEqual(AnchorTransform(floorHit.WorldTransform, 0.3), eps))

	ok, err = r.placer.Place(engine.ScreenPoint{})
	require.ErrorIs(t, err, ErrAlreadyPlaced)
	assert.False(t, ok)
	assert.Len(t, r.eng.Anchors(), 1)
	assert.Equal(t, 1, r.events.count(EventWallAnchored))
}

func TestPlaceMissLeavesStateUnchanged(t *testing.T) {
	r := newRig(t, DefaultConfig())

	ok, err := r.placer.Place(engine.ScreenPoint{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, r.wall.Placed())
	assert.Empty(t, r.eng.Anchors())
}

func TestPlaceWithoutCameraFails(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.eng.SetHitResults(engine.HitEstimatedHorizontalPlane, floorHit)
	r.eng.LoseCamera()

	_, err := r.placer.Place(engine.ScreenPoint{})
	require.ErrorIs(t, err, engine.ErrNoCameraFrame)
	assert.False(t, r.wall.Placed())
	assert.Empty(t, r.eng.Anchors())
}

func TestBuildSpawnsGridUnderAnchor(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.buildWall(t)

	assert.True(t, r.wall.Built())
	require.Equal(t, 6, r.wall.Len())
	require.Equal(t, 6, r.eng.Count(models.KindBrick))

	anchor := r.anchor(t)
	assert.Equal(t, anchor.Transform, r.wall.Transform())
	for _, b := range r.wall.Bricks() {
		ent, ok := r.eng.Entity(b.ID)
		require.True(t, ok)
		assert.Equal(t, engine.ParentAnchor, ent.Spec.Parent)
		assert.Equal(t, physics.BodyStatic, ent.Spec.Body.Kind)
		assert.Equal(t, engine.GeometryBox, ent.Spec.Geometry.Kind)
		assert.Equal(t, models.BrickIdle, b.State)
		want := anchor.Transform.TransformPoint(b.Cell.Offset)
		assert.True(t, ent.World.Translation().ApproxEqual(want, eps))
	}

	require.ErrorIs(t, r.placer.Build(anchor), ErrWallBuilt)
	assert.Equal(t, 6, r.eng.Count(models.KindBrick))
}

func TestBuildFailureReleasesAnchor(t *testing.T) {
	host := &faultyEngine{failSpawnAt: 3}
	r := newRigWith(t, DefaultConfig(), host.wrap)
	r.eng.SetHitResults(engine.HitEstimatedHorizontalPlane, floorHit)

	ok, err := r.placer.Place(engine.ScreenPoint{})
	require.NoError(t, err)
	require.True(t, ok)

	require.ErrorIs(t, r.placer.Build(r.anchor(t)), errSpawnRefused)
	assert.False(t, r.wall.Placed())
	assert.False(t, r.wall.Built())
	assert.Empty(t, r.wall.Anchor())
	assert.Zero(t, r.wall.Len())
	assert.Zero(t, r.eng.Count(models.KindBrick))
	assert.Empty(t, r.eng.Anchors())
	assert.Equal(t, []string{EventWallAnchored, EventWallReset}, r.events.types())

	r.buildWall(t)
	assert.Equal(t, 6, r.wall.Len())
	assert.Equal(t, 6, r.eng.Count(models.KindBrick))
}

func TestBuildRejectsForeignAnchor(t *testing.T) {
	r := newRig(t, DefaultConfig())
	require.ErrorIs(t, r.placer.Build(engine.Anchor{ID: "other"}), ErrAnchorMismatch)

	r.eng.SetHitResults(engine.HitEstimatedHorizontalPlane, floorHit)
	_, err := r.placer.Place(engine.ScreenPoint{})
	require.NoError(t, err)
	require.ErrorIs(t, r.placer.Build(engine.Anchor{ID: "other"}), ErrAnchorMismatch)
	assert.False(t, r.wall.Built())
}

func TestBuildStyles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wall.Style = StyleGlass
	r := newRig(t, cfg)
	r.buildWall(t)

	for _, ent := range r.eng.Entities(models.KindBrick) {
		assert.Equal(t, engine.GeometryModel, ent.Spec.Geometry.Kind)
		assert.Equal(t, cfg.Wall.Model, ent.Spec.Geometry.Model)
		assert.Less(t, ent.Material.Opacity, 1.0)
	}

	cfg.Wall.Style = StyleTextured
	r = newRig(t, cfg)
	r.buildWall(t)
	for _, ent := range r.eng.Entities(models.KindBrick) {
		assert.Equal(t, cfg.Wall.Texture, ent.Material.Texture)
	}
}

func TestDeleteGesture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wall.DeleteOnPreciseHit = true
	r := newRig(t, cfg)
	r.buildWall(t)

	target := r.wall.Bricks()[2]
	r.eng.SetHitResults(engine.HitPrecise, engine.HitResult{Entity: target.ID})

	deleted, err := r.placer.DeleteAt(engine.ScreenPoint{})
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 5, r.wall.Len())
	_, ok := r.eng.Entity(target.ID)
	assert.False(t, ok)

	// the removed brick no longer answers precise hits
	deleted, err = r.placer.DeleteAt(engine.ScreenPoint{})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteGestureDisabled(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.buildWall(t)
	r.eng.SetHitResults(engine.HitPrecise, engine.HitResult{Entity: r.wall.Bricks()[0].ID})

	deleted, err := r.placer.DeleteAt(engine.ScreenPoint{})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 6, r.wall.Len())
}

func TestResetAllowsPlacementAgain(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.buildWall(t)

	require.NoError(t, r.placer.Reset())
	assert.False(t, r.wall.Placed())
	assert.False(t, r.wall.Built())
	assert.Zero(t, r.wall.Len())
	assert.Zero(t, r.eng.Count(models.KindBrick))
	assert.Empty(t, r.eng.Anchors())

	r.buildWall(t)
	assert.Equal(t, 6, r.wall.Len())
}

func TestRemoveUnknownBrick(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.buildWall(t)
	require.ErrorIs(t, r.placer.RemoveBrick(9999, CauseImpact), ErrUnknownBrick)
}

func TestRemoveBrickKeepsWallWhenEngineRefuses(t *testing.T) {
	host := &faultyEngine{}
	r := newRigWith(t, DefaultConfig(), host.wrap)
	r.buildWall(t)
	target := r.wall.Bricks()[0].ID

	host.removeErr = errRemoveRefused
	require.ErrorIs(t, r.placer.RemoveBrick(target, CauseImpact), errRemoveRefused)
	b, ok := r.wall.Brick(target)
	require.True(t, ok)
	assert.Equal(t, models.BrickIdle, b.State)
	assert.Equal(t, 6, r.wall.Len())
	_, live := r.eng.Entity(target)
	assert.True(t, live)
	assert.Zero(t, r.events.count(EventBrickDestroyed))

	host.removeErr = nil
	require.NoError(t, r.placer.RemoveBrick(target, CauseImpact))
	assert.Equal(t, 5, r.wall.Len())
	assert.Equal(t, 1, r.events.count(EventBrickDestroyed))
}

func TestRemoveBrickAlreadyGoneFromEngine(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.buildWall(t)
	target := r.wall.Bricks()[0].ID

	require.NoError(t, r.eng.Remove(target))
	require.NoError(t, r.placer.RemoveBrick(target, CauseImpact))
	_, ok := r.wall.Brick(target)
	assert.False(t, ok)
	assert.Equal(t, 1, r.events.count(EventBrickDestroyed))
}
