package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

func newRegistry(t *testing.T, cfg PlaneConfig) (*PlaneRegistry, *rig) {
	t.Helper()
	r := newRig(t, DefaultConfig())
	return NewPlaneRegistry(r.eng, cfg, log.NewNop(), publisher{bus: r.bus}), r
}

func TestPlaneLifecycle(t *testing.T) {
	cfg := DefaultConfig().Plane
	reg, r := newRegistry(t, cfg)

	plane := engine.PlaneInfo{Center: physics.V3(0, 0, -1), Extent: physics.Vec2{X: 0.5, Y: 0.4}}
	require.NoError(t, reg.OnSurfaceDetected("p1", plane))
	require.Equal(t, 1, reg.Len())

	s, ok := reg.Get("p1")
	require.True(t, ok)
	assert.True(t, reg.IsSurface(s.Entity))

	ent, ok := r.eng.Entity(s.Entity)
	require.True(t, ok)
	assert.Equal(t, physics.BodyStatic, ent.Spec.Body.Kind)
	assert.True(t, ent.Spec.Geometry.Size.ApproxEqual(physics.V3(0.5, cfg.Thickness, 0.4), eps))
	assert.True(t, ent.World.Translation().ApproxEqual(physics.V3(0, -cfg.SinkDepth, -1), eps))

	plane.Center = physics.V3(0.2, 0, -1.2)
	plane.Extent = physics.Vec2{X: 1, Y: 0.8}
	require.NoError(t, reg.OnSurfaceUpdated("p1", plane))
	ent, _ = r.eng.Entity(s.Entity)
	assert.True(t, ent.Spec.Geometry.Size.ApproxEqual(physics.V3(1, cfg.Thickness, 0.8), eps))
	assert.True(t, ent.World.Translation().ApproxEqual(physics.V3(0.2, -cfg.SinkDepth, -1.2), eps))
	assert.Equal(t, 1, r.eng.Count(models.KindSurface), "update reshapes in place")

	require.NoError(t, reg.OnSurfaceRemoved("p1"))
	assert.Zero(t, reg.Len())
	assert.Zero(t, r.eng.Count(models.KindSurface))
	assert.False(t, reg.IsSurface(s.Entity))

	assert.Equal(t, []string{EventSurfaceDetected, EventSurfaceUpdated, EventSurfaceRemoved}, r.events.types())
}

func TestPlaneUnknownIDsAreIgnored(t *testing.T) {
	reg, r := newRegistry(t, DefaultConfig().Plane)

	require.NoError(t, reg.OnSurfaceUpdated("ghost", engine.PlaneInfo{}))
	require.NoError(t, reg.OnSurfaceRemoved("ghost"))
	assert.Zero(t, reg.Len())
	assert.Zero(t, r.eng.Count(models.KindUnknown))
}

func TestPlaneDuplicateDetectionUpdates(t *testing.T) {
	reg, r := newRegistry(t, DefaultConfig().Plane)

	require.NoError(t, reg.OnSurfaceDetected("p1", engine.PlaneInfo{Extent: physics.Vec2{X: 1, Y: 1}}))
	require.NoError(t, reg.OnSurfaceDetected("p1", engine.PlaneInfo{Extent: physics.Vec2{X: 2, Y: 2}}))
	assert.Equal(t, 1, r.eng.Count(models.KindSurface))

	s, _ := reg.Get("p1")
	assert.Equal(t, physics.Vec2{X: 2, Y: 2}, s.Extent)
}

func TestPlaneVerticalFiltering(t *testing.T) {
	wall := engine.PlaneInfo{Alignment: engine.AlignVertical, Extent: physics.Vec2{X: 1, Y: 1}}

	reg, _ := newRegistry(t, DefaultConfig().Plane)
	require.NoError(t, reg.OnSurfaceDetected("v1", wall))
	assert.Zero(t, reg.Len())

	cfg := DefaultConfig().Plane
	cfg.IncludeVertical = true
	reg, _ = newRegistry(t, cfg)
	require.NoError(t, reg.OnSurfaceDetected("v1", wall))
	assert.Equal(t, 1, reg.Len())
}

func TestPlaneClear(t *testing.T) {
	reg, r := newRegistry(t, DefaultConfig().Plane)
	for _, id := range []models.AnchorID{"a", "b", "c"} {
		require.NoError(t, reg.OnSurfaceDetected(id, engine.PlaneInfo{Extent: physics.Vec2{X: 1, Y: 1}}))
	}
	require.Len(t, reg.Surfaces(), 3)
	assert.Equal(t, models.AnchorID("a"), reg.Surfaces()[0].ID)

	reg.Clear()
	assert.Zero(t, reg.Len())
	assert.Zero(t, r.eng.Count(models.KindSurface))
}
