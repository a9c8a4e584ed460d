package game

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

func TestAimDirection(t *testing.T) {
	level := engine.Camera{Euler: physics.V3(0, 0, 0)}
	assert.True(t, AimDirection(level, true).ApproxEqual(physics.Forward3, eps))

	turned := engine.Camera{Euler: physics.V3(0, math.Pi/2, 0)}
	assert.True(t, AimDirection(turned, true).ApproxEqual(physics.V3(-1, 0, 0), eps))

	up := engine.Camera{Euler: physics.V3(math.Pi/6, 0, 0)}
	got := AimDirection(up, true)
	assert.InDelta(t, 0.5, got.Y, eps)
	assert.InDelta(t, 1, got.Length(), eps)

	assert.InDelta(t, 0, AimDirection(up, false).Y, eps)
}

func TestFireSpawnsAndLaunches(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.eng.SetCamera(physics.V3(0, 1, 0), 0, 0)

	p, err := r.launcher.Fire()
	require.NoError(t, err)

	ent, ok := r.eng.Entity(p.ID)
	require.True(t, ok)
	assert.Equal(t, models.KindProjectile, ent.Spec.Kind)
	assert.Equal(t, engine.ParentCamera, ent.Spec.Parent)
	assert.Equal(t, physics.BodyDynamic, ent.Spec.Body.Kind)
	assert.InDelta(t, cfg.Projectile.Radius, ent.Spec.Geometry.Radius, eps)
	assert.True(t, ent.World.Translation().ApproxEqual(physics.V3(0, 1, -cfg.Projectile.SpawnDistance), eps))

	require.Len(t, ent.Impulses, 1)
	assert.True(t, ent.Impulses[0].ApproxEqual(physics.Forward3.Scale(cfg.Projectile.Force), eps))
	assert.True(t, p.Impulse.ApproxEqual(ent.Impulses[0], eps))
	assert.Equal(t, 1, r.events.count(EventProjectileFired))
}

func TestFireGivesDistinctHandles(t *testing.T) {
	r := newRig(t, DefaultConfig())

	seen := make(map[models.EntityID]bool)
	for range 5 {
		p, err := r.launcher.Fire()
		require.NoError(t, err)
		assert.False(t, seen[p.ID], "handle %d reused", p.ID)
		seen[p.ID] = true
	}
	assert.Len(t, r.launcher.InFlight(), 5)
	assert.Equal(t, 5, r.eng.Count(models.KindProjectile))
	assert.Equal(t, uint64(5), r.launcher.Fired())
	for id := range seen {
		assert.True(t, r.launcher.Tracks(id))
	}
}

func TestFireWithoutCamera(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.eng.LoseCamera()

	_, err := r.launcher.Fire()
	require.ErrorIs(t, err, engine.ErrNoCameraFrame)
	assert.Zero(t, r.eng.Count(models.KindProjectile))
	assert.Empty(t, r.launcher.InFlight())
}

func TestSweepExpiresOldProjectiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Projectile.Lifetime = Duration(time.Second)
	r := newRig(t, cfg)

	start := time.Unix(1_000, 0)
	now := start
	r.launcher.now = func() time.Time { return now }

	old, err := r.launcher.Fire()
	require.NoError(t, err)
	now = start.Add(800 * time.Millisecond)
	fresh, err := r.launcher.Fire()
	require.NoError(t, err)

	assert.Zero(t, r.launcher.Sweep(start.Add(500*time.Millisecond)))
	assert.Equal(t, 1, r.launcher.Sweep(start.Add(time.Second)))

	assert.False(t, r.launcher.Tracks(old.ID))
	assert.True(t, r.launcher.Tracks(fresh.ID))
	_, alive := r.eng.Entity(old.ID)
	assert.False(t, alive)
	assert.Equal(t, 1, r.events.count(EventProjectileExpired))
}

func TestSweepDisabledWithZeroLifetime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Projectile.Lifetime = 0
	r := newRig(t, cfg)

	_, err := r.launcher.Fire()
	require.NoError(t, err)
	assert.Zero(t, r.launcher.Sweep(time.Now().Add(time.Hour)))
	assert.Len(t, r.launcher.InFlight(), 1)
}

func TestDespawnAndClear(t *testing.T) {
	r := newRig(t, DefaultConfig())
	a, _ := r.launcher.Fire()
	_, _ = r.launcher.Fire()

	require.NoError(t, r.launcher.Despawn(a.ID))
	require.NoError(t, r.launcher.Despawn(a.ID), "despawning twice is a no-op")
	assert.Len(t, r.launcher.InFlight(), 1)

	r.launcher.Clear()
	assert.Empty(t, r.launcher.InFlight())
	assert.Zero(t, r.eng.Count(models.KindProjectile))
}
