package game

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/zeusync/bricksmash/internal/core/events/bus"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

// Projectile is the handle returned for every shot. Any number may be in
// flight at once.
type Projectile struct {
	ID      models.EntityID
	Impulse physics.Vec3
	FiredAt time.Time
}

// Launcher spawns camera-relative projectiles and tracks them until they hit
// a brick or expire.
type Launcher struct {
	eng      engine.Engine
	cfg      ProjectileConfig
	logger   log.Log
	pub      publisher
	now      func() time.Time
	inFlight map[models.EntityID]*Projectile
	fired    uint64
}

func NewLauncher(eng engine.Engine, cfg ProjectileConfig, logger log.Log, pub publisher) *Launcher {
	return &Launcher{
		eng:      eng,
		cfg:      cfg,
		logger:   logger.With(log.String("component", "launcher")),
		pub:      pub,
		now:      time.Now,
		inFlight: make(map[models.EntityID]*Projectile),
	}
}

// AimDirection is the unit vector the camera faces. Without pitch the shot
// stays level.
func AimDirection(cam engine.Camera, usePitch bool) physics.Vec3 {
	yaw := cam.Yaw()
	if !usePitch {
		return physics.V3(-math.Sin(yaw), 0, -math.Cos(yaw))
	}
	pitch := cam.Pitch()
	return physics.V3(
		-math.Sin(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		-math.Cos(yaw)*math.Cos(pitch),
	)
}

// Fire spawns a projectile in front of the viewer and launches it along the
// aim direction. A failed impulse removes the spawned entity.
func (l *Launcher) Fire() (Projectile, error) {
	cam, err := l.eng.Camera()
	if err != nil {
		return Projectile{}, fmt.Errorf("fire: %w", err)
	}
	impulse := AimDirection(cam, l.cfg.UsePitch).Scale(l.cfg.Force)

	l.fired++
	id, err := l.eng.Spawn(engine.SpawnSpec{
		Name:      fmt.Sprintf("projectile:%d", l.fired),
		Kind:      models.KindProjectile,
		Geometry:  engine.Sphere(l.cfg.Radius),
		Material:  engine.Material{Color: l.cfg.Color, Opacity: 1},
		Body:      physics.Dynamic(physics.ShapeSphere, l.cfg.Mass),
		Parent:    engine.ParentCamera,
		Transform: physics.Translation(physics.Forward3.Scale(l.cfg.SpawnDistance)),
	})
	if err != nil {
		return Projectile{}, fmt.Errorf("fire: %w", err)
	}
	if err := l.eng.ApplyImpulse(id, impulse); err != nil {
		return Projectile{}, errors.Join(fmt.Errorf("fire: %w", err), l.eng.Remove(id))
	}

	p := &Projectile{ID: id, Impulse: impulse, FiredAt: l.now()}
	l.inFlight[id] = p
	l.logger.Debug("projectile fired", log.Uint64("projectile", uint64(id)), log.Int("in_flight", len(l.inFlight)))
	_ = l.pub.publish(EventProjectileFired, ProjectileEvent{Projectile: id, Impulse: impulse})
	return *p, nil
}

// Tracks reports whether id is a projectile still in flight.
func (l *Launcher) Tracks(id models.EntityID) bool {
	_, ok := l.inFlight[id]
	return ok
}

// Despawn removes a projectile from the world and stops tracking it.
func (l *Launcher) Despawn(id models.EntityID) error {
	if _, ok := l.inFlight[id]; !ok {
		return nil
	}
	delete(l.inFlight, id)
	if err := l.eng.Remove(id); err != nil && !errors.Is(err, engine.ErrUnknownEntity) {
		return fmt.Errorf("despawn projectile %d: %w", id, err)
	}
	return nil
}

// Sweep despawns projectiles older than the configured lifetime and returns
// how many expired.
func (l *Launcher) Sweep(now time.Time) int {
	lifetime := l.cfg.Lifetime.Std()
	if lifetime <= 0 {
		return 0
	}
	var expired []*Projectile
	for _, p := range l.inFlight {
		if now.Sub(p.FiredAt) >= lifetime {
			expired = append(expired, p)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	batch := make([]bus.Event, 0, len(expired))
	for _, p := range expired {
		if err := l.Despawn(p.ID); err != nil {
			l.logger.Warn("expire projectile", log.Error(err))
			continue
		}
		batch = append(batch, bus.NewEvent(EventProjectileExpired, eventSource,
			ProjectileEvent{Projectile: p.ID, Age: now.Sub(p.FiredAt)}))
	}
	_ = l.pub.publishBatch(batch...)
	return len(expired)
}

// Clear despawns everything in flight.
func (l *Launcher) Clear() {
	for id := range l.inFlight {
		if err := l.Despawn(id); err != nil {
			l.logger.Warn("clear projectile", log.Error(err))
		}
	}
}

func (l *Launcher) InFlight() []Projectile {
	out := make([]Projectile, 0, len(l.inFlight))
	for _, p := range l.inFlight {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fired counts every shot launched this session.
func (l *Launcher) Fired() uint64 { return l.fired }
