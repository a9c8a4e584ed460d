package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/bricksmash/internal/core/events/bus"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
	"github.com/zeusync/bricksmash/internal/engine/sim"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []bus.Event
}

func recordEvents(t *testing.T, b bus.EventBus) *eventRecorder {
	t.Helper()
	r := &eventRecorder{}
	_, err := b.Subscribe(bus.Wildcard, func(e bus.Event) error {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	return r
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type())
	}
	return out
}

func (r *eventRecorder) count(typ string) int {
	n := 0
	for _, got := range r.types() {
		if got == typ {
			n++
		}
	}
	return n
}

// rig wires the components by hand, without a loop, for unit tests.
type rig struct {
	cfg      Config
	eng      *sim.Engine
	bus      bus.EventBus
	events   *eventRecorder
	wall     *Wall
	placer   *WallPlacer
	launcher *Launcher
	impacts  *ImpactResolver
}

func newRig(t *testing.T, cfg Config) *rig {
	return newRigWith(t, cfg, nil)
}

// newRigWith hands the components wrap(sim) instead of the sim engine itself.
func newRigWith(t *testing.T, cfg Config, wrap func(*sim.Engine) engine.Engine) *rig {
	t.Helper()
	eng := sim.New()
	t.Cleanup(eng.Close)
	require.NoError(t, eng.StartSession(context.Background(), engine.SessionConfig{PlaneDetection: true}))

	var host engine.Engine = eng
	if wrap != nil {
		host = wrap(eng)
	}

	b := bus.New()
	pub := publisher{bus: b}
	logger := log.NewNop()
	wall := NewWall()
	placer := NewWallPlacer(host, cfg.Wall, wall, logger, pub)
	launcher := NewLauncher(host, cfg.Projectile, logger, pub)

	return &rig{
		cfg:      cfg,
		eng:      eng,
		bus:      b,
		events:   recordEvents(t, b),
		wall:     wall,
		placer:   placer,
		launcher: launcher,
		impacts:  NewImpactResolver(cfg.Impact, wall, placer, launcher, logger, pub),
	}
}

var floorHit = engine.HitResult{WorldTransform: physics.Translation(physics.V3(0, 0, -1))}

// buildWall places and builds the wall as the controller would after the
// anchor notification.
func (r *rig) buildWall(t *testing.T) {
	t.Helper()
	r.eng.SetHitResults(engine.HitEstimatedHorizontalPlane, floorHit)
	ok, err := r.placer.Place(engine.ScreenPoint{})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, r.placer.Build(r.anchor(t)))
}

func (r *rig) anchor(t *testing.T) engine.Anchor {
	t.Helper()
	for _, a := range r.eng.Anchors() {
		if a.ID == r.wall.Anchor() {
			return a
		}
	}
	require.FailNow(t, "wall anchor not registered with the engine")
	return engine.Anchor{}
}

var (
	errSpawnRefused  = errors.New("spawn refused")
	errRemoveRefused = errors.New("remove refused")
)

// faultyEngine fails selected calls on top of the sim engine. Its fields are
// only touched from the goroutine that drives the game components.
type faultyEngine struct {
	*sim.Engine
	failSpawnAt int // 1-based Spawn call that fails, 0 for none
	spawns      int
	removeErr   error
}

func (f *faultyEngine) wrap(e *sim.Engine) engine.Engine {
	f.Engine = e
	return f
}

func (f *faultyEngine) Spawn(spec engine.SpawnSpec) (models.EntityID, error) {
	f.spawns++
	if f.spawns == f.failSpawnAt {
		return models.NoEntity, errSpawnRefused
	}
	return f.Engine.Spawn(spec)
}

func (f *faultyEngine) Remove(id models.EntityID) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Engine.Remove(id)
}
