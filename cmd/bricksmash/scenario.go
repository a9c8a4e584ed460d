package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
	"github.com/zeusync/bricksmash/internal/game"
	"github.com/zeusync/bricksmash/internal/injector"
)

const (
	stepSeconds = 0.01
	flightSteps = 150
)

var viewer = physics.V3(0, 0.05, 0)

// scenario drives the sim engine like a player would: find the floor, place
// the wall, then shoot at the highlighted brick.
type scenario struct {
	app    *injector.App
	shots  int
	logger log.Log
}

type summary struct {
	Fired     uint64
	Destroyed uint64
	Absorbed  uint64
	Expired   uint64
	Remaining int

	Published uint64
	Muted     uint64
	Tasks     uint64
}

func newScenario(app *injector.App, shots int) *scenario {
	return &scenario{app: app, shots: shots, logger: app.Logger.With(log.String("component", "scenario"))}
}

func (s *scenario) run(ctx context.Context) (summary, error) {
	eng := s.app.Engine
	if err := s.app.Controller.Start(ctx); err != nil {
		return summary{}, fmt.Errorf("start: %w", err)
	}

	eng.DetectPlane("floor", engine.PlaneInfo{
		Center: physics.V3(0, 0, -1),
		Extent: physics.Vec2{X: 2, Y: 2},
	})
	eng.SetCamera(viewer, 0, 0)
	eng.SetHitResults(engine.HitEstimatedHorizontalPlane, engine.HitResult{
		WorldTransform: physics.Translation(physics.V3(0, 0, -1)),
	})
	eng.Tap(engine.ScreenPoint{X: 0.5, Y: 0.5})

	snap, err := s.waitFor(ctx, func(snap game.Snapshot) bool { return snap.Built }, time.Second)
	if err != nil {
		return summary{}, fmt.Errorf("place wall: %w", err)
	}
	s.logger.Info("wall ready", log.Int("bricks", len(snap.Bricks)), log.String("anchor", string(snap.Anchor)))

	for i := 0; i < s.shots && len(snap.Bricks) > 0; i++ {
		target, err := s.pickTarget(ctx)
		if err != nil {
			return summary{}, err
		}
		ent, ok := eng.Entity(target)
		if !ok {
			continue
		}
		yaw, pitch := aimAt(viewer, ent.World.Translation())
		eng.SetCamera(viewer, yaw, pitch)
		eng.Tap(engine.ScreenPoint{X: 0.5, Y: 0.5})
		if _, err := s.settle(ctx); err != nil {
			return summary{}, err
		}

		for range flightSteps {
			eng.Step(stepSeconds)
		}
		if snap, err = s.settle(ctx); err != nil {
			return summary{}, err
		}
		s.logger.Debug("shot resolved", log.Int("shot", i+1), log.Int("remaining", len(snap.Bricks)))
	}

	return s.summarize(snap), nil
}

// pickTarget returns the active brick, waiting up to two highlight intervals
// for one when destruction needs it. Otherwise any remaining brick will do.
func (s *scenario) pickTarget(ctx context.Context) (models.EntityID, error) {
	cfg := s.app.Config
	if cfg.Impact.RequireActive && cfg.Highlight.Enabled {
		snap, err := s.waitFor(ctx, func(snap game.Snapshot) bool { return len(snap.Active) > 0 }, 2*cfg.Highlight.Interval.Std())
		if err == nil {
			return snap.Active[0], nil
		}
		if ctx.Err() != nil {
			return models.NoEntity, ctx.Err()
		}
	}
	snap, err := s.app.Controller.Snapshot(ctx)
	if err != nil {
		return models.NoEntity, err
	}
	if len(snap.Active) > 0 {
		return snap.Active[0], nil
	}
	if len(snap.Bricks) == 0 {
		return models.NoEntity, game.ErrNoBricks
	}
	return snap.Bricks[0].ID, nil
}

// settle lets the engine deliver everything it queued and the loop apply it.
func (s *scenario) settle(ctx context.Context) (game.Snapshot, error) {
	for range 3 {
		s.app.Engine.WaitIdle()
		if err := s.app.Loop.Call(ctx, func() {}); err != nil {
			return game.Snapshot{}, err
		}
	}
	return s.app.Controller.Snapshot(ctx)
}

func (s *scenario) waitFor(ctx context.Context, cond func(game.Snapshot) bool, timeout time.Duration) (game.Snapshot, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		snap, err := s.settle(ctx)
		if err != nil {
			return snap, err
		}
		if cond(snap) {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-deadline.C:
			return snap, context.DeadlineExceeded
		case <-tick.C:
		}
	}
}

func (s *scenario) summarize(snap game.Snapshot) summary {
	m := s.app.Metrics
	bm := s.app.Bus.GetMetrics()
	return summary{
		Fired:     m.Count(game.EventProjectileFired),
		Destroyed: m.Count(game.EventBrickDestroyed),
		Absorbed:  m.Count(game.EventProjectileAbsorbed),
		Expired:   m.Count(game.EventProjectileExpired),
		Remaining: len(snap.Bricks),
		Published: bm.Published,
		Muted:     bm.DroppedByFilters,
		Tasks:     s.app.Loop.Executed(),
	}
}

func (s *scenario) report(sum summary) {
	s.logger.Info("scenario finished",
		log.Uint64("fired", sum.Fired),
		log.Uint64("destroyed", sum.Destroyed),
		log.Uint64("absorbed", sum.Absorbed),
		log.Uint64("expired", sum.Expired),
		log.Int("remaining", sum.Remaining),
		log.Uint64("events_published", sum.Published),
		log.Uint64("events_muted", sum.Muted),
		log.Uint64("loop_tasks", sum.Tasks))
}

// aimAt returns the camera yaw and pitch that face target from eye.
func aimAt(eye, target physics.Vec3) (yaw, pitch float64) {
	d := target.Sub(eye)
	yaw = math.Atan2(-d.X, -d.Z)
	pitch = math.Atan2(d.Y, math.Hypot(d.X, d.Z))
	return yaw, pitch
}
