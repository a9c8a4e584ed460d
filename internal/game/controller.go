package game

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/bricksmash/internal/core/events/bus"
	"github.com/zeusync/bricksmash/internal/core/loop"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/engine"
)

var _ engine.Listener = (*Controller)(nil)

// Controller owns every game component and is the single listener the host
// engine talks to. Engine callbacks may arrive on any goroutine; each one is
// redispatched onto the loop before it touches game state, so the fields
// below are only read or written from the loop goroutine.
type Controller struct {
	cfg    Config
	eng    engine.Engine
	loop   *loop.Loop
	base   log.Log
	logger log.Log
	pub    publisher

	session     *Session
	planes      *PlaneRegistry
	wall        *Wall
	placer      *WallPlacer
	launcher    *Launcher
	impacts     *ImpactResolver
	highlighter *Highlighter

	highlightTimer *loop.Timer
	sweepTimer     *loop.Timer
}

func NewController(cfg Config, eng engine.Engine, lp *loop.Loop, events bus.EventBus, logger log.Log) *Controller {
	pub := newPublisher(events, cfg.Events)
	wall := NewWall()
	placer := NewWallPlacer(eng, cfg.Wall, wall, logger, pub)
	launcher := NewLauncher(eng, cfg.Projectile, logger, pub)

	base := logger.With(log.String("component", "controller"))

	return &Controller{
		cfg:         cfg,
		eng:         eng,
		loop:        lp,
		base:        base,
		logger:      base,
		pub:         pub,
		session:     NewSession(eng, cfg.Session, logger),
		planes:      NewPlaneRegistry(eng, cfg.Plane, logger, pub),
		wall:        wall,
		placer:      placer,
		launcher:    launcher,
		impacts:     NewImpactResolver(cfg.Impact, wall, placer, launcher, logger, pub),
		highlighter: NewHighlighter(eng, cfg.Highlight, wall, placer.BaseMaterial(), logger, pub),
	}
}

// Start runs the tracking session and the periodic timers.
func (c *Controller) Start(ctx context.Context) error {
	return c.call(ctx, func() error { return c.start(ctx) })
}

// Stop pauses tracking, invalidates the timers and despawns projectiles and
// surface placeholders. The wall stays. Callbacks that arrive afterwards are
// dropped.
func (c *Controller) Stop(ctx context.Context) error {
	return c.call(ctx, c.stop)
}

func (c *Controller) start(ctx context.Context) error {
	if err := c.session.Start(ctx); err != nil {
		return err
	}
	c.logger = c.base.WithContext(log.ContextWithSession(ctx, c.session.ID()))

	if c.cfg.Highlight.Enabled && c.highlightTimer == nil {
		t, err := c.loop.Every(c.cfg.Highlight.Interval.Std(), c.highlightTick)
		if err != nil {
			return errors.Join(err, c.session.Stop())
		}
		c.highlightTimer = t
	}
	if lifetime := c.cfg.Projectile.Lifetime.Std(); lifetime > 0 && c.sweepTimer == nil {
		t, err := c.loop.Every(sweepInterval(lifetime), c.sweepTick)
		if err != nil {
			return errors.Join(err, c.session.Stop())
		}
		c.sweepTimer = t
	}

	_ = c.pub.publish(EventSessionStarted, SessionEvent{Session: c.session.ID()})
	return nil
}

func (c *Controller) stop() error {
	if c.highlightTimer != nil {
		c.highlightTimer.Stop()
		c.highlightTimer = nil
	}
	if c.sweepTimer != nil {
		c.sweepTimer.Stop()
		c.sweepTimer = nil
	}
	c.launcher.Clear()
	c.planes.Clear()
	if err := c.session.Stop(); err != nil {
		return err
	}
	_ = c.pub.publish(EventSessionStopped, SessionEvent{Session: c.session.ID()})
	return nil
}

// sweepInterval checks for expired projectiles a few times per lifetime.
func sweepInterval(lifetime time.Duration) time.Duration {
	return min(max(lifetime/4, 10*time.Millisecond), time.Second)
}

func (c *Controller) highlightTick() {
	if !c.session.AcceptsInput() {
		return
	}
	if _, err := c.highlighter.Tick(); err != nil && !errors.Is(err, ErrNotPlaced) && !errors.Is(err, ErrNoBricks) {
		c.logger.Warn("highlight tick", log.Error(err))
	}
}

func (c *Controller) sweepTick() {
	if n := c.launcher.Sweep(time.Now()); n > 0 {
		c.logger.Debug("projectiles expired", log.Int("count", n))
	}
}

// call runs fn on the loop and waits for its result. Once the loop has
// finished, fn runs inline since nothing else can touch the state.
func (c *Controller) call(ctx context.Context, fn func() error) error {
	var result error
	err := c.loop.Call(ctx, func() { result = fn() })
	if errors.Is(err, loop.ErrLoopStopped) {
		select {
		case <-c.loop.Done():
			return fn()
		default:
		}
	}
	if err != nil {
		return err
	}
	return result
}

func (c *Controller) dispatch(name string, fn func()) {
	if err := c.loop.Dispatch(fn); err != nil {
		c.logger.Debug("callback dropped", log.String("callback", name), log.Error(err))
	}
}

// TrackingEventListener

func (c *Controller) SessionFailed(err error) {
	c.dispatch("session_failed", func() {
		if !c.session.Tracking() {
			return
		}
		c.session.Fail(err)
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		_ = c.pub.publish(EventSessionFailed, SessionEvent{Session: c.session.ID(), Reason: reason})
	})
}

func (c *Controller) SessionInterrupted() {
	c.dispatch("session_interrupted", func() {
		if !c.session.Tracking() {
			return
		}
		c.session.Interrupt()
		_ = c.pub.publish(EventSessionInterrupted, SessionEvent{Session: c.session.ID()})
	})
}

func (c *Controller) SessionInterruptionEnded() {
	c.dispatch("session_interruption_ended", func() {
		if !c.session.Tracking() {
			return
		}
		c.session.EndInterruption()
		if c.cfg.Session.ResetOnInterruption {
			c.launcher.Clear()
			if err := c.placer.Reset(); err != nil {
				c.logger.Warn("reset wall", log.Error(err))
			}
		}
		_ = c.pub.publish(EventSessionResumed, SessionEvent{Session: c.session.ID()})
	})
}

func (c *Controller) AnchorAdded(anchor engine.Anchor) {
	c.dispatch("anchor_added", func() {
		if !c.session.Tracking() {
			return
		}
		var err error
		switch {
		case anchor.IsPlane():
			err = c.planes.OnSurfaceDetected(anchor.ID, *anchor.Plane)
		case c.wall.Placed() && anchor.ID == c.wall.Anchor():
			err = c.placer.Build(anchor)
			if errors.Is(err, ErrWallBuilt) {
				err = nil
			}
		}
		if err != nil {
			c.logger.Error("anchor added", log.String("anchor", string(anchor.ID)), log.Error(err))
		}
	})
}

func (c *Controller) AnchorUpdated(anchor engine.Anchor) {
	c.dispatch("anchor_updated", func() {
		if !c.session.Tracking() || !anchor.IsPlane() {
			return
		}
		if err := c.planes.OnSurfaceUpdated(anchor.ID, *anchor.Plane); err != nil {
			c.logger.Error("anchor updated", log.String("anchor", string(anchor.ID)), log.Error(err))
		}
	})
}

func (c *Controller) AnchorRemoved(anchor engine.Anchor) {
	c.dispatch("anchor_removed", func() {
		if !c.session.Tracking() {
			return
		}
		var err error
		switch {
		case c.wall.Placed() && anchor.ID == c.wall.Anchor():
			// bricks hang off the anchor, so they are gone with it
			c.logger.Warn("wall anchor lost", log.String("anchor", string(anchor.ID)))
			c.launcher.Clear()
			err = c.placer.Reset()
		default:
			err = c.planes.OnSurfaceRemoved(anchor.ID)
		}
		if err != nil {
			c.logger.Error("anchor removed", log.String("anchor", string(anchor.ID)), log.Error(err))
		}
	})
}

// PhysicsContactListener

func (c *Controller) CollisionBegan(a, b models.EntityID) {
	c.dispatch("collision_began", func() {
		if !c.session.Tracking() {
			return
		}
		if _, err := c.impacts.Resolve(a, b); err != nil {
			c.logger.Error("resolve impact", log.Error(err))
		}
	})
}

// GestureListener

func (c *Controller) Tapped(point engine.ScreenPoint) {
	c.dispatch("tapped", func() {
		outcome, err := c.HandleTap(point)
		if err != nil && !errors.Is(err, ErrInputSuppressed) && !errors.Is(err, ErrSessionStopped) {
			c.logger.Warn("tap", log.Stringer("outcome", outcome), log.Error(err))
			return
		}
		c.logger.Debug("tap", log.Stringer("outcome", outcome))
	})
}

// HandleTap interprets a tap: delete gesture, then placement until the wall
// exists, then fire. Must run on the loop goroutine.
func (c *Controller) HandleTap(point engine.ScreenPoint) (TapOutcome, error) {
	if !c.session.AcceptsInput() {
		return TapIgnored, c.session.InputError()
	}

	deleted, err := c.placer.DeleteAt(point)
	if err != nil {
		return TapIgnored, err
	}
	if deleted {
		return TapDeleted, nil
	}

	if !c.wall.Placed() {
		anchored, err := c.placer.Place(point)
		switch {
		case err != nil:
			return TapIgnored, err
		case !anchored:
			return TapMissed, nil
		default:
			return TapAnchored, nil
		}
	}

	if _, err := c.launcher.Fire(); err != nil {
		return TapIgnored, err
	}
	return TapFired, nil
}
