package game

import (
	"errors"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
)

type ImpactOutcome uint8

const (
	// ImpactIgnored: no projectile involved, or it touched something other than a brick.
	ImpactIgnored ImpactOutcome = iota
	// ImpactAbsorbed: a non-target brick was hit; only the projectile goes.
	ImpactAbsorbed
	// ImpactDestroyed: the brick and the projectile are both removed.
	ImpactDestroyed
)

func (o ImpactOutcome) String() string {
	switch o {
	case ImpactAbsorbed:
		return "absorbed"
	case ImpactDestroyed:
		return "destroyed"
	default:
		return "ignored"
	}
}

// ImpactResolver turns projectile/brick contacts into brick removal.
type ImpactResolver struct {
	cfg      ImpactConfig
	wall     *Wall
	placer   *WallPlacer
	launcher *Launcher
	logger   log.Log
	pub      publisher
}

func NewImpactResolver(cfg ImpactConfig, wall *Wall, placer *WallPlacer, launcher *Launcher, logger log.Log, pub publisher) *ImpactResolver {
	return &ImpactResolver{
		cfg:      cfg,
		wall:     wall,
		placer:   placer,
		launcher: launcher,
		logger:   logger.With(log.String("component", "impact")),
		pub:      pub,
	}
}

// Resolve handles a collision-begin between a and b, in either order. The
// projectile is despawned on its first brick contact whatever the outcome.
func (r *ImpactResolver) Resolve(a, b models.EntityID) (ImpactOutcome, error) {
	projectile, other := a, b
	if !r.launcher.Tracks(projectile) {
		projectile, other = b, a
		if !r.launcher.Tracks(projectile) {
			return ImpactIgnored, nil
		}
	}

	brick, ok := r.wall.Brick(other)
	if !ok {
		return ImpactIgnored, nil
	}

	if r.cfg.RequireActive && brick.State != models.BrickActive {
		err := r.launcher.Despawn(projectile)
		_ = r.pub.publish(EventProjectileAbsorbed, ProjectileEvent{Projectile: projectile})
		r.logger.Debug("hit absorbed",
			log.Uint64("brick", uint64(brick.ID)),
			log.Stringer("state", brick.State))
		return ImpactAbsorbed, err
	}

	err := errors.Join(
		r.placer.RemoveBrick(brick.ID, CauseImpact),
		r.launcher.Despawn(projectile),
	)
	r.logger.Info("brick destroyed",
		log.Uint64("brick", uint64(brick.ID)),
		log.Int("remaining", r.wall.Len()))
	return ImpactDestroyed, err
}
