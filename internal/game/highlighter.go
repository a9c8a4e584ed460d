package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/engine"
)

// Highlighter periodically marks one remaining brick as the active target.
type Highlighter struct {
	eng    engine.Engine
	cfg    HighlightConfig
	wall   *Wall
	base   engine.Material
	logger log.Log
	pub    publisher
	rng    *rand.Rand
}

func NewHighlighter(eng engine.Engine, cfg HighlightConfig, wall *Wall, base engine.Material, logger log.Log, pub publisher) *Highlighter {
	return &Highlighter{
		eng:    eng,
		cfg:    cfg,
		wall:   wall,
		base:   base,
		logger: logger.With(log.String("component", "highlighter")),
		pub:    pub,
		rng:    newRand(cfg.Seed),
	}
}

// newRand seeds from the hashed seed string, or from the clock when empty.
func newRand(seed string) *rand.Rand {
	var s uint64
	if seed != "" {
		s = xxhash.Sum64String(seed)
	} else {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// Tick picks a uniformly random remaining brick and tags it active. Removed
// bricks are never candidates since they have left the wall.
func (h *Highlighter) Tick() (models.EntityID, error) {
	if !h.wall.Built() {
		return models.NoEntity, ErrNotPlaced
	}
	bricks := h.wall.Bricks()
	if len(bricks) == 0 {
		return models.NoEntity, ErrNoBricks
	}

	var errs error
	if h.cfg.Exclusive {
		for _, id := range h.wall.Active() {
			errs = errors.Join(errs, h.Deactivate(id))
		}
	}

	chosen := bricks[h.rng.IntN(len(bricks))]
	if err := h.eng.SetMaterial(chosen.ID, engine.Material{Color: h.cfg.Color, Opacity: 1}); err != nil {
		return models.NoEntity, errors.Join(errs, fmt.Errorf("highlight brick %d: %w", chosen.ID, err))
	}
	h.wall.setState(chosen.ID, models.BrickActive)

	h.logger.Debug("brick activated",
		log.Uint64("brick", uint64(chosen.ID)),
		log.Int("row", chosen.Cell.Row),
		log.Int("column", chosen.Cell.Column))
	_ = h.pub.publish(EventBrickActivated, BrickEvent{
		Brick:     chosen.ID,
		Row:       chosen.Cell.Row,
		Column:    chosen.Cell.Column,
		Remaining: len(bricks),
	})
	return chosen.ID, errs
}

// Deactivate reverts an active brick to its idle look.
func (h *Highlighter) Deactivate(id models.EntityID) error {
	b, ok := h.wall.Brick(id)
	if !ok || b.State != models.BrickActive {
		return nil
	}
	if err := h.eng.SetMaterial(id, h.base); err != nil {
		return fmt.Errorf("revert brick %d: %w", id, err)
	}
	h.wall.setState(id, models.BrickIdle)
	_ = h.pub.publish(EventBrickDeactivated, BrickEvent{
		Brick:     id,
		Row:       b.Cell.Row,
		Column:    b.Cell.Column,
		Remaining: h.wall.Len(),
	})
	return nil
}
