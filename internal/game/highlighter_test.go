package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
)

func newTestHighlighter(r *rig, cfg HighlightConfig) *Highlighter {
	return NewHighlighter(r.eng, cfg, r.wall, r.placer.BaseMaterial(), log.NewNop(), publisher{bus: r.bus})
}

func TestHighlighterRequiresWall(t *testing.T) {
	r := newRig(t, DefaultConfig())
	h := newTestHighlighter(r, DefaultConfig().Highlight)

	_, err := h.Tick()
	require.ErrorIs(t, err, ErrNotPlaced)
}

func TestHighlighterNoBricks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Impact.RequireActive = false
	r := newRig(t, cfg)
	r.buildWall(t)
	for _, b := range r.wall.Bricks() {
		require.NoError(t, r.placer.RemoveBrick(b.ID, CauseImpact))
	}

	_, err := newTestHighlighter(r, cfg.Highlight).Tick()
	require.ErrorIs(t, err, ErrNoBricks)
}

func TestHighlighterExclusive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Highlight.Seed = "exclusive"
	r := newRig(t, cfg)
	r.buildWall(t)
	h := newTestHighlighter(r, cfg.Highlight)

	for range 20 {
		id, err := h.Tick()
		require.NoError(t, err)
		assert.Equal(t, []models.EntityID{id}, r.wall.Active())

		ent, ok := r.eng.Entity(id)
		require.True(t, ok)
		assert.Equal(t, cfg.Highlight.Color, ent.Material.Color)
	}

	// every reverted brick is back to the base look
	active := r.wall.Active()[0]
	for _, b := range r.wall.Bricks() {
		if b.ID == active {
			continue
		}
		ent, _ := r.eng.Entity(b.ID)
		assert.Equal(t, r.placer.BaseMaterial(), ent.Material)
		assert.Equal(t, models.BrickIdle, b.State)
	}
}

func TestHighlighterAccumulatesWhenNotExclusive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Highlight.Exclusive = false
	cfg.Highlight.Seed = "multi"
	r := newRig(t, cfg)
	r.buildWall(t)
	h := newTestHighlighter(r, cfg.Highlight)

	for range 200 {
		_, err := h.Tick()
		require.NoError(t, err)
	}
	assert.Len(t, r.wall.Active(), r.wall.Len())
	assert.Zero(t, r.events.count(EventBrickDeactivated))
}

func TestHighlighterFairness(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Highlight.Seed = "fairness"
	r := newRig(t, cfg)
	r.buildWall(t)
	h := newTestHighlighter(r, cfg.Highlight)

	const ticks = 6000
	counts := make(map[models.EntityID]int)
	for range ticks {
		id, err := h.Tick()
		require.NoError(t, err)
		counts[id]++
	}

	require.Len(t, counts, r.wall.Len())
	expected := float64(ticks) / float64(r.wall.Len())
	for id, n := range counts {
		assert.InDelta(t, expected, float64(n), expected*0.2, "brick %d picked %d times", id, n)
	}
}

func TestHighlighterSeedIsReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Highlight.Seed = "replay"

	picks := func() []int {
		r := newRig(t, cfg)
		r.buildWall(t)
		h := newTestHighlighter(r, cfg.Highlight)
		index := make(map[models.EntityID]int)
		for i, b := range r.wall.Bricks() {
			index[b.ID] = i
		}
		var out []int
		for range 10 {
			id, err := h.Tick()
			require.NoError(t, err)
			out = append(out, index[id])
		}
		return out
	}

	assert.Equal(t, picks(), picks())
}

func TestHighlighterNeverPicksRemovedBricks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Highlight.Seed = "removed"
	r := newRig(t, cfg)
	r.buildWall(t)
	h := newTestHighlighter(r, cfg.Highlight)

	bricks := r.wall.Bricks()
	for _, b := range bricks[:4] {
		require.NoError(t, r.placer.RemoveBrick(b.ID, CauseImpact))
	}
	for range 50 {
		id, err := h.Tick()
		require.NoError(t, err)
		assert.Contains(t, []models.EntityID{bricks[4].ID, bricks[5].ID}, id)
	}
}
