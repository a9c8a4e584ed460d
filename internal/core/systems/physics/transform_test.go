package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestRotationYQuarterTurn(t *testing.T) {
	// a quarter turn left moves -Z forward onto -X
	got := RotationY(math.Pi / 2).TransformDirection(Forward3)
	assert.True(t, got.ApproxEqual(V3(-1, 0, 0), eps), "got %+v", got)
}

func TestRotationXPitchUp(t *testing.T) {
	got := RotationX(math.Pi / 2).TransformDirection(Forward3)
	assert.True(t, got.ApproxEqual(V3(0, 1, 0), eps), "got %+v", got)
}

func TestMulAppliesRightOperandFirst(t *testing.T) {
	m := Translation(V3(1, 2, 3)).Mul(RotationY(math.Pi))
	got := m.TransformPoint(V3(1, 0, 0))
	assert.True(t, got.ApproxEqual(V3(0, 2, 3), eps), "got %+v", got)
	assert.Equal(t, V3(1, 2, 3), m.Translation())
}

func TestIdentityIsNeutral(t *testing.T) {
	r := RotationZ(0.3).Mul(Translation(V3(4, 5, 6)))
	assert.True(t, Identity().Mul(r).ApproxEqual(r, eps))
	assert.True(t, r.Mul(Identity()).ApproxEqual(r, eps))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	assert.InDelta(t, 1.0, V3(3, 4, 12).Normalize().Length(), eps)
	assert.InDelta(t, 5.0, Distance3(V3(0, 0, 0), V3(3, 4, 0)), eps)
}

func TestInverseRigid(t *testing.T) {
	m := Translation(V3(1, -2, 0.5)).Mul(RotationY(0.7)).Mul(RotationX(-0.2))
	assert.True(t, m.Mul(m.InverseRigid()).ApproxEqual(Identity(), 1e-9))
	p := V3(0.3, 0.2, -1)
	assert.True(t, m.InverseRigid().TransformPoint(m.TransformPoint(p)).ApproxEqual(p, 1e-9))
}
