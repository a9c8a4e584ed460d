package physics

import "math"

// Mat4 is a column-major 4x4 transform. M[c][r] addresses column c, row r, so
// M[3] holds the translation.
type Mat4 [4][4]float64

func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func Translation(v Vec3) Mat4 {
	m := Identity()
	m[3][0], m[3][1], m[3][2] = v.X, v.Y, v.Z
	return m
}

// RotationX rotates by angle radians about the X (pitch) axis.
func RotationX(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	m := Identity()
	m[1][1], m[1][2] = c, s
	m[2][1], m[2][2] = -s, c
	return m
}

// RotationY rotates by angle radians about the up (yaw) axis.
func RotationY(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	m := Identity()
	m[0][0], m[0][2] = c, -s
	m[2][0], m[2][2] = s, c
	return m
}

// RotationZ rotates by angle radians about the Z (roll) axis.
func RotationZ(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	m := Identity()
	m[0][0], m[0][1] = c, s
	m[1][0], m[1][1] = -s, c
	return m
}

// Mul returns m ⊗ o, applying o first when transforming points.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k][row] * o[c][k]
			}
			r[c][row] = sum
		}
	}
	return r
}

// Translation extracts the position part of the transform.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3][0], m[3][1], m[3][2]}
}

func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.TransformDirection(p).Add(m.Translation())
}

// TransformDirection applies only the rotational part.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0][0]*d.X + m[1][0]*d.Y + m[2][0]*d.Z,
		m[0][1]*d.X + m[1][1]*d.Y + m[2][1]*d.Z,
		m[0][2]*d.X + m[1][2]*d.Y + m[2][2]*d.Z,
	}
}

// ApproxEqual compares all sixteen entries within eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			if math.Abs(m[c][r]-o[c][r]) > eps {
				return false
			}
		}
	}
	return true
}

// InverseRigid inverts a rotation+translation transform.
func (m Mat4) InverseRigid() Mat4 {
	r := Identity()
	for c := 0; c < 3; c++ {
		for row := 0; row < 3; row++ {
			r[c][row] = m[row][c]
		}
	}
	t := r.TransformDirection(m.Translation()).Scale(-1)
	r[3][0], r[3][1], r[3][2] = t.X, t.Y, t.Z
	return r
}
