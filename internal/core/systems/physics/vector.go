package physics

import "math"

// Lightweight vector and transform math for placing content relative to
// anchors. Dynamics are left to the host engine.

// Vec2 represents a 2D vector. On planes X is width and Y is depth.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vec3 represents a 3D vector in the tracking engine's world frame (Y up).
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

var (
	Zero3    = Vec3{}
	Up       = Vec3{Y: 1}
	Forward3 = Vec3{Z: -1}
)

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Length() float64      { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// ApproxEqual compares component-wise within eps.
func (v Vec3) ApproxEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// Distance3 computes Euclidean distance between two points.
func Distance3(a, b Vec3) float64 { return b.Sub(a).Length() }
