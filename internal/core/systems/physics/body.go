package physics

// BodyKind selects how the host engine simulates a body.
type BodyKind uint8

const (
	BodyStatic BodyKind = iota
	BodyDynamic
	BodyKinematic
)

func (k BodyKind) String() string {
	switch k {
	case BodyStatic:
		return "static"
	case BodyDynamic:
		return "dynamic"
	case BodyKinematic:
		return "kinematic"
	default:
		return "unknown"
	}
}

// Shape is the collision shape handed to the host engine.
type Shape uint8

const (
	ShapeBox Shape = iota
	ShapeSphere
	ShapePlane
)

// BodySpec describes the physical body attached to a spawned entity.
type BodySpec struct {
	Kind  BodyKind
	Shape Shape
	Mass  float64
}

// Static returns a massless static body of the given shape.
func Static(shape Shape) *BodySpec { return &BodySpec{Kind: BodyStatic, Shape: shape} }

// Dynamic returns a dynamic body of the given shape and mass.
func Dynamic(shape Shape, mass float64) *BodySpec {
	return &BodySpec{Kind: BodyDynamic, Shape: shape, Mass: mass}
}
