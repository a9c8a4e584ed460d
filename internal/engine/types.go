package engine

import (
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
)

// ScreenPoint is a tap location in view coordinates.
type ScreenPoint struct{ X, Y float64 }

type HitTestMode uint8

const (
	// HitPrecise tests against existing virtual geometry.
	HitPrecise HitTestMode = iota
	// HitEstimatedHorizontalPlane tests against the engine's surface estimate.
	HitEstimatedHorizontalPlane
)

func (m HitTestMode) String() string {
	if m == HitPrecise {
		return "precise"
	}
	return "estimated_horizontal_plane"
}

type HitResult struct {
	// Entity is set for precise hits on spawned geometry.
	Entity         models.EntityID
	WorldTransform physics.Mat4
}

// Camera is the device pose for the current frame. Euler holds pitch (X),
// yaw (Y) and roll (Z) in radians.
type Camera struct {
	Transform physics.Mat4
	Euler     physics.Vec3
}

func (c Camera) Yaw() float64   { return c.Euler.Y }
func (c Camera) Pitch() float64 { return c.Euler.X }

type PlaneAlignment uint8

const (
	AlignHorizontal PlaneAlignment = iota
	AlignVertical
)

// PlaneInfo is the engine's current estimate of a detected surface.
type PlaneInfo struct {
	Center    physics.Vec3
	Extent    physics.Vec2
	Alignment PlaneAlignment
}

// Anchor is reported by the tracking engine. Plane is nil for plain anchors.
type Anchor struct {
	ID        models.AnchorID
	Transform physics.Mat4
	Plane     *PlaneInfo
}

func (a Anchor) IsPlane() bool { return a.Plane != nil }

type GeometryKind uint8

const (
	GeometryBox GeometryKind = iota
	GeometrySphere
	GeometryPlane
	// GeometryModel loads a named visual asset, e.g. the glass brick.
	GeometryModel
)

type Geometry struct {
	Kind   GeometryKind
	Size   physics.Vec3
	Radius float64
	Model  string
}

func Box(size physics.Vec3) Geometry { return Geometry{Kind: GeometryBox, Size: size} }
func Sphere(radius float64) Geometry { return Geometry{Kind: GeometrySphere, Radius: radius} }
func Model(name string, size physics.Vec3) Geometry {
	return Geometry{Kind: GeometryModel, Model: name, Size: size}
}

// Plane is a flat box with the given width, thickness and depth.
func Plane(extent physics.Vec2, thickness float64) Geometry {
	return Geometry{Kind: GeometryPlane, Size: physics.V3(extent.X, thickness, extent.Y)}
}

type Material struct {
	Color   string
	Texture string
	Opacity float64
}

// Parent selects the frame a spawned entity's transform is relative to.
type Parent uint8

const (
	ParentWorld Parent = iota
	ParentAnchor
	ParentCamera
)

type SpawnSpec struct {
	Name      string
	Kind      models.Kind
	Geometry  Geometry
	Material  Material
	Body      *physics.BodySpec
	Parent    Parent
	Anchor    models.AnchorID
	Transform physics.Mat4
}
