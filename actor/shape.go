package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypeCylinder
	ShapeTypeCone
	ShapeTypePolyhedron
	ShapeTypePoint
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeBox:
		return "box"
	case ShapeTypeCylinder:
		return "cylinder"
	case ShapeTypeCone:
		return "cone"
	case ShapeTypePolyhedron:
		return "polyhedron"
	case ShapeTypePoint:
		return "point"
	default:
		return "unknown"
	}
}

// ShapeInterface is the interface that all convex collision shapes must implement.
// Shapes live in their own local space, centered on the origin; Body places them in
// the world.
type ShapeInterface interface {
	Type() ShapeType
	// Support returns the point of the shape farthest along direction, in local space.
	// direction does not need to be normalized.
	Support(direction mgl64.Vec3) mgl64.Vec3
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	l := direction.Len()
	if l == 0 {
		// every surface point is extreme along a null direction
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Mul(s.Radius / l)
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// Cylinder is aligned on the local Y axis, centered on the origin.
type Cylinder struct {
	Height float64
	Radius float64
}

func (c *Cylinder) Type() ShapeType {
	return ShapeTypeCylinder
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	y := c.Height * 0.5
	if direction.Y() < 0 {
		y = -y
	}

	sigma := math.Hypot(direction.X(), direction.Z())
	if sigma == 0 {
		return mgl64.Vec3{0, y, 0}
	}

	fr := c.Radius / sigma
	return mgl64.Vec3{fr * direction.X(), y, fr * direction.Z()}
}

// Cone is aligned on the local Y axis: apex at +Height/2, base disc at -Height/2.
type Cone struct {
	Height float64
	Radius float64
}

func (c *Cone) Type() ShapeType {
	return ShapeTypeCone
}

// Support follows van den Bergen, "A Fast and Robust GJK Implementation for Collision
// Detection of Convex Objects" (1999): the apex wins whenever direction lies within
// the cone's half-angle of the axis.
func (c *Cone) Support(direction mgl64.Vec3) mgl64.Vec3 {
	half := c.Height * 0.5
	sinAngle := c.Radius / math.Hypot(c.Radius, c.Height)

	if direction.Y() > direction.Len()*sinAngle {
		return mgl64.Vec3{0, half, 0}
	}

	sigma := math.Hypot(direction.X(), direction.Z())
	if sigma > 0 {
		fr := c.Radius / sigma
		return mgl64.Vec3{fr * direction.X(), -half, fr * direction.Z()}
	}
	return mgl64.Vec3{0, -half, 0}
}

// Polyhedron is the convex hull of Vertices. The vertices do not need to be hull
// vertices: interior points never win a support query.
type Polyhedron struct {
	Vertices []mgl64.Vec3
}

func (p *Polyhedron) Type() ShapeType {
	return ShapeTypePolyhedron
}

func (p *Polyhedron) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if len(p.Vertices) == 0 {
		return mgl64.Vec3{}
	}

	best := p.Vertices[0]
	bestDot := direction.Dot(best)
	for _, v := range p.Vertices[1:] {
		if d := direction.Dot(v); d > bestDot {
			bestDot = d
			best = v
		}
	}

	return best
}

// Point is a shape reduced to its origin. Testing a shape against a Point placed at p
// tells whether the shape contains p.
type Point struct{}

func (p *Point) Type() ShapeType {
	return ShapeTypePoint
}

func (p *Point) Support(mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{}
}

// NewBoxPolyhedron returns the 8 corners of a box as a Polyhedron. Mostly useful to
// compare the generic polyhedron support against Box.
func NewBoxPolyhedron(halfExtents mgl64.Vec3) *Polyhedron {
	hx, hy, hz := halfExtents.X(), halfExtents.Y(), halfExtents.Z()

	return &Polyhedron{Vertices: []mgl64.Vec3{
		{-hx, -hy, -hz},
		{+hx, -hy, -hz},
		{-hx, +hy, -hz},
		{+hx, +hy, -hz},
		{-hx, -hy, +hz},
		{+hx, -hy, +hz},
		{-hx, +hy, +hz},
		{+hx, +hy, +hz},
	}}
}
