package actor

import "github.com/go-gl/mathgl/mgl64"

// Body places a shape in the world. It satisfies the support mapping consumed by
// the gjk and epa packages.
type Body struct {
	Transform Transform
	Shape     ShapeInterface
}

// NewBody creates a body for shape at transform
func NewBody(transform Transform, shape ShapeInterface) *Body {
	return &Body{
		Transform: transform,
		Shape:     shape,
	}
}

// Support returns the world-space point of the body farthest along direction.
func (b *Body) Support(direction mgl64.Vec3) mgl64.Vec3 {
	// 1. direction into local space (inverse rotation)
	localDirection := b.Transform.DirectionToLocal(direction)

	// 2. local support
	localSupport := b.Shape.Support(localDirection)

	// 3. back to world space (rotation + translation)
	return b.Transform.ToWorld(localSupport)
}

// Center returns the world-space position of the shape's local origin.
func (b *Body) Center() mgl64.Vec3 {
	return b.Transform.Position
}
