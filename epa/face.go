package epa

import (
	"github.com/akmonengine/collide/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the polytope. Vertices index the polytope's vertex arena and
// wind counter-clockwise seen from outside. Edge i goes from Vertices[i] to
// Vertices[(i+1)%3]; Siblings[i] is the face across that edge and Adjacent[i] the
// index of the same edge in the sibling, so that
// faces[Siblings[i]].Siblings[Adjacent[i]] is this face again.
type Face struct {
	Vertices [3]int
	Siblings [3]int
	Adjacent [3]int

	// Closest is the projection of the origin on the face plane, ClosestBary its
	// barycentric coordinates (not clamped to the triangle).
	Closest     mgl64.Vec3
	ClosestBary mgl64.Vec3
	// Distance is |Closest|², the priority of the face.
	Distance float64

	// Obsolete marks a face removed by the current subdivision.
	Obsolete bool
}

// edge returns the vertex indices of edge i, in winding order.
func (f *Face) edge(i int) (int, int) {
	return f.Vertices[i], f.Vertices[(i+1)%3]
}

// Deferred reports whether the face was pushed to the back of the queue because the
// origin does not project inside it.
func (f *Face) Deferred() bool {
	return f.Distance == deferredDistance
}

// updateClosest projects the origin on the plane of a, b, c.
func (f *Face) updateClosest(a, b, c mgl64.Vec3) {
	f.ClosestBary = geometry.ProjectToTriangle(a, b, c, mgl64.Vec3{})
	f.Closest = geometry.FromBarycentric(f.ClosestBary[:], a, b, c)
	f.Distance = f.Closest.Dot(f.Closest)
}
