package collide

import (
	"math"
	"testing"

	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/gjk"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func body(position mgl64.Vec3, shape actor.ShapeInterface) *actor.Body {
	return actor.NewBody(actor.NewTransformAt(position, mgl64.QuatIdent()), shape)
}

func hint(a, b *actor.Body) mgl64.Vec3 {
	return b.Center().Sub(a.Center())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1e-2, cfg.GJK.Epsilon)
	assert.Equal(t, 25, cfg.GJK.MaxIterations)
	assert.Equal(t, 1e-3, cfg.EPA.Epsilon)
	assert.Equal(t, 25, cfg.EPA.MaxIterations)
}

func TestIntersects(t *testing.T) {
	box := &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		a, b     *actor.Body
		expected bool
	}{
		{"overlapping boxes", body(mgl64.Vec3{}, box), body(mgl64.Vec3{1.5, 0, 0}, box), true},
		{"separated boxes", body(mgl64.Vec3{}, box), body(mgl64.Vec3{3, 0, 0}, box), false},
		{"sphere inside box", body(mgl64.Vec3{}, box), body(mgl64.Vec3{0.2, 0, 0}, &actor.Sphere{Radius: 0.1}), true},
		{"cone above sphere", body(mgl64.Vec3{}, &actor.Sphere{Radius: 1}), body(mgl64.Vec3{0, 3, 0}, &actor.Cone{Height: 2, Radius: 1}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Intersects(tt.a, tt.b, hint(tt.a, tt.b), DefaultConfig()))
			assert.Equal(t, tt.expected, Intersects(tt.b, tt.a, hint(tt.b, tt.a), DefaultConfig()))
		})
	}
}

func TestDistance(t *testing.T) {
	a := body(mgl64.Vec3{}, &actor.Sphere{Radius: 1})
	b := body(mgl64.Vec3{3, 0, 0}, &actor.Sphere{Radius: 1})

	result := Distance(a, b, hint(a, b), DefaultConfig())

	assert.False(t, result.Intersecting)
	assert.InDelta(t, 1.0, result.Distance, 1e-9)
	assert.InDelta(t, 1.0, result.PointA.X(), 1e-9)
	assert.InDelta(t, 2.0, result.PointB.X(), 1e-9)
}

func TestCollide(t *testing.T) {
	t.Run("separated", func(t *testing.T) {
		a := body(mgl64.Vec3{}, &actor.Sphere{Radius: 1})
		b := body(mgl64.Vec3{3, 0, 0}, &actor.Sphere{Radius: 1})

		_, ok := Collide(a, b, hint(a, b), DefaultConfig())
		assert.False(t, ok)
	})

	t.Run("boxes", func(t *testing.T) {
		box := &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
		a := body(mgl64.Vec3{}, box)
		b := body(mgl64.Vec3{1.5, 0, 0}, box)

		contact, ok := Collide(a, b, hint(a, b), DefaultConfig())
		require.True(t, ok)

		assert.True(t, contact.Converged)
		assert.InDelta(t, 0.5, contact.Depth, 1e-6)
		assert.InDelta(t, 1.0, contact.Normal.X(), 1e-6)
		assert.InDelta(t, 1.0, contact.PointA.X(), 1e-6)
		assert.InDelta(t, 0.5, contact.PointB.X(), 1e-6)
	})

	t.Run("stacked cylinders", func(t *testing.T) {
		cylinder := &actor.Cylinder{Height: 2, Radius: 1}
		a := body(mgl64.Vec3{}, cylinder)
		b := body(mgl64.Vec3{0, 1.8, 0}, cylinder)

		contact, ok := Collide(a, b, hint(a, b), DefaultConfig())
		require.True(t, ok)

		assert.InDelta(t, 0.2, contact.Depth, 1e-6)
		assert.InDelta(t, 1.0, contact.Normal.Y(), 1e-6)
	})

	t.Run("unit spheres", func(t *testing.T) {
		a := body(mgl64.Vec3{}, &actor.Sphere{Radius: 1})
		b := body(mgl64.Vec3{1, 0, 0}, &actor.Sphere{Radius: 1})

		cfg := DefaultConfig()
		cfg.EPA.MaxIterations = 100
		contact, ok := Collide(a, b, hint(a, b), cfg)
		require.True(t, ok)

		assert.InDelta(t, 1.0, contact.Depth, 1e-2)
		assert.Greater(t, contact.Normal.Dot(mgl64.Vec3{1, 0, 0}), 0.99)
		// the contact points are the deepest points, one radius from each center
		assert.InDelta(t, 1.0, contact.PointA.Len(), 5e-2)
		assert.InDelta(t, 1.0, contact.PointB.Sub(b.Center()).Len(), 5e-2)
	})
}

func TestCollide_NearMissSimplex(t *testing.T) {
	// searching along +Y, GJK stops on the segment between the two vertices at
	// x = 0.005, which passes beside the origin
	a := body(mgl64.Vec3{}, &actor.Polyhedron{Vertices: []mgl64.Vec3{
		{0.005, -1, 0}, {0.005, 1, 0},
		{2, 0, 0}, {-1, 0, 0},
		{0, 0, 1}, {0, 0, -1},
	}})
	b := body(mgl64.Vec3{}, &actor.Point{})

	simplex := &gjk.Simplex{}
	require.True(t, gjk.Intersects(a, b, mgl64.Vec3{0, 1, 0}, simplex, DefaultConfig().GJK))
	require.Equal(t, 2, simplex.Count)
	require.Greater(t, simplex.Closest().Len(), 1e-3)

	contact, ok := Collide(a, b, mgl64.Vec3{0, 1, 0}, DefaultConfig())
	require.True(t, ok)

	// the nearest faces of the hull, not the gap left by GJK
	assert.True(t, contact.Converged)
	assert.InDelta(t, 1/math.Sqrt(3.010025), contact.Depth, 1e-9)
	assert.Less(t, contact.Normal.X(), 0.0)
}

func TestCollide_ConeOnSphere(t *testing.T) {
	a := body(mgl64.Vec3{}, &actor.Cone{Height: 2, Radius: 1})
	b := body(mgl64.Vec3{0.571, -0.181, 0.707}, &actor.Sphere{Radius: 0.5})

	contact, ok := Collide(a, b, hint(a, b), DefaultConfig())
	require.True(t, ok)

	// the sphere center lies 0.63658/sqrt(5) outside the slanted side
	want := 0.5 - 0.63658/math.Sqrt(5)
	assert.InDelta(t, want, contact.Depth, 1e-2)

	// no direction separates the shapes with a shorter move than the depth
	for _, dir := range []mgl64.Vec3{contact.Normal, hint(a, b).Normalize(), {0, -1, 0}, {1, 0, 1}} {
		assert.LessOrEqual(t, contact.Depth, separationAlong(a, b, dir.Normalize())+1e-6, "along %v", dir)
	}
}

// separationAlong returns how far b must travel along dir to leave a.
func separationAlong(a, b *actor.Body, dir mgl64.Vec3) float64 {
	return a.Support(dir).Sub(b.Support(dir.Mul(-1))).Dot(dir)
}

func TestTouchingContact(t *testing.T) {
	simplex := &gjk.Simplex{Count: 1}
	simplex.Points[0] = gjk.SupportPoint{
		Diff: mgl64.Vec3{0, 0.001, 0},
		A:    mgl64.Vec3{0, 1.001, 0},
		B:    mgl64.Vec3{0, 1, 0},
	}
	simplex.Weights[0] = 1

	contact := touchingContact(simplex, mgl64.Vec3{0, 0, 2})
	assert.InDelta(t, 0.001, contact.Depth, 1e-12)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, contact.Normal)
	assert.Equal(t, mgl64.Vec3{0, 1.001, 0}, contact.PointA)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, contact.PointB)
	assert.False(t, contact.Converged)

	contact = touchingContact(simplex, mgl64.Vec3{})
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, contact.Normal)
}

func BenchmarkCollide(b *testing.B) {
	box := &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	bodyA := body(mgl64.Vec3{}, box)
	bodyB := body(mgl64.Vec3{1.5, 0.3, 0.1}, box)
	cfg := DefaultConfig()

	for i := 0; i < b.N; i++ {
		Collide(bodyA, bodyB, hint(bodyA, bodyB), cfg)
	}
}
