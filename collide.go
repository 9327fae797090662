// Package collide answers narrow-phase queries between two convex shapes: whether they
// intersect, how far apart they are, and how deep they penetrate.
//
// Shapes are anything exposing a support mapping (see gjk.SupportMapper); the actor
// package provides spheres, boxes, cylinders, cones and convex polyhedra placed in the
// world by a transform. Queries run GJK and, when the shapes overlap, expand GJK's
// terminal simplex with EPA.
//
// Every query is synchronous and allocation-free in steady state: simplexes and
// polytopes are recycled through sync.Pool, so queries may run from several goroutines.
package collide

import (
	"errors"
	"log/slog"

	"github.com/akmonengine/collide/epa"
	"github.com/akmonengine/collide/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Config gathers the tolerances of both algorithms.
type Config struct {
	GJK gjk.Options
	EPA epa.Options
}

// DefaultConfig returns the default options of gjk and epa.
func DefaultConfig() Config {
	return Config{
		GJK: gjk.DefaultOptions(),
		EPA: epa.DefaultOptions(),
	}
}

// Contact describes two penetrating shapes.
type Contact struct {
	// Normal points from A toward B.
	Normal mgl64.Vec3
	// Depth is the distance B must move along Normal to separate the shapes.
	Depth float64
	// PointA and PointB are the deepest point of each shape inside the other.
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	// Converged is false when EPA returned an estimate.
	Converged bool
}

// Intersects reports whether a and b overlap. hint is the first search direction, the
// vector from a's center to b's center is a good choice.
func Intersects(a, b gjk.SupportMapper, hint mgl64.Vec3, cfg Config) bool {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)

	return gjk.Intersects(a, b, hint, simplex, cfg.GJK)
}

// Distance returns the separation of a and b and their closest points. Intersecting
// shapes report a zero distance.
func Distance(a, b gjk.SupportMapper, hint mgl64.Vec3, cfg Config) gjk.Result {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)

	return gjk.ClosestPoints(a, b, hint, simplex, cfg.GJK)
}

// Collide returns the contact between a and b, and false when they do not overlap.
func Collide(a, b gjk.SupportMapper, hint mgl64.Vec3, cfg Config) (Contact, bool) {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)

	if !gjk.Intersects(a, b, hint, simplex, cfg.GJK) {
		return Contact{}, false
	}

	result, err := epa.ContactPoints(a, b, simplex, cfg.EPA)
	if errors.Is(err, epa.ErrDegenerateSimplex) && gjk.Enclose(a, b, simplex, cfg.GJK) {
		// GJK stopped near the origin without enclosing it
		result, err = epa.ContactPoints(a, b, simplex, cfg.EPA)
	}
	if err != nil {
		Logger().Debug("collide: degenerate simplex, estimating contact",
			slog.Int("points", simplex.Count),
			slog.String("error", err.Error()))
		return touchingContact(simplex, hint), true
	}

	if !result.Converged {
		Logger().Debug("collide: epa stopped before convergence",
			slog.Int("iterations", result.Iterations),
			slog.Float64("depth", result.Depth))
	}

	return Contact{
		Normal:    result.Normal,
		Depth:     result.Depth,
		PointA:    result.PointA,
		PointB:    result.PointB,
		Converged: result.Converged,
	}, true
}

// touchingContact builds a contact when EPA has no volume to expand: the shapes touch
// within the GJK tolerance. The depth is the remaining gap of the simplex and the
// normal falls back on hint, or up when hint is zero.
func touchingContact(simplex *gjk.Simplex, hint mgl64.Vec3) Contact {
	pointA, pointB := simplex.Witnesses()

	normal := mgl64.Vec3{0, 1, 0}
	if hint.LenSqr() > 0 {
		normal = hint.Normalize()
	}

	return Contact{
		Normal: normal,
		Depth:  simplex.Closest().Len(),
		PointA: pointA,
		PointB: pointB,
	}
}
