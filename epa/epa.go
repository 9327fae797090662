// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects a collision to determine:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//   - Contact points (where shapes touch, one on each shape)
//
// The algorithm grows a polytope inside the Minkowski difference, starting from GJK's
// terminal simplex, toward the boundary face closest to the origin. That face gives the
// Minimum Translation Vector (MTV) separating the shapes.
//
// Faces are kept in an arena and reference their three neighbours by index, which lets
// a subdivision find the silhouette of the region visible from a new support point by
// walking the adjacency graph instead of scanning every face.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package epa

import (
	"errors"
	"math"

	"github.com/akmonengine/collide/geometry"
	"github.com/akmonengine/collide/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxIterations limits polytope expansion to prevent infinite loops.
	// Polyhedral shapes usually converge in 5-15 iterations. Curved shapes use them all
	// and return the nearest face found with Converged false: two unit spheres one
	// radius apart come out about 5e-3 short of their depth of 1.
	DefaultMaxIterations = 25

	// DefaultEpsilon defines when EPA has converged: the support point in the direction
	// of the nearest face lies less than this far beyond the face. It is a distance,
	// squared before use like every tolerance of the package.
	DefaultEpsilon = 1e-3

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	// This helps with numerical stability and axis-aligned collisions.
	NormalSnapThreshold = 1e-8

	// Small initial capacity for the polytope buffers, they grow as needed
	polytopeInitialCapacity = 16
)

var (
	// ErrDegenerateSimplex is returned when the GJK simplex cannot be turned into a
	// polytope enclosing the origin.
	ErrDegenerateSimplex = errors.New("degenerate simplex")
	// ErrBrokenAdjacency is returned by Polytope.Validate.
	ErrBrokenAdjacency = errors.New("broken face adjacency")
	// ErrStaleQueue is returned by Polytope.Validate when the face queue and the live
	// faces disagree.
	ErrStaleQueue = errors.New("face queue out of sync")
)

// Options tunes ContactPoints.
type Options struct {
	Epsilon       float64
	MaxIterations int
}

// DefaultOptions returns {DefaultEpsilon, DefaultMaxIterations}.
func DefaultOptions() Options {
	return Options{
		Epsilon:       DefaultEpsilon,
		MaxIterations: DefaultMaxIterations,
	}
}

// Result describes the penetration of two shapes.
type Result struct {
	// Depth is the length of the translation separating the shapes.
	Depth float64
	// Normal points from A toward B: moving B by Normal*Depth separates the shapes.
	Normal mgl64.Vec3
	// PointA and PointB are the deepest points of each shape inside the other, with
	// PointA - PointB = Normal*Depth.
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	// Converged is false when the loop stopped on MaxIterations or on a degenerate
	// polytope; the result is then the best face found.
	Converged  bool
	Iterations int
}

// ContactPoints computes the penetration of a and b from the terminal simplex of a GJK
// query that reported an intersection.
//
// Algorithm overview:
//  1. Build the initial polytope from the simplex (inflating segments and triangles)
//  2. Dequeue the face nearest to the origin
//  3. Get the support point in the direction of its closest point
//  4. If the support point does not move past the face → done
//  5. Otherwise replace the faces it sees by a cone toward it
//  6. Repeat from step 2
//
// Running out of iterations is not an error: the nearest face so far is returned with
// Converged false. An error is returned only when no polytope enclosing the origin can
// be built, see Polytope.Init.
func ContactPoints(a, b gjk.SupportMapper, simplex *gjk.Simplex, opts Options) (Result, error) {
	md := gjk.MinkowskiDifference{A: a, B: b}

	polytope := polytopePool.Get().(*Polytope)
	defer polytopePool.Put(polytope)

	if err := polytope.Init(simplex, md); err != nil {
		return Result{}, err
	}

	// expanded faces only bound the depth from below; keep the shallowest
	var best Face
	var processed bool
	iterations := 0
	for iterations < opts.MaxIterations {
		iterations++

		step := polytope.Subdivide(md, opts.Epsilon)
		switch step.Status {
		case StepConverged:
			return polytope.result(&step.Face, true, iterations), nil
		case StepExpanded:
			if !processed || step.Face.Distance < best.Distance {
				best, processed = step.Face, true
			}
			continue
		case StepDeferred:
			continue
		}

		// exhausted or degenerate
		break
	}

	if face, ok := polytope.nearest(); ok {
		return polytope.result(&face, false, iterations), nil
	}
	if processed {
		return polytope.result(&best, false, iterations), nil
	}
	return Result{Iterations: iterations}, nil
}

// result turns a face into contact data, applying its barycentric coordinates to the
// witness points of its vertices.
func (p *Polytope) result(face *Face, converged bool, iterations int) Result {
	v0 := p.vertices[face.Vertices[0]]
	v1 := p.vertices[face.Vertices[1]]
	v2 := p.vertices[face.Vertices[2]]
	bary := face.ClosestBary[:]

	depth := face.Closest.Len()
	var normal mgl64.Vec3
	if depth > geometry.MinDenominator {
		normal = face.Closest.Mul(1 / depth)
	} else {
		// touching: the origin lies on the face, use its outward normal
		normal = v1.Diff.Sub(v0.Diff).Cross(v2.Diff.Sub(v0.Diff))
	}

	return Result{
		Depth:      depth,
		Normal:     snapNormalToAxis(normal),
		PointA:     geometry.FromBarycentric(bary, v0.A, v1.A, v2.A),
		PointB:     geometry.FromBarycentric(bary, v0.B, v1.B, v2.B),
		Converged:  converged,
		Iterations: iterations,
	}
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero.
//
// This improves numerical stability for axis-aligned collisions (box on ground)
// by preventing tiny floating-point errors from causing jitter in tangent directions.
//
// Components with absolute value < NormalSnapThreshold are set to 0, then the
// vector is renormalized.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := range normal {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length <= NormalSnapThreshold {
		// everything was clamped, fall back to up
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1 / length)
}
