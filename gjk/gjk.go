// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for collision detection.
//
// GJK works on the Minkowski difference A - B of two convex shapes: the shapes overlap
// exactly when the difference contains the origin, and their distance is the distance
// from the origin to the difference. The algorithm builds a simplex incrementally,
// each step keeping only the feature closest to the origin, and converges in a handful
// of iterations for most shapes.
//
// Every simplex vertex remembers the two shape points it was built from, so the closest
// points on the original shapes are recovered by applying the barycentric weights of
// the final reduction to them.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"math"
	"sync"

	"github.com/akmonengine/collide/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultEpsilon is a distance, squared once on entry.
	DefaultEpsilon       = 1e-2
	DefaultMaxIterations = 25
)

// Options tunes a GJK query.
type Options struct {
	// Epsilon is the distance tolerance. It is squared on entry and every test is
	// performed on squared distances.
	Epsilon float64
	// MaxIterations bounds the number of support queries after the first one.
	MaxIterations int
}

// DefaultOptions returns {DefaultEpsilon, DefaultMaxIterations}.
func DefaultOptions() Options {
	return Options{
		Epsilon:       DefaultEpsilon,
		MaxIterations: DefaultMaxIterations,
	}
}

// SupportMapper is a convex shape placed in world space.
type SupportMapper interface {
	// Support returns the world-space point farthest along direction.
	Support(direction mgl64.Vec3) mgl64.Vec3
}

// SupportPoint is a point of the Minkowski difference along with the two shape points
// it was computed from: Diff = A - B.
type SupportPoint struct {
	Diff mgl64.Vec3
	A    mgl64.Vec3
	B    mgl64.Vec3
}

// MinkowskiDifference exposes the support mapping of A - B.
type MinkowskiDifference struct {
	A SupportMapper
	B SupportMapper
}

// Support computes a support point in the Minkowski difference (A - B):
// furthestPoint(A, direction) - furthestPoint(B, -direction).
func (md MinkowskiDifference) Support(direction mgl64.Vec3) SupportPoint {
	a := md.A.Support(direction)
	b := md.B.Support(direction.Mul(-1))
	return SupportPoint{
		Diff: a.Sub(b),
		A:    a,
		B:    b,
	}
}

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// Weights holds the barycentric coordinates of the closest point to the origin, as
// computed by the last reduction, for the Count retained points.
type Simplex struct {
	Points  [4]SupportPoint
	Weights [4]float64
	Count   int
}

// Reset empties the simplex.
func (s *Simplex) Reset() {
	s.Count = 0
}

// Add appends p. Adding to a full simplex is a no-op.
func (s *Simplex) Add(p SupportPoint) {
	if s.Count == len(s.Points) {
		return
	}
	s.Points[s.Count] = p
	s.Weights[s.Count] = 0
	s.Count++
}

// Vertices returns the retained points.
func (s *Simplex) Vertices() []SupportPoint {
	return s.Points[:s.Count]
}

// Closest returns the point of the simplex closest to the origin, from the stored
// weights.
func (s *Simplex) Closest() mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < s.Count; i++ {
		out = out.Add(s.Points[i].Diff.Mul(s.Weights[i]))
	}
	return out
}

// Witnesses returns the points on A and B whose difference is Closest.
func (s *Simplex) Witnesses() (mgl64.Vec3, mgl64.Vec3) {
	var a, b mgl64.Vec3
	for i := 0; i < s.Count; i++ {
		a = a.Add(s.Points[i].A.Mul(s.Weights[i]))
		b = b.Add(s.Points[i].B.Mul(s.Weights[i]))
	}
	return a, b
}

// reduce keeps the smallest feature of the simplex that holds the point closest to the
// origin, stores its weights and returns that point. It reports true instead when a
// tetrahedron contains the origin, leaving the simplex untouched.
func (s *Simplex) reduce() (mgl64.Vec3, bool) {
	var origin mgl64.Vec3
	var w [4]float64
	p := &s.Points

	switch s.Count {
	case 1:
		w[0] = 1
	case 2:
		b := geometry.ClosestOnSegment(p[0].Diff, p[1].Diff, origin)
		w[0], w[1] = b[0], b[1]
	case 3:
		b := geometry.ClosestOnTriangle(p[0].Diff, p[1].Diff, p[2].Diff, origin)
		w[0], w[1], w[2] = b[0], b[1], b[2]
	case 4:
		b := geometry.ClosestOnTetrahedron(p[0].Diff, p[1].Diff, p[2].Diff, p[3].Diff, origin)
		if geometry.IsInterior(b) {
			return origin, true
		}
		w = b
	default:
		return origin, false
	}

	// drop the vertices that do not contribute, keeping the order of the others
	n := 0
	for i := 0; i < s.Count; i++ {
		if w[i] == 0 {
			continue
		}
		s.Points[n] = s.Points[i]
		s.Weights[n] = w[i]
		n++
	}
	s.Count = n

	return s.Closest(), false
}

// SimplexPool recycles simplexes between queries.
var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// Result is the outcome of ClosestPoints.
type Result struct {
	// Distance between the shapes, 0 when they intersect.
	Distance float64
	// PointA and PointB are the closest points on each shape. They are left zero when
	// the origin ended inside a tetrahedron.
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	// Intersecting reports a tetrahedron containing the origin, or a distance below
	// Epsilon.
	Intersecting bool
	Iterations   int
}

// Intersects reports whether a and b overlap.
//
// hint is the first search direction; the vector between the shapes' centers is a good
// choice. A zero hint falls back to +X. simplex is reset, and on return holds the
// terminal simplex, which EPA can expand when the shapes intersect.
//
// Shapes closer than opts.Epsilon are reported as intersecting.
func Intersects(a, b SupportMapper, hint mgl64.Vec3, simplex *Simplex, opts Options) bool {
	epsilon := opts.Epsilon * opts.Epsilon
	md := MinkowskiDifference{A: a, B: b}

	simplex.Reset()
	simplex.Add(md.Support(initialDirection(hint)))

	for i := 0; i < opts.MaxIterations; i++ {
		d, interior := simplex.reduce()
		if interior {
			return true
		}

		// the closest feature touches the origin
		if d.Dot(d) < epsilon {
			return true
		}

		w := md.Support(d.Mul(-1))

		// no more extent toward the origin: separated
		if d.Dot(d)-w.Diff.Dot(d) < epsilon {
			return false
		}

		simplex.Add(w)
	}

	return false
}

// Enclose resumes an intersection query from the simplex left by Intersects until it
// encloses the origin: a tetrahedron around it, or a feature passing through it.
// Intersects stops as soon as the simplex comes within Epsilon of the origin, which
// is too little for EPA to start from.
//
// It reports false when no support point reaches more than Epsilon past the origin,
// that is when the shapes merely touch, or when opts.MaxIterations runs out.
func Enclose(a, b SupportMapper, simplex *Simplex, opts Options) bool {
	if simplex.Count == 0 {
		return false
	}
	md := MinkowskiDifference{A: a, B: b}

	for i := 0; i < opts.MaxIterations; i++ {
		d, interior := simplex.reduce()
		if interior {
			return true
		}

		dd := d.Dot(d)
		if dd < geometry.MinDenominator {
			return true
		}

		// the gap is measured along the unit direction, not scaled by |d|
		w := md.Support(d.Mul(-1))
		if dd-w.Diff.Dot(d) < opts.Epsilon*math.Sqrt(dd) {
			return false
		}

		simplex.Add(w)
	}

	return false
}

// ClosestPoints computes the distance between a and b and the closest point on each.
// Parameters are those of Intersects. Exhausting opts.MaxIterations returns the best
// estimate so far.
func ClosestPoints(a, b SupportMapper, hint mgl64.Vec3, simplex *Simplex, opts Options) Result {
	epsilon := opts.Epsilon * opts.Epsilon
	md := MinkowskiDifference{A: a, B: b}

	first := md.Support(initialDirection(hint))
	simplex.Reset()
	simplex.Add(first)

	// the first support point is the estimate when no iteration is allowed
	result := Result{
		Distance: first.Diff.Len(),
		PointA:   first.A,
		PointB:   first.B,
	}
	for i := 0; i < opts.MaxIterations; i++ {
		result.Iterations = i + 1

		d, interior := simplex.reduce()
		if interior {
			return Result{Intersecting: true, Iterations: result.Iterations}
		}

		dd := d.Dot(d)
		result.Distance = d.Len()
		result.PointA, result.PointB = simplex.Witnesses()
		result.Intersecting = dd < epsilon

		w := md.Support(d.Mul(-1))
		if dd-w.Diff.Dot(d) < epsilon {
			return result
		}

		simplex.Add(w)
	}

	return result
}

func initialDirection(hint mgl64.Vec3) mgl64.Vec3 {
	if hint.LenSqr() == 0 {
		return mgl64.Vec3{1, 0, 0}
	}
	return hint
}
