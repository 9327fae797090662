package epa

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"sync"

	"github.com/akmonengine/collide/geometry"
	"github.com/akmonengine/collide/gjk"
	"github.com/akmonengine/collide/pqueue"
	"github.com/go-gl/mathgl/mgl64"
)

// deferredDistance is the priority of a face whose plane projection of the origin falls
// outside the triangle. Such faces sort after every regular face.
const deferredDistance = math.MaxFloat64

// StepStatus is the outcome of one Subdivide call.
type StepStatus int

const (
	// StepExpanded: the nearest face was replaced by a cone toward a new support point.
	StepExpanded StepStatus = iota
	// StepConverged: the nearest face lies on the boundary of the Minkowski difference.
	StepConverged
	// StepDeferred: the nearest face was pushed back because the origin does not
	// project inside it.
	StepDeferred
	// StepExhausted: no face with a usable projection is left.
	StepExhausted
	// StepDegenerate: the new support point sees no face besides the nearest one.
	StepDegenerate
)

func (s StepStatus) String() string {
	switch s {
	case StepExpanded:
		return "expanded"
	case StepConverged:
		return "converged"
	case StepDeferred:
		return "deferred"
	case StepExhausted:
		return "exhausted"
	case StepDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// StepResult reports what Subdivide did. Face is a copy of the face that was dequeued,
// or the zero Face when the queue was empty.
type StepResult struct {
	Status StepStatus
	Face   Face
	// Added is the number of faces of the cone, when Status is StepExpanded.
	Added int
}

// edgeRef designates edge Edge of face Face.
type edgeRef struct {
	face int
	edge int
}

// Polytope is the convex hull EPA grows inside the Minkowski difference.
//
// Faces live in an arena and reference each other by index; slots of removed faces are
// recycled through a free list once a subdivision is complete. Vertices are never
// removed. Every live face is queued, nearest to the origin first.
type Polytope struct {
	vertices []gjk.SupportPoint
	faces    []Face
	alive    []bool
	free     []int
	queue    *pqueue.Queue[int]

	// scratch buffers reused across subdivisions
	stack      []edgeRef
	silhouette []edgeRef
	obsolete   []int
}

// NewPolytope returns an empty polytope.
func NewPolytope() *Polytope {
	p := &Polytope{
		vertices:   make([]gjk.SupportPoint, 0, polytopeInitialCapacity),
		faces:      make([]Face, 0, polytopeInitialCapacity),
		alive:      make([]bool, 0, polytopeInitialCapacity),
		stack:      make([]edgeRef, 0, polytopeInitialCapacity),
		silhouette: make([]edgeRef, 0, polytopeInitialCapacity),
		obsolete:   make([]int, 0, polytopeInitialCapacity),
	}
	p.queue = pqueue.New(p.compareFaces)
	return p
}

// polytopePool recycles polytopes between ContactPoints calls.
var polytopePool = sync.Pool{
	New: func() interface{} {
		return NewPolytope()
	},
}

// Reset clears the polytope for reuse, keeping its buffers.
func (p *Polytope) Reset() {
	p.vertices = p.vertices[:0]
	p.faces = p.faces[:0]
	p.alive = p.alive[:0]
	p.free = p.free[:0]
	p.stack = p.stack[:0]
	p.silhouette = p.silhouette[:0]
	p.obsolete = p.obsolete[:0]
	p.queue.Clear()
}

// compareFaces orders faces by distance to the origin, then by index so that equal
// distances dequeue deterministically.
func (p *Polytope) compareFaces(a, b int) int {
	if c := cmp.Compare(p.faces[a].Distance, p.faces[b].Distance); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// Len returns the number of live faces.
func (p *Polytope) Len() int {
	return len(p.faces) - len(p.free)
}

// VertexCount returns the number of support points added so far.
func (p *Polytope) VertexCount() int {
	return len(p.vertices)
}

// Vertex returns the support point at index i.
func (p *Polytope) Vertex(i int) gjk.SupportPoint {
	return p.vertices[i]
}

// Faces iterates over the live faces and their index.
func (p *Polytope) Faces() iter.Seq2[int, *Face] {
	return func(yield func(int, *Face) bool) {
		for i := range p.faces {
			if !p.alive[i] {
				continue
			}
			if !yield(i, &p.faces[i]) {
				return
			}
		}
	}
}

func (p *Polytope) addVertex(v gjk.SupportPoint) int {
	p.vertices = append(p.vertices, v)
	return len(p.vertices) - 1
}

// newFace stores a face with the given vertices, computes its closest point and
// returns its index. Siblings are left to the caller.
func (p *Polytope) newFace(v0, v1, v2 int) int {
	face := Face{
		Vertices: [3]int{v0, v1, v2},
		Siblings: [3]int{-1, -1, -1},
	}
	face.updateClosest(p.vertices[v0].Diff, p.vertices[v1].Diff, p.vertices[v2].Diff)

	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		p.faces[idx] = face
		p.alive[idx] = true
		return idx
	}

	p.faces = append(p.faces, face)
	p.alive = append(p.alive, true)
	return len(p.faces) - 1
}

func (p *Polytope) release(idx int) {
	p.alive[idx] = false
	p.free = append(p.free, idx)
}

// link makes edge i of face f and edge j of face g siblings.
func (p *Polytope) link(f, i, g, j int) {
	p.faces[f].Siblings[i] = g
	p.faces[f].Adjacent[i] = j
	p.faces[g].Siblings[j] = f
	p.faces[g].Adjacent[j] = i
}

// Init builds the starting polytope from a terminal GJK simplex whose hull contains
// the origin. A tetrahedron is used as is. A triangle or a segment, left when GJK
// stopped on a feature touching the origin, is inflated into a bipyramid with extra
// support queries on md. Fewer than two points cannot enclose the origin.
//
// A simplex that only passes near the origin inflates into a polytope leaving it
// outside; Init then fails with ErrDegenerateSimplex and gjk.Enclose can carry the
// simplex further.
func (p *Polytope) Init(simplex *gjk.Simplex, md gjk.MinkowskiDifference) error {
	p.Reset()

	var err error
	points := simplex.Vertices()
	switch len(points) {
	case 4:
		p.initTetrahedron(points[0], points[1], points[2], points[3])
	case 3:
		err = p.initFromTriangle(points[0], points[1], points[2], md)
	case 2:
		err = p.initFromSegment(points[0], points[1], md)
	default:
		return fmt.Errorf("simplex of %d points: %w", len(points), ErrDegenerateSimplex)
	}
	if err != nil {
		return err
	}

	return p.checkOriginInside()
}

// checkOriginInside fails when the origin lies in front of a face plane.
func (p *Polytope) checkOriginInside() error {
	for idx, face := range p.Faces() {
		n := p.normal(face)
		v0 := p.vertices[face.Vertices[0]].Diff
		if n.Dot(v0) < -geometry.BaryTolerance*n.Len() {
			return fmt.Errorf("origin outside face %d of the initial polytope: %w", idx, ErrDegenerateSimplex)
		}
	}
	return nil
}

// normal returns the outward, unnormalized normal of face.
func (p *Polytope) normal(face *Face) mgl64.Vec3 {
	v0 := p.vertices[face.Vertices[0]].Diff
	v1 := p.vertices[face.Vertices[1]].Diff
	v2 := p.vertices[face.Vertices[2]].Diff
	return v1.Sub(v0).Cross(v2.Sub(v0))
}

func (p *Polytope) initTetrahedron(w0, w1, w2, w3 gjk.SupportPoint) {
	// orient so that w3 sits behind the base w0, w2, w1
	x := w2.Diff.Sub(w0.Diff).Cross(w1.Diff.Sub(w0.Diff))
	if w3.Diff.Sub(w0.Diff).Dot(x) > 0 {
		w1, w2 = w2, w1
	}

	v0 := p.addVertex(w0)
	v1 := p.addVertex(w1)
	v2 := p.addVertex(w2)
	v3 := p.addVertex(w3)

	f0 := p.newFace(v0, v1, v3)
	f1 := p.newFace(v1, v2, v3)
	f2 := p.newFace(v2, v0, v3)
	f3 := p.newFace(v1, v0, v2)

	p.link(f0, 0, f3, 0)
	p.link(f0, 1, f1, 2)
	p.link(f0, 2, f2, 1)
	p.link(f1, 0, f3, 2)
	p.link(f1, 1, f2, 2)
	p.link(f2, 0, f3, 1)

	for _, f := range [4]int{f0, f1, f2, f3} {
		p.queue.Enqueue(f)
	}
}

// initBipyramid builds the six faces joining the ring a, b, c to top, on the side of
// (b-a)×(c-a), and to bottom, on the other side.
func (p *Polytope) initBipyramid(a, b, c, top, bottom gjk.SupportPoint) {
	va := p.addVertex(a)
	vb := p.addVertex(b)
	vc := p.addVertex(c)
	vt := p.addVertex(top)
	vd := p.addVertex(bottom)

	t0 := p.newFace(va, vb, vt)
	t1 := p.newFace(vb, vc, vt)
	t2 := p.newFace(vc, va, vt)
	b0 := p.newFace(vb, va, vd)
	b1 := p.newFace(vc, vb, vd)
	b2 := p.newFace(va, vc, vd)

	p.link(t0, 0, b0, 0)
	p.link(t0, 1, t1, 2)
	p.link(t0, 2, t2, 1)
	p.link(t1, 0, b1, 0)
	p.link(t1, 1, t2, 2)
	p.link(t2, 0, b2, 0)
	p.link(b0, 1, b2, 2)
	p.link(b0, 2, b1, 1)
	p.link(b1, 2, b2, 1)

	for _, f := range [6]int{t0, t1, t2, b0, b1, b2} {
		p.queue.Enqueue(f)
	}
}

func (p *Polytope) initFromTriangle(a, b, c gjk.SupportPoint, md gjk.MinkowskiDifference) error {
	n := b.Diff.Sub(a.Diff).Cross(c.Diff.Sub(a.Diff))
	if n.LenSqr() < geometry.MinDenominator {
		return fmt.Errorf("flat triangle: %w", ErrDegenerateSimplex)
	}

	top := md.Support(n)
	bottom := md.Support(n.Mul(-1))
	if n.Dot(top.Diff.Sub(a.Diff)) <= geometry.MinDenominator ||
		n.Dot(bottom.Diff.Sub(a.Diff)) >= -geometry.MinDenominator {
		return fmt.Errorf("no extent across the triangle: %w", ErrDegenerateSimplex)
	}

	p.initBipyramid(a, b, c, top, bottom)
	return nil
}

func (p *Polytope) initFromSegment(a, b gjk.SupportPoint, md gjk.MinkowskiDifference) error {
	axis := b.Diff.Sub(a.Diff)
	if axis.LenSqr() < geometry.MinDenominator {
		return fmt.Errorf("zero length segment: %w", ErrDegenerateSimplex)
	}
	axis = axis.Normalize()

	// start the ring from the basis axis least aligned with the segment
	basis := mgl64.Vec3{1, 0, 0}
	ax, ay, az := math.Abs(axis.X()), math.Abs(axis.Y()), math.Abs(axis.Z())
	if ay < ax && ay <= az {
		basis = mgl64.Vec3{0, 1, 0}
	} else if az < ax && az < ay {
		basis = mgl64.Vec3{0, 0, 1}
	}
	dir := axis.Cross(basis)

	// three directions 120° apart around the axis
	rot := mgl64.QuatRotate(math.Pi/3, axis)
	var ring [3]gjk.SupportPoint
	for i := range ring {
		ring[i] = md.Support(dir)
		dir = rot.Rotate(rot.Rotate(dir))
	}

	n := ring[1].Diff.Sub(ring[0].Diff).Cross(ring[2].Diff.Sub(ring[0].Diff))
	if n.LenSqr() < geometry.MinDenominator {
		return fmt.Errorf("flat ring around segment: %w", ErrDegenerateSimplex)
	}

	top, bottom := b, a
	if n.Dot(b.Diff.Sub(a.Diff)) < 0 {
		top, bottom = a, b
	}
	if n.Dot(top.Diff.Sub(ring[0].Diff)) <= geometry.MinDenominator ||
		n.Dot(bottom.Diff.Sub(ring[0].Diff)) >= -geometry.MinDenominator {
		return fmt.Errorf("segment does not cross its ring: %w", ErrDegenerateSimplex)
	}

	p.initBipyramid(ring[0], ring[1], ring[2], top, bottom)
	return nil
}

// Subdivide dequeues the face nearest to the origin and, unless it already lies on the
// boundary of md within epsilon, replaces every face visible from the support point in
// its direction by a cone of faces joining that point to the visible region's
// silhouette. epsilon is a distance, squared on entry.
//
// A face passing through the origin has no direction of its own; it is searched along
// its outward normal and converges when the support point lies within epsilon of it.
func (p *Polytope) Subdivide(md gjk.MinkowskiDifference, epsilon float64) StepResult {
	gap := epsilon
	epsilon *= epsilon

	idx, ok := p.queue.Dequeue()
	if !ok {
		return StepResult{Status: StepExhausted}
	}
	face := &p.faces[idx]

	if face.Distance == deferredDistance {
		p.queue.Enqueue(idx)
		return StepResult{Status: StepExhausted, Face: *face}
	}

	if !geometry.IsInsideTriangle(face.ClosestBary) {
		face.Distance = deferredDistance
		p.queue.Enqueue(idx)
		return StepResult{Status: StepDeferred, Face: *face}
	}

	var w gjk.SupportPoint
	if face.Distance < geometry.MinDenominator {
		n := p.normal(face)
		if n.LenSqr() < geometry.MinDenominator {
			face.Distance = deferredDistance
			p.queue.Enqueue(idx)
			return StepResult{Status: StepDeferred, Face: *face}
		}
		n = n.Normalize()
		w = md.Support(n)
		if w.Diff.Sub(face.Closest).Dot(n) < gap {
			p.queue.Enqueue(idx)
			return StepResult{Status: StepConverged, Face: *face}
		}
	} else {
		w = md.Support(face.Closest)
		if w.Diff.Dot(face.Closest)-face.Distance < epsilon {
			p.queue.Enqueue(idx)
			return StepResult{Status: StepConverged, Face: *face}
		}
	}

	dequeued := *face
	p.obsolete = append(p.obsolete[:0], idx)
	face.Obsolete = true
	p.findSilhouette(idx, w.Diff)

	if len(p.silhouette) == 0 {
		for _, f := range p.obsolete {
			p.faces[f].Obsolete = false
		}
		p.obsolete = p.obsolete[:0]
		p.queue.Enqueue(idx)
		return StepResult{Status: StepDegenerate, Face: dequeued}
	}

	for _, f := range p.obsolete[1:] {
		p.queue.Remove(f)
	}

	wIdx := p.addVertex(w)
	first, last := -1, -1
	for _, e := range p.silhouette {
		v1, v0 := p.faces[e.face].edge(e.edge)
		curr := p.newFace(v0, v1, wIdx)

		p.link(curr, 0, e.face, e.edge)
		if last >= 0 {
			p.link(curr, 2, last, 1)
		} else {
			first = curr
		}
		last = curr
		p.queue.Enqueue(curr)
	}
	p.link(first, 2, last, 1)

	// slots are recycled only now, the cone must not reuse a face of the silhouette walk
	for _, f := range p.obsolete {
		p.release(f)
	}

	return StepResult{Status: StepExpanded, Face: dequeued, Added: len(p.silhouette)}
}

// findSilhouette walks depth first from the obsolete face start, marking every face
// visible from w obsolete, and collects in p.silhouette the edges of non visible faces
// bordering the visible region. Edges come out in cycle order, each one starting where
// the previous one ends.
func (p *Polytope) findSilhouette(start int, w mgl64.Vec3) {
	p.silhouette = p.silhouette[:0]
	p.stack = p.stack[:0]

	face := &p.faces[start]
	for i := 2; i >= 0; i-- {
		p.stack = append(p.stack, edgeRef{face: face.Siblings[i], edge: face.Adjacent[i]})
	}

	for len(p.stack) > 0 {
		e := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]

		g := &p.faces[e.face]
		if g.Obsolete {
			continue
		}
		// w sees g when it lies in front of its plane
		v0 := p.vertices[g.Vertices[0]].Diff
		if p.normal(g).Dot(w.Sub(v0)) < 0 {
			p.silhouette = append(p.silhouette, e)
			continue
		}

		g.Obsolete = true
		p.obsolete = append(p.obsolete, e.face)

		// visit (edge+1) before (edge+2)
		next, after := (e.edge+1)%3, (e.edge+2)%3
		p.stack = append(p.stack,
			edgeRef{face: g.Siblings[after], edge: g.Adjacent[after]},
			edgeRef{face: g.Siblings[next], edge: g.Adjacent[next]},
		)
	}
}

// Validate checks that every edge of every live face points to a live sibling that
// points back, and that both share the edge in opposite directions. It then checks
// that the queue holds exactly the live faces.
func (p *Polytope) Validate() error {
	for idx, face := range p.Faces() {
		if face.Obsolete {
			return fmt.Errorf("face %d is obsolete: %w", idx, ErrBrokenAdjacency)
		}
		for i := 0; i < 3; i++ {
			s, j := face.Siblings[i], face.Adjacent[i]
			if s < 0 || s >= len(p.faces) || !p.alive[s] {
				return fmt.Errorf("face %d edge %d: sibling %d is not a live face: %w", idx, i, s, ErrBrokenAdjacency)
			}
			if j < 0 || j > 2 {
				return fmt.Errorf("face %d edge %d: adjacent edge %d: %w", idx, i, j, ErrBrokenAdjacency)
			}
			sibling := &p.faces[s]
			if sibling.Siblings[j] != idx || sibling.Adjacent[j] != i {
				return fmt.Errorf("face %d edge %d: face %d edge %d does not point back: %w", idx, i, s, j, ErrBrokenAdjacency)
			}

			a0, a1 := face.edge(i)
			b0, b1 := sibling.edge(j)
			if a0 != b1 || a1 != b0 {
				return fmt.Errorf("face %d edge %d: edge (%d,%d) does not match (%d,%d) of face %d: %w", idx, i, a0, a1, b0, b1, s, ErrBrokenAdjacency)
			}
		}
	}

	queued := 0
	for idx := range p.queue.All() {
		if idx < 0 || idx >= len(p.faces) || !p.alive[idx] {
			return fmt.Errorf("queued face %d is not live: %w", idx, ErrStaleQueue)
		}
		queued++
	}
	if live := p.Len(); queued != live {
		return fmt.Errorf("%d faces queued, %d live: %w", queued, live, ErrStaleQueue)
	}
	return nil
}

// nearest returns the queued face with the smallest distance, if it is not deferred.
func (p *Polytope) nearest() (Face, bool) {
	idx, ok := p.queue.Peek()
	if !ok || p.faces[idx].Deferred() {
		return Face{}, false
	}
	return p.faces[idx], true
}
