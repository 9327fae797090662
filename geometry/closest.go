// Package geometry implements the closest-point queries used by GJK and EPA.
//
// Every query resolves the voronoi region of the query point against a simplex
// (segment, triangle or tetrahedron) and returns barycentric coordinates rather than
// the point itself, so that callers can apply the same weights to other per-vertex
// data (witness points on the original shapes).
//
// Region boundaries use inclusive comparisons: a point lying exactly on the boundary
// between two regions resolves to the lower-dimensional feature (vertex before edge,
// edge before face). This keeps the zero weights exact, which GJK relies on to drop
// vertices from its simplex.
//
// References:
//   - Ericson: "Real-Time Collision Detection" (2004), chapter 5.1
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MinDenominator guards every division against degenerate (collinear, coplanar or
	// coincident) inputs.
	MinDenominator = 1e-12

	// BaryTolerance is the slack allowed by IsInsideTriangle on each coordinate.
	BaryTolerance = 1e-9
)

// Interior is returned by ClosestOnTetrahedron when the query point lies inside the
// tetrahedron.
var Interior = mgl64.Vec4{-1, -1, -1, -1}

// IsInterior reports whether bary is the Interior sentinel.
func IsInterior(bary mgl64.Vec4) bool {
	return bary[0] < 0 || bary[1] < 0 || bary[2] < 0 || bary[3] < 0
}

// Mixed returns the scalar triple product a · (b × c).
func Mixed(a, b, c mgl64.Vec3) float64 {
	return a.Dot(b.Cross(c))
}

// FromBarycentric returns the weighted sum of points. Extra points (or weights) are
// ignored.
func FromBarycentric(weights []float64, points ...mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	n := min(len(weights), len(points))
	for i := 0; i < n; i++ {
		out = out.Add(points[i].Mul(weights[i]))
	}
	return out
}

// ClosestOnSegment returns the barycentric coordinates of the point of segment ab
// closest to p.
func ClosestOnSegment(a, b, p mgl64.Vec3) mgl64.Vec2 {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < MinDenominator {
		// a and b coincide
		return mgl64.Vec2{1, 0}
	}

	t := p.Sub(a).Dot(ab) / denom
	if t <= 0 {
		return mgl64.Vec2{1, 0}
	}
	if t >= 1 {
		return mgl64.Vec2{0, 1}
	}
	return mgl64.Vec2{1 - t, t}
}

// ClosestOnTriangle returns the barycentric coordinates of the point of triangle abc
// closest to p.
//
// Regions are tested in order: the three vertices, the three edges, then the face.
func ClosestOnTriangle(a, b, c, p mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	bc := c.Sub(b)
	ap := p.Sub(a)
	bp := p.Sub(b)
	cp := p.Sub(c)

	// parametric position of p projected on ab: snom / (snom + sdenom)
	snom := ap.Dot(ab)
	sdenom := -bp.Dot(ab)

	// parametric position of p projected on ac: tnom / (tnom + tdenom)
	tnom := ap.Dot(ac)
	tdenom := -cp.Dot(ac)

	if snom <= 0 && tnom <= 0 {
		return mgl64.Vec3{1, 0, 0}
	}

	// parametric position of p projected on bc: unom / (unom + udenom)
	unom := bp.Dot(bc)
	udenom := -cp.Dot(bc)

	if sdenom <= 0 && unom <= 0 {
		return mgl64.Vec3{0, 1, 0}
	}
	if tdenom <= 0 && udenom <= 0 {
		return mgl64.Vec3{0, 0, 1}
	}

	n := ab.Cross(ac)

	// p outside (or on) ab and within its feature region
	vc := Mixed(n, ap, bp)
	if vc <= 0 && snom >= 0 && sdenom >= 0 {
		t := ratio(snom, snom+sdenom)
		return mgl64.Vec3{1 - t, t, 0}
	}

	// p outside (or on) bc
	va := Mixed(n, bp, cp)
	if va <= 0 && unom >= 0 && udenom >= 0 {
		t := ratio(unom, unom+udenom)
		return mgl64.Vec3{0, 1 - t, t}
	}

	// p outside (or on) ca
	vb := Mixed(n, cp, ap)
	if vb <= 0 && tnom >= 0 && tdenom >= 0 {
		t := ratio(tnom, tnom+tdenom)
		return mgl64.Vec3{1 - t, 0, t}
	}

	sum := va + vb + vc
	if sum < MinDenominator {
		return closestOnDegenerateTriangle(a, b, c, p)
	}

	u := va / sum
	v := vb / sum
	return mgl64.Vec3{u, v, 1 - u - v}
}

// closestOnDegenerateTriangle handles collinear triangles by picking the best of the
// three edges.
func closestOnDegenerateTriangle(a, b, c, p mgl64.Vec3) mgl64.Vec3 {
	best := mgl64.Vec3{1, 0, 0}
	bestDist := math.Inf(1)

	edges := [3][2]int{{0, 1}, {1, 2}, {2, 0}}
	vertices := [3]mgl64.Vec3{a, b, c}
	for _, e := range edges {
		s := ClosestOnSegment(vertices[e[0]], vertices[e[1]], p)
		q := FromBarycentric(s[:], vertices[e[0]], vertices[e[1]])
		if d := q.Sub(p).LenSqr(); d < bestDist {
			bestDist = d
			best = mgl64.Vec3{}
			best[e[0]] = s[0]
			best[e[1]] = s[1]
		}
	}

	return best
}

// ClosestOnTetrahedron returns the barycentric coordinates of the point of tetrahedron
// abcd closest to p, or Interior when p lies inside it.
//
// Regions are tested in order: 4 vertices, 6 edges, 4 faces.
func ClosestOnTetrahedron(a, b, c, d, p mgl64.Vec3) mgl64.Vec4 {
	// vertex a
	ap := p.Sub(a)
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	apOab := ap.Dot(ab)
	apOac := ap.Dot(ac)
	apOad := ap.Dot(ad)
	if apOab <= 0 && apOac <= 0 && apOad <= 0 {
		return mgl64.Vec4{1, 0, 0, 0}
	}

	// vertex b
	bp := p.Sub(b)
	bc := c.Sub(b)
	bd := d.Sub(b)
	bpOba := -bp.Dot(ab)
	bpObc := bp.Dot(bc)
	bpObd := bp.Dot(bd)
	if bpOba <= 0 && bpObc <= 0 && bpObd <= 0 {
		return mgl64.Vec4{0, 1, 0, 0}
	}

	// vertex c
	cp := p.Sub(c)
	cd := d.Sub(c)
	cpOca := -cp.Dot(ac)
	cpOcb := -cp.Dot(bc)
	cpOcd := cp.Dot(cd)
	if cpOca <= 0 && cpOcb <= 0 && cpOcd <= 0 {
		return mgl64.Vec4{0, 0, 1, 0}
	}

	// vertex d
	dp := p.Sub(d)
	dpOda := -dp.Dot(ad)
	dpOdb := -dp.Dot(bd)
	dpOdc := -dp.Dot(cd)
	if dpOda <= 0 && dpOdb <= 0 && dpOdc <= 0 {
		return mgl64.Vec4{0, 0, 0, 1}
	}

	// edge ab
	nAbc := ab.Cross(ac)
	nAbd := ad.Cross(ab)
	apOabXnAbc := Mixed(ap, ab, nAbc)
	apOnAbdXab := Mixed(ap, nAbd, ab)
	if apOab >= 0 && bpOba >= 0 && apOabXnAbc >= 0 && apOnAbdXab >= 0 {
		t := ratio(apOab, ab.Dot(ab))
		return mgl64.Vec4{1 - t, t, 0, 0}
	}

	// edge ac
	nAcd := ac.Cross(ad)
	apOnAbcXac := Mixed(ap, nAbc, ac)
	apOacXnAcd := Mixed(ap, ac, nAcd)
	if apOac >= 0 && cpOca >= 0 && apOnAbcXac >= 0 && apOacXnAcd >= 0 {
		t := ratio(apOac, ac.Dot(ac))
		return mgl64.Vec4{1 - t, 0, t, 0}
	}

	// edge ad
	apOnAcdXad := Mixed(ap, nAcd, ad)
	apOadXnAbd := Mixed(ap, ad, nAbd)
	if apOad >= 0 && dpOda >= 0 && apOnAcdXad >= 0 && apOadXnAbd >= 0 {
		t := ratio(apOad, ad.Dot(ad))
		return mgl64.Vec4{1 - t, 0, 0, t}
	}

	// edge bc
	nBcd := bd.Cross(bc)
	bpObcXnAbc := Mixed(bp, bc, nAbc)
	bpOnBcdXbc := Mixed(bp, nBcd, bc)
	if bpObc >= 0 && cpOcb >= 0 && bpObcXnAbc >= 0 && bpOnBcdXbc >= 0 {
		t := ratio(bpObc, bc.Dot(bc))
		return mgl64.Vec4{0, 1 - t, t, 0}
	}

	// edge cd
	cpOcdXnAcd := Mixed(cp, cd, nAcd)
	cpOnBcdXcd := Mixed(cp, nBcd, cd)
	if cpOcd >= 0 && dpOdc >= 0 && cpOcdXnAcd >= 0 && cpOnBcdXcd >= 0 {
		t := ratio(cpOcd, cd.Dot(cd))
		return mgl64.Vec4{0, 0, 1 - t, t}
	}

	// edge bd
	bpOnAbdXbd := Mixed(bp, nAbd, bd)
	bpObdXnBcd := Mixed(bp, bd, nBcd)
	if bpObd >= 0 && dpOdb >= 0 && bpOnAbdXbd >= 0 && bpObdXnBcd >= 0 {
		t := ratio(bpObd, bd.Dot(bd))
		return mgl64.Vec4{0, 1 - t, 0, t}
	}

	// face abc, p on the other side of the plane than d
	if nAbc.Dot(ap)*nAbc.Dot(ad) <= 0 && apOabXnAbc <= 0 && apOnAbcXac <= 0 && bpObcXnAbc <= 0 {
		u, v, w := faceWeights(nAbc, bp, cp, ap)
		return mgl64.Vec4{u, v, w, 0}
	}

	// face acd
	if nAcd.Dot(ap)*nAcd.Dot(ab) <= 0 && apOacXnAcd <= 0 && apOnAcdXad <= 0 && cpOcdXnAcd <= 0 {
		u, v, w := faceWeights(nAcd, cp, dp, ap)
		return mgl64.Vec4{u, 0, v, w}
	}

	// face adb
	if nAbd.Dot(ap)*nAbd.Dot(ac) <= 0 && apOnAbdXab <= 0 && apOadXnAbd <= 0 && bpOnAbdXbd <= 0 {
		u, v, w := faceWeights(nAbd, dp, bp, ap)
		return mgl64.Vec4{u, w, 0, v}
	}

	// face cbd
	if nBcd.Dot(cp)*nBcd.Dot(ab) >= 0 && bpOnBcdXbc <= 0 && cpOnBcdXcd <= 0 && bpObdXnBcd <= 0 {
		u, v, w := faceWeights(nBcd, bp, dp, cp)
		return mgl64.Vec4{0, v, u, w}
	}

	return Interior
}

// faceWeights returns the normalised areas of the sub-triangles (p1,p2), (p2,p0) and
// (p0,p1) seen along n, where pi is the vector from vertex i to the query point.
func faceWeights(n, p1, p2, p0 mgl64.Vec3) (float64, float64, float64) {
	u := math.Abs(Mixed(n, p1, p2))
	v := math.Abs(Mixed(n, p2, p0))
	w := math.Abs(Mixed(n, p0, p1))
	s := u + v + w
	if s < MinDenominator {
		return 1, 0, 0
	}
	return u / s, v / s, w / s
}

// ProjectToTriangle returns the barycentric coordinates of the orthogonal projection of
// p on the plane of abc. Unlike ClosestOnTriangle the result is not clamped to the
// triangle: coordinates may be negative when the projection falls outside.
//
// Degenerate triangles have no plane; ClosestOnTriangle is used instead.
func ProjectToTriangle(a, b, c, p mgl64.Vec3) mgl64.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	nn := n.Dot(n)
	if nn < MinDenominator {
		return ClosestOnTriangle(a, b, c, p)
	}

	u := Mixed(n, b.Sub(p), c.Sub(p)) / nn
	v := Mixed(n, c.Sub(p), a.Sub(p)) / nn
	return mgl64.Vec3{u, v, 1 - u - v}
}

// IsInsideTriangle reports whether bary describes a point of the triangle itself:
// every coordinate within [0, 1] and the coordinates summing to 1.
func IsInsideTriangle(bary mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if !(bary[i] >= -BaryTolerance && bary[i] <= 1+BaryTolerance) {
			return false
		}
	}
	return math.Abs(bary[0]+bary[1]+bary[2]-1) <= 1e-6
}

func ratio(num, denom float64) float64 {
	if math.Abs(denom) < MinDenominator {
		return 0
	}
	return num / denom
}
