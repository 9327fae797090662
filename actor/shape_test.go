package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// Helper functions
func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// directions samples the unit sphere, plus a few axis-aligned and unnormalized vectors.
func directions() []mgl64.Vec3 {
	dirs := []mgl64.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
		{3, 4, 0}, {-0.2, 5, 0.1}, {1, -1, 1},
	}
	for i := 0; i < 8; i++ {
		theta := float64(i) * math.Pi / 4
		for j := 1; j < 4; j++ {
			phi := float64(j) * math.Pi / 4
			dirs = append(dirs, mgl64.Vec3{
				math.Sin(phi) * math.Cos(theta),
				math.Cos(phi),
				math.Sin(phi) * math.Sin(theta),
			})
		}
	}
	return dirs
}

func TestShapeType(t *testing.T) {
	tests := []struct {
		shape    ShapeInterface
		expected ShapeType
		name     string
	}{
		{&Sphere{Radius: 1}, ShapeTypeSphere, "sphere"},
		{&Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, ShapeTypeBox, "box"},
		{&Cylinder{Height: 1, Radius: 1}, ShapeTypeCylinder, "cylinder"},
		{&Cone{Height: 1, Radius: 1}, ShapeTypeCone, "cone"},
		{&Polyhedron{}, ShapeTypePolyhedron, "polyhedron"},
		{&Point{}, ShapeTypePoint, "point"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Type(); got != tt.expected {
				t.Errorf("Type() = %v, want %v", got, tt.expected)
			}
			if got := tt.shape.Type().String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
		})
	}

	if got := ShapeType(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}

func TestSphereSupport(t *testing.T) {
	sphere := &Sphere{Radius: 2.0}

	tests := []struct {
		name      string
		direction mgl64.Vec3
		expected  mgl64.Vec3
	}{
		{"positive X", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 0, 0}},
		{"negative Y", mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -2, 0}},
		{"unnormalized", mgl64.Vec3{3, 4, 0}, mgl64.Vec3{1.2, 1.6, 0}},
		{"zero direction stays on the surface", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			support := sphere.Support(tt.direction)
			if !vec3Equal(support, tt.expected, 1e-9) {
				t.Errorf("Support(%v) = %v, want %v", tt.direction, support, tt.expected)
			}
		})
	}
}

func TestBoxSupport(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{2, 3, 4}}

	tests := []struct {
		name      string
		direction mgl64.Vec3
		expected  mgl64.Vec3
	}{
		{"positive X", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 3, 4}},
		// zero components pick the positive side
		{"negative X", mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{-2, 3, 4}},
		{"negative diagonal", mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{-2, -3, -4}},
		{"mixed", mgl64.Vec3{0.1, -5, 2}, mgl64.Vec3{2, -3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			support := box.Support(tt.direction)
			if !vec3Equal(support, tt.expected, 1e-9) {
				t.Errorf("Support(%v) = %v, want %v", tt.direction, support, tt.expected)
			}
		})
	}

	t.Run("zero dimensions", func(t *testing.T) {
		zero := &Box{}
		if support := zero.Support(mgl64.Vec3{1, 0, 0}); !vec3Equal(support, mgl64.Vec3{}, 1e-9) {
			t.Errorf("Zero box support = %v, want (0,0,0)", support)
		}
	})
}

func TestCylinderSupport(t *testing.T) {
	cylinder := &Cylinder{Height: 2, Radius: 1}

	tests := []struct {
		name      string
		direction mgl64.Vec3
		expected  mgl64.Vec3
	}{
		{"side rim top", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 1, 0}},
		{"axis down", mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -1, 0}},
		{"axis up", mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 1, 0}},
		{"oblique", mgl64.Vec3{3, -1, 4}, mgl64.Vec3{0.6, -1, 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			support := cylinder.Support(tt.direction)
			if !vec3Equal(support, tt.expected, 1e-9) {
				t.Errorf("Support(%v) = %v, want %v", tt.direction, support, tt.expected)
			}
		})
	}
}

func TestConeSupport(t *testing.T) {
	cone := &Cone{Height: 2, Radius: 1}

	tests := []struct {
		name      string
		direction mgl64.Vec3
		expected  mgl64.Vec3
	}{
		{"apex", mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}},
		{"apex within half angle", mgl64.Vec3{1, 1, 0}, mgl64.Vec3{0, 1, 0}},
		{"base rim", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, -1, 0}},
		{"base rim slightly up", mgl64.Vec3{1, 0.3, 0}, mgl64.Vec3{1, -1, 0}},
		{"base center", mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -1, 0}},
		{"base rim diagonal", mgl64.Vec3{-3, -1, 4}, mgl64.Vec3{-0.6, -1, 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			support := cone.Support(tt.direction)
			if !vec3Equal(support, tt.expected, 1e-9) {
				t.Errorf("Support(%v) = %v, want %v", tt.direction, support, tt.expected)
			}
		})
	}
}

func TestPolyhedronSupport(t *testing.T) {
	t.Run("matches box on generic directions", func(t *testing.T) {
		halfExtents := mgl64.Vec3{1, 2, 3}
		box := &Box{HalfExtents: halfExtents}
		poly := NewBoxPolyhedron(halfExtents)

		for _, dir := range []mgl64.Vec3{{1, 2, 3}, {-1, 0.5, -2}, {0.3, -0.7, 0.1}, {-5, -5, 1}} {
			got := poly.Support(dir)
			want := box.Support(dir)
			if !vec3Equal(got, want, 1e-12) {
				t.Errorf("Support(%v) = %v, want %v", dir, got, want)
			}
		}
	})

	t.Run("interior points never win", func(t *testing.T) {
		poly := &Polyhedron{Vertices: []mgl64.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.1, 0.1, 0.1},
		}}
		for _, dir := range directions() {
			if got := poly.Support(dir); got == (mgl64.Vec3{0.1, 0.1, 0.1}) {
				t.Errorf("Support(%v) returned the interior point", dir)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		poly := &Polyhedron{}
		if got := poly.Support(mgl64.Vec3{1, 0, 0}); got != (mgl64.Vec3{}) {
			t.Errorf("Support() = %v, want origin", got)
		}
	})
}

func TestPointSupport(t *testing.T) {
	p := &Point{}
	for _, dir := range directions() {
		if got := p.Support(dir); got != (mgl64.Vec3{}) {
			t.Fatalf("Support(%v) = %v, want origin", dir, got)
		}
	}
}

// A support point must be at least as far along its direction as the support point of
// any other direction, since both belong to the shape.
func TestSupportIsExtreme(t *testing.T) {
	shapes := map[string]ShapeInterface{
		"sphere":     &Sphere{Radius: 1.5},
		"box":        &Box{HalfExtents: mgl64.Vec3{1, 2, 0.5}},
		"cylinder":   &Cylinder{Height: 3, Radius: 0.75},
		"cone":       &Cone{Height: 2, Radius: 1},
		"polyhedron": NewBoxPolyhedron(mgl64.Vec3{0.5, 1, 2}),
	}

	dirs := directions()
	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			for _, d := range dirs {
				best := shape.Support(d).Dot(d)
				for _, other := range dirs {
					if v := shape.Support(other).Dot(d); v > best+1e-9 {
						t.Fatalf("Support(%v)·d = %v but Support(%v)·d = %v", d, best, other, v)
					}
				}
			}
		})
	}
}
