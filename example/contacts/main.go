package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/akmonengine/collide"
	"github.com/akmonengine/collide/actor"
	"github.com/akmonengine/collide/epa"
	"github.com/akmonengine/collide/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// CollisionDebugger interface pour instrumenter les requêtes
type CollisionDebugger interface {
	DebugGJK(bodyA, bodyB *actor.Body, simplex *gjk.Simplex)
	DebugEPA(bodyA, bodyB *actor.Body, simplex *gjk.Simplex)
	DebugContact(bodyA, bodyB *actor.Body, contact collide.Contact)
}

// SimpleDebugger implémente l'interface pour afficher les infos
type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugGJK(bodyA, bodyB *actor.Body, simplex *gjk.Simplex) {
	fmt.Printf("🔍 GJK Debug:\n")
	fmt.Printf("   Body A pos: %v\n", bodyA.Center())
	fmt.Printf("   Body B pos: %v\n", bodyB.Center())
	fmt.Printf("   Simplex points: %d\n", simplex.Count)
	for i, point := range simplex.Vertices() {
		fmt.Printf("   Point %d: %v (distance: %v)\n", i, point.Diff, point.Diff.Len())
	}
}

// DebugEPA replays the expansion step by step, checking the polytope after each one.
func (d *SimpleDebugger) DebugEPA(bodyA, bodyB *actor.Body, simplex *gjk.Simplex) {
	fmt.Printf("🔧 EPA Debug:\n")

	md := gjk.MinkowskiDifference{A: bodyA, B: bodyB}
	polytope := epa.NewPolytope()
	if err := polytope.Init(simplex, md); err != nil {
		fmt.Printf("   Init failed: %v\n", err)
		return
	}

	for i := 0; i < epa.DefaultMaxIterations; i++ {
		step := polytope.Subdivide(md, epa.DefaultEpsilon)
		fmt.Printf("   Step %d: %-10s faces=%d vertices=%d distance=%.6f\n",
			i+1, step.Status, polytope.Len(), polytope.VertexCount(), math.Sqrt(step.Face.Distance))

		if err := polytope.Validate(); err != nil {
			fmt.Printf("   ⚠️  %v\n", err)
			return
		}
		if step.Status != epa.StepExpanded && step.Status != epa.StepDeferred {
			return
		}
	}
}

func (d *SimpleDebugger) DebugContact(bodyA, bodyB *actor.Body, contact collide.Contact) {
	fmt.Printf("🎯 Contact Debug:\n")
	fmt.Printf("   Normal: %v\n", contact.Normal)
	fmt.Printf("   Depth: %.6f (converged=%v)\n", contact.Depth, contact.Converged)
	fmt.Printf("   Point A: %v\n", contact.PointA)
	fmt.Printf("   Point B: %v\n", contact.PointB)

	// Calculer le bras de levier (r) pour chaque body
	rA := contact.PointA.Sub(bodyA.Center())
	rB := contact.PointB.Sub(bodyB.Center())
	fmt.Printf("      rA (ground): %v (len=%.3f)\n", rA, rA.Len())
	fmt.Printf("      rB (cube):   %v (len=%.3f)\n", rB, rB.Len())
}

// SetupScene creates a ground slab and a tilted cube above it
func SetupScene() (*actor.Body, *actor.Body, CollisionDebugger) {
	ground := actor.NewBody(
		actor.NewTransform(),
		&actor.Box{HalfExtents: mgl64.Vec3{10, 0.5, 10}},
	)

	cube := actor.NewBody(
		actor.NewTransformAt(mgl64.Vec3{0.3, 3, -0.2}, mgl64.QuatRotate(math.Pi/7, mgl64.Vec3{1, 0, 1}.Normalize())),
		&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
	)

	return ground, cube, &SimpleDebugger{}
}

// DescendCube lowers the cube onto the ground and reports every query on the way
func DescendCube() {
	fmt.Println("🧪 Cube qui descend sur le sol")
	fmt.Println("==============================")

	ground, cube, debugger := SetupScene()
	cfg := collide.DefaultConfig()

	const dy = 0.25
	const maxSteps = 12

	for step := 0; step < maxSteps; step++ {
		fmt.Printf("--- ÉTAPE %d --- cube at %v\n", step+1, cube.Center())

		hint := cube.Center().Sub(ground.Center())
		if !collide.Intersects(ground, cube, hint, cfg) {
			distance := collide.Distance(ground, cube, hint, cfg)
			fmt.Printf("  Pas de collision, distance %.4f (%d iterations)\n", distance.Distance, distance.Iterations)
		} else {
			fmt.Printf("  Collision détectée!\n")

			simplex := &gjk.Simplex{}
			gjk.Intersects(ground, cube, hint, simplex, cfg.GJK)
			debugger.DebugGJK(ground, cube, simplex)
			debugger.DebugEPA(ground, cube, simplex)

			if contact, ok := collide.Collide(ground, cube, hint, cfg); ok {
				debugger.DebugContact(ground, cube, contact)
			}
		}

		cube.Transform.Position = cube.Transform.Position.Sub(mgl64.Vec3{0, dy, 0})
		fmt.Println()
	}

	fmt.Println("Terminé!")
}

func main() {
	verbose := flag.Bool("v", false, "log debug records of the queries to stderr")
	flag.Parse()

	if *verbose {
		collide.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	DescendCube()
}
