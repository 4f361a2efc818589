package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
)

func groundAndBox(t *testing.T, w *ecs.World) (ground, box ecs.Entity, rb *component.RigidBody) {
	t.Helper()
	ground = spawnBody(t, w, component.NewStaticBody(0, 0), component.NewBoxCollider(10, 0.5))
	rb = component.NewDynamicBody(0, 2)
	box = spawnBody(t, w, rb, component.NewBoxCollider(0.5, 0.5))
	return ground, box, rb
}

func TestBoxFallsOntoGround(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{0, -9.81})
	ground, box, rb := groundAndBox(t, w)

	prev := rb.Position.Y()
	for i := 0; i < 200; i++ {
		ps.Update(w)
		y := rb.State.Position.Y()
		if prev > 1.2 && y >= prev {
			t.Fatalf("frame %d: box stopped falling at %v before reaching the ground", i, y)
		}
		prev = y
	}

	if y := rb.State.Position.Y(); y < 0.8 || y > 1.1 {
		t.Fatalf("box should rest on the ground near y=1, got %v", y)
	}
	if rb.Position != (mgl64.Vec2{0, 2}) {
		t.Fatalf("configured position rewritten to %v", rb.Position)
	}

	var started bool
	for _, c := range w.Events().Contacts() {
		pair := map[ecs.Entity]bool{c.ColliderA: true, c.ColliderB: true}
		if c.Kind == ecs.ContactStarted && pair[ground] && pair[box] {
			started = true
			if !(c.BodyA == ground || c.BodyB == ground) {
				t.Fatalf("contact body entities not resolved: %+v", c)
			}
		}
	}
	if !started {
		t.Fatalf("no contact_started event between ground and box")
	}
}

func TestPairFilter(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{0, -9.81})
	ground, box, rb := groundAndBox(t, w)

	var asked bool
	ps.SetPairFilter(func(a, b ecs.Entity) bool {
		if (a == ground && b == box) || (a == box && b == ground) {
			asked = true
		}
		return false
	})
	for i := 0; i < 200; i++ {
		ps.Update(w)
	}
	if !asked {
		t.Fatalf("filter never saw the pair")
	}
	if len(w.Events().Contacts()) != 0 {
		t.Fatalf("vetoed contacts were reported")
	}
	if rb.State.Position.Y() > -1 {
		t.Fatalf("box should have fallen through, at %v", rb.State.Position)
	}

	ps.SetPairFilter(nil)
}

func TestRaycastAttribution(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{})
	body := spawnBody(t, w, component.NewStaticBody(0, 0), nil)
	col := ecs.CreateEntity(w)
	c := component.NewBoxCollider(1, 1)
	c.Body = uint64(body)
	mustAdd(t, w, col, component.ColliderComponent, c)
	ps.Tick(w, testStep)

	hit, ok := ps.Raycast(w, mgl64.Vec2{-5, 0}, mgl64.Vec2{5, 0})
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.Collider != col || hit.Body != body {
		t.Fatalf("hit attributed to %s/%s, want %s/%s", hit.Collider, hit.Body, col, body)
	}
	if !near(hit.Point.X(), -1, 1e-6) {
		t.Fatalf("unexpected hit point %v", hit.Point)
	}

	if _, ok := ps.Raycast(w, mgl64.Vec2{-5, 3}, mgl64.Vec2{5, 3}); ok {
		t.Fatalf("ray above the box should miss")
	}
}
