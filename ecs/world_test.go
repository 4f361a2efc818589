package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/cpsync/ecs/component"
)

func TestSparseWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex >= 0 {
				if !DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if IsAlive(w, ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return false the second time")
				}
				if len(Entities(w)) != c.create-1 {
					t.Fatalf("expected %d entities after destroy, got %d", c.create-1, len(Entities(w)))
				}
			}
		})
	}
}

func TestEntityRecyclingBumpsGeneration(t *testing.T) {
	w := NewWorld()
	first := CreateEntity(w)
	if !first.Valid() {
		t.Fatalf("created entity should be valid")
	}
	DestroyEntity(w, first)

	second := CreateEntity(w)
	if second == first {
		t.Fatalf("recycled entity must not equal the stale handle")
	}
	if second.id() != first.id() || second.generation() != first.generation()+1 {
		t.Fatalf("expected slot reuse with next generation, got %s after %s", second, first)
	}
	if IsAlive(w, first) {
		t.Fatalf("stale handle reported alive")
	}

	h := component.NewComponent[int]()
	if err := Add(w, first, h.Kind(), intPtr(1)); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive for stale handle, got %v", err)
	}
	if Entity(0).Valid() {
		t.Fatalf("zero entity should be invalid")
	}
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func TestSparseWorldComponentsAndQueries(t *testing.T) {
	w := NewWorld()
	h1 := component.NewComponent[int]()
	h2 := component.NewComponent[string]()

	a := CreateEntity(w)
	b := CreateEntity(w)
	c := CreateEntity(w)

	for _, e := range []Entity{a, b, c} {
		if err := Add(w, e, h1.Kind(), intPtr(int(e.id()))); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := Add(w, b, h2.Kind(), stringPtr("b")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if Count(w, h1.Kind()) != 3 || Count(w, h2.Kind()) != 1 {
		t.Fatalf("unexpected counts %d %d", Count(w, h1.Kind()), Count(w, h2.Kind()))
	}
	if first, ok := First(w, h2.Kind()); !ok || first != b {
		t.Fatalf("First = %v %v, want %v", first, ok, b)
	}

	v, ok := Get(w, a, h1.Kind())
	if !ok || *v != int(a.id()) {
		t.Fatalf("Get = %v %v", v, ok)
	}
	*v = 42
	if v2, _ := Get(w, a, h1.Kind()); *v2 != 42 {
		t.Fatalf("Get should return the stored pointer")
	}

	if err := Add(w, a, h1.Kind(), intPtr(7)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if v, _ := Get(w, a, h1.Kind()); *v != 7 || Count(w, h1.Kind()) != 3 {
		t.Fatalf("Add should replace, got %d (count %d)", *v, Count(w, h1.Kind()))
	}

	if !Remove(w, a, h1.Kind()) || Has(w, a, h1.Kind()) || Remove(w, a, h1.Kind()) {
		t.Fatalf("Remove should detach exactly once")
	}

	DestroyEntity(w, b)
	if Has(w, b, h2.Kind()) || Count(w, h2.Kind()) != 0 {
		t.Fatalf("DestroyEntity should drop all components")
	}
	if _, ok := First(w, h2.Kind()); ok {
		t.Fatalf("First on empty storage should report false")
	}
}

func TestAddErrors(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	h := component.NewComponent[int]()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"nil value", Add(w, e, h.Kind(), nil), component.ErrNilComponent},
		{"zero kind", Add(w, e, component.ComponentKind[int]{}, intPtr(1)), component.ErrInvalidComponentKind},
		{"dead entity", Add(w, Entity(999), h.Kind(), intPtr(1)), component.ErrEntityNotAlive},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if !errors.Is(c.err, c.want) {
				t.Fatalf("got %v, want %v", c.err, c.want)
			}
		})
	}

	if Has(w, e, component.NewComponent[string]().Kind()) {
		t.Fatalf("unknown storage should report no component")
	}
}

func TestForEach(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()
	ents := make([]Entity, 5)
	for i := range ents {
		ents[i] = CreateEntity(w)
		_ = Add(w, ents[i], h.Kind(), intPtr(i))
	}

	var visited []int
	ForEach(w, h.Kind(), func(e Entity, v *int) {
		visited = append(visited, *v)
		if e == ents[1] {
			Remove(w, ents[3], h.Kind())
			DestroyEntity(w, e)
		}
	})
	if len(visited) != 4 {
		t.Fatalf("expected 4 visits with one entity removed mid-walk, got %v", visited)
	}
	for _, v := range visited {
		if v == 3 {
			t.Fatalf("removed component was visited: %v", visited)
		}
	}
	if Count(w, h.Kind()) != 3 {
		t.Fatalf("expected 3 components left, got %d", Count(w, h.Kind()))
	}
}

func TestForEach2(t *testing.T) {
	w := NewWorld()
	ka := component.NewComponentKind[int]()
	kb := component.NewComponentKind[string]()

	both := map[Entity]bool{}
	for i := 0; i < 6; i++ {
		e := CreateEntity(w)
		_ = Add(w, e, ka, intPtr(i))
		if i%2 == 0 {
			_ = Add(w, e, kb, stringPtr("x"))
			both[e] = true
		}
	}

	seen := map[Entity]bool{}
	ForEach2(w, ka, kb, func(e Entity, a *int, b *string) {
		if *b != "x" || *a%2 != 0 {
			t.Fatalf("unexpected pair %d %q", *a, *b)
		}
		seen[e] = true
	})
	if len(seen) != len(both) {
		t.Fatalf("visited %d entities, want %d", len(seen), len(both))
	}

	calls := 0
	ForEach2(w, ka, component.NewComponentKind[float64](), func(Entity, *int, *float64) { calls++ })
	if calls != 0 {
		t.Fatalf("missing storage should yield no visits")
	}
}

type recordSystem struct {
	seen []int
}

func (s *recordSystem) Update(w *World) {
	s.seen = append(s.seen, w.Events().Len())
	w.Events().PushContact(ContactEvent{Kind: ContactStarted})
	w.Events().Push(Event{Type: "other"})
}

func TestSchedulerFlushesEvents(t *testing.T) {
	w := NewWorld()
	first := &recordSystem{}
	second := &recordSystem{}
	s := NewScheduler(first, nil)
	s.Add(second)
	s.Add(nil)

	if got := len(s.Systems()); got != 2 {
		t.Fatalf("expected 2 systems, got %d", got)
	}

	s.Update(w)
	if first.seen[0] != 0 || second.seen[0] != 2 {
		t.Fatalf("systems should see events of earlier systems in the same frame: %v %v", first.seen, second.seen)
	}
	if w.Events().Len() != 0 {
		t.Fatalf("events should be flushed after the frame")
	}

	w.Events().PushContact(ContactEvent{Kind: ContactStopped, Sensor: true})
	w.Events().Push(Event{Type: "other"})
	contacts := w.Events().Contacts()
	if len(contacts) != 1 || contacts[0].Kind != ContactStopped || !contacts[0].Sensor {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
	if got := w.Events().Drain(); len(got) != 2 || got[0].Type != string(ContactStopped) {
		t.Fatalf("unexpected drain %+v", got)
	}
	if w.Events().Drain() != nil {
		t.Fatalf("queue should be empty after drain")
	}
}
