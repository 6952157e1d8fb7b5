package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/goldrush/ecs/component"
)

func TestWorldEntityLifecycle(t *testing.T) {
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
				ents = append(ents, w.CreateEntity())
			}
			if len(w.Entities()) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(w.Entities()))
			}
			if c.destroyIndex >= 0 {
				if !w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if w.IsAlive(ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("second DestroyEntity should return false")
				}
				if len(w.Entities()) != c.create-1 {
					t.Fatalf("expected %d entities after destroy, got %d", c.create-1, len(w.Entities()))
				}
			}
		})
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()

	old := w.CreateEntity()
	if err := Add(w, old, h, intPtr(1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	w.DestroyEntity(old)

	reused := w.CreateEntity()
	if reused.id() != old.id() {
		t.Fatalf("expected slot %d to be reused, got %d", old.id(), reused.id())
	}
	if reused == old {
		t.Fatalf("reused entity must carry a new generation")
	}
	if w.IsAlive(old) {
		t.Fatalf("stale handle should not be alive")
	}
	if Has(w, reused, h) {
		t.Fatalf("reused entity should not inherit components")
	}
	if err := Add(w, old, h, intPtr(2)); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive, got %v", err)
	}
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func TestWorldComponentsAndQueries(t *testing.T) {
	w := NewWorld()

	h1 := component.NewComponent[int]()
	h2 := component.NewComponent[string]()

	e1 := w.CreateEntity()
	e2 := w.CreateEntity()

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "add_int_to_e1",
			setup: func() error { return Add(w, e1, h1, intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, h1)
				if !ok || *v != 10 {
					t.Fatalf("expected 10, got %v ok=%v", v, ok)
				}
			},
			teardown: func() bool { return Remove(w, e1, h1) },
		},
		{
			name: "add_str_to_e1_and_e2",
			setup: func() error {
				if err := Add(w, e1, h2, stringPtr("a")); err != nil {
					return err
				}
				return Add(w, e2, h2, stringPtr("b"))
			},
			check: func(t *testing.T) {
				if !Has(w, e1, h2) || !Has(w, e2, h2) {
					t.Fatalf("expected both entities to have string component")
				}
				if got := Count(w, h2); got != 2 {
					t.Fatalf("expected 2 string components, got %d", got)
				}
			},
			teardown: func() bool { return Remove(w, e1, h2) },
		},
		{
			name:  "query_intersection",
			setup: func() error { return Add(w, e2, h1, intPtr(5)) },
			check: func(t *testing.T) {
				got := w.Query(h1.Kind().ID(), h2.Kind().ID())
				if len(got) != 1 || got[0] != e2 {
					t.Fatalf("expected only e2 in query, got %v", got)
				}
			},
			teardown: func() bool { return Remove(w, e2, h1) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.setup(); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			tc.check(t)
			if !tc.teardown() {
				t.Fatalf("teardown failed for %s", tc.name)
			}
		})
	}
}

func TestAddRejectsNilAndInvalidKinds(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	h := component.NewComponent[int]()

	if err := Add[int](w, e, h, nil); !errors.Is(err, component.ErrNilComponent) {
		t.Fatalf("expected ErrNilComponent, got %v", err)
	}
	var zero component.ComponentHandle[int]
	if err := Add(w, e, zero, intPtr(1)); !errors.Is(err, component.ErrInvalidComponentKind) {
		t.Fatalf("expected ErrInvalidComponentKind, got %v", err)
	}
}

func TestForEach(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		w := NewWorld()
		h := component.NewComponent[int]()

		e1 := w.CreateEntity()
		w.CreateEntity()
		e3 := w.CreateEntity()

		if err := Add(w, e1, h, intPtr(1)); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if err := Add(w, e3, h, intPtr(3)); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		seen := map[Entity]int{}
		ForEach(w, h, func(e Entity, v *int) { seen[e] = *v })
		if len(seen) != 2 || seen[e1] != 1 || seen[e3] != 3 {
			t.Fatalf("unexpected iteration result: %v", seen)
		}
	})

	t.Run("mutates_in_place", func(t *testing.T) {
		w := NewWorld()
		h := component.NewComponent[int]()
		e := w.CreateEntity()
		if err := Add(w, e, h, intPtr(1)); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		ForEach(w, h, func(_ Entity, v *int) { *v += 41 })

		v, _ := Get(w, e, h)
		if *v != 42 {
			t.Fatalf("expected 42, got %d", *v)
		}
	})

	t.Run("destroy_during_iteration", func(t *testing.T) {
		w := NewWorld()
		h := component.NewComponent[int]()
		for i := 0; i < 5; i++ {
			e := w.CreateEntity()
			if err := Add(w, e, h, intPtr(i)); err != nil {
				t.Fatalf("add failed: %v", err)
			}
		}

		visited := 0
		ForEach(w, h, func(e Entity, v *int) {
			visited++
			if *v%2 == 0 {
				w.DestroyEntity(e)
			}
		})
		if visited != 5 {
			t.Fatalf("expected 5 visits, got %d", visited)
		}
		if got := Count(w, h); got != 2 {
			t.Fatalf("expected 2 survivors, got %d", got)
		}
	})
}

func TestEventQueueDrain(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	w.Events().Push(Event{Type: EventCaptured, Entity: e})
	w.Events().Push(Event{Type: EventSpawned, Entity: e})

	got := w.Events().Drain()
	if len(got) != 2 || got[0].Type != EventCaptured || got[1].Type != EventSpawned {
		t.Fatalf("unexpected events: %+v", got)
	}
	if w.Events().Len() != 0 || w.Events().Drain() != nil {
		t.Fatalf("queue should be empty after drain")
	}
}
