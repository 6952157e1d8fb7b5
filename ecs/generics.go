package ecs

import "github.com/milk9111/goldrush/ecs/component"

func Add[T any](w *World, e Entity, handle component.ComponentHandle[T], value *T) error {
	if value == nil {
		return component.ErrNilComponent
	}
	return w.AddComponent(e, handle.Kind().ID(), value)
}

func Remove[T any](w *World, e Entity, handle component.ComponentHandle[T]) bool {
	return w.RemoveComponent(e, handle.Kind().ID())
}

func Has[T any](w *World, e Entity, handle component.ComponentHandle[T]) bool {
	return w.HasComponent(e, handle.Kind().ID())
}

func Get[T any](w *World, e Entity, handle component.ComponentHandle[T]) (*T, bool) {
	value, ok := w.GetComponent(e, handle.Kind().ID())
	if !ok {
		return nil, false
	}
	cast, ok := value.(*T)
	if !ok {
		return nil, false
	}
	return cast, true
}

// First returns the first entity carrying handle together with its component.
func First[T any](w *World, handle component.ComponentHandle[T]) (Entity, *T, bool) {
	e, ok := w.First(handle.Kind().ID())
	if !ok {
		return 0, nil, false
	}
	v, ok := Get(w, e, handle)
	return e, v, ok
}

// ForEach calls fn for every entity carrying handle. fn may destroy entities;
// the iteration works on a snapshot of the set.
func ForEach[T any](w *World, handle component.ComponentHandle[T], fn func(Entity, *T)) {
	if w == nil || fn == nil {
		return
	}
	for _, e := range w.store(handle.Kind().ID(), false).Entities() {
		v, ok := Get(w, e, handle)
		if !ok {
			continue
		}
		fn(e, v)
	}
}

// Count returns how many entities carry handle.
func Count[T any](w *World, handle component.ComponentHandle[T]) int {
	if w == nil {
		return 0
	}
	return w.store(handle.Kind().ID(), false).Len()
}
