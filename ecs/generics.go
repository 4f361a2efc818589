package ecs

import "github.com/milk9111/cpsync/ecs/component"

func storeFor[T any](w *World, kind component.ComponentKind[T], create bool) *sparseSet[T] {
	if w == nil || !kind.Valid() {
		return nil
	}
	if s, ok := w.stores[kind.ID()]; ok {
		typed, _ := s.(*sparseSet[T])
		return typed
	}
	if !create {
		return nil
	}
	if w.stores == nil {
		w.stores = make(map[component.ComponentID]storage)
	}
	s := &sparseSet[T]{}
	w.stores[kind.ID()] = s
	return s
}

// Add attaches value to e, replacing any existing component of the same kind.
func Add[T any](w *World, e Entity, kind component.ComponentKind[T], value *T) error {
	if !kind.Valid() {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	if !IsAlive(w, e) {
		return component.ErrEntityNotAlive
	}
	storeFor(w, kind, true).set(e, value)
	return nil
}

// Remove detaches the component of the given kind. It reports whether one was
// present.
func Remove[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return storeFor(w, kind, false).removeEntity(e)
}

func Has[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return storeFor(w, kind, false).hasEntity(e)
}

// Get returns the stored pointer; callers mutate components in place through
// it.
func Get[T any](w *World, e Entity, kind component.ComponentKind[T]) (*T, bool) {
	return storeFor(w, kind, false).get(e)
}

// Count returns the number of entities carrying the component.
func Count[T any](w *World, kind component.ComponentKind[T]) int {
	return storeFor(w, kind, false).size()
}

// First returns the first entity carrying the component in storage order.
func First[T any](w *World, kind component.ComponentKind[T]) (Entity, bool) {
	s := storeFor(w, kind, false)
	if s.size() == 0 {
		return 0, false
	}
	return s.dense[0], true
}

// ForEach visits every entity carrying the component. fn may add or remove
// components, including the one being visited; entities whose component was
// removed earlier in the walk are skipped.
func ForEach[T any](w *World, kind component.ComponentKind[T], fn func(Entity, *T)) {
	s := storeFor(w, kind, false)
	for _, e := range s.snapshot() {
		v, ok := s.get(e)
		if !ok {
			continue
		}
		fn(e, v)
	}
}

// ForEach2 visits entities carrying both components, walking the smaller
// storage.
func ForEach2[A, B any](w *World, ka component.ComponentKind[A], kb component.ComponentKind[B], fn func(Entity, *A, *B)) {
	sa := storeFor(w, ka, false)
	sb := storeFor(w, kb, false)
	if sa.size() == 0 || sb.size() == 0 {
		return
	}
	ents := sa.snapshot()
	if sb.size() < sa.size() {
		ents = sb.snapshot()
	}
	for _, e := range ents {
		a, ok := sa.get(e)
		if !ok {
			continue
		}
		b, ok := sb.get(e)
		if !ok {
			continue
		}
		fn(e, a, b)
	}
}
