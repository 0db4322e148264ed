package scene

import "reflect"

// componentStore is the type-erased view of a store the scene needs for entity teardown.
type componentStore interface {
	remove(e Entity) bool
}

// store is a sparse set of components of one type. Dense order is insertion order and removal
// preserves it, so iteration is deterministic.
type store[T any] struct {
	sparse   map[Entity]int
	entities []Entity
	values   []T
}

func newStore[T any]() *store[T] {
	return &store[T]{sparse: make(map[Entity]int)}
}

func (st *store[T]) set(e Entity, v T) {
	if i, ok := st.sparse[e]; ok {
		st.values[i] = v
		return
	}
	st.sparse[e] = len(st.entities)
	st.entities = append(st.entities, e)
	st.values = append(st.values, v)
}

func (st *store[T]) get(e Entity) (T, bool) {
	i, ok := st.sparse[e]
	if !ok {
		var zero T
		return zero, false
	}
	return st.values[i], true
}

func (st *store[T]) remove(e Entity) bool {
	i, ok := st.sparse[e]
	if !ok {
		return false
	}
	delete(st.sparse, e)
	st.entities = append(st.entities[:i], st.entities[i+1:]...)
	st.values = append(st.values[:i], st.values[i+1:]...)
	for j := i; j < len(st.entities); j++ {
		st.sparse[st.entities[j]] = j
	}
	return true
}

func storeFor[T any](s *Scene, create bool) *store[T] {
	key := reflect.TypeFor[T]()
	if existing, ok := s.stores[key]; ok {
		return existing.(*store[T])
	}
	if !create {
		return nil
	}
	st := newStore[T]()
	s.stores[key] = st
	return st
}

// AddComponent attaches c to e, replacing any component of the same type. Mutable components are
// stored as pointers (T = *Transform) so that Get hands out the live value.
//
// Parameters:
//   - s: the scene owning e
//   - e: the entity
//   - c: the component value
//
// Returns:
//   - T: the stored component
func AddComponent[T any](s *Scene, e Entity, c T) T {
	if !s.Valid(e) {
		return c
	}
	storeFor[T](s, true).set(e, c)
	return c
}

// GetComponent returns the component of type T attached to e.
//
// Parameters:
//   - s: the scene owning e
//   - e: the entity
//
// Returns:
//   - T: the component, or the zero value
//   - bool: whether e has a component of type T
func GetComponent[T any](s *Scene, e Entity) (T, bool) {
	st := storeFor[T](s, false)
	if st == nil {
		var zero T
		return zero, false
	}
	return st.get(e)
}

// HasComponent reports whether e has a component of type T.
func HasComponent[T any](s *Scene, e Entity) bool {
	_, ok := GetComponent[T](s, e)
	return ok
}

// RemoveComponent detaches the component of type T from e and reports whether one was attached.
func RemoveComponent[T any](s *Scene, e Entity) bool {
	st := storeFor[T](s, false)
	return st != nil && st.remove(e)
}

// View returns the entities holding a component of type T in attachment order.
// The slice is a copy and stays valid while components are added or removed.
func View[T any](s *Scene) []Entity {
	st := storeFor[T](s, false)
	if st == nil {
		return nil
	}
	return append([]Entity(nil), st.entities...)
}

// First returns the earliest entity holding a component of type T, or NullEntity.
func First[T any](s *Scene) (Entity, T) {
	st := storeFor[T](s, false)
	if st == nil || len(st.entities) == 0 {
		var zero T
		return NullEntity, zero
	}
	return st.entities[0], st.values[0]
}
