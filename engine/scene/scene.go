// Package scene is the entity-component store the loader fills and the renderer reads. Entities are
// stable integer handles; components live in one typed sparse set per component type.
package scene

import (
	"reflect"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// Entity identifies an entity within one Scene.
type Entity uint32

// NullEntity is never assigned to a live entity.
const NullEntity Entity = 0

// Scene owns entities and their components. Every entity carries a Tag, a Transform and a
// Hierarchy. A Scene is not safe for concurrent use; the engine loop owns it.
type Scene struct {
	name     string
	next     Entity
	entities []Entity
	alive    map[Entity]struct{}
	stores   map[reflect.Type]componentStore
}

// New creates an empty scene.
//
// Parameters:
//   - options: variadic list of SceneBuilderOption functions to configure the scene
//
// Returns:
//   - *Scene: the new scene
func New(options ...SceneBuilderOption) *Scene {
	s := &Scene{
		name:   "Scene",
		alive:  make(map[Entity]struct{}),
		stores: make(map[reflect.Type]componentStore),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Name returns the scene name.
func (s *Scene) Name() string {
	return s.name
}

// CreateEntity creates a root entity with an identity transform.
func (s *Scene) CreateEntity(name string) Entity {
	return s.CreateChildEntity(NullEntity, name)
}

// CreateChildEntity creates an entity parented to parent. A NullEntity or dead parent creates a root.
//
// Parameters:
//   - parent: the parent entity
//   - name: the entity name
//
// Returns:
//   - Entity: the new entity
func (s *Scene) CreateChildEntity(parent Entity, name string) Entity {
	s.next++
	e := s.next
	s.alive[e] = struct{}{}
	s.entities = append(s.entities, e)

	AddComponent(s, e, &Tag{Name: name})
	AddComponent(s, e, NewTransform())
	AddComponent(s, e, &Hierarchy{})
	s.SetParent(e, parent)
	return e
}

// Valid reports whether e is a live entity of this scene.
func (s *Scene) Valid(e Entity) bool {
	_, ok := s.alive[e]
	return ok
}

// Entities returns every live entity in creation order.
func (s *Scene) Entities() []Entity {
	return append([]Entity(nil), s.entities...)
}

// Len returns the number of live entities.
func (s *Scene) Len() int {
	return len(s.entities)
}

// EntityName returns the name of e, or "" for dead entities.
func (s *Scene) EntityName(e Entity) string {
	if tag, ok := GetComponent[*Tag](s, e); ok {
		return tag.Name
	}
	return ""
}

// Transform returns the live transform of e, or nil for dead entities.
func (s *Scene) Transform(e Entity) *Transform {
	t, _ := GetComponent[*Transform](s, e)
	return t
}

// Parent returns the parent of e, or NullEntity for roots.
func (s *Scene) Parent(e Entity) Entity {
	if h, ok := GetComponent[*Hierarchy](s, e); ok {
		return h.Parent
	}
	return NullEntity
}

// Children returns the children of e in attachment order.
func (s *Scene) Children(e Entity) []Entity {
	if h, ok := GetComponent[*Hierarchy](s, e); ok {
		return append([]Entity(nil), h.Children...)
	}
	return nil
}

// SetParent moves child under parent. Parenting an entity under itself or one of its descendants
// is ignored.
func (s *Scene) SetParent(child, parent Entity) {
	h, ok := GetComponent[*Hierarchy](s, child)
	if !ok {
		return
	}
	if !s.Valid(parent) {
		parent = NullEntity
	}
	for p := parent; p != NullEntity; p = s.Parent(p) {
		if p == child {
			return
		}
	}

	if h.Parent != NullEntity {
		if ph, ok := GetComponent[*Hierarchy](s, h.Parent); ok {
			for i, c := range ph.Children {
				if c == child {
					ph.Children = append(ph.Children[:i], ph.Children[i+1:]...)
					break
				}
			}
		}
	}
	h.Parent = parent
	if parent != NullEntity {
		ph, _ := GetComponent[*Hierarchy](s, parent)
		ph.Children = append(ph.Children, child)
	}
}

// RootEntities returns the entities without a parent in creation order.
func (s *Scene) RootEntities() []Entity {
	var roots []Entity
	for _, e := range s.entities {
		if s.Parent(e) == NullEntity {
			roots = append(roots, e)
		}
	}
	return roots
}

// DestroyEntity removes e and all of its descendants. Mesh and material references held by their
// mesh components are released.
func (s *Scene) DestroyEntity(e Entity) {
	if !s.Valid(e) {
		return
	}
	for _, c := range s.Children(e) {
		s.DestroyEntity(c)
	}
	s.SetParent(e, NullEntity)

	if mc, ok := GetComponent[*MeshComponent](s, e); ok {
		if mc.Mesh != nil {
			mc.Mesh.Release()
		}
		for _, m := range mc.Materials {
			if m != nil {
				m.Release()
			}
		}
	}
	for _, st := range s.stores {
		st.remove(e)
	}
	delete(s.alive, e)
	for i, live := range s.entities {
		if live == e {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			break
		}
	}
}

// GlobalTransform returns the world matrix of e: the product of its ancestors' local matrices
// and its own.
func (s *Scene) GlobalTransform(e Entity) mgl32.Mat4 {
	m := mgl32.Ident4()
	for cur := e; cur != NullEntity; cur = s.Parent(cur) {
		t := s.Transform(cur)
		if t == nil {
			break
		}
		m = t.Matrix().Mul4(m)
	}
	return m
}

// GlobalBounds returns the world-space box enclosing the mesh of e and of all its descendants.
// The box is invalid when none of them carries a mesh.
func (s *Scene) GlobalBounds(e Entity) common.AABB {
	bounds := common.NewAABB()
	s.accumulateBounds(e, s.GlobalTransform(e), &bounds)
	return bounds
}

func (s *Scene) accumulateBounds(e Entity, world mgl32.Mat4, bounds *common.AABB) {
	if mc, ok := GetComponent[*MeshComponent](s, e); ok {
		bounds.Contain(mc.Bounds.Transform(world))
	}
	for _, c := range s.Children(e) {
		t := s.Transform(c)
		if t == nil {
			continue
		}
		s.accumulateBounds(c, world.Mul4(t.Matrix()), bounds)
	}
}

// Bounds returns the union of the global bounds of all root entities.
func (s *Scene) Bounds() common.AABB {
	bounds := common.NewAABB()
	for _, root := range s.RootEntities() {
		bounds.Contain(s.GlobalBounds(root))
	}
	return bounds
}

// MainCamera returns the first entity given a camera, or NullEntity.
//
// Returns:
//   - Entity: the camera entity
//   - camera.Camera: its camera component, or nil
func (s *Scene) MainCamera() (Entity, camera.Camera) {
	return First[camera.Camera](s)
}
