package system

import (
	"fmt"
	"sort"

	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/physics"
)

type engineHandle interface {
	physics.BodyHandle | physics.ColliderHandle | physics.JointHandle
}

// HandleTable maps entities to engine handles of one kind and back. Both
// directions are always updated together.
type HandleTable[H engineHandle] struct {
	name     string
	byEntity map[ecs.Entity]H
	byHandle map[H]ecs.Entity
}

func newHandleTable[H engineHandle](name string) *HandleTable[H] {
	return &HandleTable[H]{
		name:     name,
		byEntity: make(map[ecs.Entity]H),
		byHandle: make(map[H]ecs.Entity),
	}
}

// Register records that e owns h. Registering an entity or handle twice is
// a programming error and panics.
func (t *HandleTable[H]) Register(e ecs.Entity, h H) {
	if old, ok := t.byEntity[e]; ok {
		panic(fmt.Sprintf("handle registry: entity %s already has %s handle %d", e, t.name, old))
	}
	if owner, ok := t.byHandle[h]; ok {
		panic(fmt.Sprintf("handle registry: %s handle %d already owned by entity %s", t.name, h, owner))
	}
	t.byEntity[e] = h
	t.byHandle[h] = e
}

func (t *HandleTable[H]) Lookup(e ecs.Entity) (H, bool) {
	h, ok := t.byEntity[e]
	return h, ok
}

func (t *HandleTable[H]) Owner(h H) (ecs.Entity, bool) {
	e, ok := t.byHandle[h]
	return e, ok
}

// Unregister removes e's entry and returns the handle it held.
func (t *HandleTable[H]) Unregister(e ecs.Entity) (H, bool) {
	h, ok := t.byEntity[e]
	if !ok {
		return h, false
	}
	delete(t.byEntity, e)
	delete(t.byHandle, h)
	return h, true
}

func (t *HandleTable[H]) Len() int {
	return len(t.byEntity)
}

// Each visits a snapshot of the table ordered by entity. fn may register
// or unregister entries.
func (t *HandleTable[H]) Each(fn func(ecs.Entity, H)) {
	ents := make([]ecs.Entity, 0, len(t.byEntity))
	for e := range t.byEntity {
		ents = append(ents, e)
	}
	sort.Slice(ents, func(i, j int) bool { return ents[i] < ents[j] })
	for _, e := range ents {
		fn(e, t.byEntity[e])
	}
}

type jointEnds struct {
	a, b ecs.Entity
}

// HandleRegistry is the mapping between entities and the engine objects
// created for them. It also remembers which body entity each collider was
// attached to and which body entities each joint connects, so teardown can
// cascade when a body goes away.
//
// The descriptor an object was created from is remembered as well. A
// descriptor swapped for a new value under the same entity counts as
// removed, so the next frame builds the object again from the new value.
type HandleRegistry struct {
	Bodies    *HandleTable[physics.BodyHandle]
	Colliders *HandleTable[physics.ColliderHandle]
	Joints    *HandleTable[physics.JointHandle]

	colliderBody map[ecs.Entity]ecs.Entity
	jointEnds    map[ecs.Entity]jointEnds

	bodyDesc     map[ecs.Entity]*component.RigidBody
	colliderDesc map[ecs.Entity]*component.Collider
	jointDesc    map[ecs.Entity]*component.Joint
}

func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{
		Bodies:       newHandleTable[physics.BodyHandle]("body"),
		Colliders:    newHandleTable[physics.ColliderHandle]("collider"),
		Joints:       newHandleTable[physics.JointHandle]("joint"),
		colliderBody: make(map[ecs.Entity]ecs.Entity),
		jointEnds:    make(map[ecs.Entity]jointEnds),
		bodyDesc:     make(map[ecs.Entity]*component.RigidBody),
		colliderDesc: make(map[ecs.Entity]*component.Collider),
		jointDesc:    make(map[ecs.Entity]*component.Joint),
	}
}

func (r *HandleRegistry) RegisterBody(e ecs.Entity, h physics.BodyHandle) {
	r.Bodies.Register(e, h)
}

func (r *HandleRegistry) LookupBody(e ecs.Entity) (physics.BodyHandle, bool) {
	return r.Bodies.Lookup(e)
}

func (r *HandleRegistry) UnregisterBody(e ecs.Entity) (physics.BodyHandle, bool) {
	delete(r.bodyDesc, e)
	return r.Bodies.Unregister(e)
}

// RegisterCollider records e's collider handle and the body entity it is
// attached to.
func (r *HandleRegistry) RegisterCollider(e ecs.Entity, h physics.ColliderHandle, body ecs.Entity) {
	r.Colliders.Register(e, h)
	r.colliderBody[e] = body
}

func (r *HandleRegistry) LookupCollider(e ecs.Entity) (physics.ColliderHandle, bool) {
	return r.Colliders.Lookup(e)
}

func (r *HandleRegistry) UnregisterCollider(e ecs.Entity) (physics.ColliderHandle, bool) {
	delete(r.colliderBody, e)
	delete(r.colliderDesc, e)
	return r.Colliders.Unregister(e)
}

// ColliderBody returns the body entity a registered collider is attached to.
func (r *HandleRegistry) ColliderBody(e ecs.Entity) (ecs.Entity, bool) {
	b, ok := r.colliderBody[e]
	return b, ok
}

func (r *HandleRegistry) RegisterJoint(e ecs.Entity, h physics.JointHandle, a, b ecs.Entity) {
	r.Joints.Register(e, h)
	r.jointEnds[e] = jointEnds{a: a, b: b}
}

func (r *HandleRegistry) LookupJoint(e ecs.Entity) (physics.JointHandle, bool) {
	return r.Joints.Lookup(e)
}

func (r *HandleRegistry) UnregisterJoint(e ecs.Entity) (physics.JointHandle, bool) {
	delete(r.jointEnds, e)
	delete(r.jointDesc, e)
	return r.Joints.Unregister(e)
}

// JointBodies returns the two body entities a registered joint connects.
func (r *HandleRegistry) JointBodies(e ecs.Entity) (ecs.Entity, ecs.Entity, bool) {
	ends, ok := r.jointEnds[e]
	return ends.a, ends.b, ok
}

func (r *HandleRegistry) bindBody(e ecs.Entity, rb *component.RigidBody) {
	r.bodyDesc[e] = rb
}

func (r *HandleRegistry) bindCollider(e ecs.Entity, c *component.Collider) {
	r.colliderDesc[e] = c
}

func (r *HandleRegistry) bindJoint(e ecs.Entity, j *component.Joint) {
	r.jointDesc[e] = j
}

// sameBody reports whether rb is the descriptor e's body was created from.
// Entries registered without a descriptor match anything.
func (r *HandleRegistry) sameBody(e ecs.Entity, rb *component.RigidBody) bool {
	d, ok := r.bodyDesc[e]
	return !ok || d == rb
}

func (r *HandleRegistry) sameCollider(e ecs.Entity, c *component.Collider) bool {
	d, ok := r.colliderDesc[e]
	return !ok || d == c
}

func (r *HandleRegistry) sameJoint(e ecs.Entity, j *component.Joint) bool {
	d, ok := r.jointDesc[e]
	return !ok || d == j
}

// liveBody returns e's body handle and descriptor when both are present and
// the body was created from that descriptor.
func (r *HandleRegistry) liveBody(w *ecs.World, e ecs.Entity) (physics.BodyHandle, *component.RigidBody, bool) {
	h, ok := r.Bodies.Lookup(e)
	if !ok {
		return 0, nil, false
	}
	rb, ok := ecs.Get(w, e, component.RigidBodyComponent.Kind())
	if !ok || !r.sameBody(e, rb) {
		return 0, nil, false
	}
	return h, rb, true
}

// RegistryView is a read-only view of a HandleRegistry.
type RegistryView struct {
	r *HandleRegistry
}

func (v RegistryView) LookupBody(e ecs.Entity) (physics.BodyHandle, bool) {
	return v.r.LookupBody(e)
}

func (v RegistryView) LookupCollider(e ecs.Entity) (physics.ColliderHandle, bool) {
	return v.r.LookupCollider(e)
}

func (v RegistryView) LookupJoint(e ecs.Entity) (physics.JointHandle, bool) {
	return v.r.LookupJoint(e)
}

func (v RegistryView) BodyOwner(h physics.BodyHandle) (ecs.Entity, bool) {
	return v.r.Bodies.Owner(h)
}

func (v RegistryView) ColliderOwner(h physics.ColliderHandle) (ecs.Entity, bool) {
	return v.r.Colliders.Owner(h)
}

func (v RegistryView) JointOwner(h physics.JointHandle) (ecs.Entity, bool) {
	return v.r.Joints.Owner(h)
}

func (v RegistryView) ColliderBody(e ecs.Entity) (ecs.Entity, bool) {
	return v.r.ColliderBody(e)
}

func (v RegistryView) JointBodies(e ecs.Entity) (ecs.Entity, ecs.Entity, bool) {
	return v.r.JointBodies(e)
}

// Bodies, Colliders and Joints return the number of registered objects.
func (v RegistryView) Bodies() int    { return v.r.Bodies.Len() }
func (v RegistryView) Colliders() int { return v.r.Colliders.Len() }
func (v RegistryView) Joints() int    { return v.r.Joints.Len() }
