package system

import (
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/physics"
)

// BodyColliderSync creates engine bodies and colliders for descriptors that
// have no handle yet.
type BodyColliderSync struct {
	engine   physics.Engine
	registry *HandleRegistry
}

func NewBodyColliderSync(engine physics.Engine, registry *HandleRegistry) *BodyColliderSync {
	return &BodyColliderSync{engine: engine, registry: registry}
}

// Run creates every missing body, then every missing collider whose body is
// registered. Colliders whose body is not registered yet are left for a
// later pass.
func (s *BodyColliderSync) Run(w *ecs.World) SyncReport {
	var report SyncReport
	if s == nil || w == nil {
		return report
	}

	ecs.ForEach(w, component.RigidBodyComponent.Kind(), func(e ecs.Entity, rb *component.RigidBody) {
		if _, ok := s.registry.LookupBody(e); ok {
			return
		}
		h, err := s.engine.CreateBody(rb.BodyConfig)
		if err != nil {
			report.fail(e, PhaseCreateBody, err)
			return
		}
		s.registry.RegisterBody(e, h)
		s.registry.bindBody(e, rb)
		report.Bodies++
	})

	ecs.ForEach(w, component.ColliderComponent.Kind(), func(e ecs.Entity, c *component.Collider) {
		if _, ok := s.registry.LookupCollider(e); ok {
			return
		}
		owner := colliderBody(e, c)
		if !ecs.IsAlive(w, owner) || !ecs.Has(w, owner, component.RigidBodyComponent.Kind()) {
			return
		}
		bh, ok := s.registry.LookupBody(owner)
		if !ok {
			return
		}
		h, err := s.engine.CreateCollider(bh, c.ColliderConfig)
		if err != nil {
			report.fail(e, PhaseCreateCollider, err)
			return
		}
		s.registry.RegisterCollider(e, h, owner)
		s.registry.bindCollider(e, c)
		report.Colliders++
	})

	return report
}

// colliderBody resolves the body entity a collider descriptor attaches to.
func colliderBody(e ecs.Entity, c *component.Collider) ecs.Entity {
	if c.Body == 0 {
		return e
	}
	return ecs.Entity(c.Body)
}
