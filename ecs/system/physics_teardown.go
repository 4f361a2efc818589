package system

import (
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/physics"
)

// TeardownSync removes engine objects whose entity died or whose
// descriptor was removed or replaced. Joints go first, then colliders, then bodies, so
// the engine never sees a body removed while something still references it.
type TeardownSync struct {
	engine   physics.Engine
	registry *HandleRegistry
}

func NewTeardownSync(engine physics.Engine, registry *HandleRegistry) *TeardownSync {
	return &TeardownSync{engine: engine, registry: registry}
}

func (s *TeardownSync) Run(w *ecs.World) SyncReport {
	var report SyncReport
	if s == nil || w == nil {
		return report
	}

	doomed := make(map[ecs.Entity]bool)
	s.registry.Bodies.Each(func(e ecs.Entity, _ physics.BodyHandle) {
		if !ecs.IsAlive(w, e) {
			doomed[e] = true
			return
		}
		rb, ok := ecs.Get(w, e, component.RigidBodyComponent.Kind())
		if !ok || !s.registry.sameBody(e, rb) {
			doomed[e] = true
		}
	})

	s.registry.Joints.Each(func(e ecs.Entity, h physics.JointHandle) {
		a, b, _ := s.registry.JointBodies(e)
		j, ok := ecs.Get(w, e, component.JointComponent.Kind())
		keep := ok && s.registry.sameJoint(e, j) && !doomed[a] && !doomed[b] &&
			ecs.Entity(j.BodyA) == a && ecs.Entity(j.BodyB) == b
		if keep {
			return
		}
		if err := s.engine.RemoveJoint(h); err != nil {
			panic("physics system: remove joint of entity " + e.String() + ": " + err.Error())
		}
		s.registry.UnregisterJoint(e)
		report.Joints++
	})

	s.registry.Colliders.Each(func(e ecs.Entity, h physics.ColliderHandle) {
		owner, _ := s.registry.ColliderBody(e)
		c, ok := ecs.Get(w, e, component.ColliderComponent.Kind())
		if ok && s.registry.sameCollider(e, c) && !doomed[owner] && colliderBody(e, c) == owner {
			return
		}
		if err := s.engine.RemoveCollider(h); err != nil {
			panic("physics system: remove collider of entity " + e.String() + ": " + err.Error())
		}
		s.registry.UnregisterCollider(e)
		report.Colliders++
	})

	s.registry.Bodies.Each(func(e ecs.Entity, h physics.BodyHandle) {
		if !doomed[e] {
			return
		}
		if err := s.engine.RemoveBody(h); err != nil {
			panic("physics system: remove body of entity " + e.String() + ": " + err.Error())
		}
		s.registry.UnregisterBody(e)
		report.Bodies++
	})

	return report
}
