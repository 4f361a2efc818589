package system

import (
	"log"

	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/physics"
)

type JointState uint8

const (
	// JointNone means the entity has no joint descriptor the system has seen.
	JointNone JointState = iota
	// JointPending waits for one or both endpoint bodies to be registered.
	JointPending
	JointCreated
	// JointUnresolvable is terminal for the current endpoints: an endpoint is
	// zero, dead, or both endpoints are the same entity.
	JointUnresolvable
)

func (s JointState) String() string {
	switch s {
	case JointPending:
		return "pending"
	case JointCreated:
		return "created"
	case JointUnresolvable:
		return "unresolvable"
	default:
		return "none"
	}
}

type jointStatus struct {
	state JointState
	a, b  ecs.Entity
}

// JointSync creates engine joints once both endpoint bodies are registered.
type JointSync struct {
	engine   physics.Engine
	registry *HandleRegistry
	states   map[ecs.Entity]jointStatus
}

func NewJointSync(engine physics.Engine, registry *HandleRegistry) *JointSync {
	return &JointSync{
		engine:   engine,
		registry: registry,
		states:   make(map[ecs.Entity]jointStatus),
	}
}

func (s *JointSync) Run(w *ecs.World) SyncReport {
	var report SyncReport
	if s == nil || w == nil {
		return report
	}

	ecs.ForEach(w, component.JointComponent.Kind(), func(e ecs.Entity, j *component.Joint) {
		a, b := ecs.Entity(j.BodyA), ecs.Entity(j.BodyB)
		if _, ok := s.registry.LookupJoint(e); ok {
			s.states[e] = jointStatus{state: JointCreated, a: a, b: b}
			return
		}
		prev, seen := s.states[e]
		if seen && prev.state == JointUnresolvable && prev.a == a && prev.b == b {
			return
		}

		if !a.Valid() || !b.Valid() || a == b || !ecs.IsAlive(w, a) || !ecs.IsAlive(w, b) {
			log.Printf("physics system: joint %s between %s and %s is unresolvable", e, a, b)
			s.states[e] = jointStatus{state: JointUnresolvable, a: a, b: b}
			return
		}

		pending := jointStatus{state: JointPending, a: a, b: b}
		if !ecs.Has(w, a, component.RigidBodyComponent.Kind()) || !ecs.Has(w, b, component.RigidBodyComponent.Kind()) {
			s.states[e] = pending
			return
		}
		ha, okA := s.registry.LookupBody(a)
		hb, okB := s.registry.LookupBody(b)
		if !okA || !okB {
			s.states[e] = pending
			return
		}

		h, err := s.engine.CreateJoint(ha, hb, j.JointConfig)
		if err != nil {
			report.fail(e, PhaseCreateJoint, err)
			s.states[e] = pending
			return
		}
		s.registry.RegisterJoint(e, h, a, b)
		s.registry.bindJoint(e, j)
		s.states[e] = jointStatus{state: JointCreated, a: a, b: b}
		report.Joints++
	})

	return report
}

// State returns the last evaluated state of e's joint descriptor.
func (s *JointSync) State(e ecs.Entity) JointState {
	if s == nil {
		return JointNone
	}
	return s.states[e].state
}

// prune forgets entities whose joint descriptor is gone, and marks joints
// removed by teardown as pending until the next pass re-evaluates them.
func (s *JointSync) prune(w *ecs.World) {
	for e, st := range s.states {
		if !ecs.IsAlive(w, e) || !ecs.Has(w, e, component.JointComponent.Kind()) {
			delete(s.states, e)
			continue
		}
		if st.state == JointCreated {
			if _, ok := s.registry.LookupJoint(e); !ok {
				st.state = JointPending
				s.states[e] = st
			}
		}
	}
}
