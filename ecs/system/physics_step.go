package system

import (
	"time"

	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/physics"
)

// Accumulator turns variable frame deltas into a whole number of fixed
// steps. Leftover time carries over to the next call.
type Accumulator struct {
	Step time.Duration
	// MaxSteps bounds the steps taken by one Advance. Zero is unbounded.
	MaxSteps int
	// MaxCarry caps the leftover kept after Advance; the excess is dropped.
	// Zero keeps everything.
	MaxCarry time.Duration

	pending time.Duration
}

// Advance adds delta and consumes as many whole steps as fit. It returns
// the number of steps taken and the interpolation alpha of the leftover.
// Negative deltas count as zero.
func (a *Accumulator) Advance(delta time.Duration) (int, float64) {
	if delta > 0 {
		a.pending += delta
	}
	if a.Step <= 0 {
		return 0, 0
	}
	steps := int(a.pending / a.Step)
	if a.MaxSteps > 0 && steps > a.MaxSteps {
		steps = a.MaxSteps
	}
	a.pending -= time.Duration(steps) * a.Step
	if a.MaxCarry > 0 && a.pending > a.MaxCarry {
		a.pending = a.MaxCarry
	}
	return steps, a.Alpha()
}

func (a *Accumulator) Pending() time.Duration {
	return a.pending
}

// Alpha is the leftover as a fraction of one step, clamped to [0, 1].
func (a *Accumulator) Alpha() float64 {
	if a.Step <= 0 {
		return 0
	}
	alpha := float64(a.pending) / float64(a.Step)
	if alpha > 1 {
		return 1
	}
	return alpha
}

func (a *Accumulator) Reset() {
	a.pending = 0
}

type StepReport struct {
	Steps    int
	Alpha    float64
	Contacts int
	Errors   []SyncError
}

// WorldStep advances the engine by fixed steps and writes body state back
// onto RigidBody descriptors.
type WorldStep struct {
	engine   physics.Engine
	registry *HandleRegistry

	Accumulator Accumulator
	// TimeDependent false takes exactly one step per Run regardless of delta.
	TimeDependent bool
	// Paused drains the accumulator without stepping the engine.
	Paused bool
}

func NewWorldStep(engine physics.Engine, registry *HandleRegistry, acc Accumulator) *WorldStep {
	return &WorldStep{
		engine:        engine,
		registry:      registry,
		Accumulator:   acc,
		TimeDependent: true,
	}
}

func (s *WorldStep) Run(w *ecs.World, delta time.Duration) StepReport {
	var report StepReport
	if s == nil || w == nil {
		return report
	}

	if s.TimeDependent {
		report.Steps, report.Alpha = s.Accumulator.Advance(delta)
	} else {
		report.Steps = 1
	}
	if s.Paused {
		report.Steps = 0
	}

	if report.Steps > 0 {
		report.Errors = s.applyRequests(w)
	}
	for i := 0; i < report.Steps; i++ {
		if i == report.Steps-1 {
			s.recordPrevious(w)
		}
		s.engine.Step(s.Accumulator.Step)
	}

	report.Contacts = s.publishContacts(w)
	s.writeBack(w)
	return report
}

// applyRequests consumes impulse and velocity requests. Requests on
// entities whose body is not registered yet wait for it; requests on
// entities without a body are dropped.
func (s *WorldStep) applyRequests(w *ecs.World) []SyncError {
	var errs []SyncError
	bodyFor := func(e ecs.Entity) (physics.BodyHandle, bool, bool) {
		h, _, ok := s.registry.liveBody(w, e)
		if ok {
			return h, true, true
		}
		return 0, false, ecs.Has(w, e, component.RigidBodyComponent.Kind())
	}

	ecs.ForEach(w, component.VelocityRequestComponent.Kind(), func(e ecs.Entity, req *component.VelocityRequest) {
		h, ok, wait := bodyFor(e)
		if !ok && wait {
			return
		}
		if ok {
			if err := s.engine.SetVelocity(h, req.Linear, req.Angular); err != nil {
				errs = append(errs, SyncError{Entity: e, Phase: PhaseApplyRequest, Err: err})
			}
		}
		ecs.Remove(w, e, component.VelocityRequestComponent.Kind())
	})

	ecs.ForEach(w, component.ImpulseRequestComponent.Kind(), func(e ecs.Entity, req *component.ImpulseRequest) {
		h, ok, wait := bodyFor(e)
		if !ok && wait {
			return
		}
		if ok {
			if err := s.engine.ApplyImpulse(h, req.Linear, req.Angular); err != nil {
				errs = append(errs, SyncError{Entity: e, Phase: PhaseApplyRequest, Err: err})
			}
		}
		ecs.Remove(w, e, component.ImpulseRequestComponent.Kind())
	})

	return errs
}

func (s *WorldStep) recordPrevious(w *ecs.World) {
	ecs.ForEach(w, component.InterpolationComponent.Kind(), func(e ecs.Entity, interp *component.Interpolation) {
		h, _, ok := s.registry.liveBody(w, e)
		if !ok {
			return
		}
		st, err := s.engine.BodyState(h)
		if err != nil {
			panic("physics system: read registered body " + e.String() + ": " + err.Error())
		}
		interp.Previous = st.Pose()
		interp.Valid = true
	})
}

// publishContacts maps engine contact events to entities and queues them
// on the world.
func (s *WorldStep) publishContacts(w *ecs.World) int {
	n := 0
	for _, ev := range s.engine.DrainContacts() {
		ca, okA := s.registry.Colliders.Owner(ev.A)
		cb, okB := s.registry.Colliders.Owner(ev.B)
		if !okA || !okB {
			continue
		}
		ba, _ := s.registry.ColliderBody(ca)
		bb, _ := s.registry.ColliderBody(cb)
		kind := ecs.ContactStopped
		if ev.Started {
			kind = ecs.ContactStarted
		}
		w.Events().PushContact(ecs.ContactEvent{
			Kind:      kind,
			ColliderA: ca,
			ColliderB: cb,
			BodyA:     ba,
			BodyB:     bb,
			Sensor:    ev.Sensor,
		})
		n++
	}
	return n
}

// writeBack refreshes State on every registered body that still has the
// descriptor it was created from. Configuration fields are left untouched.
func (s *WorldStep) writeBack(w *ecs.World) {
	s.registry.Bodies.Each(func(e ecs.Entity, _ physics.BodyHandle) {
		h, rb, ok := s.registry.liveBody(w, e)
		if !ok {
			return
		}
		st, err := s.engine.BodyState(h)
		if err != nil {
			panic("physics system: read registered body " + e.String() + ": " + err.Error())
		}
		rb.State = st
		rb.Synced = true
	})
}
