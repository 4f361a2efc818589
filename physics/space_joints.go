package physics

import (
	"fmt"

	"github.com/jakecoffman/cp"
)

func (s *Space) CreateJoint(a, b BodyHandle, cfg JointConfig) (JointHandle, error) {
	ea, ok := s.bodies[a]
	if !ok {
		return 0, fmt.Errorf("%w: body %d", ErrUnknownHandle, a)
	}
	eb, ok := s.bodies[b]
	if !ok {
		return 0, fmt.Errorf("%w: body %d", ErrUnknownHandle, b)
	}
	if a == b {
		return 0, fmt.Errorf("%w: joint connects body %d to itself", ErrInvalidConfig, a)
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if s.cfg.MaxJoints > 0 && len(s.joints) >= s.cfg.MaxJoints {
		return 0, fmt.Errorf("%w: %d joints", ErrCapacity, len(s.joints))
	}

	constraints := newConstraints(ea.body, eb.body, cfg)
	for _, c := range constraints {
		c.SetCollideBodies(cfg.CollideConnected)
		s.space.AddConstraint(c)
	}

	s.nextJoint++
	h := s.nextJoint
	s.joints[h] = &jointEntry{constraints: constraints, a: a, b: b}
	ea.joints[h] = struct{}{}
	eb.joints[h] = struct{}{}
	return h, nil
}

func (s *Space) RemoveJoint(h JointHandle) error {
	j, ok := s.joints[h]
	if !ok {
		return fmt.Errorf("%w: joint %d", ErrUnknownHandle, h)
	}
	for _, c := range j.constraints {
		s.space.RemoveConstraint(c)
	}
	delete(s.joints, h)
	if ea, ok := s.bodies[j.a]; ok {
		delete(ea.joints, h)
	}
	if eb, ok := s.bodies[j.b]; ok {
		delete(eb.joints, h)
	}
	return nil
}

// newConstraints builds the primary constraint for cfg followed by the
// optional angular limit and motor.
func newConstraints(a, b *cp.Body, cfg JointConfig) []*cp.Constraint {
	anchorA, anchorB := toVector(cfg.AnchorA), toVector(cfg.AnchorB)
	var out []*cp.Constraint
	switch cfg.Kind {
	case JointPivot:
		out = append(out, cp.NewPivotJoint2(a, b, anchorA, anchorB))
	case JointPin:
		out = append(out, cp.NewPinJoint(a, b, anchorA, anchorB))
	case JointSlide:
		out = append(out, cp.NewSlideJoint(a, b, anchorA, anchorB, cfg.Min, cfg.Max))
	case JointGroove:
		out = append(out, cp.NewGrooveJoint(a, b, toVector(cfg.GrooveA), toVector(cfg.GrooveB), anchorB))
	case JointSpring:
		out = append(out, cp.NewDampedSpring(a, b, anchorA, anchorB, cfg.RestLength, cfg.Stiffness, cfg.Damping))
	case JointWeld:
		out = append(out,
			cp.NewPivotJoint2(a, b, anchorA, anchorB),
			cp.NewGearJoint(a, b, b.Angle()-a.Angle(), 1),
		)
	}
	if cfg.MaxForce > 0 {
		for _, c := range out {
			c.SetMaxForce(cfg.MaxForce)
		}
	}
	if cfg.AngularLimits.Enabled {
		out = append(out, cp.NewRotaryLimitJoint(a, b, cfg.AngularLimits.Min, cfg.AngularLimits.Max))
	}
	if cfg.Motor.Enabled {
		motor := cp.NewSimpleMotor(a, b, cfg.Motor.Rate)
		if cfg.Motor.MaxForce > 0 {
			motor.SetMaxForce(cfg.Motor.MaxForce)
		}
		out = append(out, motor)
	}
	return out
}
