package physics

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

const collisionTypeCollider cp.CollisionType = 1

type bodyEntry struct {
	body      *cp.Body
	cfg       BodyConfig
	colliders map[ColliderHandle]struct{}
	joints    map[JointHandle]struct{}
}

type colliderEntry struct {
	shape  *cp.Shape
	body   BodyHandle
	sensor bool
	// area and unitMoment feed the owning body's mass properties.
	area       float64
	density    float64
	unitMoment float64
}

type jointEntry struct {
	constraints []*cp.Constraint
	a, b        BodyHandle
}

// Space is an Engine backed by a Chipmunk space. It is not safe for
// concurrent use.
type Space struct {
	space *cp.Space
	cfg   Config

	bodies    map[BodyHandle]*bodyEntry
	colliders map[ColliderHandle]*colliderEntry
	joints    map[JointHandle]*jointEntry
	shapes    map[*cp.Shape]ColliderHandle

	nextBody     BodyHandle
	nextCollider ColliderHandle
	nextJoint    JointHandle
	steps        uint64

	filter    PairFilter
	recording bool
	contacts  []ContactEvent
	// rejected holds pairs vetoed by the filter until they separate.
	rejected map[colliderPair]struct{}
	removing bool
}

var _ Engine = (*Space)(nil)

// NewSpace creates an empty Space. The config is validated and rejected
// with ErrInvalidConfig when malformed.
func NewSpace(cfg Config) (*Space, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	space := cp.NewSpace()
	if cfg.Iterations > 0 {
		space.Iterations = uint(cfg.Iterations)
	}
	space.SetGravity(toVector(cfg.Gravity))

	s := &Space{
		space:     space,
		cfg:       cfg,
		bodies:    make(map[BodyHandle]*bodyEntry),
		colliders: make(map[ColliderHandle]*colliderEntry),
		joints:    make(map[JointHandle]*jointEntry),
		shapes:    make(map[*cp.Shape]ColliderHandle),
		rejected:  make(map[colliderPair]struct{}),
		recording: true,
	}
	s.setupHandlers()
	return s, nil
}

// CPSpace returns the underlying Chipmunk space, for debug drawing.
func (s *Space) CPSpace() *cp.Space {
	if s == nil {
		return nil
	}
	return s.space
}

func (s *Space) CreateBody(cfg BodyConfig) (BodyHandle, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if s.cfg.MaxBodies > 0 && len(s.bodies) >= s.cfg.MaxBodies {
		return 0, fmt.Errorf("%w: %d bodies", ErrCapacity, len(s.bodies))
	}

	var body *cp.Body
	switch cfg.Kind {
	case BodyStatic:
		body = cp.NewStaticBody()
	case BodyKinematic:
		body = cp.NewKinematicBody()
	default:
		body = cp.NewBody(1, 1)
	}
	body.SetPosition(toVector(cfg.Position))
	body.SetAngle(cfg.Angle)
	if cfg.Kind != BodyStatic {
		body.SetVelocityVector(toVector(cfg.LinearVelocity))
		body.SetAngularVelocity(cfg.AngularVelocity)
	}

	s.nextBody++
	h := s.nextBody
	entry := &bodyEntry{
		body:      body,
		cfg:       cfg,
		colliders: make(map[ColliderHandle]struct{}),
		joints:    make(map[JointHandle]struct{}),
	}
	if cfg.Kind == BodyDynamic {
		body.SetVelocityUpdateFunc(s.velocityFunc(cfg))
	}
	s.space.AddBody(body)
	s.bodies[h] = entry
	s.updateMass(entry)
	return h, nil
}

// velocityFunc integrates gravity scaled per body plus per-body damping on
// top of the global damping.
func (s *Space) velocityFunc(cfg BodyConfig) func(*cp.Body, cp.Vector, float64, float64) {
	return func(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		damping *= math.Pow(s.cfg.Damping, dt)
		w := body.AngularVelocity()
		cp.BodyUpdateVelocity(body, gravity.Mult(cfg.GravityScale), damping/(1+dt*cfg.LinearDamping), dt)
		// Space never applies torque, so angular velocity only decays.
		body.SetAngularVelocity(w * damping / (1 + dt*cfg.AngularDamping))
		if cfg.LockTranslation {
			body.SetVelocityVector(cp.Vector{})
		}
	}
}

// updateMass recomputes mass and moment of a dynamic body from its
// colliders. An explicit Mass is spread over the colliders by area.
func (s *Space) updateMass(entry *bodyEntry) {
	if entry.cfg.Kind != BodyDynamic {
		return
	}
	var mass, moment, area float64
	for ch := range entry.colliders {
		c := s.colliders[ch]
		if entry.cfg.Mass > 0 {
			area += c.area
			continue
		}
		m := c.density * c.area
		mass += m
		moment += m * c.unitMoment
	}
	if entry.cfg.Mass > 0 {
		mass = entry.cfg.Mass
		for ch := range entry.colliders {
			c := s.colliders[ch]
			if area > 0 {
				moment += mass * c.area / area * c.unitMoment
			}
		}
	}
	if mass <= 0 {
		mass = 1
		moment = 0
	}
	if moment <= 0 {
		moment = mass
	}
	if entry.cfg.LockRotation {
		moment = math.Inf(1)
	}
	entry.body.SetMass(mass)
	entry.body.SetMoment(moment)
}

func (s *Space) RemoveBody(h BodyHandle) error {
	entry, ok := s.bodies[h]
	if !ok {
		return fmt.Errorf("%w: body %d", ErrUnknownHandle, h)
	}
	if len(entry.colliders) > 0 || len(entry.joints) > 0 {
		return fmt.Errorf("%w: body %d has %d colliders and %d joints", ErrBodyInUse, h, len(entry.colliders), len(entry.joints))
	}
	s.space.RemoveBody(entry.body)
	delete(s.bodies, h)
	return nil
}

func (s *Space) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	s.space.Step(dt.Seconds())
	s.steps++
}

func (s *Space) BodyState(h BodyHandle) (BodyState, error) {
	entry, ok := s.bodies[h]
	if !ok {
		return BodyState{}, fmt.Errorf("%w: body %d", ErrUnknownHandle, h)
	}
	b := entry.body
	return BodyState{
		Position:        fromVector(b.Position()),
		Angle:           b.Angle(),
		LinearVelocity:  fromVector(b.Velocity()),
		AngularVelocity: b.AngularVelocity(),
		Sleeping:        b.IsSleeping(),
	}, nil
}

// ApplyImpulse changes the velocity of a dynamic body as if the impulse hit
// its centre. Static and kinematic bodies ignore impulses.
func (s *Space) ApplyImpulse(h BodyHandle, linear mgl64.Vec2, angular float64) error {
	entry, ok := s.bodies[h]
	if !ok {
		return fmt.Errorf("%w: body %d", ErrUnknownHandle, h)
	}
	if entry.cfg.Kind != BodyDynamic {
		return nil
	}
	b := entry.body
	if !entry.cfg.LockTranslation {
		b.SetVelocityVector(b.Velocity().Add(toVector(linear).Mult(1 / b.Mass())))
	}
	if moment := b.Moment(); angular != 0 && !math.IsInf(moment, 1) {
		b.SetAngularVelocity(b.AngularVelocity() + angular/moment)
	}
	return nil
}

func (s *Space) SetVelocity(h BodyHandle, linear mgl64.Vec2, angular float64) error {
	entry, ok := s.bodies[h]
	if !ok {
		return fmt.Errorf("%w: body %d", ErrUnknownHandle, h)
	}
	if entry.cfg.Kind == BodyStatic {
		return nil
	}
	if entry.cfg.LockTranslation {
		linear = mgl64.Vec2{}
	}
	if entry.cfg.LockRotation {
		angular = 0
	}
	entry.body.SetVelocityVector(toVector(linear))
	entry.body.SetAngularVelocity(angular)
	return nil
}

func (s *Space) SetGravity(g mgl64.Vec2) {
	s.cfg.Gravity = g
	s.space.SetGravity(toVector(g))
}

func (s *Space) Raycast(from, to mgl64.Vec2) (RayHit, bool) {
	info := s.space.SegmentQueryFirst(toVector(from), toVector(to), 0, cp.SHAPE_FILTER_ALL)
	if info.Shape == nil {
		return RayHit{}, false
	}
	h, ok := s.shapes[info.Shape]
	if !ok {
		return RayHit{}, false
	}
	return RayHit{
		Collider: h,
		Point:    fromVector(info.Point),
		Normal:   fromVector(info.Normal),
		Fraction: info.Alpha,
	}, true
}

func (s *Space) Stats() Stats {
	return Stats{
		Bodies:    len(s.bodies),
		Colliders: len(s.colliders),
		Joints:    len(s.joints),
		Steps:     s.steps,
	}
}

func toVector(v mgl64.Vec2) cp.Vector {
	return cp.Vector{X: v.X(), Y: v.Y()}
}

func fromVector(v cp.Vector) mgl64.Vec2 {
	return mgl64.Vec2{v.X, v.Y}
}
