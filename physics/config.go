package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyConfig describes a rigid body at creation time.
type BodyConfig struct {
	Kind            BodyKind
	Position        mgl64.Vec2
	Angle           float64
	LinearVelocity  mgl64.Vec2
	AngularVelocity float64
	// Damping is the fraction of velocity lost per second.
	LinearDamping  float64
	AngularDamping float64
	// GravityScale multiplies the space gravity for this body. 0 disables
	// gravity.
	GravityScale float64
	// Mass overrides the mass accumulated from collider densities. Dynamic
	// bodies without mass or dense colliders weigh 1.
	Mass            float64
	LockRotation    bool
	LockTranslation bool
}

// ColliderConfig describes a collision shape in its body's local frame.
type ColliderConfig struct {
	Shape       ShapeKind
	HalfExtents mgl64.Vec2
	Radius      float64
	// A and B are the segment endpoints.
	A, B     mgl64.Vec2
	Vertices []mgl64.Vec2
	Offset   mgl64.Vec2

	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool

	// Colliders sharing a non-zero Group never collide. Zero Categories or
	// Mask means all bits.
	Group      uint
	Categories uint
	Mask       uint
}

type AngularLimits struct {
	Enabled  bool
	Min, Max float64
}

type Motor struct {
	Enabled  bool
	Rate     float64
	MaxForce float64
}

// JointConfig describes a constraint between two bodies. Anchors are in
// each body's local frame.
type JointConfig struct {
	Kind    JointKind
	AnchorA mgl64.Vec2
	AnchorB mgl64.Vec2
	// GrooveA and GrooveB bound the groove on body A.
	GrooveA mgl64.Vec2
	GrooveB mgl64.Vec2
	// Min and Max bound the anchor distance of a slide joint.
	Min, Max float64

	RestLength float64
	Stiffness  float64
	Damping    float64

	AngularLimits AngularLimits
	Motor         Motor

	// MaxForce 0 means unlimited.
	MaxForce         float64
	CollideConnected bool
}

// BodyState is the simulated state of a body read back after a step.
type BodyState struct {
	Position        mgl64.Vec2
	Angle           float64
	LinearVelocity  mgl64.Vec2
	AngularVelocity float64
	Sleeping        bool
}

func (s BodyState) Pose() Pose {
	return Pose{Position: s.Position, Angle: s.Angle}
}

type Pose struct {
	Position mgl64.Vec2
	Angle    float64
}

// Config tunes a Space.
type Config struct {
	Gravity    mgl64.Vec2
	Iterations int
	// Damping is the fraction of velocity kept per second. 1 disables
	// global damping.
	Damping float64

	// Zero capacities are unlimited.
	MaxBodies    int
	MaxColliders int
	MaxJoints    int
}

func DefaultConfig() Config {
	return Config{
		Gravity:    mgl64.Vec2{0, -9.81},
		Iterations: 10,
		Damping:    1,
	}
}

func (c Config) validate() error {
	switch {
	case c.Iterations < 0:
		return fmt.Errorf("%w: iterations %d", ErrInvalidConfig, c.Iterations)
	case !(c.Damping >= 0 && c.Damping <= 1):
		return fmt.Errorf("%w: damping %v outside [0, 1]", ErrInvalidConfig, c.Damping)
	case c.MaxBodies < 0 || c.MaxColliders < 0 || c.MaxJoints < 0:
		return fmt.Errorf("%w: negative capacity", ErrInvalidConfig)
	case !finiteVec(c.Gravity):
		return fmt.Errorf("%w: gravity %v", ErrInvalidConfig, c.Gravity)
	}
	return nil
}

// The comparisons below are written so that NaN fails them.

func (c BodyConfig) validate() error {
	if _, ok := bodyKindNames[c.Kind]; !ok {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Kind)
	}
	if !finiteVec(c.Position) || !finite(c.Angle) || !finiteVec(c.LinearVelocity) || !finite(c.AngularVelocity) {
		return fmt.Errorf("%w: non-finite body state", ErrInvalidConfig)
	}
	if !finite(c.GravityScale) {
		return fmt.Errorf("%w: gravity scale %v", ErrInvalidConfig, c.GravityScale)
	}
	if !nonNegative(c.Mass, c.LinearDamping, c.AngularDamping) {
		return fmt.Errorf("%w: mass %v damping %v/%v", ErrInvalidConfig, c.Mass, c.LinearDamping, c.AngularDamping)
	}
	return nil
}

func (c ColliderConfig) validate() error {
	if !finiteVec(c.Offset) {
		return fmt.Errorf("%w: collider offset %v", ErrInvalidConfig, c.Offset)
	}
	switch c.Shape {
	case ShapeBox:
		if !positive(c.HalfExtents.X(), c.HalfExtents.Y()) {
			return fmt.Errorf("%w: box half extents %v", ErrInvalidConfig, c.HalfExtents)
		}
	case ShapeCircle:
		if !positive(c.Radius) {
			return fmt.Errorf("%w: circle radius %v", ErrInvalidConfig, c.Radius)
		}
	case ShapeSegment:
		if !finiteVec(c.A) || !finiteVec(c.B) || c.A.ApproxEqual(c.B) {
			return fmt.Errorf("%w: segment %v %v", ErrInvalidConfig, c.A, c.B)
		}
		if !nonNegative(c.Radius) {
			return fmt.Errorf("%w: segment radius %v", ErrInvalidConfig, c.Radius)
		}
	case ShapePolygon:
		if len(c.Vertices) < 3 {
			return fmt.Errorf("%w: polygon needs 3 vertices, got %d", ErrInvalidConfig, len(c.Vertices))
		}
		for _, v := range c.Vertices {
			if !finiteVec(v) {
				return fmt.Errorf("%w: non-finite polygon vertex", ErrInvalidConfig)
			}
		}
	default:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Shape)
	}
	if !nonNegative(c.Density, c.Friction, c.Restitution) {
		return fmt.Errorf("%w: material density %v friction %v restitution %v", ErrInvalidConfig, c.Density, c.Friction, c.Restitution)
	}
	return nil
}

func (c JointConfig) validate() error {
	if !finiteVec(c.AnchorA) || !finiteVec(c.AnchorB) {
		return fmt.Errorf("%w: joint anchors %v %v", ErrInvalidConfig, c.AnchorA, c.AnchorB)
	}
	switch c.Kind {
	case JointPivot, JointPin, JointWeld:
	case JointSlide:
		if !nonNegative(c.Min, c.Max) || c.Max < c.Min {
			return fmt.Errorf("%w: slide limits [%v, %v]", ErrInvalidConfig, c.Min, c.Max)
		}
	case JointGroove:
		if !finiteVec(c.GrooveA) || !finiteVec(c.GrooveB) || c.GrooveA.ApproxEqual(c.GrooveB) {
			return fmt.Errorf("%w: groove %v %v", ErrInvalidConfig, c.GrooveA, c.GrooveB)
		}
	case JointSpring:
		if !nonNegative(c.RestLength, c.Damping) || !positive(c.Stiffness) {
			return fmt.Errorf("%w: spring rest %v stiffness %v damping %v", ErrInvalidConfig, c.RestLength, c.Stiffness, c.Damping)
		}
	default:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Kind)
	}
	if c.AngularLimits.Enabled {
		lim := c.AngularLimits
		if !finite(lim.Min) || !finite(lim.Max) || lim.Max < lim.Min {
			return fmt.Errorf("%w: angular limits [%v, %v]", ErrInvalidConfig, lim.Min, lim.Max)
		}
	}
	if c.Motor.Enabled && !finite(c.Motor.Rate) {
		return fmt.Errorf("%w: motor rate %v", ErrInvalidConfig, c.Motor.Rate)
	}
	if !nonNegative(c.MaxForce, c.Motor.MaxForce) {
		return fmt.Errorf("%w: max force %v motor %v", ErrInvalidConfig, c.MaxForce, c.Motor.MaxForce)
	}
	return nil
}

// positive reports whether every value is finite and greater than zero.
func positive(fs ...float64) bool {
	for _, f := range fs {
		if !(f > 0) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// nonNegative reports whether every value is finite and at least zero.
func nonNegative(fs ...float64) bool {
	for _, f := range fs {
		if !(f >= 0) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v mgl64.Vec2) bool {
	return finite(v.X()) && finite(v.Y())
}
