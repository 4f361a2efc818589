package prefabs

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/physics"
)

type RigidBodyComponentSpec struct {
	Kind            string   `yaml:"kind"`
	X               float64  `yaml:"x"`
	Y               float64  `yaml:"y"`
	Angle           float64  `yaml:"angle"`
	VX              float64  `yaml:"vx"`
	VY              float64  `yaml:"vy"`
	AngularVelocity float64  `yaml:"angular_velocity"`
	LinearDamping   float64  `yaml:"linear_damping"`
	AngularDamping  float64  `yaml:"angular_damping"`
	GravityScale    *float64 `yaml:"gravity_scale"`
	Mass            float64  `yaml:"mass"`
	LockRotation    bool     `yaml:"lock_rotation"`
	LockTranslation bool     `yaml:"lock_translation"`
}

func (s RigidBodyComponentSpec) BodyConfig() (physics.BodyConfig, error) {
	kind, err := physics.ParseBodyKind(s.Kind)
	if err != nil {
		return physics.BodyConfig{}, err
	}
	gravity := 1.0
	if s.GravityScale != nil {
		gravity = *s.GravityScale
	}
	return physics.BodyConfig{
		Kind:            kind,
		Position:        mgl64.Vec2{s.X, s.Y},
		Angle:           s.Angle,
		LinearVelocity:  mgl64.Vec2{s.VX, s.VY},
		AngularVelocity: s.AngularVelocity,
		LinearDamping:   s.LinearDamping,
		AngularDamping:  s.AngularDamping,
		GravityScale:    gravity,
		Mass:            s.Mass,
		LockRotation:    s.LockRotation,
		LockTranslation: s.LockTranslation,
	}, nil
}

// ColliderComponentSpec describes a collider. Body names the entity whose
// rigid body it attaches to; empty means the entity itself.
type ColliderComponentSpec struct {
	Shape       string       `yaml:"shape"`
	Body        string       `yaml:"body"`
	HalfWidth   float64      `yaml:"half_width"`
	HalfHeight  float64      `yaml:"half_height"`
	Radius      float64      `yaml:"radius"`
	AX          float64      `yaml:"ax"`
	AY          float64      `yaml:"ay"`
	BX          float64      `yaml:"bx"`
	BY          float64      `yaml:"by"`
	Vertices    [][2]float64 `yaml:"vertices"`
	OffsetX     float64      `yaml:"offset_x"`
	OffsetY     float64      `yaml:"offset_y"`
	Density     *float64     `yaml:"density"`
	Friction    *float64     `yaml:"friction"`
	Restitution float64      `yaml:"restitution"`
	Sensor      bool         `yaml:"sensor"`
	Group       uint         `yaml:"group"`
	Categories  uint         `yaml:"categories"`
	Mask        uint         `yaml:"mask"`
}

func (s ColliderComponentSpec) ColliderConfig() (physics.ColliderConfig, error) {
	shape, err := physics.ParseShapeKind(s.Shape)
	if err != nil {
		return physics.ColliderConfig{}, err
	}
	density, friction := 1.0, 0.7
	if s.Density != nil {
		density = *s.Density
	}
	if s.Friction != nil {
		friction = *s.Friction
	}
	cfg := physics.ColliderConfig{
		Shape:       shape,
		HalfExtents: mgl64.Vec2{s.HalfWidth, s.HalfHeight},
		Radius:      s.Radius,
		A:           mgl64.Vec2{s.AX, s.AY},
		B:           mgl64.Vec2{s.BX, s.BY},
		Offset:      mgl64.Vec2{s.OffsetX, s.OffsetY},
		Density:     density,
		Friction:    friction,
		Restitution: s.Restitution,
		Sensor:      s.Sensor,
		Group:       s.Group,
		Categories:  s.Categories,
		Mask:        s.Mask,
	}
	for _, v := range s.Vertices {
		cfg.Vertices = append(cfg.Vertices, mgl64.Vec2{v[0], v[1]})
	}
	return cfg, nil
}

type LimitSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type MotorSpec struct {
	Rate     float64 `yaml:"rate"`
	MaxForce float64 `yaml:"max_force"`
}

type JointComponentSpec struct {
	Kind             string     `yaml:"kind"`
	BodyA            string     `yaml:"body_a"`
	BodyB            string     `yaml:"body_b"`
	AnchorAX         float64    `yaml:"anchor_a_x"`
	AnchorAY         float64    `yaml:"anchor_a_y"`
	AnchorBX         float64    `yaml:"anchor_b_x"`
	AnchorBY         float64    `yaml:"anchor_b_y"`
	GrooveAX         float64    `yaml:"groove_a_x"`
	GrooveAY         float64    `yaml:"groove_a_y"`
	GrooveBX         float64    `yaml:"groove_b_x"`
	GrooveBY         float64    `yaml:"groove_b_y"`
	Min              float64    `yaml:"min"`
	Max              float64    `yaml:"max"`
	RestLength       float64    `yaml:"rest_length"`
	Stiffness        float64    `yaml:"stiffness"`
	Damping          float64    `yaml:"damping"`
	AngularLimits    *LimitSpec `yaml:"angular_limits"`
	Motor            *MotorSpec `yaml:"motor"`
	MaxForce         float64    `yaml:"max_force"`
	CollideConnected bool       `yaml:"collide_connected"`
}

func (s JointComponentSpec) JointConfig() (physics.JointConfig, error) {
	kind, err := physics.ParseJointKind(s.Kind)
	if err != nil {
		return physics.JointConfig{}, err
	}
	cfg := physics.JointConfig{
		Kind:             kind,
		AnchorA:          mgl64.Vec2{s.AnchorAX, s.AnchorAY},
		AnchorB:          mgl64.Vec2{s.AnchorBX, s.AnchorBY},
		GrooveA:          mgl64.Vec2{s.GrooveAX, s.GrooveAY},
		GrooveB:          mgl64.Vec2{s.GrooveBX, s.GrooveBY},
		Min:              s.Min,
		Max:              s.Max,
		RestLength:       s.RestLength,
		Stiffness:        s.Stiffness,
		Damping:          s.Damping,
		MaxForce:         s.MaxForce,
		CollideConnected: s.CollideConnected,
	}
	if s.AngularLimits != nil {
		cfg.AngularLimits = physics.AngularLimits{Enabled: true, Min: s.AngularLimits.Min, Max: s.AngularLimits.Max}
	}
	if s.Motor != nil {
		cfg.Motor = physics.Motor{Enabled: true, Rate: s.Motor.Rate, MaxForce: s.Motor.MaxForce}
	}
	return cfg, nil
}

type DespawnComponentSpec struct {
	After time.Duration `yaml:"after"`
}

func (s DespawnComponentSpec) Validate() error {
	if s.After <= 0 {
		return fmt.Errorf("despawn after %s must be positive", s.After)
	}
	return nil
}

type ImpulseComponentSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Torque float64 `yaml:"torque"`
}

// VelocityComponentSpec sets a body's velocities outright.
type VelocityComponentSpec struct {
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	AngularVelocity float64 `yaml:"angular_velocity"`
}
