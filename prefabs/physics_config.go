package prefabs

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs/system"
	"github.com/milk9111/cpsync/physics"
)

// PhysicsConfigSpec is the on-disk form of the physics settings. Unset
// fields keep the defaults of system.DefaultConfig and physics.DefaultConfig.
type PhysicsConfigSpec struct {
	FixedStepHz        float64       `yaml:"fixed_step_hz"`
	MaxStepsPerCall    int           `yaml:"max_steps_per_call"`
	MaxCarry           time.Duration `yaml:"max_carry"`
	TimeDependentSteps *bool         `yaml:"time_dependent_steps"`
	Paused             bool          `yaml:"paused"`
	GravityX           *float64      `yaml:"gravity_x"`
	GravityY           *float64      `yaml:"gravity_y"`
	Iterations         int           `yaml:"iterations"`
	Damping            *float64      `yaml:"damping"`
	MaxBodies          int           `yaml:"max_bodies"`
	MaxColliders       int           `yaml:"max_colliders"`
	MaxJoints          int           `yaml:"max_joints"`
}

func LoadPhysicsConfig(filename string) (PhysicsConfigSpec, error) {
	spec, err := LoadSpec[PhysicsConfigSpec](filename)
	if err != nil {
		return spec, err
	}
	if err := spec.validate(); err != nil {
		return spec, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

func (s PhysicsConfigSpec) validate() error {
	switch {
	case s.FixedStepHz < 0:
		return fmt.Errorf("fixed_step_hz %v must not be negative", s.FixedStepHz)
	case s.MaxStepsPerCall < 0:
		return fmt.Errorf("max_steps_per_call %d must not be negative", s.MaxStepsPerCall)
	case s.MaxCarry < 0:
		return fmt.Errorf("max_carry %s must not be negative", s.MaxCarry)
	}
	return nil
}

func (s PhysicsConfigSpec) gravity(def mgl64.Vec2) mgl64.Vec2 {
	g := def
	if s.GravityX != nil {
		g[0] = *s.GravityX
	}
	if s.GravityY != nil {
		g[1] = *s.GravityY
	}
	return g
}

func (s PhysicsConfigSpec) SystemConfig() system.Config {
	cfg := system.DefaultConfig()
	if s.FixedStepHz > 0 {
		cfg.FixedStep = time.Duration(float64(time.Second) / s.FixedStepHz)
	}
	if s.MaxStepsPerCall > 0 {
		cfg.MaxStepsPerCall = s.MaxStepsPerCall
	}
	cfg.MaxCarry = s.MaxCarry
	if s.TimeDependentSteps != nil {
		cfg.TimeDependentSteps = *s.TimeDependentSteps
	}
	cfg.Paused = s.Paused
	cfg.Gravity = s.gravity(cfg.Gravity)
	return cfg
}

func (s PhysicsConfigSpec) EngineConfig() physics.Config {
	cfg := physics.DefaultConfig()
	cfg.Gravity = s.gravity(cfg.Gravity)
	if s.Iterations > 0 {
		cfg.Iterations = s.Iterations
	}
	if s.Damping != nil {
		cfg.Damping = *s.Damping
	}
	cfg.MaxBodies = s.MaxBodies
	cfg.MaxColliders = s.MaxColliders
	cfg.MaxJoints = s.MaxJoints
	return cfg
}
