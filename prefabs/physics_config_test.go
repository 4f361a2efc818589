package prefabs

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs/system"
	"github.com/milk9111/cpsync/physics"
)

func TestPhysicsConfigDefaults(t *testing.T) {
	var spec PhysicsConfigSpec
	if got, want := spec.SystemConfig(), system.DefaultConfig(); got != want {
		t.Fatalf("system config %+v, want %+v", got, want)
	}
	if got, want := spec.EngineConfig(), physics.DefaultConfig(); got != want {
		t.Fatalf("engine config %+v, want %+v", got, want)
	}
}

func TestPhysicsConfigOverrides(t *testing.T) {
	off := false
	zero := 0.0
	damping := 0.5
	spec := PhysicsConfigSpec{
		FixedStepHz:        100,
		MaxStepsPerCall:    2,
		MaxCarry:           30 * time.Millisecond,
		TimeDependentSteps: &off,
		Paused:             true,
		GravityY:           &zero,
		Iterations:         20,
		Damping:            &damping,
		MaxBodies:          64,
	}

	sys := spec.SystemConfig()
	if sys.FixedStep != 10*time.Millisecond || sys.MaxStepsPerCall != 2 || sys.MaxCarry != 30*time.Millisecond {
		t.Fatalf("unexpected stepping config %+v", sys)
	}
	if sys.TimeDependentSteps || !sys.Paused || sys.Gravity != (mgl64.Vec2{}) {
		t.Fatalf("unexpected flags %+v", sys)
	}

	eng := spec.EngineConfig()
	if eng.Iterations != 20 || eng.Damping != 0.5 || eng.MaxBodies != 64 || eng.Gravity != (mgl64.Vec2{}) {
		t.Fatalf("unexpected engine config %+v", eng)
	}
}

func TestLoadPhysicsConfig(t *testing.T) {
	spec, err := LoadPhysicsConfig("physics.yaml")
	if err != nil {
		t.Fatalf("LoadPhysicsConfig: %v", err)
	}
	sys := spec.SystemConfig()
	if sys.MaxCarry != 50*time.Millisecond || sys.MaxStepsPerCall != 8 {
		t.Fatalf("unexpected config %+v", sys)
	}
	if sys.Gravity != (mgl64.Vec2{0, -9.81}) {
		t.Fatalf("unexpected gravity %v", sys.Gravity)
	}

	bad := PhysicsConfigSpec{MaxStepsPerCall: -1}
	if bad.validate() == nil {
		t.Fatalf("negative max steps should be rejected")
	}
}
