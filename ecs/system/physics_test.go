package system

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/physics"
)

const testStep = 10 * time.Millisecond

func newTestSpace(t *testing.T) *physics.Space {
	t.Helper()
	space, err := physics.NewSpace(physics.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	return space
}

func testConfig(gravity mgl64.Vec2) Config {
	cfg := DefaultConfig()
	cfg.FixedStep = testStep
	cfg.Gravity = gravity
	return cfg
}

func newTestSystem(t *testing.T, gravity mgl64.Vec2) *PhysicsSystem {
	t.Helper()
	return NewPhysicsSystem(newTestSpace(t), testConfig(gravity))
}

func mustAdd[T any](t *testing.T, w *ecs.World, e ecs.Entity, h component.ComponentHandle[T], v *T) {
	t.Helper()
	if err := ecs.Add(w, e, h.Kind(), v); err != nil {
		t.Fatalf("add component: %v", err)
	}
}

func spawnBody(t *testing.T, w *ecs.World, rb *component.RigidBody, col *component.Collider) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	mustAdd(t, w, e, component.RigidBodyComponent, rb)
	if col != nil {
		mustAdd(t, w, e, component.ColliderComponent, col)
	}
	return e
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// faultyEngine fails selected create calls and passes everything else to
// the embedded engine.
type faultyEngine struct {
	physics.Engine
	failBody     func(physics.BodyConfig) error
	failCollider func(physics.ColliderConfig) error
	failJoint    func(physics.JointConfig) error
}

func (f *faultyEngine) CreateBody(cfg physics.BodyConfig) (physics.BodyHandle, error) {
	if f.failBody != nil {
		if err := f.failBody(cfg); err != nil {
			return 0, err
		}
	}
	return f.Engine.CreateBody(cfg)
}

func (f *faultyEngine) CreateCollider(b physics.BodyHandle, cfg physics.ColliderConfig) (physics.ColliderHandle, error) {
	if f.failCollider != nil {
		if err := f.failCollider(cfg); err != nil {
			return 0, err
		}
	}
	return f.Engine.CreateCollider(b, cfg)
}

func (f *faultyEngine) CreateJoint(a, b physics.BodyHandle, cfg physics.JointConfig) (physics.JointHandle, error) {
	if f.failJoint != nil {
		if err := f.failJoint(cfg); err != nil {
			return 0, err
		}
	}
	return f.Engine.CreateJoint(a, b, cfg)
}

func TestAccumulator(t *testing.T) {
	cases := []struct {
		name      string
		deltas    []time.Duration
		wantSteps int
		wantLeft  time.Duration
	}{
		{"two_and_a_half_steps", []time.Duration{25 * time.Millisecond}, 2, 5 * time.Millisecond},
		{"zero_delta", []time.Duration{0}, 0, 0},
		{"negative_delta", []time.Duration{-time.Second}, 0, 0},
		{"carry_across_calls", []time.Duration{6 * time.Millisecond, 6 * time.Millisecond}, 1, 2 * time.Millisecond},
		{"ceiling_keeps_capped_carry", []time.Duration{100 * time.Millisecond}, 8, 20 * time.Millisecond},
		{"stall_drops_excess", []time.Duration{time.Second}, 8, 30 * time.Millisecond},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			acc := Accumulator{Step: testStep, MaxSteps: 8, MaxCarry: 3 * testStep}
			total := 0
			for _, d := range c.deltas {
				n, _ := acc.Advance(d)
				total += n
			}
			if total != c.wantSteps {
				t.Fatalf("expected %d steps, got %d", c.wantSteps, total)
			}
			if acc.Pending() != c.wantLeft {
				t.Fatalf("expected %s left, got %s", c.wantLeft, acc.Pending())
			}
		})
	}

	acc := Accumulator{Step: testStep}
	if _, alpha := acc.Advance(25 * time.Millisecond); !near(alpha, 0.5, 1e-12) {
		t.Fatalf("expected alpha 0.5, got %v", alpha)
	}
	before := acc.Pending()
	acc.Advance(0)
	if acc.Pending() != before {
		t.Fatalf("zero delta changed the accumulator")
	}
}

func TestBodyCreationIsIdempotent(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{})
	e := spawnBody(t, w, component.NewDynamicBody(0, 0), component.NewBoxCollider(0.5, 0.5))

	report := ps.Tick(w, testStep)
	if report.Created.Bodies != 1 || report.Created.Colliders != 1 {
		t.Fatalf("unexpected create report %+v", report.Created)
	}
	h, ok := ps.Registry().LookupBody(e)
	if !ok {
		t.Fatalf("body not registered")
	}

	report = ps.Tick(w, testStep)
	if report.Created.Bodies != 0 || report.Created.Colliders != 0 {
		t.Fatalf("second pass created objects: %+v", report.Created)
	}
	if h2, _ := ps.Registry().LookupBody(e); h2 != h {
		t.Fatalf("handle changed from %d to %d", h, h2)
	}
	if stats := ps.Engine().Stats(); stats.Bodies != 1 || stats.Colliders != 1 {
		t.Fatalf("engine holds %+v", stats)
	}
}

func TestColliderAttachment(t *testing.T) {
	t.Run("waits_for_body", func(t *testing.T) {
		w := ecs.NewWorld()
		ps := newTestSystem(t, mgl64.Vec2{})
		body := ecs.CreateEntity(w)
		col := ecs.CreateEntity(w)
		c := component.NewBoxCollider(1, 1)
		c.Body = uint64(body)
		mustAdd(t, w, col, component.ColliderComponent, c)

		report := ps.Tick(w, testStep)
		if len(report.Errors) != 0 {
			t.Fatalf("orphan collider should not be an error: %v", report.Errors)
		}
		if _, ok := ps.Registry().LookupCollider(col); ok {
			t.Fatalf("collider registered without a body")
		}

		mustAdd(t, w, body, component.RigidBodyComponent, component.NewDynamicBody(0, 0))
		ps.Tick(w, testStep)
		if _, ok := ps.Registry().LookupCollider(col); !ok {
			t.Fatalf("collider not created once the body exists")
		}
		if owner, _ := ps.Registry().ColliderBody(col); owner != body {
			t.Fatalf("collider attached to %s, want %s", owner, body)
		}
	})

	t.Run("same_pass_regardless_of_entity_order", func(t *testing.T) {
		w := ecs.NewWorld()
		ps := newTestSystem(t, mgl64.Vec2{})
		col := ecs.CreateEntity(w)
		body := spawnBody(t, w, component.NewDynamicBody(0, 0), nil)
		c := component.NewCircleCollider(0.5)
		c.Body = uint64(body)
		mustAdd(t, w, col, component.ColliderComponent, c)

		report := ps.Tick(w, testStep)
		if report.Created.Bodies != 1 || report.Created.Colliders != 1 {
			t.Fatalf("expected body and collider in one pass, got %+v", report.Created)
		}
	})

	t.Run("several_colliders_one_body", func(t *testing.T) {
		w := ecs.NewWorld()
		ps := newTestSystem(t, mgl64.Vec2{})
		body := spawnBody(t, w, component.NewDynamicBody(0, 0), component.NewBoxCollider(1, 1))
		for i := 0; i < 3; i++ {
			c := component.NewCircleCollider(0.25)
			c.Offset = mgl64.Vec2{float64(i), 1}
			c.Body = uint64(body)
			mustAdd(t, w, ecs.CreateEntity(w), component.ColliderComponent, c)
		}
		ps.Tick(w, testStep)
		if got := ps.Registry().Colliders(); got != 4 {
			t.Fatalf("expected 4 colliders, got %d", got)
		}
	})
}

func TestCreationFailureIsIsolated(t *testing.T) {
	w := ecs.NewWorld()
	engine := &faultyEngine{
		Engine: newTestSpace(t),
		failBody: func(cfg physics.BodyConfig) error {
			if cfg.Mass == 13 {
				return physics.ErrCapacity
			}
			return nil
		},
	}
	ps := NewPhysicsSystem(engine, testConfig(mgl64.Vec2{}))

	bad := component.NewDynamicBody(0, 0)
	bad.Mass = 13
	badEnt := spawnBody(t, w, bad, component.NewBoxCollider(1, 1))
	goodEnt := spawnBody(t, w, component.NewDynamicBody(5, 0), component.NewBoxCollider(1, 1))
	malformed := component.NewBoxCollider(0, 1)
	malformedEnt := spawnBody(t, w, component.NewStaticBody(10, 0), malformed)

	report := ps.Tick(w, testStep)
	if len(report.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", report.Errors)
	}
	byEntity := map[ecs.Entity]SyncError{}
	for _, err := range report.Errors {
		byEntity[err.Entity] = err
	}
	if err, ok := byEntity[badEnt]; !ok || !errors.Is(err, physics.ErrCapacity) || err.Phase != PhaseCreateBody {
		t.Fatalf("expected capacity failure for %s, got %+v", badEnt, err)
	}
	if err, ok := byEntity[malformedEnt]; !ok || !errors.Is(err, physics.ErrInvalidConfig) || err.Phase != PhaseCreateCollider {
		t.Fatalf("expected invalid collider for %s, got %+v", malformedEnt, err)
	}
	if _, ok := ps.Registry().LookupBody(badEnt); ok {
		t.Fatalf("failed body was registered")
	}
	if _, ok := ps.Registry().LookupCollider(goodEnt); !ok {
		t.Fatalf("healthy entity was not created")
	}

	bad.Mass = 0
	ps.Tick(w, testStep)
	if _, ok := ps.Registry().LookupBody(badEnt); !ok {
		t.Fatalf("corrected body was not retried")
	}
}

func TestWriteBackRoundTrip(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{})
	rb := component.NewDynamicBody(0, 0)
	rb.LinearVelocity = mgl64.Vec2{1, 0}
	rb.GravityScale = 0
	spawnBody(t, w, rb, component.NewBoxCollider(0.5, 0.5))

	if rb.Synced {
		t.Fatalf("state synced before any frame")
	}
	report := ps.Tick(w, testStep)
	if report.Steps != 1 {
		t.Fatalf("expected one step, got %d", report.Steps)
	}
	if !rb.Synced {
		t.Fatalf("state not written back")
	}
	if !near(rb.State.Position.X(), 0.01, 1e-9) || !near(rb.State.Position.Y(), 0, 1e-9) {
		t.Fatalf("unexpected position %v", rb.State.Position)
	}
	if !near(rb.State.LinearVelocity.X(), 1, 1e-9) {
		t.Fatalf("unexpected velocity %v", rb.State.LinearVelocity)
	}
	if rb.Position != (mgl64.Vec2{}) || rb.LinearVelocity != (mgl64.Vec2{1, 0}) {
		t.Fatalf("configuration was rewritten: %+v", rb.BodyConfig)
	}
}

func TestZeroGravityScaleHoldsPose(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{0, -9.81})
	rb := component.NewDynamicBody(2, 3)
	rb.Angle = 0.25
	rb.GravityScale = 0
	spawnBody(t, w, rb, component.NewBoxCollider(0.5, 0.5))

	for i := 0; i < 200; i++ {
		ps.Tick(w, testStep)
	}
	if !rb.Synced {
		t.Fatalf("state not written back")
	}
	st := rb.State
	if !near(st.Position.X(), 2, 1e-9) || !near(st.Position.Y(), 3, 1e-9) || !near(st.Angle, 0.25, 1e-9) {
		t.Fatalf("body without gravity drifted to %v angle %v", st.Position, st.Angle)
	}
	if st.LinearVelocity.Len() > 1e-9 {
		t.Fatalf("unexpected velocity %v", st.LinearVelocity)
	}
}

func TestNonFiniteDescriptorsRejected(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{0, -9.81})

	nanBody := component.NewDynamicBody(math.NaN(), 0)
	bodyEnt := spawnBody(t, w, nanBody, nil)
	nanCollider := component.NewCircleCollider(math.NaN())
	colEnt := spawnBody(t, w, component.NewDynamicBody(0, 0), nanCollider)

	report := ps.Tick(w, testStep)
	if len(report.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", report.Errors)
	}
	for _, err := range report.Errors {
		if !errors.Is(err, physics.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
		switch err.Entity {
		case bodyEnt:
			if err.Phase != PhaseCreateBody {
				t.Fatalf("body error in phase %v", err.Phase)
			}
		case colEnt:
			if err.Phase != PhaseCreateCollider {
				t.Fatalf("collider error in phase %v", err.Phase)
			}
		default:
			t.Fatalf("error for unexpected entity %s", err.Entity)
		}
	}
	if _, ok := ps.Registry().LookupBody(bodyEnt); ok {
		t.Fatalf("body with a NaN position was registered")
	}
	if _, ok := ps.Registry().LookupCollider(colEnt); ok {
		t.Fatalf("collider with a NaN radius was registered")
	}
	if nanBody.Synced {
		t.Fatalf("rejected body received state %+v", nanBody.State)
	}
}

func TestWriteBackIsTotal(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{})
	rb := component.NewStaticBody(3, 4)
	spawnBody(t, w, rb, component.NewBoxCollider(1, 1))
	ps.Tick(w, testStep)

	rb.State = physics.BodyState{}
	ps.Tick(w, 0)
	if rb.State.Position != (mgl64.Vec2{3, 4}) {
		t.Fatalf("idle body was not refreshed: %v", rb.State.Position)
	}
}

func TestStepModes(t *testing.T) {
	cases := []struct {
		name      string
		configure func(c *Config)
		delta     time.Duration
		wantSteps uint64
	}{
		{"time_dependent", func(c *Config) {}, 25 * time.Millisecond, 2},
		{"one_step_per_call", func(c *Config) { c.TimeDependentSteps = false }, 0, 1},
		{"paused", func(c *Config) { c.Paused = true }, time.Second, 0},
		{"catch_up_ceiling", func(c *Config) { c.MaxStepsPerCall = 3 }, time.Second, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := ecs.NewWorld()
			cfg := testConfig(mgl64.Vec2{0, -10})
			c.configure(&cfg)
			ps := NewPhysicsSystem(newTestSpace(t), cfg)
			rb := component.NewDynamicBody(0, 0)
			spawnBody(t, w, rb, component.NewBoxCollider(0.5, 0.5))

			ps.Tick(w, c.delta)
			if got := ps.Engine().Stats().Steps; got != c.wantSteps {
				t.Fatalf("expected %d steps, got %d", c.wantSteps, got)
			}
			if !rb.Synced {
				t.Fatalf("write-back skipped")
			}
			if c.wantSteps == 0 && rb.State.Position != (mgl64.Vec2{}) {
				t.Fatalf("paused body moved to %v", rb.State.Position)
			}
		})
	}
}

func TestRequestsAreConsumedOnce(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{})
	rb := component.NewDynamicBody(0, 0)
	e := spawnBody(t, w, rb, component.NewBoxCollider(0.5, 0.5))
	mustAdd(t, w, e, component.ImpulseRequestComponent, &component.ImpulseRequest{Linear: mgl64.Vec2{2, 0}})

	ps.Tick(w, testStep)
	if ecs.Has(w, e, component.ImpulseRequestComponent.Kind()) {
		t.Fatalf("impulse request not removed")
	}
	if !near(rb.State.LinearVelocity.X(), 2, 1e-9) {
		t.Fatalf("expected vx 2 for a unit mass, got %v", rb.State.LinearVelocity)
	}
	ps.Tick(w, testStep)
	if !near(rb.State.LinearVelocity.X(), 2, 1e-9) {
		t.Fatalf("impulse applied twice: %v", rb.State.LinearVelocity)
	}

	mustAdd(t, w, e, component.VelocityRequestComponent, &component.VelocityRequest{Linear: mgl64.Vec2{0, 3}})
	ps.Tick(w, testStep)
	if ecs.Has(w, e, component.VelocityRequestComponent.Kind()) {
		t.Fatalf("velocity request not removed")
	}
	if !near(rb.State.LinearVelocity.X(), 0, 1e-9) || !near(rb.State.LinearVelocity.Y(), 3, 1e-9) {
		t.Fatalf("velocity not overwritten: %v", rb.State.LinearVelocity)
	}

	stray := ecs.CreateEntity(w)
	mustAdd(t, w, stray, component.ImpulseRequestComponent, &component.ImpulseRequest{Linear: mgl64.Vec2{1, 0}})
	ps.Tick(w, testStep)
	if ecs.Has(w, stray, component.ImpulseRequestComponent.Kind()) {
		t.Fatalf("request without a body should be dropped")
	}
}

func TestInterpolationRecordsPreviousPose(t *testing.T) {
	w := ecs.NewWorld()
	ps := newTestSystem(t, mgl64.Vec2{})
	rb := component.NewDynamicBody(0, 0)
	rb.LinearVelocity = mgl64.Vec2{1, 0}
	e := spawnBody(t, w, rb, component.NewBoxCollider(0.5, 0.5))
	interp := &component.Interpolation{}
	mustAdd(t, w, e, component.InterpolationComponent, interp)

	report := ps.Tick(w, 35*time.Millisecond)
	if report.Steps != 3 || !near(report.Alpha, 0.5, 1e-9) {
		t.Fatalf("unexpected steps %d alpha %v", report.Steps, report.Alpha)
	}
	if !interp.Valid || !near(interp.Previous.Position.X(), 0.02, 1e-9) {
		t.Fatalf("unexpected previous pose %+v", interp)
	}
	blended := interp.Blend(rb.State.Pose(), report.Alpha)
	if !near(blended.Position.X(), 0.025, 1e-9) {
		t.Fatalf("unexpected blend %v", blended.Position)
	}
}
