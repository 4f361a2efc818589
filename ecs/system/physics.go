package system

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/physics"
)

type Config struct {
	FixedStep time.Duration
	// MaxStepsPerCall bounds catch-up after a stall.
	MaxStepsPerCall int
	// MaxCarry caps the time carried to the next frame. Zero means three
	// fixed steps.
	MaxCarry           time.Duration
	TimeDependentSteps bool
	Paused             bool
	Gravity            mgl64.Vec2
}

func DefaultConfig() Config {
	return Config{
		FixedStep:          time.Second / 60,
		MaxStepsPerCall:    8,
		TimeDependentSteps: true,
		Gravity:            mgl64.Vec2{0, -9.81},
	}
}

func (c Config) accumulator() Accumulator {
	step := c.FixedStep
	if step <= 0 {
		step = DefaultConfig().FixedStep
	}
	carry := c.MaxCarry
	if carry <= 0 {
		carry = 3 * step
	}
	return Accumulator{Step: step, MaxSteps: c.MaxStepsPerCall, MaxCarry: carry}
}

// FrameReport summarizes one Tick.
type FrameReport struct {
	Created  SyncReport
	Removed  SyncReport
	Steps    int
	Alpha    float64
	Contacts int
	Errors   []SyncError
}

type RayHit struct {
	// Collider is the entity carrying the hit Collider descriptor and Body
	// the entity whose rigid body it is attached to.
	Collider ecs.Entity
	Body     ecs.Entity
	Point    mgl64.Vec2
	Normal   mgl64.Vec2
	Fraction float64
}

type syncKey struct {
	entity ecs.Entity
	phase  string
}

// PhysicsSystem keeps an Engine in step with the RigidBody, Collider and
// Joint descriptors of a world. Each frame runs body/collider creation,
// joint creation, stepping and teardown, in that order.
type PhysicsSystem struct {
	engine   physics.Engine
	cfg      Config
	registry *HandleRegistry

	create   *BodyColliderSync
	joints   *JointSync
	step     *WorldStep
	teardown *TeardownSync

	failing map[syncKey]string
	last    FrameReport
}

func NewPhysicsSystem(engine physics.Engine, cfg Config) *PhysicsSystem {
	if engine == nil {
		panic("physics system: nil engine")
	}
	registry := NewHandleRegistry()
	ps := &PhysicsSystem{
		engine:   engine,
		registry: registry,
		create:   NewBodyColliderSync(engine, registry),
		joints:   NewJointSync(engine, registry),
		step:     NewWorldStep(engine, registry, cfg.accumulator()),
		teardown: NewTeardownSync(engine, registry),
		failing:  make(map[syncKey]string),
	}
	ps.ApplyConfig(cfg)
	return ps
}

// Update runs one frame of FixedStep length.
func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.Tick(w, ps.cfg.FixedStep)
}

// Tick runs one frame with a variable delta.
func (ps *PhysicsSystem) Tick(w *ecs.World, delta time.Duration) FrameReport {
	var report FrameReport
	if ps == nil || w == nil {
		return report
	}

	report.Created = ps.create.Run(w)
	report.Created.merge(ps.joints.Run(w))

	st := ps.step.Run(w, delta)
	report.Steps = st.Steps
	report.Alpha = st.Alpha
	report.Contacts = st.Contacts

	report.Removed = ps.teardown.Run(w)
	ps.joints.prune(w)

	report.Errors = append(report.Errors, report.Created.Errors...)
	report.Errors = append(report.Errors, st.Errors...)
	ps.logErrors(report.Errors)
	ps.last = report
	return report
}

// logErrors logs each failure once until it goes away or changes.
func (ps *PhysicsSystem) logErrors(errs []SyncError) {
	next := make(map[syncKey]string, len(errs))
	for _, err := range errs {
		key := syncKey{entity: err.Entity, phase: err.Phase}
		msg := err.Error()
		next[key] = msg
		if ps.failing[key] != msg {
			log.Print(msg)
		}
	}
	ps.failing = next
}

// ApplyConfig retunes stepping and gravity. Time already accumulated is
// kept.
func (ps *PhysicsSystem) ApplyConfig(cfg Config) {
	if cfg.FixedStep <= 0 {
		cfg.FixedStep = DefaultConfig().FixedStep
	}
	ps.cfg = cfg
	acc := cfg.accumulator()
	ps.step.Accumulator.Step = acc.Step
	ps.step.Accumulator.MaxSteps = acc.MaxSteps
	ps.step.Accumulator.MaxCarry = acc.MaxCarry
	ps.step.TimeDependent = cfg.TimeDependentSteps
	ps.step.Paused = cfg.Paused
	ps.engine.SetGravity(cfg.Gravity)
}

func (ps *PhysicsSystem) Config() Config {
	return ps.cfg
}

func (ps *PhysicsSystem) SetPaused(paused bool) {
	ps.cfg.Paused = paused
	ps.step.Paused = paused
}

// Registry returns a read-only view of the entity to handle mapping.
func (ps *PhysicsSystem) Registry() RegistryView {
	return RegistryView{r: ps.registry}
}

func (ps *PhysicsSystem) Engine() physics.Engine {
	return ps.engine
}

func (ps *PhysicsSystem) JointState(e ecs.Entity) JointState {
	return ps.joints.State(e)
}

// LastReport returns the report of the most recent Tick.
func (ps *PhysicsSystem) LastReport() FrameReport {
	return ps.last
}

// Alpha is the interpolation fraction left after the last Tick.
func (ps *PhysicsSystem) Alpha() float64 {
	return ps.step.Accumulator.Alpha()
}

// Raycast returns the first collider hit on the segment from-to.
func (ps *PhysicsSystem) Raycast(w *ecs.World, from, to mgl64.Vec2) (RayHit, bool) {
	hit, ok := ps.engine.Raycast(from, to)
	if !ok {
		return RayHit{}, false
	}
	owner, ok := ps.registry.Colliders.Owner(hit.Collider)
	if !ok || !ecs.IsAlive(w, owner) {
		return RayHit{}, false
	}
	body, _ := ps.registry.ColliderBody(owner)
	return RayHit{
		Collider: owner,
		Body:     body,
		Point:    hit.Point,
		Normal:   hit.Normal,
		Fraction: hit.Fraction,
	}, true
}

// SetPairFilter vetoes new contacts between colliders whose entities fn
// rejects. nil accepts every pair.
func (ps *PhysicsSystem) SetPairFilter(fn func(a, b ecs.Entity) bool) {
	if fn == nil {
		ps.engine.SetPairFilter(nil)
		return
	}
	ps.engine.SetPairFilter(func(a, b physics.ColliderHandle) bool {
		ea, okA := ps.registry.Colliders.Owner(a)
		eb, okB := ps.registry.Colliders.Owner(b)
		if !okA || !okB {
			return true
		}
		return fn(ea, eb)
	})
}
