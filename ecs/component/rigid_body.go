package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/physics"
)

// RigidBody asks the physics system for a rigid body. The embedded
// BodyConfig is read once when the body is created and is never written by
// the physics system. State is rewritten after every physics frame.
type RigidBody struct {
	physics.BodyConfig

	State physics.BodyState
	// Synced is set once State holds values read back from the engine.
	Synced bool
}

func NewDynamicBody(x, y float64) *RigidBody {
	return newBody(physics.BodyDynamic, x, y)
}

func NewStaticBody(x, y float64) *RigidBody {
	return newBody(physics.BodyStatic, x, y)
}

func NewKinematicBody(x, y float64) *RigidBody {
	return newBody(physics.BodyKinematic, x, y)
}

func newBody(kind physics.BodyKind, x, y float64) *RigidBody {
	return &RigidBody{BodyConfig: physics.BodyConfig{
		Kind:         kind,
		Position:     mgl64.Vec2{x, y},
		GravityScale: 1,
	}}
}

var RigidBodyComponent = NewComponent[RigidBody]()
