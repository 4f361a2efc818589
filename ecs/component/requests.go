package component

import "github.com/go-gl/mathgl/mgl64"

// ImpulseRequest is consumed by the physics step: the impulse is applied at
// the body's centre before the next fixed step and the request is removed.
type ImpulseRequest struct {
	Linear  mgl64.Vec2
	Angular float64
}

var ImpulseRequestComponent = NewComponent[ImpulseRequest]()

// VelocityRequest overwrites the body's velocities before the next fixed step.
type VelocityRequest struct {
	Linear  mgl64.Vec2
	Angular float64
}

var VelocityRequestComponent = NewComponent[VelocityRequest]()
