package physics

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidConfig = errors.New("physics: invalid config")
	ErrCapacity      = errors.New("physics: capacity exhausted")
	ErrUnknownHandle = errors.New("physics: unknown handle")
	ErrBodyInUse     = errors.New("physics: body still has colliders or joints")
)

// Engine is the simulation the physics system drives. Create and remove
// calls are all-or-nothing: on error nothing was added or removed.
type Engine interface {
	CreateBody(cfg BodyConfig) (BodyHandle, error)
	// CreateCollider attaches a shape to an existing body.
	CreateCollider(body BodyHandle, cfg ColliderConfig) (ColliderHandle, error)
	CreateJoint(a, b BodyHandle, cfg JointConfig) (JointHandle, error)

	// RemoveBody fails with ErrBodyInUse while colliders or joints still
	// reference the body.
	RemoveBody(h BodyHandle) error
	RemoveCollider(h ColliderHandle) error
	RemoveJoint(h JointHandle) error

	Step(dt time.Duration)
	BodyState(h BodyHandle) (BodyState, error)

	ApplyImpulse(h BodyHandle, linear mgl64.Vec2, angular float64) error
	SetVelocity(h BodyHandle, linear mgl64.Vec2, angular float64) error
	SetGravity(g mgl64.Vec2)

	// RecordContacts toggles buffering of contact events. DrainContacts
	// returns and clears the buffer.
	RecordContacts(on bool)
	DrainContacts() []ContactEvent
	// SetPairFilter installs fn to veto new contacts. nil accepts all.
	SetPairFilter(fn PairFilter)

	Raycast(from, to mgl64.Vec2) (RayHit, bool)
	Stats() Stats
}

// PairFilter reports whether two colliders may touch.
type PairFilter func(a, b ColliderHandle) bool

type ContactEvent struct {
	Started bool
	A, B    ColliderHandle
	Sensor  bool
}

type RayHit struct {
	Collider ColliderHandle
	Point    mgl64.Vec2
	Normal   mgl64.Vec2
	// Fraction of the ray length at which the hit occurred.
	Fraction float64
}

type Stats struct {
	Bodies    int
	Colliders int
	Joints    int
	Steps     uint64
}
