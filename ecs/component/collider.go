package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/physics"
)

// Collider asks the physics system for a collision shape. Body names the
// entity whose rigid body the shape attaches to; 0 means the collider's own
// entity. Several collider entities may name the same body.
type Collider struct {
	physics.ColliderConfig

	Body uint64 // ecs.Entity
}

func NewBoxCollider(halfW, halfH float64) *Collider {
	return &Collider{ColliderConfig: physics.ColliderConfig{
		Shape:       physics.ShapeBox,
		HalfExtents: mgl64.Vec2{halfW, halfH},
		Density:     1,
		Friction:    0.7,
	}}
}

func NewCircleCollider(radius float64) *Collider {
	return &Collider{ColliderConfig: physics.ColliderConfig{
		Shape:    physics.ShapeCircle,
		Radius:   radius,
		Density:  1,
		Friction: 0.7,
	}}
}

var ColliderComponent = NewComponent[Collider]()
