package component

import "github.com/milk9111/cpsync/physics"

// Joint asks the physics system to connect the rigid bodies of BodyA and
// BodyB. The joint is created once both entities have live bodies.
type Joint struct {
	physics.JointConfig

	BodyA uint64 // ecs.Entity
	BodyB uint64 // ecs.Entity
}

var JointComponent = NewComponent[Joint]()
