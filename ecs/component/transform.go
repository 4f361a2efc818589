package component

// Transform is the render pose of an entity in world units, y up. For
// entities with a RigidBody it is rewritten every frame from the body state,
// blended by Interpolation when present.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

var TransformComponent = NewComponent[Transform]()
