package system

import (
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/physics"
)

// TransformSync copies each body's pose into its Transform, blending with
// the pose before the last step when the entity has Interpolation. Run it
// after the physics system.
type TransformSync struct {
	physics *PhysicsSystem
}

func NewTransformSync(ps *PhysicsSystem) *TransformSync {
	return &TransformSync{physics: ps}
}

func (s *TransformSync) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	alpha := 1.0
	if s.physics != nil {
		alpha = s.physics.Alpha()
	}

	ecs.ForEach2(w, component.RigidBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, rb *component.RigidBody, t *component.Transform) {
		pose := physics.Pose{Position: rb.Position, Angle: rb.Angle}
		if rb.Synced {
			pose = rb.State.Pose()
		}
		if interp, ok := ecs.Get(w, e, component.InterpolationComponent.Kind()); ok {
			pose = interp.Blend(pose, alpha)
		}
		t.X = pose.Position.X()
		t.Y = pose.Position.Y()
		t.Rotation = pose.Angle
	})
}
