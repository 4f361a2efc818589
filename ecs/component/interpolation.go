package component

import (
	"github.com/milk9111/cpsync/common"
	"github.com/milk9111/cpsync/physics"
)

// Interpolation keeps the body pose from before the last fixed step of a
// frame so renderers can blend between steps.
type Interpolation struct {
	Previous physics.Pose
	Valid    bool
}

// Blend returns the pose alpha of the way from Previous to current. Without a
// previous pose the current pose is returned unchanged.
func (i *Interpolation) Blend(current physics.Pose, alpha float64) physics.Pose {
	if i == nil || !i.Valid {
		return current
	}
	return physics.Pose{
		Position: common.LerpVec2(i.Previous.Position, current.Position, alpha),
		Angle:    common.LerpAngle(i.Previous.Angle, current.Angle, alpha),
	}
}

var InterpolationComponent = NewComponent[Interpolation]()
