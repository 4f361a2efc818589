package system

import (
	"fmt"

	"github.com/milk9111/cpsync/ecs"
)

const (
	PhaseCreateBody     = "create body"
	PhaseCreateCollider = "create collider"
	PhaseCreateJoint    = "create joint"
	PhaseApplyRequest   = "apply request"
)

// SyncError reports an engine failure for one entity. The entity is left
// without a handle and creation is attempted again on the next pass.
type SyncError struct {
	Entity ecs.Entity
	Phase  string
	Err    error
}

func (e SyncError) Error() string {
	return fmt.Sprintf("physics system: %s for entity %s: %v", e.Phase, e.Entity, e.Err)
}

func (e SyncError) Unwrap() error {
	return e.Err
}

// SyncReport summarizes one pass of a creation or teardown phase.
type SyncReport struct {
	Bodies    int
	Colliders int
	Joints    int
	Errors    []SyncError
}

func (r *SyncReport) fail(e ecs.Entity, phase string, err error) {
	r.Errors = append(r.Errors, SyncError{Entity: e, Phase: phase, Err: err})
}

func (r *SyncReport) merge(o SyncReport) {
	r.Bodies += o.Bodies
	r.Colliders += o.Colliders
	r.Joints += o.Joints
	r.Errors = append(r.Errors, o.Errors...)
}
