package component

import "time"

// Despawn destroys its entity once After has elapsed in simulated frame time.
type Despawn struct {
	After   time.Duration
	Elapsed time.Duration
}

var DespawnComponent = NewComponent[Despawn]()
