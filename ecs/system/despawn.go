package system

import (
	"time"

	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
)

// DespawnSystem advances Despawn timers by a fixed frame time and destroys
// entities whose timer ran out. The physics system tears their bodies down
// on its next frame.
type DespawnSystem struct {
	frame time.Duration
}

func NewDespawnSystem(frame time.Duration) *DespawnSystem {
	return &DespawnSystem{frame: frame}
}

func (s *DespawnSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.DespawnComponent.Kind(), func(e ecs.Entity, d *component.Despawn) {
		d.Elapsed += s.frame
		if d.Elapsed < d.After {
			return
		}
		ecs.DestroyEntity(w, e)
	})
}
