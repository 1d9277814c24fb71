package system

import (
	"time"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// CleanupSystem frees removed vehicles at tick end and tells every
// per-vehicle cache to drop them. Phase 4 (Cleanup).
type CleanupSystem struct {
	world *world.World
	hooks []func(ecs.EntityID)
}

func NewCleanupSystem(w *world.World, hooks ...func(ecs.EntityID)) *CleanupSystem {
	return &CleanupSystem{world: w, hooks: hooks}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, id := range s.world.FlushRemoved() {
		for _, fn := range s.hooks {
			fn(id)
		}
	}
}
