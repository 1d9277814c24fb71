package system

import (
	"sync/atomic"
	"time"

	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// SimulationSystem runs the entity systems once per tick and counts ticks.
// The tick counter is the in-game clock. Phase 1 (Update).
type SimulationSystem struct {
	manager *coresys.Manager[*world.Vehicle]
	world   *world.World
	ticks   atomic.Uint64
}

func NewSimulationSystem(m *coresys.Manager[*world.Vehicle], w *world.World) *SimulationSystem {
	return &SimulationSystem{manager: m, world: w}
}

func (s *SimulationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SimulationSystem) Update(_ time.Duration) {
	s.manager.Tick(s.world)
	s.ticks.Add(1)
}

// Ticks returns the number of completed ticks.
func (s *SimulationSystem) Ticks() uint64 { return s.ticks.Load() }

// DayTime is the in-game time in ticks since world start.
func (s *SimulationSystem) DayTime() int64 { return int64(s.ticks.Load()) }
