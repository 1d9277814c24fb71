package system

import (
	"time"

	"github.com/schedulemc/vehiclesim/internal/core/event"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
)

// EventDispatchSystem delivers the previous tick's events. Register it first
// so subscribers run before any packet of the new tick is handled.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
