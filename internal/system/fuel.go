package system

import (
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// FuelSystem burns fuel for running engines and stalls them when the tank
// cannot cover a full tick.
type FuelSystem struct {
	bus *event.Bus
}

func NewFuelSystem(bus *event.Bus) *FuelSystem {
	return &FuelSystem{bus: bus}
}

func (s *FuelSystem) Name() string  { return "fuel" }
func (s *FuelSystem) Priority() int { return 300 }

func (s *FuelSystem) Requires() ecs.ComponentSet {
	return ecs.SetOf(ecs.Engine, ecs.FuelTank)
}

func (s *FuelSystem) Tick(v *world.Vehicle, dt float64) error {
	e := v.Engine()
	if !e.Running() {
		return nil
	}
	required := e.FuelConsumptionRate() * dt
	if got := v.FuelTank().Drain(required); got < required {
		e.Stop()
		event.Emit(s.bus, event.EngineStalled{VehicleID: v.ID, Reason: event.StallFuel})
	}
	return nil
}
