package system

import (
	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/control"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// Start refusal reasons carried by EngineStartFailed.
const (
	StartDestroyed = "destroyed"
	StartNoFuel    = "no fuel"
	StartBattery   = "battery"
)

// InputSystem applies the latest driver controls and the discrete start/horn
// events queued in the inbox. Runs first so every later system sees this
// tick's input.
type InputSystem struct {
	inbox     *control.Inbox
	bus       *event.Bus
	startCost float64
	battery   config.BatteryConfig
}

func NewInputSystem(inbox *control.Inbox, bus *event.Bus, startCost float64, battery config.BatteryConfig) *InputSystem {
	return &InputSystem{inbox: inbox, bus: bus, startCost: startCost, battery: battery}
}

func (s *InputSystem) Name() string               { return "input" }
func (s *InputSystem) Priority() int              { return 0 }
func (s *InputSystem) Requires() ecs.ComponentSet { return ecs.SetOf(ecs.Engine) }

func (s *InputSystem) Tick(v *world.Vehicle, _ float64) error {
	c, ok, events := s.inbox.Take(v.ID)
	if ok {
		v.Controls = c
	}
	if v.Driver == world.NoPlayer {
		v.Controls = control.Controls{}
	}
	for _, ev := range events {
		switch ev {
		case control.StartEngine:
			s.toggleEngine(v)
		case control.Horn:
			s.horn(v)
		}
	}
	return nil
}

// toggleEngine stops a running engine or tries to start a stopped one. With
// a battery fitted the start begins a crank that BatterySystem finishes;
// pressing start again mid-crank cancels it.
func (s *InputSystem) toggleEngine(v *world.Vehicle) {
	e := v.Engine()
	if e.Running() {
		e.Stop()
		event.Emit(s.bus, event.EngineToggled{VehicleID: v.ID, Running: false})
		return
	}

	b := v.Battery()
	if b != nil && b.Cranking() {
		b.StopCrank()
		return
	}
	if reason := startRefusal(v); reason != "" {
		event.Emit(s.bus, event.EngineStartFailed{VehicleID: v.ID, Reason: reason})
		return
	}
	if b == nil {
		startEngine(v, s.startCost, s.bus)
		return
	}
	if !b.BeginCrank(component.CrankTime(e.Temperature(), b.Level(), e.Health())) {
		event.Emit(s.bus, event.EngineStartFailed{VehicleID: v.ID, Reason: StartBattery})
	}
}

// horn needs HornMin charge when a battery is fitted and costs HornCost.
func (s *InputSystem) horn(v *world.Vehicle) {
	if b := v.Battery(); b != nil {
		if b.Level() < s.battery.HornMin {
			return
		}
		b.SetLevel(b.Level() - s.battery.HornCost)
	}
	event.Emit(s.bus, event.HornSounded{VehicleID: v.ID})
}

// startRefusal returns why v cannot start, or "" if it can.
func startRefusal(v *world.Vehicle) string {
	if v.Engine().Health() <= 0 {
		return StartDestroyed
	}
	if tank := v.FuelTank(); tank != nil && tank.Empty() {
		return StartNoFuel
	}
	if b := v.Battery(); b != nil && b.Flat() {
		return StartBattery
	}
	return ""
}

// startEngine runs the engine and takes startCost fuel from the tank.
func startEngine(v *world.Vehicle, startCost float64, bus *event.Bus) {
	v.Engine().Start()
	if tank := v.FuelTank(); tank != nil {
		tank.Drain(startCost)
	}
	event.Emit(bus, event.EngineToggled{VehicleID: v.ID, Running: true})
}
