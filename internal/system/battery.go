package system

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// BatterySystem turns the starter of cranking vehicles and recharges the
// battery while the engine runs.
type BatterySystem struct {
	cfg       config.BatteryConfig
	startCost float64
	ambient   float64
	bus       *event.Bus
}

func NewBatterySystem(cfg config.BatteryConfig, startCost, ambient float64, bus *event.Bus) *BatterySystem {
	return &BatterySystem{cfg: cfg, startCost: startCost, ambient: ambient, bus: bus}
}

func (s *BatterySystem) Name() string               { return "battery" }
func (s *BatterySystem) Priority() int              { return 50 }
func (s *BatterySystem) Requires() ecs.ComponentSet { return ecs.SetOf(ecs.Engine, ecs.Battery) }

func (s *BatterySystem) Tick(v *world.Vehicle, _ float64) error {
	b := v.Battery()
	e := v.Engine()

	if b.Cranking() {
		if e.Running() {
			b.StopCrank()
			return nil
		}
		done := b.Crank(s.crankUsage())
		switch {
		case b.Flat():
			b.StopCrank()
			event.Emit(s.bus, event.EngineStartFailed{VehicleID: v.ID, Reason: StartBattery})
		case done:
			b.StopCrank()
			if reason := startRefusal(v); reason != "" {
				event.Emit(s.bus, event.EngineStartFailed{VehicleID: v.ID, Reason: reason})
				return nil
			}
			startEngine(v, s.startCost, s.bus)
		}
		return nil
	}

	if e.Running() {
		rate := s.cfg.IdleRecharge
		if speed := math.Abs(v.Speed); v.Controls.Forward && speed > 0.01 {
			rate *= math.Max(1, speed*s.cfg.DrivingRechargeMultiplier)
		}
		b.SetLevel(b.Level() + rate)
	}
	return nil
}

// crankUsage is the per-tick draw; the starter works harder in the cold.
func (s *BatterySystem) crankUsage() float64 {
	switch {
	case s.ambient < 0:
		return s.cfg.CrankUsage * 2
	case s.ambient < 15:
		return s.cfg.CrankUsage * 1.5
	}
	return s.cfg.CrankUsage
}
