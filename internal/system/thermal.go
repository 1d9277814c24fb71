package system

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// EngineThermalSystem moves engine temperature toward its load-dependent
// target and accumulates engine wear while running. A running engine targets
// its optimal temperature plus a load bonus; a stopped one cools to ambient.
type EngineThermalSystem struct {
	cfg     config.ThermalConfig
	ambient float64
}

func NewEngineThermalSystem(cfg config.ThermalConfig, ambient float64) *EngineThermalSystem {
	return &EngineThermalSystem{cfg: cfg, ambient: ambient}
}

func (s *EngineThermalSystem) Name() string               { return "engine_thermal" }
func (s *EngineThermalSystem) Priority() int              { return 400 }
func (s *EngineThermalSystem) Requires() ecs.ComponentSet { return ecs.SetOf(ecs.Engine) }

func (s *EngineThermalSystem) Tick(v *world.Vehicle, dt float64) error {
	e := v.Engine()
	ratio := e.RPMRatio()

	target := s.ambient
	if e.Running() {
		base := e.Spec.OptimalTemperature
		if base <= 0 {
			base = s.cfg.HotTarget
		}
		target = math.Max(s.ambient, base+s.cfg.LoadBonus*ratio)
	}
	temp := e.Temperature()
	rate := s.cfg.CoolRate
	if target > temp {
		rate = s.cfg.HeatRate
	}
	step := math.Min(1, math.Max(0, rate*dt))
	e.SetTemperature(temp + (target-temp)*step)

	if e.Running() {
		wear := s.cfg.WearRate * dt * (1 + ratio)
		if e.Temperature() > s.cfg.CriticalTemperature {
			wear *= s.cfg.OverheatWearMultiplier
		}
		e.SetWear(e.Wear() + wear)
	}
	return nil
}
