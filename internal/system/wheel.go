package system

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// WheelSystem updates traction, tyre wear and rotation from the speed
// MovementSystem produced this tick.
type WheelSystem struct {
	cfg config.WheelConfig
}

func NewWheelSystem(cfg config.WheelConfig) *WheelSystem {
	return &WheelSystem{cfg: cfg}
}

func (s *WheelSystem) Name() string               { return "wheel" }
func (s *WheelSystem) Priority() int              { return 200 }
func (s *WheelSystem) Requires() ecs.ComponentSet { return ecs.SetOf(ecs.Wheel) }

func (s *WheelSystem) Tick(v *world.Vehicle, _ float64) error {
	w := v.Wheel()
	speed := math.Abs(v.Speed)

	// traction drops once the speed exceeds what the grip can hold
	limit := w.EffectiveGrip() * s.cfg.GripSpeedLimit
	target := 1.0
	if speed > limit {
		target = 1 / (1 + (speed - limit))
	}
	w.SetTraction(w.Traction() + (target-w.Traction())*s.cfg.TractionResponse)
	w.SetWear(w.Wear() + speed*w.Spec.WearRate*s.cfg.WearScale)

	w.UpdateRotation(v.Speed)
	return nil
}
