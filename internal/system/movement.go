package system

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// MovementSystem turns throttle, brake and steering into RPM, speed, heading
// and position. Speed is in units per tick.
type MovementSystem struct {
	cfg config.MovementConfig
}

func NewMovementSystem(cfg config.MovementConfig) *MovementSystem {
	return &MovementSystem{cfg: cfg}
}

func (s *MovementSystem) Name() string  { return "movement" }
func (s *MovementSystem) Priority() int { return 100 }

func (s *MovementSystem) Requires() ecs.ComponentSet {
	return ecs.SetOf(ecs.Engine, ecs.Wheel, ecs.Body)
}

func (s *MovementSystem) Tick(v *world.Vehicle, dt float64) error {
	e, w, spec := v.Engine(), v.Wheel(), v.Body().Spec

	throttle := v.Controls.Throttle()
	if !e.Running() {
		throttle = 0
	}

	targetRPM := math.Abs(throttle) * e.Spec.MaxRPM * s.cfg.TargetRPMRatio
	e.SetRPM(e.CurrentRPM() + (targetRPM-e.CurrentRPM())*s.cfg.RPMResponse)

	mass := spec.Mass
	if mass <= 0 {
		mass = 1
	}
	accel := e.CurrentPower() / mass * dt * s.cfg.AccelerationScale * w.EffectiveGrip()

	speed := v.Speed + throttle*accel
	speed = towardZero(speed, s.cfg.RollResistance)
	if v.Controls.Brake {
		speed *= s.cfg.BrakeDecay
	}
	speed = math.Max(-spec.MaxReverseSpeed, math.Min(spec.MaxSpeed, speed))
	if math.IsNaN(speed) {
		speed = 0
	}
	v.Speed = speed

	// no turning on the spot
	if steer := v.Controls.Steer(); steer != 0 && math.Abs(speed) > s.cfg.MinSteerSpeed {
		turn := math.Abs(spec.RotationModifier / (speed * speed))
		turn = math.Max(spec.MinRotationSpeed, math.Min(spec.MaxRotationSpeed, turn))
		if speed < 0 {
			turn = -turn
		}
		v.SetHeading(v.Heading + steer*turn)
	}

	rad := v.Heading * math.Pi / 180
	v.X += -math.Sin(rad) * speed
	v.Z += math.Cos(rad) * speed
	v.Odometer += math.Abs(speed)
	return nil
}

// towardZero shrinks |v| by step without crossing zero.
func towardZero(v, step float64) float64 {
	switch {
	case v > step:
		return v - step
	case v < -step:
		return v + step
	}
	return 0
}
