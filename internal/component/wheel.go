package component

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// DefaultWheelCount is used when a wheel set does not say how many it mounts.
const DefaultWheelCount = 4

type WheelSpec struct {
	ID             string  `yaml:"id"`
	Diameter       float64 `yaml:"diameter"`
	BaseTraction   float64 `yaml:"base_traction"`
	GripMultiplier float64 `yaml:"grip_multiplier"`
	WearRate       float64 `yaml:"wear_rate"` // wear per unit of distance
}

// Wheel is the vehicle's wheel set: every mounted wheel shares the spec and state.
type Wheel struct {
	Spec  *WheelSpec
	Count int

	rotation      float64 // degrees, [0,360)
	rotationSpeed float64 // degrees per tick
	wear          float64
	traction      float64
}

func NewWheel(spec *WheelSpec, count int) *Wheel {
	if count <= 0 {
		count = DefaultWheelCount
	}
	return &Wheel{Spec: spec, Count: count, traction: 1}
}

func (w *Wheel) Type() ecs.ComponentType { return ecs.Wheel }

func (w *Wheel) Rotation() float64      { return w.rotation }
func (w *Wheel) RotationSpeed() float64 { return w.rotationSpeed }
func (w *Wheel) Wear() float64          { return w.wear }
func (w *Wheel) Traction() float64      { return w.traction }

func (w *Wheel) SetWear(v float64)     { w.wear = clamp(v, 0, 1) }
func (w *Wheel) SetTraction(v float64) { w.traction = clamp(v, 0, 1) }

func (w *Wheel) SetRotation(deg float64) {
	w.rotation = wrapDegrees(deg)
}

func (w *Wheel) SetRotationSpeed(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	w.rotationSpeed = v
}

func (w *Wheel) EffectiveTraction() float64 {
	return w.Spec.BaseTraction * w.traction * (1 - 0.5*w.wear)
}

func (w *Wheel) EffectiveGrip() float64 {
	return w.Spec.GripMultiplier * (1 - 0.3*w.wear)
}

// UpdateRotation advances the wheel by the distance covered this tick.
func (w *Wheel) UpdateRotation(vehicleSpeed float64) {
	circumference := w.Spec.Diameter * math.Pi
	if circumference <= 0 {
		w.rotationSpeed = 0
		return
	}
	rotationPerTick := (vehicleSpeed / circumference) * 360
	w.rotationSpeed = rotationPerTick * w.EffectiveTraction()
	w.rotation = wrapDegrees(w.rotation + w.rotationSpeed)
}

func wrapDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
