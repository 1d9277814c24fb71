package component

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// AmbientTemperature is the starting temperature of a fresh engine (°C).
const AmbientTemperature = 20.0

// EngineSpec is the immutable catalog entry for an engine type. Instances are
// shared by pointer across every engine of that type.
type EngineSpec struct {
	ID                  string  `yaml:"id"`
	MaxPower            float64 `yaml:"max_power"` // watts-equivalent
	MaxRPM              float64 `yaml:"max_rpm"`
	BaseFuelConsumption float64 `yaml:"base_fuel_consumption"` // units per second at idle/10
	CylinderCount       int     `yaml:"cylinder_count"`
	OptimalTemperature  float64 `yaml:"optimal_temperature"`
}

// Engine holds the mutable state of one engine. Setters clamp instead of
// rejecting so a bad input can never stall the tick.
type Engine struct {
	Spec *EngineSpec

	currentRPM  float64
	health      float64
	running     bool
	temperature float64
	wear        float64
}

func NewEngine(spec *EngineSpec) *Engine {
	return &Engine{
		Spec:        spec,
		health:      1,
		temperature: AmbientTemperature,
	}
}

func (e *Engine) Type() ecs.ComponentType { return ecs.Engine }

func (e *Engine) CurrentRPM() float64  { return e.currentRPM }
func (e *Engine) Health() float64      { return e.health }
func (e *Engine) Running() bool        { return e.running }
func (e *Engine) Temperature() float64 { return e.temperature }
func (e *Engine) Wear() float64        { return e.wear }

func (e *Engine) SetRPM(rpm float64) {
	e.currentRPM = clamp(rpm, 0, e.Spec.MaxRPM)
}

// SetHealth ignores NaN; the current health is kept.
func (e *Engine) SetHealth(h float64) {
	if math.IsNaN(h) {
		return
	}
	e.health = clamp(h, 0, 1)
}

func (e *Engine) SetWear(w float64) {
	if math.IsNaN(w) {
		return
	}
	e.wear = clamp(w, 0, 1)
}

func (e *Engine) SetTemperature(t float64) {
	if math.IsNaN(t) {
		return
	}
	e.temperature = t
}

// Start turns the engine on. A destroyed engine (health 0) stays off until repaired.
func (e *Engine) Start() bool {
	if e.health <= 0 {
		return false
	}
	e.running = true
	return true
}

// Stop turns the engine off and drops RPM to zero.
func (e *Engine) Stop() {
	e.running = false
	e.currentRPM = 0
}

// Repair is the workshop entry point. Health is restored up to maxHealth,
// the ceiling an aged engine can still reach, and wear is cleared. Health
// already above the ceiling is left alone.
func (e *Engine) Repair(maxHealth float64) {
	if maxHealth > e.health {
		e.SetHealth(maxHealth)
	}
	e.wear = 0
}

// NeedsRepair reports whether Repair(maxHealth) would change anything.
func (e *Engine) NeedsRepair(maxHealth float64) bool {
	return e.health < maxHealth || e.wear > 0
}

// RPMRatio is currentRPM/maxRPM, 0 for a spec without a redline.
func (e *Engine) RPMRatio() float64 {
	if e.Spec.MaxRPM <= 0 {
		return 0
	}
	return e.currentRPM / e.Spec.MaxRPM
}

// CurrentPower follows a half-sine over the RPM range: zero at idle and at
// redline, peak maxPower·health at half the max RPM.
func (e *Engine) CurrentPower() float64 {
	if !e.running || e.health <= 0 {
		return 0
	}
	return e.Spec.MaxPower * math.Sin(math.Pi*e.RPMRatio()) * e.health
}

// FuelConsumptionRate is a fixed idle burn plus a load-proportional term.
func (e *Engine) FuelConsumptionRate() float64 {
	if !e.running {
		return 0
	}
	base := e.Spec.BaseFuelConsumption
	return 0.1*base + base*e.RPMRatio()
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
