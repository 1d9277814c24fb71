package component

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// Fluid identifies what a tank holds (e.g. "diesel", "bio_diesel").
type Fluid string

// EmptyFluid is the sentinel for a tank that holds nothing.
const EmptyFluid Fluid = ""

// DrainEpsilon is the residual below which a drained tank snaps to empty.
const DrainEpsilon = 1e-6

type TankSpec struct {
	ID       string  `yaml:"id"`
	Capacity float64 `yaml:"capacity"`
}

// FuelTank stores a single fluid. The pairing amount == 0 ⇔ fluid == EmptyFluid
// holds after every mutation.
type FuelTank struct {
	Spec *TankSpec

	fluid  Fluid
	amount float64
}

func NewFuelTank(spec *TankSpec) *FuelTank {
	return &FuelTank{Spec: spec}
}

func (t *FuelTank) Type() ecs.ComponentType { return ecs.FuelTank }

func (t *FuelTank) Fluid() Fluid      { return t.fluid }
func (t *FuelTank) Amount() float64   { return t.amount }
func (t *FuelTank) Empty() bool       { return t.fluid == EmptyFluid }
func (t *FuelTank) Capacity() float64 { return t.Spec.Capacity }

// Fill adds up to amount of fluid and returns what was absorbed. Nothing is
// absorbed if the tank already holds a different fluid.
func (t *FuelTank) Fill(fluid Fluid, amount float64) float64 {
	if fluid == EmptyFluid || !(amount > 0) {
		return 0
	}
	if !t.Empty() && t.fluid != fluid {
		return 0
	}
	room := t.Spec.Capacity - t.amount
	if room <= 0 {
		return 0
	}
	absorbed := math.Min(amount, room)
	t.amount += absorbed
	if t.amount > 0 {
		t.fluid = fluid
	}
	return absorbed
}

// Drain removes up to amount and returns what was actually removed. When the
// remainder falls below DrainEpsilon it is removed too and the tank resets.
func (t *FuelTank) Drain(amount float64) float64 {
	if t.Empty() || !(amount > 0) {
		return 0
	}
	removed := math.Min(amount, t.amount)
	t.amount -= removed
	if t.amount < DrainEpsilon {
		removed += t.amount
		t.amount = 0
		t.fluid = EmptyFluid
	}
	return removed
}

// Set restores a persisted state, clamped to capacity. A zero amount or an
// empty fluid leaves the tank empty.
func (t *FuelTank) Set(fluid Fluid, amount float64) {
	amount = clamp(amount, 0, t.Spec.Capacity)
	if fluid == EmptyFluid || amount == 0 {
		t.fluid, t.amount = EmptyFluid, 0
		return
	}
	t.fluid, t.amount = fluid, amount
}

func (t *FuelTank) FuelPercentage() float64 {
	if t.Spec.Capacity <= 0 {
		return 0
	}
	return t.amount / t.Spec.Capacity
}

func (t *FuelTank) HasEnoughFuel(required float64) bool {
	return !t.Empty() && t.amount >= required
}
