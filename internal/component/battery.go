package component

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// Battery is the starter battery. Only the charge level is persisted; the
// crank state lives for one start attempt.
type Battery struct {
	level float64 // [0,1]

	cranking    bool
	crankTicks  int
	crankNeeded int
}

func NewBattery() *Battery {
	return &Battery{level: 1}
}

func (b *Battery) Type() ecs.ComponentType { return ecs.Battery }

func (b *Battery) Level() float64   { return b.level }
func (b *Battery) Cranking() bool   { return b.cranking }
func (b *Battery) CrankTicks() int  { return b.crankTicks }
func (b *Battery) CrankNeeded() int { return b.crankNeeded }
func (b *Battery) Flat() bool       { return b.level <= 0 }

func (b *Battery) SetLevel(v float64) {
	if math.IsNaN(v) {
		return
	}
	b.level = clamp(v, 0, 1)
}

// BeginCrank starts turning the starter for needed ticks. A flat battery
// cannot crank.
func (b *Battery) BeginCrank(needed int) bool {
	if b.Flat() {
		return false
	}
	if needed < 1 {
		needed = 1
	}
	b.cranking, b.crankTicks, b.crankNeeded = true, 0, needed
	return true
}

func (b *Battery) StopCrank() {
	b.cranking, b.crankTicks, b.crankNeeded = false, 0, 0
}

// Crank turns the starter for one tick, drawing usage from the charge, and
// reports whether the crank time has elapsed.
func (b *Battery) Crank(usage float64) bool {
	b.SetLevel(b.level - usage)
	b.crankTicks++
	return b.crankTicks >= b.crankNeeded
}

// CrankTime returns how many ticks the starter turns before the engine fires.
// Cold engines, weak batteries and heavy damage all take longer.
func CrankTime(temperature, level, health float64) int {
	ticks := 5
	switch {
	case temperature < 0:
		ticks += 40
	case temperature < 10:
		ticks += 35
	case temperature < 30:
		ticks += 10
	case temperature < 60:
		ticks += 5
	}
	switch {
	case level < 0.5:
		ticks += 20
	case level < 0.75:
		ticks += 10
	}
	damage := (1 - health) * 100
	switch {
	case damage >= 95:
		ticks += 50
	case damage >= 90:
		ticks += 30
	case damage >= 80:
		ticks += 10
	case damage >= 50:
		ticks += 5
	}
	return ticks
}
