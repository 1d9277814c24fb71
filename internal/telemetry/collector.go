package telemetry

import (
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// Collector accumulates vehicle samples and engine events within fixed tick
// windows and produces WindowStats. Tick goroutine only.
type Collector struct {
	windowTicks uint64
	dt          float64

	windowStartTick uint64

	kmh, rpm, temp, fuel, health []float64

	running      map[ecs.EntityID]bool
	odoStart     map[ecs.EntityID]float64
	odoLast      map[ecs.EntityID]float64
	starts       int
	startFails   int
	fuelStalls   int
	collisions   int
	destroyed    int
	hornsSounded int
}

// NewCollector creates a collector emitting one WindowStats every windowTicks
// ticks of dt seconds each.
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: uint64(windowTicks),
		dt:          dt,
		running:     make(map[ecs.EntityID]bool),
		odoStart:    make(map[ecs.EntityID]float64),
		odoLast:     make(map[ecs.EntityID]float64),
	}
}

// Subscribe registers the collector's event counters on bus.
func (c *Collector) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.EngineToggled) {
		if e.Running {
			c.starts++
		}
	})
	event.Subscribe(bus, func(event.EngineStartFailed) { c.startFails++ })
	event.Subscribe(bus, func(event.HornSounded) { c.hornsSounded++ })
	event.Subscribe(bus, c.RecordStall)
}

// RecordStall counts a stall by reason.
func (c *Collector) RecordStall(e event.EngineStalled) {
	switch e.Reason {
	case event.StallFuel:
		c.fuelStalls++
	case event.StallCollision:
		c.collisions++
	case event.StallDestroyed:
		c.destroyed++
	}
}

// Observe records one vehicle sample.
func (c *Collector) Observe(t world.Telemetry) {
	c.kmh = append(c.kmh, t.KmH)
	c.rpm = append(c.rpm, t.RPM)
	c.temp = append(c.temp, t.Temperature)
	c.fuel = append(c.fuel, t.FuelPercent)
	c.health = append(c.health, t.Health)
	c.running[t.ID] = t.Running
	if _, ok := c.odoStart[t.ID]; !ok {
		c.odoStart[t.ID] = t.Odometer
	}
	c.odoLast[t.ID] = t.Odometer
}

// Forget drops a vehicle that left the world.
func (c *Collector) Forget(id ecs.EntityID) {
	delete(c.running, id)
	delete(c.odoStart, id)
	delete(c.odoLast, id)
}

// ShouldFlush reports whether tick closes the current window.
func (c *Collector) ShouldFlush(tick uint64) bool {
	return tick-c.windowStartTick >= c.windowTicks
}

// Flush computes the stats of the window ending at tick and starts a new one.
func (c *Collector) Flush(tick uint64) WindowStats {
	s := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		SimTimeSec:      float64(tick) * c.dt,
		Vehicles:        len(c.odoLast),
		Samples:         len(c.kmh),
		Starts:          c.starts,
		StartFails:      c.startFails,
		FuelStalls:      c.fuelStalls,
		Collisions:      c.collisions,
		Destroyed:       c.destroyed,
		HornsSounded:    c.hornsSounded,
	}
	for _, on := range c.running {
		if on {
			s.Running++
		}
	}
	for id, last := range c.odoLast {
		s.Distance += last - c.odoStart[id]
	}

	s.KmHMean, s.KmHStd = MeanStd(c.kmh)
	s.KmHMax = maxOf(c.kmh)
	s.KmHP50 = Quantile(c.kmh, 0.5)
	s.KmHP90 = Quantile(c.kmh, 0.9)
	s.RPMMean, _ = MeanStd(c.rpm)
	s.TempMean, _ = MeanStd(c.temp)
	s.TempMax = maxOf(c.temp)
	s.FuelMean, _ = MeanStd(c.fuel)
	s.HealthMin = minOf(c.health)

	c.reset(tick)
	return s
}

func (c *Collector) reset(tick uint64) {
	c.windowStartTick = tick
	c.kmh = c.kmh[:0]
	c.rpm = c.rpm[:0]
	c.temp = c.temp[:0]
	c.fuel = c.fuel[:0]
	c.health = c.health[:0]
	for id, last := range c.odoLast {
		c.odoStart[id] = last
	}
	c.starts, c.startFails, c.hornsSounded = 0, 0, 0
	c.fuelStalls, c.collisions, c.destroyed = 0, 0, 0
}
