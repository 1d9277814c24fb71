package world

import (
	"math"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/control"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
)

// NoPlayer marks an unowned or driverless vehicle.
const NoPlayer int64 = 0

// Vehicle is one drivable entity: transform, driver input and the component
// bundle the systems operate on. Accessed only from the simulation goroutine.
type Vehicle struct {
	ID      ecs.EntityID
	ModelID string
	Owner   int64
	Driver  int64

	X, Y, Z float64
	Heading float64 // degrees, (-180,180]
	Speed   float64 // units per tick, negative when reversing

	Odometer float64

	// Controls is the level state applied this tick.
	Controls control.Controls

	components map[ecs.ComponentType]ecs.Component
	set        ecs.ComponentSet
	removed    bool
	collisions []float64
	revision   uint64
}

func NewVehicle(modelID string) *Vehicle {
	return &Vehicle{
		ModelID:    modelID,
		components: make(map[ecs.ComponentType]ecs.Component, 4),
	}
}

func (v *Vehicle) EntityID() ecs.EntityID       { return v.ID }
func (v *Vehicle) Components() ecs.ComponentSet { return v.set }
func (v *Vehicle) Removed() bool                { return v.removed }

// Attach adds c, replacing any component of the same type. The replaced
// component is returned (nil if there was none).
func (v *Vehicle) Attach(c ecs.Component) ecs.Component {
	t := c.Type()
	prev := v.components[t]
	v.components[t] = c
	v.set = v.set.With(t)
	return prev
}

// Detach removes and returns the component of type t.
func (v *Vehicle) Detach(t ecs.ComponentType) ecs.Component {
	c, ok := v.components[t]
	if !ok {
		return nil
	}
	delete(v.components, t)
	v.set = v.set.Without(t)
	return c
}

func (v *Vehicle) Component(t ecs.ComponentType) ecs.Component {
	return v.components[t]
}

func (v *Vehicle) Has(t ecs.ComponentType) bool { return v.set.Has(t) }

// Each visits the attached components in ComponentType order.
func (v *Vehicle) Each(fn func(ecs.Component)) {
	for _, t := range ecs.ComponentTypes() {
		if c, ok := v.components[t]; ok {
			fn(c)
		}
	}
}

func (v *Vehicle) Engine() *component.Engine {
	e, _ := v.components[ecs.Engine].(*component.Engine)
	return e
}

func (v *Vehicle) FuelTank() *component.FuelTank {
	t, _ := v.components[ecs.FuelTank].(*component.FuelTank)
	return t
}

func (v *Vehicle) Wheel() *component.Wheel {
	w, _ := v.components[ecs.Wheel].(*component.Wheel)
	return w
}

func (v *Vehicle) Body() *component.Body {
	b, _ := v.components[ecs.Body].(*component.Body)
	return b
}

func (v *Vehicle) Battery() *component.Battery {
	b, _ := v.components[ecs.Battery].(*component.Battery)
	return b
}

// ApplyCollision queues an impact for DamageSystem. impactSpeed is in units
// per tick; non-positive and non-finite values are ignored.
func (v *Vehicle) ApplyCollision(impactSpeed float64) {
	if !(impactSpeed > 0) || math.IsInf(impactSpeed, 0) {
		return
	}
	v.collisions = append(v.collisions, impactSpeed)
}

// DrainCollisions returns and clears the queued impacts.
func (v *Vehicle) DrainCollisions() []float64 {
	out := v.collisions
	v.collisions = nil
	return out
}

// SetHeading stores the heading wrapped into (-180,180].
func (v *Vehicle) SetHeading(deg float64) {
	v.Heading = WrapHeading(deg)
}

func WrapHeading(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg <= -180 {
		deg += 360
	} else if deg > 180 {
		deg -= 360
	}
	return deg
}

// Telemetry is a read-only view of the values a dashboard shows.
type Telemetry struct {
	ID          ecs.EntityID
	ModelID     string
	Speed       float64
	KmH         float64
	RPM         float64
	FuelPercent float64
	Temperature float64
	Health      float64
	Wear        float64
	Running     bool
	Odometer    float64
}

// KmH converts a per-tick speed to km/h (one unit is one metre).
func KmH(speedPerTick float64) float64 {
	return speedPerTick * coresys.TicksPerSecond * 3600 / 1000
}

func (v *Vehicle) Telemetry() Telemetry {
	t := Telemetry{
		ID:       v.ID,
		ModelID:  v.ModelID,
		Speed:    v.Speed,
		KmH:      KmH(math.Abs(v.Speed)),
		Odometer: v.Odometer,
	}
	if e := v.Engine(); e != nil {
		t.RPM = e.CurrentRPM()
		t.Temperature = e.Temperature()
		t.Health = e.Health()
		t.Wear = e.Wear()
		t.Running = e.Running()
	}
	if ft := v.FuelTank(); ft != nil {
		t.FuelPercent = ft.FuelPercentage() * 100
	}
	return t
}
