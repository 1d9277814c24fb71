package component

import (
	"encoding/json"
	"testing"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSpecs resolves a fixed set of ids and returns a "default" spec otherwise.
type fakeSpecs struct{}

var (
	testEngineSpec  = &EngineSpec{ID: "diesel_v8", MaxPower: 180000, MaxRPM: 6000, BaseFuelConsumption: 3}
	defaultEngine   = &EngineSpec{ID: "default", MaxPower: 100, MaxRPM: 5000, BaseFuelConsumption: 1}
	testTankSpec    = &TankSpec{ID: "tank_80", Capacity: 80}
	defaultTank     = &TankSpec{ID: "default", Capacity: 50}
	testWheelSpec   = &WheelSpec{ID: "offroad", Diameter: 0.9, BaseTraction: 1, GripMultiplier: 1.1}
	defaultWheel    = &WheelSpec{ID: "default", Diameter: 0.8, BaseTraction: 1, GripMultiplier: 1}
	testBodySpec    = &BodySpec{ID: "truck", MaxSpeed: 1.5}
	defaultBodySpec = &BodySpec{ID: "default", MaxSpeed: 1}
)

func (fakeSpecs) EngineSpec(id string) *EngineSpec {
	if id == testEngineSpec.ID {
		return testEngineSpec
	}
	return defaultEngine
}

func (fakeSpecs) TankSpec(id string) *TankSpec {
	if id == testTankSpec.ID {
		return testTankSpec
	}
	return defaultTank
}

func (fakeSpecs) WheelSpec(id string) *WheelSpec {
	if id == testWheelSpec.ID {
		return testWheelSpec
	}
	return defaultWheel
}

func (fakeSpecs) BodySpec(id string) *BodySpec {
	if id == testBodySpec.ID {
		return testBodySpec
	}
	return defaultBodySpec
}

func TestTag_RoundTrip(t *testing.T) {
	engine := NewEngine(testEngineSpec)
	engine.Start()
	engine.SetRPM(3123.4)
	engine.SetHealth(0.73)
	engine.SetTemperature(88.8)
	engine.SetWear(0.12)

	tank := NewFuelTank(testTankSpec)
	tank.Fill("diesel", 41.3)

	wheel := NewWheel(testWheelSpec, 6)
	wheel.SetRotation(123.4)
	wheel.SetRotationSpeed(17.25)
	wheel.SetWear(0.3)
	wheel.SetTraction(0.8)

	body := NewBody(testBodySpec)

	battery := NewBattery()
	battery.SetLevel(0.437)

	for _, c := range []ecs.Component{engine, tank, wheel, body, battery} {
		t.Run(c.Type().String(), func(t *testing.T) {
			raw, err := json.Marshal(Encode(c))
			require.NoError(t, err)
			var stored Tag
			require.NoError(t, json.Unmarshal(raw, &stored))

			decoded, err := Decode(stored, fakeSpecs{})
			require.NoError(t, err)
			assert.Equal(t, c, decoded)
		})
	}
}

func TestTag_RoundTripExactFields(t *testing.T) {
	engine := NewEngine(testEngineSpec)
	engine.SetTemperature(88.8)
	c, err := Decode(Encode(engine), fakeSpecs{})
	require.NoError(t, err)
	assert.Equal(t, 88.8, c.(*Engine).Temperature())

	tank := NewFuelTank(testTankSpec)
	tank.Fill("diesel", 41.3)
	c, err = Decode(Encode(tank), fakeSpecs{})
	require.NoError(t, err)
	assert.Equal(t, 41.3, c.(*FuelTank).Amount())
}

func TestTag_DecodeValues(t *testing.T) {
	engine := NewEngine(testEngineSpec)
	engine.Start()
	engine.SetRPM(2000)
	engine.SetHealth(0.5)

	c, err := Decode(Encode(engine), fakeSpecs{})
	require.NoError(t, err)
	got := c.(*Engine)
	assert.Same(t, testEngineSpec, got.Spec)
	assert.True(t, got.Running())
	assert.InDelta(t, 2000, got.CurrentRPM(), 1e-3)
	assert.InDelta(t, 0.5, got.Health(), 1e-6)
}

func TestTag_UnknownSpecFallsBack(t *testing.T) {
	c, err := Decode(Tag{KeyComponentType: "engine", KeyEngineType: "nope"}, fakeSpecs{})
	require.NoError(t, err)
	e := c.(*Engine)
	assert.Same(t, defaultEngine, e.Spec)
	assert.Equal(t, 1.0, e.Health(), "missing health keeps the fresh-engine value")
	assert.Equal(t, AmbientTemperature, e.Temperature())
	assert.False(t, e.Running())

	c, err = Decode(Tag{KeyComponentType: "wheel"}, fakeSpecs{})
	require.NoError(t, err)
	w := c.(*Wheel)
	assert.Same(t, defaultWheel, w.Spec)
	assert.Equal(t, DefaultWheelCount, w.Count)
	assert.Equal(t, 1.0, w.Traction())
}

func TestTag_EmptyTankOmitsFluid(t *testing.T) {
	tag := Encode(NewFuelTank(testTankSpec))
	assert.False(t, tag.Contains(KeyFluid))

	c, err := Decode(tag, fakeSpecs{})
	require.NoError(t, err)
	assert.True(t, c.(*FuelTank).Empty())
}

func TestTag_DecodeJSONNumbers(t *testing.T) {
	raw := `{"ComponentType":"fuel_tank","TankType":"tank_80","Fluid":"diesel","Amount":12.5}`
	var tag Tag
	require.NoError(t, json.Unmarshal([]byte(raw), &tag))

	c, err := Decode(tag, fakeSpecs{})
	require.NoError(t, err)
	tank := c.(*FuelTank)
	assert.Equal(t, Fluid("diesel"), tank.Fluid())
	assert.Equal(t, 12.5, tank.Amount())
}

func TestTag_UnknownComponentType(t *testing.T) {
	_, err := Decode(Tag{KeyComponentType: "trailer"}, fakeSpecs{})
	assert.Error(t, err)
}
