package system

import (
	"math"
	"testing"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/control"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const dt = coresys.FixedDeltaTime

var (
	testEngine = &component.EngineSpec{ID: "e", MaxPower: 90000, MaxRPM: 5000, BaseFuelConsumption: 1}
	testTank   = &component.TankSpec{ID: "t", Capacity: 50}
	testWheel  = &component.WheelSpec{ID: "w", Diameter: 0.8, BaseTraction: 1, GripMultiplier: 1, WearRate: 1e-4}
	testBody   = &component.BodySpec{
		ID: "b", Mass: 1200, MaxSpeed: 1.5, MaxReverseSpeed: 0.4,
		RotationModifier: 0.5, MinRotationSpeed: 2, MaxRotationSpeed: 5,
	}
)

func newVehicle(fuel float64) *world.Vehicle {
	v := world.NewVehicle("test")
	v.ID = ecs.NewEntityID(1, 0)
	v.Driver = 7
	v.Attach(component.NewEngine(testEngine))
	tank := component.NewFuelTank(testTank)
	tank.Fill("diesel", fuel)
	v.Attach(tank)
	v.Attach(component.NewWheel(testWheel, 4))
	v.Attach(component.NewBody(testBody))
	return v
}

// collect subscribes to T and returns a pointer to the delivered events;
// call flush to move the tick's emissions through the bus.
func collect[T any](bus *event.Bus) *[]T {
	var got []T
	event.Subscribe(bus, func(e T) { got = append(got, e) })
	return &got
}

func flush(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}

func TestInputSystem_LatestControls(t *testing.T) {
	inbox := control.NewInbox()
	s := NewInputSystem(inbox, event.NewBus(), 5, config.Defaults().Battery)
	v := newVehicle(20)

	inbox.SetControls(v.ID, control.Controls{Forward: true})
	inbox.SetControls(v.ID, control.Controls{Backward: true, Left: true})
	require.NoError(t, s.Tick(v, dt))
	assert.Equal(t, control.Controls{Backward: true, Left: true}, v.Controls)

	// no packet this tick: level state holds
	require.NoError(t, s.Tick(v, dt))
	assert.True(t, v.Controls.Backward)

	v.Driver = world.NoPlayer
	require.NoError(t, s.Tick(v, dt))
	assert.Equal(t, control.Controls{}, v.Controls)
}

func TestInputSystem_StartStopToggle(t *testing.T) {
	inbox := control.NewInbox()
	bus := event.NewBus()
	toggled := collect[event.EngineToggled](bus)
	s := NewInputSystem(inbox, bus, 5, config.Defaults().Battery)
	v := newVehicle(20)

	inbox.Push(v.ID, control.StartEngine)
	require.NoError(t, s.Tick(v, dt))
	assert.True(t, v.Engine().Running())
	assert.Equal(t, 15.0, v.FuelTank().Amount(), "start costs fuel")

	inbox.Push(v.ID, control.StartEngine)
	require.NoError(t, s.Tick(v, dt))
	assert.False(t, v.Engine().Running())

	flush(bus)
	assert.Equal(t, []event.EngineToggled{
		{VehicleID: v.ID, Running: true},
		{VehicleID: v.ID, Running: false},
	}, *toggled)
}

func TestInputSystem_StartRefused(t *testing.T) {
	inbox := control.NewInbox()
	bus := event.NewBus()
	failed := collect[event.EngineStartFailed](bus)
	s := NewInputSystem(inbox, bus, 5, config.Defaults().Battery)

	empty := newVehicle(0)
	inbox.Push(empty.ID, control.StartEngine)
	require.NoError(t, s.Tick(empty, dt))
	assert.False(t, empty.Engine().Running())

	broken := newVehicle(20)
	broken.ID = ecs.NewEntityID(2, 0)
	broken.Engine().SetHealth(0)
	inbox.Push(broken.ID, control.StartEngine)
	require.NoError(t, s.Tick(broken, dt))
	assert.False(t, broken.Engine().Running())
	assert.Equal(t, 20.0, broken.FuelTank().Amount(), "refused start costs nothing")

	flush(bus)
	require.Len(t, *failed, 2)
	assert.Equal(t, "no fuel", (*failed)[0].Reason)
	assert.Equal(t, "destroyed", (*failed)[1].Reason)
}

func withBattery(v *world.Vehicle, level float64) *component.Battery {
	b := component.NewBattery()
	b.SetLevel(level)
	v.Attach(b)
	return b
}

func TestInputSystem_BatteryCranks(t *testing.T) {
	cfg := config.Defaults()
	inbox := control.NewInbox()
	bus := event.NewBus()
	toggled := collect[event.EngineToggled](bus)
	in := NewInputSystem(inbox, bus, 5, cfg.Battery)
	bat := NewBatterySystem(cfg.Battery, 5, 20, bus)

	v := newVehicle(20)
	b := withBattery(v, 1)
	want := component.CrankTime(v.Engine().Temperature(), 1, 1)

	inbox.Push(v.ID, control.StartEngine)
	require.NoError(t, in.Tick(v, dt))
	assert.True(t, b.Cranking())
	assert.False(t, v.Engine().Running(), "battery engines crank first")

	ticks := 0
	for !v.Engine().Running() && ticks < 200 {
		require.NoError(t, bat.Tick(v, dt))
		ticks++
	}
	assert.Equal(t, want, ticks)
	assert.False(t, b.Cranking())
	assert.Equal(t, 15.0, v.FuelTank().Amount())
	assert.InDelta(t, 1-float64(want)*cfg.Battery.CrankUsage, b.Level(), 1e-9)

	// running engine recharges
	level := b.Level()
	require.NoError(t, bat.Tick(v, dt))
	assert.Greater(t, b.Level(), level)

	flush(bus)
	assert.Equal(t, []event.EngineToggled{{VehicleID: v.ID, Running: true}}, *toggled)
}

func TestInputSystem_DamagedEngineCranksLonger(t *testing.T) {
	healthy := newVehicle(20)
	wrecked := newVehicle(20)
	wrecked.Engine().SetHealth(0.05)
	assert.Greater(t,
		component.CrankTime(wrecked.Engine().Temperature(), 1, wrecked.Engine().Health()),
		component.CrankTime(healthy.Engine().Temperature(), 1, healthy.Engine().Health()))
}

func TestInputSystem_CrankCancelAndFlatBattery(t *testing.T) {
	cfg := config.Defaults()
	inbox := control.NewInbox()
	bus := event.NewBus()
	failed := collect[event.EngineStartFailed](bus)
	in := NewInputSystem(inbox, bus, 5, cfg.Battery)
	bat := NewBatterySystem(cfg.Battery, 5, 20, bus)

	v := newVehicle(20)
	b := withBattery(v, 1)
	inbox.Push(v.ID, control.StartEngine)
	require.NoError(t, in.Tick(v, dt))
	require.NoError(t, bat.Tick(v, dt))
	inbox.Push(v.ID, control.StartEngine)
	require.NoError(t, in.Tick(v, dt))
	assert.False(t, b.Cranking(), "second press cancels")
	assert.False(t, v.Engine().Running())

	// a nearly flat battery dies mid-crank
	weak := newVehicle(20)
	weak.ID = ecs.NewEntityID(2, 0)
	wb := withBattery(weak, 0.0025)
	inbox.Push(weak.ID, control.StartEngine)
	require.NoError(t, in.Tick(weak, dt))
	for i := 0; i < 100; i++ {
		require.NoError(t, bat.Tick(weak, dt))
	}
	assert.True(t, wb.Flat())
	assert.False(t, weak.Engine().Running())
	assert.Equal(t, 20.0, weak.FuelTank().Amount())

	// flat: refused outright
	inbox.Push(weak.ID, control.StartEngine)
	require.NoError(t, in.Tick(weak, dt))
	assert.False(t, wb.Cranking())

	flush(bus)
	require.Len(t, *failed, 2)
	assert.Equal(t, StartBattery, (*failed)[0].Reason)
	assert.Equal(t, StartBattery, (*failed)[1].Reason)
}

func TestInputSystem_HornNeedsCharge(t *testing.T) {
	cfg := config.Defaults().Battery
	inbox := control.NewInbox()
	bus := event.NewBus()
	horns := collect[event.HornSounded](bus)
	s := NewInputSystem(inbox, bus, 5, cfg)

	v := newVehicle(20)
	b := withBattery(v, 0.5)
	inbox.Push(v.ID, control.Horn)
	require.NoError(t, s.Tick(v, dt))
	assert.InDelta(t, 0.5-cfg.HornCost, b.Level(), 1e-12)

	b.SetLevel(cfg.HornMin / 2)
	inbox.Push(v.ID, control.Horn)
	require.NoError(t, s.Tick(v, dt))

	flush(bus)
	assert.Len(t, *horns, 1)
}

func TestInputSystem_Horn(t *testing.T) {
	inbox := control.NewInbox()
	bus := event.NewBus()
	horns := collect[event.HornSounded](bus)
	s := NewInputSystem(inbox, bus, 5, config.Defaults().Battery)
	v := newVehicle(20)

	inbox.Push(v.ID, control.Horn)
	require.NoError(t, s.Tick(v, dt))
	flush(bus)
	assert.Equal(t, []event.HornSounded{{VehicleID: v.ID}}, *horns)
}

func drive(s *MovementSystem, v *world.Vehicle, ticks int) {
	for i := 0; i < ticks; i++ {
		_ = s.Tick(v, dt)
	}
}

func TestMovementSystem_Accelerates(t *testing.T) {
	s := NewMovementSystem(config.Defaults().Movement)
	v := newVehicle(20)
	v.Engine().Start()
	v.Controls = control.Controls{Forward: true}

	drive(s, v, 1)
	assert.Greater(t, v.Engine().CurrentRPM(), 0.0)

	drive(s, v, 100)
	assert.Greater(t, v.Speed, 0.0)
	assert.LessOrEqual(t, v.Speed, testBody.MaxSpeed)
	assert.InDelta(t, 0, v.X, 1e-9, "heading 0 drives along +Z")
	assert.Greater(t, v.Z, 0.0)
	assert.InDelta(t, v.Z, v.Odometer, 1e-9)
	assert.InDelta(t, 5000*0.75, v.Engine().CurrentRPM(), 50)
}

func TestMovementSystem_StoppedEngineCoasts(t *testing.T) {
	s := NewMovementSystem(config.Defaults().Movement)
	v := newVehicle(20)
	v.Controls = control.Controls{Forward: true}

	drive(s, v, 20)
	assert.Zero(t, v.Speed)
	assert.Zero(t, v.Engine().CurrentRPM())

	v.Speed = 0.05
	drive(s, v, 10)
	assert.Zero(t, v.Speed, "rolling resistance stops without crossing zero")
}

func TestMovementSystem_BrakeWins(t *testing.T) {
	s := NewMovementSystem(config.Defaults().Movement)
	v := newVehicle(20)
	v.Engine().Start()
	v.Speed = 1.0
	v.Controls = control.Controls{Forward: true, Brake: true}

	drive(s, v, 1)
	assert.Less(t, v.Speed, 1.0)
	drive(s, v, 30)
	assert.InDelta(t, 0, v.Speed, 1e-9)
}

func TestMovementSystem_ClampsSpeed(t *testing.T) {
	s := NewMovementSystem(config.Defaults().Movement)
	v := newVehicle(20)
	v.Speed = 10
	drive(s, v, 1)
	assert.Equal(t, testBody.MaxSpeed, v.Speed)

	v.Speed = -10
	drive(s, v, 1)
	assert.Equal(t, -testBody.MaxReverseSpeed, v.Speed)
}

func TestMovementSystem_Steering(t *testing.T) {
	s := NewMovementSystem(config.Defaults().Movement)
	v := newVehicle(20)
	v.Controls = control.Controls{Right: true}

	drive(s, v, 1)
	assert.Zero(t, v.Heading, "no turning while standing")

	v.Speed = 1.0
	drive(s, v, 1)
	// |0.5/0.98²| is below the minimum, so the turn is clamped to 2°
	assert.InDelta(t, 2.0, v.Heading, 1e-9)

	v.Heading = 0
	v.Speed = -0.3
	drive(s, v, 1)
	assert.Less(t, v.Heading, 0.0, "reversing turns the other way")
	assert.InDelta(t, -5.0, v.Heading, 1e-9)
}

func TestWheelSystem_RotatesWithSpeed(t *testing.T) {
	s := NewWheelSystem(config.Defaults().Wheel)
	v := newVehicle(20)
	v.Speed = 1

	require.NoError(t, s.Tick(v, dt))
	w := v.Wheel()
	assert.Equal(t, 1.0, w.Traction(), "within grip")
	// wear is applied before the rotation update
	assert.InDelta(t, 360/(0.8*math.Pi)*(1-0.5e-4), w.RotationSpeed(), 1e-9)
	assert.InDelta(t, 1e-4, w.Wear(), 1e-12)
}

func TestWheelSystem_SlipsAboveGrip(t *testing.T) {
	s := NewWheelSystem(config.Defaults().Wheel)
	v := newVehicle(20)
	v.Speed = 5

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Tick(v, dt))
	}
	// limit 2 → target 1/(1+3)
	assert.InDelta(t, 0.25, v.Wheel().Traction(), 5e-3)

	v.Speed = 0
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Tick(v, dt))
	}
	assert.InDelta(t, 1.0, v.Wheel().Traction(), 1e-3)
}

func TestFuelSystem_Burns(t *testing.T) {
	bus := event.NewBus()
	s := NewFuelSystem(bus)
	v := newVehicle(20)

	require.NoError(t, s.Tick(v, dt))
	assert.Equal(t, 20.0, v.FuelTank().Amount(), "stopped engine burns nothing")

	v.Engine().Start()
	v.Engine().SetRPM(2500)
	require.NoError(t, s.Tick(v, dt))
	want := (0.1 + 0.5) * dt
	assert.InDelta(t, 20-want, v.FuelTank().Amount(), 1e-12)
	assert.True(t, v.Engine().Running())
}

func TestFuelSystem_StallsOnEmpty(t *testing.T) {
	bus := event.NewBus()
	stalls := collect[event.EngineStalled](bus)
	s := NewFuelSystem(bus)

	// less than one tick of idle consumption (0.1·1·0.05 = 0.005)
	v := newVehicle(0.001)
	v.Engine().Start()

	require.NoError(t, s.Tick(v, dt))
	assert.False(t, v.Engine().Running())
	assert.True(t, v.FuelTank().Empty())

	flush(bus)
	assert.Equal(t, []event.EngineStalled{{VehicleID: v.ID, Reason: event.StallFuel}}, *stalls)
}

func TestEngineThermalSystem(t *testing.T) {
	cfg := config.Defaults().Thermal
	s := NewEngineThermalSystem(cfg, 20)
	v := newVehicle(20)
	e := v.Engine()

	require.NoError(t, s.Tick(v, dt))
	assert.Equal(t, 20.0, e.Temperature(), "cold engine stays at ambient")
	assert.Zero(t, e.Wear(), "no wear while stopped")

	e.Start()
	e.SetRPM(5000)
	for i := 0; i < 20*60*10; i++ {
		require.NoError(t, s.Tick(v, dt))
	}
	assert.InDelta(t, cfg.HotTarget+cfg.LoadBonus, e.Temperature(), 0.5)
	assert.Less(t, e.Temperature(), cfg.CriticalTemperature)
	assert.Greater(t, e.Wear(), 0.0)

	e.Stop()
	wear := e.Wear()
	hot := e.Temperature()
	require.NoError(t, s.Tick(v, dt))
	assert.Less(t, e.Temperature(), hot)
	assert.Equal(t, wear, e.Wear())
}

func TestEngineThermalSystem_TargetsOptimalTemperature(t *testing.T) {
	cfg := config.Defaults().Thermal
	s := NewEngineThermalSystem(cfg, 20)

	spec := *testEngine
	spec.OptimalTemperature = 70
	v := newVehicle(20)
	v.Attach(component.NewEngine(&spec))
	e := v.Engine()
	e.Start()
	e.SetRPM(0)
	for i := 0; i < 20*60*10; i++ {
		require.NoError(t, s.Tick(v, dt))
	}
	assert.InDelta(t, 70, e.Temperature(), 0.5)

	// a hot day keeps the engine at ambient
	desert := NewEngineThermalSystem(cfg, 85)
	for i := 0; i < 20*60*10; i++ {
		require.NoError(t, desert.Tick(v, dt))
	}
	assert.InDelta(t, 85, e.Temperature(), 0.5)
}

func TestEngineThermalSystem_OverheatWear(t *testing.T) {
	cfg := config.Defaults().Thermal
	s := NewEngineThermalSystem(cfg, 20)

	normal := newVehicle(20)
	normal.Engine().Start()
	normal.Engine().SetTemperature(cfg.HotTarget)
	require.NoError(t, s.Tick(normal, dt))

	hot := newVehicle(20)
	hot.Engine().Start()
	hot.Engine().SetTemperature(cfg.CriticalTemperature + 20)
	require.NoError(t, s.Tick(hot, dt))

	assert.InDelta(t, normal.Engine().Wear()*cfg.OverheatWearMultiplier, hot.Engine().Wear(), 1e-15)
}

func TestDamageSystem_Collisions(t *testing.T) {
	cfg := config.Defaults().Damage
	bus := event.NewBus()
	stalls := collect[event.EngineStalled](bus)
	s := NewDamageSystem(cfg, 110, bus)

	v := newVehicle(20)
	v.Engine().Start()
	v.Speed = 0.4
	v.ApplyCollision(0.3)
	require.NoError(t, s.Tick(v, dt))
	assert.Equal(t, 1.0, v.Engine().Health(), "below threshold")
	assert.Equal(t, 0.4, v.Speed)

	v.ApplyCollision(1.0)
	require.NoError(t, s.Tick(v, dt))
	assert.InDelta(t, 1-0.5*0.4, v.Engine().Health(), 1e-12)
	assert.Equal(t, cfg.PostCollisionSpeed, v.Speed)
	assert.True(t, v.Engine().Running(), "1.0 is below 0.8·maxSpeed")

	v.ApplyCollision(1.3)
	require.NoError(t, s.Tick(v, dt))
	assert.False(t, v.Engine().Running(), "severe impact stops the engine")

	flush(bus)
	assert.Equal(t, []event.EngineStalled{{VehicleID: v.ID, Reason: event.StallCollision}}, *stalls)
}

func TestDamageSystem_Destroyed(t *testing.T) {
	bus := event.NewBus()
	stalls := collect[event.EngineStalled](bus)
	s := NewDamageSystem(config.Defaults().Damage, 110, bus)

	v := newVehicle(20)
	v.Engine().Start()
	v.Engine().SetHealth(0.0002)
	v.Engine().SetTemperature(130)
	require.NoError(t, s.Tick(v, dt))
	require.NoError(t, s.Tick(v, dt))

	assert.Zero(t, v.Engine().Health())
	assert.False(t, v.Engine().Running())
	assert.False(t, v.Engine().Start(), "refused until repaired")

	flush(bus)
	assert.Equal(t, []event.EngineStalled{{VehicleID: v.ID, Reason: event.StallDestroyed}}, *stalls)
}

func TestEngineAudioSystem(t *testing.T) {
	bus := event.NewBus()
	changes := collect[event.EngineStateChanged](bus)
	s := NewEngineAudioSystem(bus)
	assert.True(t, coresys.ClientOnly(s.Name()))

	v := newVehicle(20)
	require.NoError(t, s.Tick(v, dt))
	v.Engine().Start()
	require.NoError(t, s.Tick(v, dt))
	require.NoError(t, s.Tick(v, dt))
	v.Engine().SetRPM(4000)
	require.NoError(t, s.Tick(v, dt))
	v.Engine().Stop()
	require.NoError(t, s.Tick(v, dt))

	flush(bus)
	assert.Equal(t, []event.EngineStateChanged{
		{VehicleID: v.ID, Running: true, RPMBucket: 0},
		{VehicleID: v.ID, Running: true, RPMBucket: 3},
		{VehicleID: v.ID, Running: false, RPMBucket: 0},
	}, *changes)
}

func TestRPMBucket(t *testing.T) {
	assert.Equal(t, uint8(0), RPMBucket(0))
	assert.Equal(t, uint8(1), RPMBucket(0.25))
	assert.Equal(t, uint8(3), RPMBucket(1))
	assert.Equal(t, uint8(0), RPMBucket(-1))
}

// newPipeline registers the server-side systems the way the server does.
func newPipeline(t *testing.T, inbox *control.Inbox, bus *event.Bus) *coresys.Manager[*world.Vehicle] {
	cfg := config.Defaults()
	m := coresys.NewManager[*world.Vehicle](zap.NewNop())
	for _, s := range []coresys.System[*world.Vehicle]{
		NewDamageSystem(cfg.Damage, cfg.Thermal.CriticalTemperature, bus),
		NewFuelSystem(bus),
		NewInputSystem(inbox, bus, cfg.Fuel.StartCost, cfg.Battery),
		NewBatterySystem(cfg.Battery, cfg.Fuel.StartCost, cfg.Simulation.AmbientTemperature, bus),
		NewWheelSystem(cfg.Wheel),
		NewEngineAudioSystem(bus),
		NewMovementSystem(cfg.Movement),
		NewEngineThermalSystem(cfg.Thermal, cfg.Simulation.AmbientTemperature),
	} {
		require.NoError(t, m.Register(s))
	}
	return m
}

func TestPipeline_TenMinuteCruiseKeepsEngineAlive(t *testing.T) {
	cfg := config.Defaults()
	inbox := control.NewInbox()
	bus := event.NewBus()
	stalls := collect[event.EngineStalled](bus)
	m := newPipeline(t, inbox, bus)

	spec := *testEngine
	spec.OptimalTemperature = 90
	tank := *testTank
	tank.Capacity = 1e9
	v := world.NewVehicle("cruiser")
	v.Attach(component.NewEngine(&spec))
	ft := component.NewFuelTank(&tank)
	ft.Fill("diesel", tank.Capacity)
	v.Attach(ft)
	v.Attach(component.NewWheel(testWheel, 4))
	v.Attach(component.NewBody(testBody))
	v.Attach(component.NewBattery())

	w := world.New(coresys.SideServer)
	w.Spawn(v)
	v.Driver = 7
	inbox.Push(v.ID, control.StartEngine)
	inbox.SetControls(v.ID, control.Controls{Forward: true})

	for i := 0; i < 20*60*10; i++ {
		m.Tick(w)
		flush(bus)
	}
	assert.True(t, v.Engine().Running())
	assert.Greater(t, v.Engine().Health(), 0.0)
	assert.Less(t, v.Engine().Temperature(), cfg.Thermal.CriticalTemperature)
	assert.Empty(t, *stalls)
	assert.Zero(t, m.Faults())
}

func TestPipeline_DriveUntilEmpty(t *testing.T) {
	inbox := control.NewInbox()
	bus := event.NewBus()
	stalls := collect[event.EngineStalled](bus)
	m := newPipeline(t, inbox, bus)

	var names []string
	for _, s := range m.Systems() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"input", "battery", "movement", "wheel", "fuel", "engine_thermal", "damage", "client/engine_audio"}, names)

	w := world.New(coresys.SideServer)
	v := newVehicle(6)
	w.Spawn(v)
	v.Driver = 7

	inbox.Push(v.ID, control.StartEngine)
	inbox.SetControls(v.ID, control.Controls{Forward: true})
	m.Tick(w)
	require.True(t, v.Engine().Running())

	for i := 0; i < 20*60 && v.Engine().Running(); i++ {
		m.Tick(w)
		flush(bus)
	}
	assert.False(t, v.Engine().Running())
	assert.True(t, v.FuelTank().Empty())
	assert.Greater(t, v.Odometer, 0.0)
	assert.Greater(t, v.Wheel().Wear(), 0.0)
	require.Len(t, *stalls, 1)
	assert.Equal(t, event.StallFuel, (*stalls)[0].Reason)
	assert.Zero(t, m.Faults())
}
