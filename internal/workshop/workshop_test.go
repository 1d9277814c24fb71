package workshop

import (
	"context"
	"testing"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/data"
	"github.com/schedulemc/vehiclesim/internal/economy"
	"github.com/schedulemc/vehiclesim/internal/scripting"
	"github.com/schedulemc/vehiclesim/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fallbackPricer struct {
	last scripting.RepairContext
}

func (p *fallbackPricer) CalcRepairCost(ctx scripting.RepairContext) int64 {
	p.last = ctx
	return scripting.RepairCostFallback(ctx)
}

func setup(t *testing.T) (*Workshop, *economy.Memory, *fallbackPricer) {
	t.Helper()
	reg, err := data.ParseRegistry([]byte("models:\n  - id: sedan\n    price: 1000000\n"))
	require.NoError(t, err)
	money, err := economy.NewMoney("EUR", "en")
	require.NoError(t, err)
	store := economy.NewMemory()
	pricer := &fallbackPricer{}
	aging := component.Aging{Distances: []float64{1000}, MaxHealth: []float64{1, 0.7}}
	return New(reg, store, pricer, money, aging, zap.NewNop()), store, pricer
}

func damaged() *world.Vehicle {
	v := world.NewVehicle("sedan")
	e := component.NewEngine(&component.EngineSpec{ID: "default", MaxPower: 1, MaxRPM: 1})
	e.SetHealth(0.5)
	e.SetWear(0.2)
	v.Attach(e)
	wh := component.NewWheel(&component.WheelSpec{ID: "default", Diameter: 0.8}, 4)
	wh.SetWear(0.1)
	v.Attach(wh)
	return v
}

func TestQuote(t *testing.T) {
	w, _, pricer := setup(t)
	cost, err := w.Quote(damaged())
	require.NoError(t, err)

	assert.Equal(t, int64(1000000), pricer.last.ModelPrice)
	assert.Equal(t, 4, pricer.last.WheelCount)
	// 5000 + 0.5·1e6·0.3 + 0.2·1e6·0.1 + 0.1·4·2500
	assert.Equal(t, int64(5000+150000+20000+1000), cost)
}

func TestRepair(t *testing.T) {
	ctx := context.Background()
	w, store, _ := setup(t)
	require.NoError(t, store.Credit(ctx, 3, 200000))
	v := damaged()

	r, err := w.Repair(ctx, v, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(176000), r.Cost)
	assert.Contains(t, r.Text, "sedan")
	assert.Equal(t, 1.0, v.Engine().Health())
	assert.Zero(t, v.Engine().Wear())
	assert.Zero(t, v.Wheel().Wear())

	bal, _ := store.Balance(ctx, 3)
	assert.Equal(t, int64(24000), bal)

	_, err = w.Repair(ctx, v, 3)
	assert.ErrorIs(t, err, ErrNothingToRepair)
}

func TestRepair_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	w, store, _ := setup(t)
	require.NoError(t, store.Credit(ctx, 3, 100))
	v := damaged()

	_, err := w.Repair(ctx, v, 3)
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
	assert.Equal(t, 0.5, v.Engine().Health(), "nothing repaired")
}

func TestRepair_NoEngine(t *testing.T) {
	w, _, _ := setup(t)
	_, err := w.Repair(context.Background(), world.NewVehicle("sedan"), 1)
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestRepair_AgedVehicleCapped(t *testing.T) {
	ctx := context.Background()
	w, store, pricer := setup(t)
	require.NoError(t, store.Credit(ctx, 3, 200000))
	v := damaged()
	v.Odometer = 5000

	cost, err := w.Quote(v)
	require.NoError(t, err)
	assert.Equal(t, 0.7, pricer.last.MaxHealth)
	// 5000 + 0.2·1e6·0.3 + 0.2·1e6·0.1 + 0.1·4·2500
	assert.Equal(t, int64(5000+60000+20000+1000), cost)

	_, err = w.Repair(ctx, v, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.7, v.Engine().Health())
	assert.Zero(t, v.Engine().Wear())

	_, err = w.Repair(ctx, v, 3)
	assert.ErrorIs(t, err, ErrNothingToRepair, "already at the aged ceiling")
}
