// Package workshop repairs engines and wheel sets for a fee.
package workshop

import (
	"context"
	"errors"
	"fmt"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/data"
	"github.com/schedulemc/vehiclesim/internal/economy"
	"github.com/schedulemc/vehiclesim/internal/scripting"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

var (
	ErrNothingToRepair = errors.New("nothing to repair")
	ErrNoEngine        = errors.New("vehicle has no engine")
)

// Pricer computes repair costs. *scripting.Engine implements it.
type Pricer interface {
	CalcRepairCost(ctx scripting.RepairContext) int64
}

// Receipt describes one completed repair.
type Receipt struct {
	Player int64
	Cost   int64 // minor units
	Text   string
}

type Workshop struct {
	models *data.Registry
	store  economy.Store
	pricer Pricer
	money  *economy.Money
	aging  component.Aging
	log    *zap.Logger
}

func New(models *data.Registry, store economy.Store, pricer Pricer, money *economy.Money, aging component.Aging, log *zap.Logger) *Workshop {
	return &Workshop{models: models, store: store, pricer: pricer, money: money, aging: aging, log: log}
}

// MaxHealth is the engine health a repair restores on v; it drops as the
// odometer passes the aging thresholds.
func (w *Workshop) MaxHealth(v *world.Vehicle) float64 {
	return w.aging.MaxHealthAt(v.Odometer)
}

// Quote returns the price of a full repair without charging it.
func (w *Workshop) Quote(v *world.Vehicle) (int64, error) {
	e := v.Engine()
	if e == nil {
		return 0, ErrNoEngine
	}
	rc := scripting.RepairContext{
		EngineHealth: e.Health(),
		EngineWear:   e.Wear(),
		MaxHealth:    w.MaxHealth(v),
	}
	if wh := v.Wheel(); wh != nil {
		rc.WheelWear = wh.Wear()
		rc.WheelCount = wh.Count
	}
	if !e.NeedsRepair(rc.MaxHealth) && rc.WheelWear <= 0 {
		return 0, ErrNothingToRepair
	}
	if m := w.models.Model(v.ModelID); m != nil {
		rc.ModelPrice = m.Price
	}
	return w.pricer.CalcRepairCost(rc), nil
}

// Repair charges the quoted price, restores the engine to MaxHealth with no
// wear and clears the wheel wear. A running engine keeps running.
func (w *Workshop) Repair(ctx context.Context, v *world.Vehicle, player int64) (Receipt, error) {
	cost, err := w.Quote(v)
	if err != nil {
		return Receipt{}, err
	}
	if err := economy.Charge(ctx, w.store, player, cost); err != nil {
		return Receipt{}, fmt.Errorf("repair %s: %w", v.ID, err)
	}

	v.Engine().Repair(w.MaxHealth(v))
	if wh := v.Wheel(); wh != nil {
		wh.SetWear(0)
	}

	w.log.Info("vehicle repaired",
		zap.Int64("player", player),
		zap.Stringer("vehicle", v.ID),
		zap.Int64("cost", cost),
	)
	return Receipt{
		Player: player,
		Cost:   cost,
		Text:   w.money.Printer().Sprintf("Repair of %s: %s", v.ModelID, w.money.Format(cost)),
	}, nil
}
