// Package fuelstation sells fuel on credit: the pumped amount goes into the
// tank and a bill is recorded in the ledger for later payment.
package fuelstation

import (
	"context"
	"errors"
	"fmt"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/data"
	"github.com/schedulemc/vehiclesim/internal/economy"
	"github.com/schedulemc/vehiclesim/internal/scripting"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

var (
	ErrIncompatibleFluid = errors.New("tank holds a different fluid")
	ErrUnknownFluid      = errors.New("fluid not sold here")
	ErrNoTank            = errors.New("vehicle has no fuel tank")
	ErrTankFull          = errors.New("tank is full")
)

// Ledger records fuel bills. persist.FuelBillRepo implements it.
type Ledger interface {
	RecordConsumption(ctx context.Context, player int64, amount float64, cost int64) error
}

// Pricer computes the price of a sale. *scripting.Engine implements it.
type Pricer interface {
	CalcFuelPrice(ctx scripting.FuelPriceContext) scripting.FuelPriceResult
}

// Clock reports the in-game time in ticks.
type Clock interface {
	DayTime() int64
}

// Receipt describes one completed sale.
type Receipt struct {
	Player     int64
	Fluid      component.Fluid
	Amount     float64 // units actually pumped
	PricePer10 float64 // major units
	Period     string
	Cost       int64 // minor units
	Text       string
}

type Station struct {
	fluids      *data.Registry
	pricer      Pricer
	ledger      Ledger
	clock       Clock
	money       *economy.Money
	cfg         config.StationConfig
	ticksPerDay int64
	log         *zap.Logger
}

func NewStation(
	fluids *data.Registry,
	pricer Pricer,
	ledger Ledger,
	clock Clock,
	money *economy.Money,
	cfg config.StationConfig,
	ticksPerDay int,
	log *zap.Logger,
) *Station {
	return &Station{
		fluids:      fluids,
		pricer:      pricer,
		ledger:      ledger,
		clock:       clock,
		money:       money,
		cfg:         cfg,
		ticksPerDay: int64(ticksPerDay),
		log:         log,
	}
}

// Refuel pumps up to amount of fluid into the vehicle's tank. Only the amount
// the tank absorbed is billed. If the bill cannot be recorded the fuel is
// drained back out and the error returned.
func (s *Station) Refuel(ctx context.Context, v *world.Vehicle, player int64, fluid component.Fluid, amount float64) (Receipt, error) {
	tank := v.FuelTank()
	if tank == nil {
		return Receipt{}, ErrNoTank
	}
	spec := s.fluids.Fluid(fluid)
	if spec == nil {
		return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownFluid, fluid)
	}
	if !tank.Empty() && tank.Fluid() != fluid {
		return Receipt{}, fmt.Errorf("%w: has %s, offered %s", ErrIncompatibleFluid, tank.Fluid(), fluid)
	}

	pumped := tank.Fill(fluid, amount)
	if pumped <= 0 {
		return Receipt{}, ErrTankFull
	}

	price := s.pricer.CalcFuelPrice(scripting.FuelPriceContext{
		DayTime:      s.clock.DayTime(),
		TicksPerDay:  s.ticksPerDay,
		MorningPrice: s.cfg.MorningPrice,
		EveningPrice: s.cfg.EveningPrice,
		PriceFactor:  spec.PriceFactor,
		Amount:       pumped,
	})
	cost := s.money.ToMinor(price.Cost)

	if err := s.ledger.RecordConsumption(ctx, player, pumped, cost); err != nil {
		tank.Drain(pumped)
		return Receipt{}, fmt.Errorf("record fuel bill: %w", err)
	}

	r := Receipt{
		Player:     player,
		Fluid:      fluid,
		Amount:     pumped,
		PricePer10: price.PricePer10,
		Period:     price.Period,
		Cost:       cost,
	}
	r.Text = s.receiptText(spec, r)
	s.log.Info("fuel sold",
		zap.Int64("player", player),
		zap.Stringer("vehicle", v.ID),
		zap.String("fluid", string(fluid)),
		zap.Float64("amount", pumped),
		zap.Int64("cost", cost),
		zap.String("period", price.Period),
	)
	return r, nil
}

func (s *Station) receiptText(spec *data.FluidSpec, r Receipt) string {
	name := spec.Name
	if name == "" {
		name = string(spec.ID)
	}
	p := s.money.Printer()
	return p.Sprintf("%s: %.1f units at %s per 10 (%s), total %s",
		name, r.Amount,
		s.money.Format(s.money.ToMinor(r.PricePer10)),
		r.Period,
		s.money.Format(r.Cost),
	)
}
