package dealer

import (
	"context"
	"fmt"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/data"
	"github.com/schedulemc/vehiclesim/internal/economy"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

// ErrInsufficientFunds is returned when the buyer cannot pay the price.
var ErrInsufficientFunds = economy.ErrInsufficientFunds

// Spawner adds a bought vehicle to the world. *world.World implements it.
type Spawner interface {
	Spawn(v *world.Vehicle) ecs.EntityID
}

type Dealer struct {
	models  *data.Registry
	store   economy.Store
	factory *Factory
	world   Spawner
	log     *zap.Logger
}

func New(models *data.Registry, store economy.Store, factory *Factory, w Spawner, log *zap.Logger) *Dealer {
	return &Dealer{models: models, store: store, factory: factory, world: w, log: log}
}

// Catalog lists the models for sale, cheapest first.
func (d *Dealer) Catalog() []*data.VehicleModel {
	return d.models.Models()
}

// Purchase debits the model price, assembles the vehicle, makes the buyer its
// owner and spawns it. It returns the vehicle and the price paid. If assembly
// fails after the debit the price is credited back.
func (d *Dealer) Purchase(ctx context.Context, player int64, modelID string) (*world.Vehicle, int64, error) {
	m := d.models.Model(modelID)
	if m == nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}

	if err := economy.Charge(ctx, d.store, player, m.Price); err != nil {
		return nil, 0, err
	}

	v, err := d.factory.Assemble(m.ID)
	if err != nil {
		if rerr := d.store.Credit(ctx, player, m.Price); rerr != nil {
			d.log.Error("purchase refund failed",
				zap.Int64("player", player),
				zap.String("model", m.ID),
				zap.Int64("amount", m.Price),
				zap.Error(rerr),
			)
		}
		return nil, 0, fmt.Errorf("assemble %s: %w", m.ID, err)
	}

	v.Owner = player
	d.world.Spawn(v)
	d.log.Info("vehicle purchased",
		zap.Int64("player", player),
		zap.String("model", m.ID),
		zap.Stringer("vehicle", v.ID),
		zap.Int64("price", m.Price),
	)
	return v, m.Price, nil
}
