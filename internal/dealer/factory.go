// Package dealer sells vehicles: the price is debited, the model assembled
// from its catalog parts and the vehicle spawned into the world.
package dealer

import (
	"errors"
	"fmt"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/data"
	"github.com/schedulemc/vehiclesim/internal/world"
)

var ErrUnknownModel = errors.New("unknown vehicle model")

// Factory builds fully componentised vehicles from catalog models.
type Factory struct {
	specs *data.Registry
}

func NewFactory(specs *data.Registry) *Factory {
	return &Factory{specs: specs}
}

// Assemble attaches engine, tank, wheel set and body and pours the model's
// starting fuel. Part ids unknown to the catalog fall back to the defaults;
// an unknown starting fluid is an error.
func (f *Factory) Assemble(modelID string) (*world.Vehicle, error) {
	m := f.specs.Model(modelID)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}

	v := world.NewVehicle(m.ID)
	v.Attach(component.NewEngine(f.specs.EngineSpec(m.Engine)))
	tank := component.NewFuelTank(f.specs.TankSpec(m.Tank))
	v.Attach(tank)
	v.Attach(component.NewWheel(f.specs.WheelSpec(m.Wheel), m.WheelCount))
	v.Attach(component.NewBody(f.specs.BodySpec(m.Body)))
	v.Attach(component.NewBattery())

	if m.StartFuel > 0 {
		if f.specs.Fluid(m.StartFluid) == nil {
			return nil, fmt.Errorf("model %s: unknown start fluid %q", m.ID, m.StartFluid)
		}
		tank.Fill(m.StartFluid, m.StartFuel)
	}
	return v, nil
}
