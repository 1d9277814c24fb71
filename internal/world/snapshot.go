package world

import (
	"errors"
	"fmt"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// Snapshot is an immutable copy of a vehicle for the save worker. Revision
// grows with every snapshot of the same vehicle; storage keeps the highest.
type Snapshot struct {
	ID         ecs.EntityID
	Revision   uint64
	ModelID    string
	Owner      int64
	X, Y, Z    float64
	Heading    float64
	Odometer   float64
	Components []component.Tag
}

func (v *Vehicle) Snapshot() Snapshot {
	v.revision++
	s := Snapshot{
		ID:       v.ID,
		Revision: v.revision,
		ModelID:  v.ModelID,
		Owner:    v.Owner,
		X:        v.X,
		Y:        v.Y,
		Z:        v.Z,
		Heading:  v.Heading,
		Odometer: v.Odometer,
	}
	v.Each(func(c ecs.Component) {
		s.Components = append(s.Components, component.Encode(c))
	})
	return s
}

// FromSnapshot rebuilds a vehicle. A record with an unknown component type is
// skipped and reported in the returned error; the vehicle is still usable.
func FromSnapshot(s Snapshot, specs component.SpecResolver) (*Vehicle, error) {
	v := NewVehicle(s.ModelID)
	v.ID = s.ID
	v.Owner = s.Owner
	v.X, v.Y, v.Z = s.X, s.Y, s.Z
	v.SetHeading(s.Heading)
	v.Odometer = s.Odometer
	v.revision = s.Revision

	var errs []error
	for _, tag := range s.Components {
		c, err := component.Decode(tag, specs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		v.Attach(c)
	}
	if len(errs) > 0 {
		return v, fmt.Errorf("vehicle %s: %w", s.ID, errors.Join(errs...))
	}
	return v, nil
}
