package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
)

// ErrIDInUse is returned when a restored vehicle's id is already alive.
var ErrIDInUse = errors.New("vehicle id in use")

// vehicleIndex is the world's only per-entity store.
type vehicleIndex map[ecs.EntityID]*Vehicle

func (idx vehicleIndex) Remove(id ecs.EntityID) { delete(idx, id) }

// World owns the vehicles of one simulation. Not safe for concurrent use;
// everything runs on the tick goroutine.
type World struct {
	ecs      *ecs.World
	side     coresys.Side
	vehicles vehicleIndex
}

var _ coresys.Source[*Vehicle] = (*World)(nil)

func New(side coresys.Side) *World {
	w := &World{
		ecs:      ecs.NewWorld(),
		side:     side,
		vehicles: make(vehicleIndex, 64),
	}
	w.ecs.Registry().Register(w.vehicles)
	return w
}

func (w *World) Side() coresys.Side { return w.side }

// Spawn assigns a fresh id and adds v to the world.
func (w *World) Spawn(v *Vehicle) ecs.EntityID {
	v.ID = w.ecs.CreateEntity()
	v.removed = false
	w.vehicles[v.ID] = v
	return v.ID
}

// Restore adds a vehicle under the id it was saved with.
func (w *World) Restore(v *Vehicle) error {
	if !w.ecs.ReserveEntity(v.ID) {
		return fmt.Errorf("restore vehicle %s: %w", v.ID, ErrIDInUse)
	}
	v.removed = false
	w.vehicles[v.ID] = v
	return nil
}

// Get returns a live vehicle, or nil if it does not exist or was removed.
func (w *World) Get(id ecs.EntityID) *Vehicle {
	v, ok := w.vehicles[id]
	if !ok || v.removed {
		return nil
	}
	return v
}

// Remove hides the vehicle from every later system immediately; its id is
// freed at the next FlushRemoved.
func (w *World) Remove(id ecs.EntityID) bool {
	v := w.Get(id)
	if v == nil {
		return false
	}
	v.removed = true
	w.ecs.MarkForDestruction(id)
	return true
}

// FlushRemoved frees removed vehicles and returns their ids.
func (w *World) FlushRemoved() []ecs.EntityID {
	return w.ecs.FlushDestroyQueue()
}

// Vehicles returns the live vehicles ordered by ascending id.
func (w *World) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, len(w.vehicles))
	for _, v := range w.vehicles {
		if !v.removed {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Entities is Vehicles, for the system manager.
func (w *World) Entities() []*Vehicle { return w.Vehicles() }

// Len counts live vehicles.
func (w *World) Len() int {
	n := 0
	for _, v := range w.vehicles {
		if !v.removed {
			n++
		}
	}
	return n
}
