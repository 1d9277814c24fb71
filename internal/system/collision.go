package system

import (
	"math"
	"time"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// CollisionSystem finds vehicles that come within the contact radius of each
// other and queues the impact on both. A pair that stays in contact is hit
// once, on the tick the contact begins. Phase 1 (Update), registered before
// SimulationSystem so DamageSystem sees the impact in the same tick.
type CollisionSystem struct {
	world    *world.World
	radius   float64
	grid     *world.Grid
	contacts map[contactPair]struct{}
	next     map[contactPair]struct{}
}

type contactPair struct {
	a, b ecs.EntityID // a < b
}

func NewCollisionSystem(w *world.World, radius float64) *CollisionSystem {
	return &CollisionSystem{
		world:    w,
		radius:   radius,
		grid:     world.NewGrid(radius),
		contacts: make(map[contactPair]struct{}),
		next:     make(map[contactPair]struct{}),
	}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CollisionSystem) Update(_ time.Duration) {
	vehicles := s.world.Vehicles()
	s.grid.Reset()
	for _, v := range vehicles {
		s.grid.Add(v.ID, v.X, v.Z)
	}

	for _, a := range vehicles {
		for _, id := range s.grid.Nearby(a.X, a.Z) {
			if id <= a.ID {
				continue
			}
			b := s.world.Get(id)
			if b == nil || !world.Within(a, b, s.radius) {
				continue
			}
			p := contactPair{a.ID, b.ID}
			s.next[p] = struct{}{}
			if _, touching := s.contacts[p]; touching {
				continue
			}
			impact := relativeSpeed(a, b)
			a.ApplyCollision(impact)
			b.ApplyCollision(impact)
		}
	}

	s.contacts, s.next = s.next, s.contacts
	clear(s.next)
}

// InContact reports whether a and b touched on the last tick.
func (s *CollisionSystem) InContact(a, b ecs.EntityID) bool {
	if a > b {
		a, b = b, a
	}
	_, ok := s.contacts[contactPair{a, b}]
	return ok
}

func velocity(v *world.Vehicle) (vx, vz float64) {
	rad := v.Heading * math.Pi / 180
	return -math.Sin(rad) * v.Speed, math.Cos(rad) * v.Speed
}

// relativeSpeed is the closing speed of two vehicles in units per tick.
func relativeSpeed(a, b *world.Vehicle) float64 {
	ax, az := velocity(a)
	bx, bz := velocity(b)
	return math.Hypot(ax-bx, az-bz)
}
