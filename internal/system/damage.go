package system

import (
	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// DamageSystem applies queued collisions and overheating to engine health.
// A destroyed engine is stopped and stays off until repaired.
type DamageSystem struct {
	cfg      config.DamageConfig
	critical float64
	bus      *event.Bus
}

func NewDamageSystem(cfg config.DamageConfig, criticalTemperature float64, bus *event.Bus) *DamageSystem {
	return &DamageSystem{cfg: cfg, critical: criticalTemperature, bus: bus}
}

func (s *DamageSystem) Name() string               { return "damage" }
func (s *DamageSystem) Priority() int              { return 500 }
func (s *DamageSystem) Requires() ecs.ComponentSet { return ecs.SetOf(ecs.Engine) }

func (s *DamageSystem) Tick(v *world.Vehicle, dt float64) error {
	e := v.Engine()

	for _, impact := range v.DrainCollisions() {
		if impact <= s.cfg.CollisionSpeedThreshold {
			continue
		}
		e.SetHealth(e.Health() - (impact-s.cfg.CollisionSpeedThreshold)*s.cfg.CollisionDamageFactor)
		v.Speed = s.cfg.PostCollisionSpeed

		if b := v.Body(); b != nil && e.Running() && e.Health() > 0 &&
			impact > s.cfg.EngineStopRatio*b.Spec.MaxSpeed {
			e.Stop()
			event.Emit(s.bus, event.EngineStalled{VehicleID: v.ID, Reason: event.StallCollision})
		}
	}

	if e.Temperature() > s.critical {
		e.SetHealth(e.Health() - s.cfg.OverheatHealthLoss*dt)
	}

	if e.Health() <= 0 && e.Running() {
		e.Stop()
		event.Emit(s.bus, event.EngineStalled{VehicleID: v.ID, Reason: event.StallDestroyed})
	}
	return nil
}
