package system

import (
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/world"
)

type audioState struct {
	running bool
	bucket  uint8
}

// EngineAudioSystem publishes engine state changes for the sound layer.
// Client worlds only.
type EngineAudioSystem struct {
	bus  *event.Bus
	last map[ecs.EntityID]audioState
}

func NewEngineAudioSystem(bus *event.Bus) *EngineAudioSystem {
	return &EngineAudioSystem{bus: bus, last: make(map[ecs.EntityID]audioState)}
}

func (s *EngineAudioSystem) Name() string               { return coresys.ClientPrefix + "engine_audio" }
func (s *EngineAudioSystem) Priority() int              { return 900 }
func (s *EngineAudioSystem) Requires() ecs.ComponentSet { return ecs.SetOf(ecs.Engine) }

func (s *EngineAudioSystem) Tick(v *world.Vehicle, _ float64) error {
	e := v.Engine()
	cur := audioState{running: e.Running(), bucket: RPMBucket(e.RPMRatio())}

	prev, seen := s.last[v.ID]
	s.last[v.ID] = cur
	if seen && prev == cur {
		return nil
	}
	// a vehicle seen for the first time with its engine off is silent already
	if !seen && !cur.running {
		return nil
	}
	event.Emit(s.bus, event.EngineStateChanged{
		VehicleID: v.ID,
		Running:   cur.running,
		RPMBucket: cur.bucket,
	})
	return nil
}

// Forget drops the remembered state of a removed vehicle.
func (s *EngineAudioSystem) Forget(id ecs.EntityID) {
	delete(s.last, id)
}

// RPMBucket maps an RPM ratio to one of event.RPMBuckets bands.
func RPMBucket(ratio float64) uint8 {
	b := int(ratio * event.RPMBuckets)
	if b < 0 {
		b = 0
	}
	if b >= event.RPMBuckets {
		b = event.RPMBuckets - 1
	}
	return uint8(b)
}
