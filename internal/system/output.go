package system

import (
	"time"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/handler"
	"github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/telemetry"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

// StatsSink receives closed telemetry windows. *telemetry.CSVWriter
// implements it.
type StatsSink interface {
	Write(stats telemetry.WindowStats) error
}

// TelemetryOutputSystem sends dashboard packets to drivers, feeds the
// window statistics and flushes every session's output buffer.
// Phase 2 (Output).
type TelemetryOutputSystem struct {
	world     *world.World
	sessions  *net.SessionStore
	collector *telemetry.Collector
	sink      StatsSink
	sendEvery uint64
	tick      uint64
	hornRange float64
	grid      *world.Grid
	log       *zap.Logger
}

// NewTelemetryOutputSystem subscribes the engine and horn notifications on
// bus. sink may be nil. A horn is sent to every driver within hornRange of
// the honking vehicle.
func NewTelemetryOutputSystem(
	w *world.World,
	sessions *net.SessionStore,
	bus *event.Bus,
	collector *telemetry.Collector,
	sink StatsSink,
	sendEvery int,
	hornRange float64,
	log *zap.Logger,
) *TelemetryOutputSystem {
	if sendEvery < 1 {
		sendEvery = 1
	}
	s := &TelemetryOutputSystem{
		world:     w,
		sessions:  sessions,
		collector: collector,
		sink:      sink,
		sendEvery: uint64(sendEvery),
		hornRange: hornRange,
		grid:      world.NewGrid(hornRange),
		log:       log,
	}
	event.Subscribe(bus, s.onToggled)
	event.Subscribe(bus, s.onStalled)
	event.Subscribe(bus, s.onHorn)
	return s
}

func (s *TelemetryOutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *TelemetryOutputSystem) Update(_ time.Duration) {
	s.tick++
	send := s.tick%s.sendEvery == 0

	// positions at tick end; next tick's horn events are placed against them
	s.grid.Reset()
	for _, v := range s.world.Vehicles() {
		s.grid.Add(v.ID, v.X, v.Z)
		t := v.Telemetry()
		if s.collector != nil {
			s.collector.Observe(t)
		}
		if !send {
			continue
		}
		if sess := s.sessions.Driving(v.ID); sess != nil {
			handler.SendTelemetry(sess, t)
		}
	}

	if s.collector != nil && s.collector.ShouldFlush(s.tick) {
		stats := s.collector.Flush(s.tick)
		s.log.Info("telemetry window", zap.Object("stats", stats))
		if s.sink != nil {
			if err := s.sink.Write(stats); err != nil {
				s.log.Error("telemetry export failed", zap.Error(err))
			}
		}
	}

	s.sessions.Each(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

func (s *TelemetryOutputSystem) onToggled(e event.EngineToggled) {
	s.sendEngineState(e.VehicleID, e.Running)
}

func (s *TelemetryOutputSystem) onStalled(e event.EngineStalled) {
	s.sendEngineState(e.VehicleID, false)
}

func (s *TelemetryOutputSystem) sendEngineState(id ecs.EntityID, running bool) {
	sess := s.sessions.Driving(id)
	if sess == nil {
		return
	}
	var bucket uint8
	if v := s.world.Get(id); v != nil && v.Engine() != nil {
		bucket = RPMBucket(v.Engine().RPMRatio())
	}
	handler.SendEngineState(sess, id, running, bucket)
}

func (s *TelemetryOutputSystem) onHorn(e event.HornSounded) {
	src := s.world.Get(e.VehicleID)
	if src == nil {
		return
	}
	for _, id := range s.grid.Nearby(src.X, src.Z) {
		v := s.world.Get(id)
		if v == nil || !world.Within(src, v, s.hornRange) {
			continue
		}
		if sess := s.sessions.Driving(id); sess != nil {
			handler.SendHorn(sess, e.VehicleID)
		}
	}
}
