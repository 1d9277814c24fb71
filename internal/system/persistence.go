package system

import (
	"context"
	"time"

	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/persist"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

// SnapshotQueue accepts snapshot batches without blocking. *persist.SaveWorker
// implements it.
type SnapshotQueue interface {
	Enqueue(batch []world.Snapshot) bool
}

// PersistenceSystem periodically snapshots every vehicle and hands the batch
// to the save worker. Phase 3 (Persist).
type PersistenceSystem struct {
	world     *world.World
	queue     SnapshotQueue
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks
}

func NewPersistenceSystem(w *world.World, queue SnapshotQueue, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &PersistenceSystem{
		world:    w,
		queue:    queue,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	batch := s.snapshot()
	if len(batch) == 0 {
		return
	}
	if !s.queue.Enqueue(batch) {
		s.log.Warn("save queue full, snapshot dropped", zap.Int("vehicles", len(batch)))
	}
}

// SaveAll writes every vehicle synchronously. Called for graceful shutdown
// after the worker has drained.
func (s *PersistenceSystem) SaveAll(ctx context.Context, saver persist.VehicleSaver) error {
	batch := s.snapshot()
	if len(batch) == 0 {
		return nil
	}
	if err := saver.SaveBatch(ctx, batch); err != nil {
		return err
	}
	s.log.Info("vehicles saved", zap.Int("count", len(batch)))
	return nil
}

func (s *PersistenceSystem) snapshot() []world.Snapshot {
	vs := s.world.Vehicles()
	batch := make([]world.Snapshot, 0, len(vs))
	for _, v := range vs {
		batch = append(batch, v.Snapshot())
	}
	return batch
}
