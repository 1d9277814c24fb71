package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

// VehicleSaver writes snapshot batches.
type VehicleSaver interface {
	SaveBatch(ctx context.Context, snaps []world.Snapshot) error
}

// VehicleStore is the storage the worker writes to. *VehicleRepo implements it.
type VehicleStore interface {
	VehicleSaver
	Delete(ctx context.Context, id ecs.EntityID) error
}

type queuedBatch struct {
	seq   uint64
	batch []world.Snapshot
}

// SaveWorker writes snapshot batches and vehicle deletes on its own goroutine
// so the tick never waits on the database. Batches are written in enqueue
// order. A deleted vehicle is filtered out of every batch queued before the
// delete, so a late save cannot bring it back.
type SaveWorker struct {
	store   VehicleStore
	queue   chan queuedBatch
	wake    chan struct{}
	timeout time.Duration
	log     *zap.Logger

	mu         sync.Mutex
	seq        uint64                  // last enqueued batch
	tombstones map[ecs.EntityID]uint64 // deleted id → last batch that may still carry it
	deletes    []ecs.EntityID          // not yet written

	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}

	saved   atomic.Uint64
	failed  atomic.Uint64
	deleted atomic.Uint64
}

func NewSaveWorker(store VehicleStore, queueSize int, log *zap.Logger) *SaveWorker {
	if queueSize < 1 {
		queueSize = 1
	}
	return &SaveWorker{
		store:      store,
		queue:      make(chan queuedBatch, queueSize),
		wake:       make(chan struct{}, 1),
		timeout:    10 * time.Second,
		log:        log,
		tombstones: make(map[ecs.EntityID]uint64),
		done:       make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (w *SaveWorker) Start() {
	go w.run()
}

// Enqueue hands a batch to the worker without blocking. It returns false if
// the queue is full or the worker is closed; the batch is then dropped and
// the next interval's snapshot supersedes it.
func (w *SaveWorker) Enqueue(batch []world.Snapshot) bool {
	if w.closed.Load() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case w.queue <- queuedBatch{seq: w.seq + 1, batch: batch}:
		w.seq++
		return true
	default:
		w.log.Warn("save queue full, dropping snapshot batch", zap.Int("vehicles", len(batch)))
		return false
	}
}

// Delete schedules the removal of a stored vehicle. Queued batches that still
// carry it skip it. Failed deletes are retried on the next wake-up.
func (w *SaveWorker) Delete(id ecs.EntityID) {
	if w.closed.Load() {
		w.log.Warn("save worker closed, vehicle delete dropped", zap.Stringer("vehicle", id))
		return
	}
	w.mu.Lock()
	w.tombstones[id] = w.seq
	w.deletes = append(w.deletes, id)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting work, writes what is queued and waits for the
// goroutine to exit. Must not race with Enqueue or Delete.
func (w *SaveWorker) Close() {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		close(w.queue)
	})
	<-w.done
}

// Stats returns the number of batches written and failed.
func (w *SaveWorker) Stats() (saved, failed uint64) {
	return w.saved.Load(), w.failed.Load()
}

// Deleted returns the number of vehicle deletes written.
func (w *SaveWorker) Deleted() uint64 { return w.deleted.Load() }

func (w *SaveWorker) run() {
	defer close(w.done)
	for {
		select {
		case q, ok := <-w.queue:
			if !ok {
				w.flushDeletes()
				return
			}
			if batch := w.filter(q); len(batch) > 0 {
				w.write(batch)
			}
			w.flushDeletes()
		case <-w.wake:
			w.flushDeletes()
		}
	}
}

// filter drops tombstoned vehicles from a batch queued before their delete
// and forgets tombstones no queued batch can carry any more.
func (w *SaveWorker) filter(q queuedBatch) []world.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.tombstones) == 0 {
		return q.batch
	}
	out := q.batch[:0:0]
	for _, s := range q.batch {
		if last, ok := w.tombstones[s.ID]; ok && q.seq <= last {
			continue
		}
		out = append(out, s)
	}
	for id, last := range w.tombstones {
		if last <= q.seq {
			delete(w.tombstones, id)
		}
	}
	return out
}

func (w *SaveWorker) flushDeletes() {
	w.mu.Lock()
	ids := w.deletes
	w.deletes = nil
	w.mu.Unlock()

	var retry []ecs.EntityID
	for _, id := range ids {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.store.Delete(ctx, id)
		cancel()
		if err != nil {
			w.log.Error("vehicle delete failed", zap.Stringer("vehicle", id), zap.Error(err))
			retry = append(retry, id)
			continue
		}
		w.deleted.Add(1)
		w.log.Debug("vehicle deleted", zap.Stringer("vehicle", id))
	}
	if len(retry) > 0 && !w.closed.Load() {
		w.mu.Lock()
		w.deletes = append(retry, w.deletes...)
		w.mu.Unlock()
	}
}

func (w *SaveWorker) write(batch []world.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	start := time.Now()
	if err := w.store.SaveBatch(ctx, batch); err != nil {
		w.failed.Add(1)
		w.log.Error("vehicle save failed", zap.Int("vehicles", len(batch)), zap.Error(err))
		return
	}
	w.saved.Add(1)
	w.log.Debug("vehicles saved",
		zap.Int("vehicles", len(batch)),
		zap.Duration("took", time.Since(start)),
	)
}
