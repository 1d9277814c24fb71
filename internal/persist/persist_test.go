package persist

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTagJSON_RoundTrip(t *testing.T) {
	spec := &component.EngineSpec{ID: "normal_motor", MaxPower: 100, MaxRPM: 5000, BaseFuelConsumption: 0.01}
	e := component.NewEngine(spec)
	e.SetHealth(0.75)
	e.SetTemperature(63.3)

	raw, err := encodeTag(component.Encode(e))
	require.NoError(t, err)

	tag, err := decodeTag(raw)
	require.NoError(t, err)
	assert.Equal(t, "normal_motor", tag.String(component.KeyEngineType))
	assert.Equal(t, 0.75, tag.Float(component.KeyEngineHealth))
	assert.Equal(t, 63.3, tag.Float(component.KeyTemperature))
	assert.False(t, tag.Bool(component.KeyRunning))
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/00001_init.sql", "migrations/00002_vehicle_revision.sql"}, files)

	raw, err := fs.ReadFile(migrations, files[1])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "revision")
}

func TestGooseLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := gooseLogger{log: zap.New(core).Named("goose").Sugar()}
	l.Printf("OK   %s (%d ms)", "00002_vehicle_revision.sql", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "goose", entry.LoggerName)
	assert.Equal(t, "OK   00002_vehicle_revision.sql (3 ms)", entry.Message)
}

func TestDecodeTag_Invalid(t *testing.T) {
	_, err := decodeTag([]byte(`[1,2]`))
	assert.Error(t, err)
}

type fakeSaver struct {
	mu          sync.Mutex
	batches     [][]world.Snapshot
	deleted     []ecs.EntityID
	fail        bool
	deleteFails int
	block       chan struct{}
}

func (f *fakeSaver) SaveBatch(_ context.Context, snaps []world.Snapshot) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	f.batches = append(f.batches, snaps)
	return nil
}

func (f *fakeSaver) Delete(_ context.Context, id ecs.EntityID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteFails > 0 {
		f.deleteFails--
		return errors.New("db down")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSaver) deleteFailures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteFails
}

func snap(i uint32) []world.Snapshot {
	return []world.Snapshot{{ID: ecs.NewEntityID(i, 0), ModelID: "sedan"}}
}

func TestSaveWorker_WritesInOrder(t *testing.T) {
	saver := &fakeSaver{}
	w := NewSaveWorker(saver, 4, zap.NewNop())
	w.Start()

	require.True(t, w.Enqueue(snap(1)))
	require.True(t, w.Enqueue(snap(2)))
	w.Close()

	require.Len(t, saver.batches, 2)
	assert.Equal(t, ecs.NewEntityID(1, 0), saver.batches[0][0].ID)
	assert.Equal(t, ecs.NewEntityID(2, 0), saver.batches[1][0].ID)
	saved, failed := w.Stats()
	assert.Equal(t, uint64(2), saved)
	assert.Zero(t, failed)

	assert.False(t, w.Enqueue(snap(3)), "closed worker rejects batches")
}

func TestSaveWorker_QueueFullDrops(t *testing.T) {
	saver := &fakeSaver{block: make(chan struct{})}
	w := NewSaveWorker(saver, 1, zap.NewNop())

	// not started: the single slot fills and the next batch is dropped
	require.True(t, w.Enqueue(snap(1)))
	assert.False(t, w.Enqueue(snap(2)))

	close(saver.block)
	w.Start()
	w.Close()
	assert.Len(t, saver.batches, 1)
}

func TestSaveWorker_FailureCounted(t *testing.T) {
	saver := &fakeSaver{fail: true}
	w := NewSaveWorker(saver, 2, zap.NewNop())
	w.Start()
	require.True(t, w.Enqueue(snap(1)))
	w.Close()

	saved, failed := w.Stats()
	assert.Zero(t, saved)
	assert.Equal(t, uint64(1), failed)
}

func TestSaveWorker_DeleteSkipsQueuedSaves(t *testing.T) {
	saver := &fakeSaver{}
	w := NewSaveWorker(saver, 4, zap.NewNop())
	gone := ecs.NewEntityID(1, 0)
	kept := ecs.NewEntityID(2, 0)
	both := []world.Snapshot{{ID: gone}, {ID: kept}}

	// two periodic saves are still queued when the vehicle is scrapped
	require.True(t, w.Enqueue(both))
	require.True(t, w.Enqueue(both))
	w.Delete(gone)
	require.True(t, w.Enqueue([]world.Snapshot{{ID: kept}}))

	w.Start()
	w.Close()

	assert.Equal(t, []ecs.EntityID{gone}, saver.deleted)
	require.Len(t, saver.batches, 3)
	for _, b := range saver.batches {
		require.Len(t, b, 1)
		assert.Equal(t, kept, b[0].ID)
	}
	assert.Equal(t, uint64(1), w.Deleted())
	assert.Empty(t, w.tombstones, "tombstones dropped once no batch can carry them")
}

func TestSaveWorker_DeleteRetried(t *testing.T) {
	saver := &fakeSaver{deleteFails: 1}
	w := NewSaveWorker(saver, 4, zap.NewNop())
	w.Start()

	w.Delete(ecs.NewEntityID(5, 0))
	assert.Eventually(t, func() bool { return saver.deleteFailures() == 0 }, time.Second, 5*time.Millisecond)

	require.True(t, w.Enqueue(snap(2)))
	w.Close()
	assert.Equal(t, []ecs.EntityID{ecs.NewEntityID(5, 0)}, saver.deleted)
}
