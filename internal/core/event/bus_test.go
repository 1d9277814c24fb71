package event

import (
	"testing"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/stretchr/testify/assert"
)

func TestBus_DeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []EngineStalled
	Subscribe(b, func(e EngineStalled) { got = append(got, e) })

	id := ecs.NewEntityID(1, 0)
	Emit(b, EngineStalled{VehicleID: id, Reason: StallFuel})
	assert.Equal(t, 1, b.Pending())

	b.DispatchAll()
	assert.Empty(t, got, "not readable in the emitting tick")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []EngineStalled{{VehicleID: id, Reason: StallFuel}}, got)
	assert.Zero(t, b.Pending())

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "delivered once")
}

func TestBus_OrderByFirstEmission(t *testing.T) {
	b := NewBus()
	var log []string
	Subscribe(b, func(HornSounded) { log = append(log, "horn") })
	Subscribe(b, func(EngineToggled) { log = append(log, "toggle") })

	Emit(b, HornSounded{})
	Emit(b, EngineToggled{Running: true})
	Emit(b, HornSounded{})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, []string{"horn", "horn", "toggle"}, log)
}
