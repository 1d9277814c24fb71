package net

import (
	gonet "net"
	"testing"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testSession(t *testing.T, id uint64) *Session {
	t.Helper()
	c1, c2 := gonet.Pipe()
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	return NewSession(c1, id, SessionOptions{InQueueSize: 1, OutQueueSize: 1}, zap.NewNop())
}

func TestSessionStore_DrivingIndex(t *testing.T) {
	st := NewSessionStore()
	a := testSession(t, 1)
	b := testSession(t, 2)
	st.Add(a)
	st.Add(b)
	car := ecs.NewEntityID(7, 0)
	van := ecs.NewEntityID(8, 0)

	assert.Nil(t, st.Driving(car))
	st.Bind(a, car)
	assert.Same(t, a, st.Driving(car))
	assert.Equal(t, car, a.Vehicle)

	st.Bind(a, van)
	assert.Nil(t, st.Driving(car), "rebinding drops the old entry")
	assert.Same(t, a, st.Driving(van))

	// a stale unbind does not clear someone else's seat
	st.Bind(b, van)
	a.Vehicle = van
	st.Unbind(a)
	assert.Same(t, b, st.Driving(van))

	st.Remove(b.ID)
	assert.Nil(t, st.Driving(van))
	assert.Nil(t, st.Driving(0))
}

func TestSessionStore_ClosedAndOrdered(t *testing.T) {
	st := NewSessionStore()
	car := ecs.NewEntityID(3, 0)
	s := testSession(t, 9)
	s.Vehicle = car
	st.Add(s)
	st.Add(testSession(t, 4))
	st.Add(testSession(t, 6))

	assert.Same(t, s, st.Driving(car), "Add indexes an existing binding")
	assert.Equal(t, []uint64{4, 6, 9}, st.IDs())

	s.Close()
	assert.Nil(t, st.Driving(car))
}
