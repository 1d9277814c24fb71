package handler

import (
	"github.com/schedulemc/vehiclesim/internal/control"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/net/packet"
)

// target reads the leading vehicle id and reports whether it names the
// session's bound vehicle. Packets for any other vehicle are ignored.
func target(sess *net.Session, r *packet.Reader) (ecs.EntityID, bool) {
	id := ecs.EntityID(r.ReadQ())
	if r.Short() || id.IsZero() || id != sess.Vehicle {
		return 0, false
	}
	return id, true
}

// HandleControl processes C_CONTROL (opcode 0x02): level state, latest wins.
func HandleControl(sess *net.Session, r *packet.Reader, deps *Deps) {
	id, ok := target(sess, r)
	if !ok {
		return
	}
	flags := r.ReadC()
	if r.Short() {
		return
	}
	deps.Inbox.SetControls(id, control.FromFlags(flags))
}

// HandleStartEngine processes C_START_ENGINE (opcode 0x03). The input system
// decides between start and stop.
func HandleStartEngine(sess *net.Session, r *packet.Reader, deps *Deps) {
	if id, ok := target(sess, r); ok {
		deps.Inbox.Push(id, control.StartEngine)
	}
}

// HandleHorn processes C_HORN (opcode 0x04).
func HandleHorn(sess *net.Session, r *packet.Reader, deps *Deps) {
	if id, ok := target(sess, r); ok {
		deps.Inbox.Push(id, control.Horn)
	}
}

// HandleKeys processes C_KEYS (opcode 0x05): held start/horn keys from
// clients that report key state instead of presses.
func HandleKeys(sess *net.Session, r *packet.Reader, deps *Deps) {
	id, ok := target(sess, r)
	if !ok {
		return
	}
	keys := r.ReadC()
	if r.Short() {
		return
	}
	for _, ev := range deps.Edges.Update(id, keys) {
		deps.Inbox.Push(id, ev)
	}
}
