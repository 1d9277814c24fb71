package handler

import (
	"github.com/schedulemc/vehiclesim/internal/control"
	"github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/net/packet"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	World    *world.World
	Inbox    *control.Inbox
	Edges    *control.EdgeDetector
	Sessions *net.SessionStore
	Log      *zap.Logger

	// Optional services; requests are refused while nil.
	Station  Refueler
	Dealer   Seller
	Workshop Repairer

	// Saver writes a vehicle right after a paid service. Optional.
	Saver Saver
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_HELLO,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, r *packet.Reader) {
			HandleHello(sess.(*net.Session), r, deps)
		},
	)

	// Rebinding while driving releases the current vehicle first.
	reg.Register(packet.C_OPCODE_BIND,
		[]packet.SessionState{packet.StateIdentified, packet.StateDriving},
		func(sess any, r *packet.Reader) {
			HandleBind(sess.(*net.Session), r, deps)
		},
	)

	driving := []packet.SessionState{packet.StateDriving}

	reg.Register(packet.C_OPCODE_CONTROL, driving,
		func(sess any, r *packet.Reader) {
			HandleControl(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_START_ENGINE, driving,
		func(sess any, r *packet.Reader) {
			HandleStartEngine(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_HORN, driving,
		func(sess any, r *packet.Reader) {
			HandleHorn(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_KEYS, driving,
		func(sess any, r *packet.Reader) {
			HandleKeys(sess.(*net.Session), r, deps)
		},
	)

	identified := []packet.SessionState{packet.StateIdentified, packet.StateDriving}

	reg.Register(packet.C_OPCODE_REFUEL, identified,
		func(sess any, r *packet.Reader) {
			HandleRefuel(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PURCHASE, identified,
		func(sess any, r *packet.Reader) {
			HandlePurchase(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_REPAIR, identified,
		func(sess any, r *packet.Reader) {
			HandleRepair(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SCRAP, identified,
		func(sess any, r *packet.Reader) {
			HandleScrap(sess.(*net.Session), r, deps)
		},
	)
}
