package handler

import (
	"github.com/schedulemc/vehiclesim/internal/control"
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/net/packet"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
)

// HandleHello processes C_HELLO (opcode 0x00). The client names its player;
// there is no authentication step.
func HandleHello(sess *net.Session, r *packet.Reader, deps *Deps) {
	player := int64(r.ReadQ())
	if r.Short() || player <= 0 {
		sess.Log().Warn("invalid hello", zap.Int64("player", player))
		return
	}
	sess.PlayerID = player
	sess.SetState(packet.StateIdentified)
	deps.Log.Info("player identified", zap.Uint64("session", sess.ID), zap.Int64("player", player))
}

// HandleBind processes C_BIND (opcode 0x01). Vehicle id 0 unbinds.
// Always answers with S_BIND_RESULT.
func HandleBind(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := ecs.EntityID(r.ReadQ())
	if r.Short() {
		return
	}

	if id.IsZero() {
		Release(sess, deps)
		sess.SetState(packet.StateIdentified)
		sendBindResult(sess, id, true)
		return
	}
	if id == sess.Vehicle {
		sendBindResult(sess, id, true)
		return
	}

	v := deps.World.Get(id)
	if v == nil || !canDrive(v, sess.PlayerID) {
		sess.Log().Debug("bind refused", zap.Stringer("vehicle", id))
		sendBindResult(sess, id, false)
		return
	}

	Release(sess, deps)
	v.Driver = sess.PlayerID
	deps.Sessions.Bind(sess, id)
	sess.SetState(packet.StateDriving)
	sendBindResult(sess, id, true)
	deps.Log.Info("driver bound",
		zap.Int64("player", sess.PlayerID),
		zap.Stringer("vehicle", id),
	)
}

func canDrive(v *world.Vehicle, player int64) bool {
	if v.Owner != world.NoPlayer && v.Owner != player {
		return false
	}
	return v.Driver == world.NoPlayer || v.Driver == player
}

// Release detaches the session from its vehicle: the driver seat is freed,
// queued input dropped and held keys forgotten. Safe to call when unbound.
func Release(sess *net.Session, deps *Deps) {
	id := sess.Vehicle
	if id.IsZero() {
		return
	}
	if v := deps.World.Get(id); v != nil && v.Driver == sess.PlayerID {
		v.Driver = world.NoPlayer
		v.Controls = control.Controls{}
	}
	deps.Inbox.Forget(id)
	deps.Edges.Reset(id)
	deps.Sessions.Unbind(sess)
}
