package handler

import (
	"github.com/schedulemc/vehiclesim/internal/core/ecs"
	"github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/net/packet"
	"github.com/schedulemc/vehiclesim/internal/world"
)

// BuildTelemetry builds S_TELEMETRY (opcode 0x81).
func BuildTelemetry(t world.Telemetry) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_TELEMETRY)
	w.WriteQ(uint64(t.ID))
	w.WriteF(float32(t.Speed))
	w.WriteF(float32(t.KmH))
	w.WriteF(float32(t.RPM))
	w.WriteF(float32(t.FuelPercent))
	w.WriteF(float32(t.Temperature))
	w.WriteF(float32(t.Health))
	w.WriteBool(t.Running)
	return w.Bytes()
}

// SendTelemetry sends S_TELEMETRY to the driver of the vehicle.
func SendTelemetry(sess *net.Session, t world.Telemetry) {
	sess.Send(BuildTelemetry(t))
}

// SendEngineState sends S_ENGINE_STATE (opcode 0x82).
func SendEngineState(sess *net.Session, id ecs.EntityID, running bool, rpmBucket uint8) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ENGINE_STATE)
	w.WriteQ(uint64(id))
	w.WriteBool(running)
	w.WriteC(rpmBucket)
	sess.Send(w.Bytes())
}

// SendHorn sends S_HORN (opcode 0x83).
func SendHorn(sess *net.Session, id ecs.EntityID) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_HORN)
	w.WriteQ(uint64(id))
	sess.Send(w.Bytes())
}

func sendBindResult(sess *net.Session, id ecs.EntityID, ok bool) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BIND_RESULT)
	w.WriteQ(uint64(id))
	w.WriteBool(ok)
	sess.Send(w.Bytes())
}

// sendReceipt sends S_RECEIPT (opcode 0x85). cost is in minor units.
func sendReceipt(sess *net.Session, kind byte, id ecs.EntityID, ok bool, cost int64, text string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_RECEIPT)
	w.WriteC(kind)
	w.WriteBool(ok)
	w.WriteQ(uint64(id))
	w.WriteQ(uint64(cost))
	w.WriteS(text)
	sess.Send(w.Bytes())
}
