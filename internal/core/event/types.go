package event

import "github.com/schedulemc/vehiclesim/internal/core/ecs"

// RPMBuckets is the number of coarse RPM bands reported to the audio layer.
const RPMBuckets = 4

// EngineStateChanged is emitted on client worlds whenever the engine starts,
// stops or moves to another RPM bucket.
type EngineStateChanged struct {
	VehicleID ecs.EntityID
	Running   bool
	RPMBucket uint8
}

type StallReason string

const (
	StallFuel      StallReason = "fuel"
	StallDestroyed StallReason = "destroyed"
	StallCollision StallReason = "collision"
)

// EngineStalled is emitted when the simulation stops a running engine.
type EngineStalled struct {
	VehicleID ecs.EntityID
	Reason    StallReason
}

// EngineToggled reports a successful start or a driver-initiated stop.
type EngineToggled struct {
	VehicleID ecs.EntityID
	Running   bool
}

// EngineStartFailed is emitted when a start request is refused.
type EngineStartFailed struct {
	VehicleID ecs.EntityID
	Reason    string
}

type HornSounded struct {
	VehicleID ecs.EntityID
}
