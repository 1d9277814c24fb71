package system

import (
	"strings"
	"time"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// TicksPerSecond is the fixed simulation rate.
const TicksPerSecond = 20

// FixedDeltaTime is the dt, in seconds, passed to every entity system.
const FixedDeltaTime = 1.0 / TicksPerSecond

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain packet queues into the control inbox
	PhaseUpdate               // 1: entity systems (Manager.Tick)
	PhaseOutput               // 2: build + send telemetry packets
	PhasePersist              // 3: hand snapshots to the save worker
	PhaseCleanup              // 4: free removed vehicles
)

// PhaseSystem is a world-level step driven by the Runner.
type PhaseSystem interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Side tells which half of a client/server pair a world runs on.
type Side uint8

const (
	SideServer Side = iota
	SideClient
)

func (s Side) String() string {
	if s == SideClient {
		return "client"
	}
	return "server"
}

// ClientPrefix marks systems that only run on client worlds.
const ClientPrefix = "client/"

// ClientOnly reports whether a system name carries the client prefix.
func ClientOnly(name string) bool {
	return strings.HasPrefix(name, ClientPrefix)
}

// Entity is what the Manager iterates over.
type Entity interface {
	EntityID() ecs.EntityID
	Components() ecs.ComponentSet
	Removed() bool
}

// Source supplies the entities of one world for a tick.
type Source[E Entity] interface {
	// Entities returns a snapshot in deterministic order.
	Entities() []E
	Side() Side
}

// System is a per-entity logic unit. Tick is called once per tick for every
// entity whose component set contains Requires().
type System[E Entity] interface {
	Name() string
	Priority() int
	Requires() ecs.ComponentSet
	Tick(e E, dt float64) error
}
