// Package control marshals driver input onto the simulation goroutine.
//
// Continuous controls (throttle, steering, brake) are level-based and
// latest-wins. Start and horn are discrete events produced by rising-edge
// detection on held-key state before they enter the inbox.
package control

import (
	"sync"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// Control flag bits as sent in C_CONTROL.
const (
	FlagForward  byte = 1 << 0
	FlagBackward byte = 1 << 1
	FlagLeft     byte = 1 << 2
	FlagRight    byte = 1 << 3
	FlagBrake    byte = 1 << 4
)

// Controls is the level state of one vehicle's driver input.
type Controls struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Brake    bool
}

func FromFlags(f byte) Controls {
	return Controls{
		Forward:  f&FlagForward != 0,
		Backward: f&FlagBackward != 0,
		Left:     f&FlagLeft != 0,
		Right:    f&FlagRight != 0,
		Brake:    f&FlagBrake != 0,
	}
}

func (c Controls) Flags() byte {
	var f byte
	if c.Forward {
		f |= FlagForward
	}
	if c.Backward {
		f |= FlagBackward
	}
	if c.Left {
		f |= FlagLeft
	}
	if c.Right {
		f |= FlagRight
	}
	if c.Brake {
		f |= FlagBrake
	}
	return f
}

// Throttle is +1 forward, -1 backward, 0 for both, neither, or braking.
func (c Controls) Throttle() float64 {
	if c.Brake || c.Forward == c.Backward {
		return 0
	}
	if c.Forward {
		return 1
	}
	return -1
}

// Steer is -1 left, +1 right, 0 for both or neither.
func (c Controls) Steer() float64 {
	if c.Left == c.Right {
		return 0
	}
	if c.Left {
		return -1
	}
	return 1
}

type EventKind uint8

const (
	StartEngine EventKind = iota + 1
	Horn
)

func (k EventKind) String() string {
	switch k {
	case StartEngine:
		return "start_engine"
	case Horn:
		return "horn"
	}
	return "unknown"
}

type pending struct {
	controls    Controls
	hasControls bool
	events      []EventKind
}

// Inbox is the hand-off point between transport goroutines and the tick.
type Inbox struct {
	mu      sync.Mutex
	entries map[ecs.EntityID]*pending
}

func NewInbox() *Inbox {
	return &Inbox{entries: make(map[ecs.EntityID]*pending)}
}

func (in *Inbox) entry(id ecs.EntityID) *pending {
	p, ok := in.entries[id]
	if !ok {
		p = &pending{}
		in.entries[id] = p
	}
	return p
}

// SetControls replaces any earlier, not yet consumed control state.
func (in *Inbox) SetControls(id ecs.EntityID, c Controls) {
	in.mu.Lock()
	defer in.mu.Unlock()
	p := in.entry(id)
	p.controls = c
	p.hasControls = true
}

// Push queues a discrete event.
func (in *Inbox) Push(id ecs.EntityID, kind EventKind) {
	in.mu.Lock()
	defer in.mu.Unlock()
	p := in.entry(id)
	p.events = append(p.events, kind)
}

// Take consumes everything queued for a vehicle. ok is false when no new
// control state arrived since the last Take.
func (in *Inbox) Take(id ecs.EntityID) (c Controls, ok bool, events []EventKind) {
	in.mu.Lock()
	defer in.mu.Unlock()
	p, found := in.entries[id]
	if !found {
		return Controls{}, false, nil
	}
	delete(in.entries, id)
	return p.controls, p.hasControls, p.events
}

// Forget drops queued input for a vehicle that left the world.
func (in *Inbox) Forget(id ecs.EntityID) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.entries, id)
}

func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.entries)
}

// Key flag bits as sent in C_KEYS.
const (
	KeyStart byte = 1 << 0
	KeyHorn  byte = 1 << 1
)

// EdgeDetector turns held-key booleans into discrete events, one per press.
// It is not safe for concurrent use; packet handlers call it from the tick
// goroutine.
type EdgeDetector struct {
	held map[ecs.EntityID]byte
}

func NewEdgeDetector() *EdgeDetector {
	return &EdgeDetector{held: make(map[ecs.EntityID]byte)}
}

// Update records the current key state and returns the events for keys that
// went from released to held.
func (d *EdgeDetector) Update(id ecs.EntityID, keys byte) []EventKind {
	rising := keys &^ d.held[id]
	d.held[id] = keys
	var out []EventKind
	if rising&KeyStart != 0 {
		out = append(out, StartEngine)
	}
	if rising&KeyHorn != 0 {
		out = append(out, Horn)
	}
	return out
}

// Reset forgets the key state, e.g. when the driver leaves the vehicle.
func (d *EdgeDetector) Reset(id ecs.EntityID) {
	delete(d.held, id)
}
