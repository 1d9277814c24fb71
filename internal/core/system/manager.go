package system

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Register once the first tick has started.
var ErrAlreadyRunning = errors.New("system manager already running")

// Manager owns the entity systems of one world and ticks them system-major:
// every entity passes through system A before any entity sees system B.
// Systems are ordered by ascending priority; equal priorities keep
// registration order.
type Manager[E Entity] struct {
	systems []System[E]
	running bool
	faults  uint64
	log     *zap.Logger
}

func NewManager[E Entity](log *zap.Logger) *Manager[E] {
	return &Manager[E]{
		systems: make([]System[E], 0, 8),
		log:     log,
	}
}

// Register adds a system. The set is frozen after the first Tick.
func (m *Manager[E]) Register(s System[E]) error {
	if m.running {
		return fmt.Errorf("register %s: %w", s.Name(), ErrAlreadyRunning)
	}
	m.systems = append(m.systems, s)
	sort.SliceStable(m.systems, func(i, j int) bool {
		return m.systems[i].Priority() < m.systems[j].Priority()
	})
	return nil
}

// Systems returns the systems in execution order.
func (m *Manager[E]) Systems() []System[E] {
	out := make([]System[E], len(m.systems))
	copy(out, m.systems)
	return out
}

// Faults returns how many system×entity ticks failed since start.
func (m *Manager[E]) Faults() uint64 { return m.faults }

// Tick runs one simulation step over src. No error escapes: a failing
// system×entity pair is logged and the rest of the tick proceeds.
func (m *Manager[E]) Tick(src Source[E]) {
	m.running = true
	entities := src.Entities()
	clientWorld := src.Side() == SideClient

	for _, s := range m.systems {
		if ClientOnly(s.Name()) != clientWorld {
			continue
		}
		required := s.Requires()
		for _, e := range entities {
			// removal earlier in this tick hides the entity from later systems
			if e.Removed() {
				continue
			}
			if !e.Components().Contains(required) {
				continue
			}
			m.safeTick(s, e)
		}
	}
}

// safeTick isolates one system×entity call from errors and panics.
func (m *Manager[E]) safeTick(s System[E], e E) {
	defer func() {
		if rec := recover(); rec != nil {
			m.faults++
			m.log.Error("system panic recovered",
				zap.String("system", s.Name()),
				zap.Stringer("vehicle", e.EntityID()),
				zap.Any("panic", rec),
			)
		}
	}()
	if err := s.Tick(e, FixedDeltaTime); err != nil {
		m.faults++
		m.log.Error("system tick failed",
			zap.String("system", s.Name()),
			zap.Stringer("vehicle", e.EntityID()),
			zap.Error(err),
		)
	}
}
