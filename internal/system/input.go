package system

import (
	"time"

	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/handler"
	"github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/net/packet"
	"go.uber.org/zap"
)

// SessionSource hands over accepted and dead sessions. *net.Server
// implements it.
type SessionSource interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
	NotifyDead(id uint64)
}

// NetworkInputSystem drains packet queues from all sessions and dispatches
// them through the packet registry. Phase 0 (Input).
type NetworkInputSystem struct {
	server     SessionSource
	registry   *packet.Registry
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewNetworkInputSystem(server SessionSource, registry *packet.Registry, deps *handler.Deps, maxPerTick int, log *zap.Logger) *NetworkInputSystem {
	if maxPerTick < 1 {
		maxPerTick = 1
	}
	return &NetworkInputSystem{
		server:     server,
		registry:   registry,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *NetworkInputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *NetworkInputSystem) Update(_ time.Duration) {
	store := s.deps.Sessions

	// Accept new sessions
	for {
		select {
		case sess := <-s.server.NewSessions():
			store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.server.DeadSessions():
			if sess := store.Get(id); sess != nil {
				handler.Release(sess, s.deps)
			}
			store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain packets from each session (up to maxPerTick per session), lowest
	// session id first
	for _, id := range store.IDs() {
		sess := store.Get(id)
		if sess.IsClosed() {
			// a closed session is Disconnecting; no handler accepts its packets
			s.handleDisconnect(sess)
			s.server.NotifyDead(id)
			store.Remove(id)
			continue
		}
		s.drain(sess)
	}
}

func (s *NetworkInputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("packet dispatch failed",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect frees the driver seat of a closed session.
func (s *NetworkInputSystem) handleDisconnect(sess *net.Session) {
	if !sess.Vehicle.IsZero() {
		s.log.Info("driver disconnected",
			zap.Uint64("session", sess.ID),
			zap.Int64("player", sess.PlayerID),
			zap.Stringer("vehicle", sess.Vehicle),
		)
	}
	handler.Release(sess, s.deps)
}

// SessionCount returns the current number of sessions.
func (s *NetworkInputSystem) SessionCount() int {
	return s.deps.Sessions.Len()
}
