package net

import (
	"slices"

	"github.com/schedulemc/vehiclesim/internal/core/ecs"
)

// SessionStore indexes live sessions by id and by the vehicle they drive.
// Simulation loop only.
type SessionStore struct {
	sessions  map[uint64]*Session
	byVehicle map[ecs.EntityID]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[uint64]*Session),
		byVehicle: make(map[ecs.EntityID]*Session),
	}
}

func (st *SessionStore) Add(s *Session) {
	st.sessions[s.ID] = s
	if !s.Vehicle.IsZero() {
		st.byVehicle[s.Vehicle] = s
	}
}

func (st *SessionStore) Remove(id uint64) {
	if s := st.sessions[id]; s != nil {
		st.unindex(s)
	}
	delete(st.sessions, id)
}

func (st *SessionStore) Get(id uint64) *Session { return st.sessions[id] }
func (st *SessionStore) Len() int               { return len(st.sessions) }

// IDs returns the session ids in ascending order, the order packets are
// drained in.
func (st *SessionStore) IDs() []uint64 {
	ids := make([]uint64, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Bind points s at vehicle, dropping its previous binding. Zero unbinds.
func (st *SessionStore) Bind(s *Session, vehicle ecs.EntityID) {
	st.unindex(s)
	s.Vehicle = vehicle
	if !vehicle.IsZero() {
		st.byVehicle[vehicle] = s
	}
}

func (st *SessionStore) Unbind(s *Session) { st.Bind(s, 0) }

func (st *SessionStore) unindex(s *Session) {
	if cur, ok := st.byVehicle[s.Vehicle]; ok && cur == s {
		delete(st.byVehicle, s.Vehicle)
	}
}

// Driving returns the open session bound to a vehicle, or nil.
func (st *SessionStore) Driving(vehicle ecs.EntityID) *Session {
	if vehicle.IsZero() {
		return nil
	}
	s := st.byVehicle[vehicle]
	if s == nil || s.IsClosed() {
		return nil
	}
	return s
}

// Each visits every open session.
func (st *SessionStore) Each(fn func(*Session)) {
	for _, s := range st.sessions {
		if !s.IsClosed() {
			fn(s)
		}
	}
}
