// Package runtime owns the mutable relay state and the event handling that
// mutates it. It orchestrates the system without containing domain rules.
package runtime

import (
	"sync"

	"babelroom/contract"
	"babelroom/domain"

	"github.com/samber/lo"
)

// Registry is the single source of truth for room membership and session
// identity. Member slices keep join order; a room whose last member leaves
// is deleted on the spot so no empty sets accumulate. All mutations happen
// under one coarse lock, which keeps concurrent joins and leaves from ever
// observing a torn intermediate state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session         // connection id -> session record
	sinks    map[string]contract.EventSink     // connection id -> delivery channel
	rooms    map[domain.RoomID][]domain.Member // room id -> members in join order
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]domain.Session),
		sinks:    make(map[string]contract.EventSink),
		rooms:    make(map[domain.RoomID][]domain.Member),
	}
}

// Join creates the session record and appends the member to its room,
// creating the room on first join. It returns the membership as it was
// immediately before this join, which is exactly what the joiner must be
// told about the room.
//
// A connection id joining twice without leaving is caller error; the
// previous record is simply overwritten.
func (r *Registry) Join(session domain.Session, sink contract.EventSink) []domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior := append([]domain.Member(nil), r.rooms[session.Room]...)

	r.sessions[session.ConnID] = session
	r.sinks[session.ConnID] = sink
	r.rooms[session.Room] = append(r.rooms[session.Room], session.Member())
	return prior
}

// Leave removes the connection's session and its room membership. It
// returns the session that was removed, the members remaining in the room,
// and whether the room still exists. The room is deleted entirely when its
// last member leaves.
func (r *Registry) Leave(connID string) (domain.Session, []domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[connID]
	if !ok {
		return domain.Session{}, nil, false
	}
	delete(r.sessions, connID)
	delete(r.sinks, connID)

	remaining := lo.Reject(r.rooms[session.Room], func(m domain.Member, _ int) bool {
		return m.ID == connID
	})
	if len(remaining) == 0 {
		delete(r.rooms, session.Room)
		return session, nil, false
	}
	r.rooms[session.Room] = remaining
	return session, append([]domain.Member(nil), remaining...), true
}

// MembersOf returns the current member list in join order. A missing room
// yields an empty result, not an error: a message may race a deletion.
func (r *Registry) MembersOf(roomID domain.RoomID) []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Member(nil), r.rooms[roomID]...)
}

// Session resolves a connection id to its session record. ok is false for
// connections that never joined or already left; callers treat events from
// those as silent no-ops.
func (r *Registry) Session(connID string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[connID]
	return session, ok
}

func (r *Registry) Sink(connID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[connID]
	return sink, ok
}

func (r *Registry) Counts() (rooms, sessions int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.sessions)
}
