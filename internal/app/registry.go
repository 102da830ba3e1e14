package app

import (
	"context"
	"sync"

	"github.com/aman-kumar02/Playworld/internal/core"
	"github.com/aman-kumar02/Playworld/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	DisplayName string
	Room        domain.RoomCode
	Signal      core.SignalConnection
	Cancel      context.CancelFunc
}

// Registry owns all live connection sessions: ephemeral identity, current
// room membership and the transport endpoint to fan out to.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Signal: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// SetDisplayName records the client-supplied name. Pure mutation,
// idempotent, no broadcast.
func (r *Registry) SetDisplayName(sid core.SessionID, name string) error {
	if err := domain.ValidatePlayerName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.DisplayName = name
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("name", name).Msg("display name set")
	}
	return nil
}

func (r *Registry) DisplayName(sid core.SessionID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.DisplayName
	}
	return ""
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

func (r *Registry) SetRoom(sid core.SessionID, code domain.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Room = code
	}
}

func (r *Registry) ClearRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Room = ""
	}
}

// MemberSnap is one fan-out target of a room broadcast.
type MemberSnap struct {
	SID    core.SessionID
	Signal core.SignalConnection
}

func (r *Registry) MembersOfRoom(code domain.RoomCode) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if e.Room == code {
			out = append(out, MemberSnap{SID: sid, Signal: e.Signal})
		}
	}
	return out
}

// Cancel tears down the session's transport context. The read/write pumps
// exit and the adapter runs its disconnect cleanup.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
