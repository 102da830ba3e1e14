package core

import (
	"fmt"
	"sync"

	"github.com/aman-kumar02/Playworld/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomState is a threadsafe in-memory room: ordered membership plus
// per-game score tables. It never touches transport resources.
//
// A closed RoomState rejects new players; the manager closes a room
// under its own lock before evicting it, so a concurrent join cannot
// resurrect an evicted code.
type RoomState struct {
	code domain.RoomCode

	mu      sync.RWMutex
	players []domain.Player // join order
	scores  map[string]ScoreTable
	closed  bool
}

func NewRoomState(code domain.RoomCode) *RoomState {
	return &RoomState{
		code:   code,
		scores: make(map[string]ScoreTable),
	}
}

func (r *RoomState) Code() domain.RoomCode { return r.code }

func (r *RoomState) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// AddPlayer appends a member. Joining twice from the same session is
// idempotent: the existing entry is returned and added is false.
// An empty name gets the positional placeholder PlayerN.
func (r *RoomState) AddPlayer(sid SessionID, name string) (domain.Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.Player{}, false, domain.ErrRoomNotFound
	}
	for _, p := range r.players {
		if p.SessionID == string(sid) {
			return p, false, nil
		}
	}
	if name == "" {
		name = fmt.Sprintf("Player%d", len(r.players)+1)
	}
	p := domain.Player{SessionID: string(sid), Name: name}
	r.players = append(r.players, p)
	log.Info().Str("module", "core.room").Str("code", string(r.code)).Str("sid", string(sid)).Str("name", name).Msg("player added")
	return p, true, nil
}

func (r *RoomState) Player(sid SessionID) (domain.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.players {
		if p.SessionID == string(sid) {
			return p, true
		}
	}
	return domain.Player{}, false
}

func (r *RoomState) RemovePlayer(sid SessionID) (domain.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.SessionID == string(sid) {
			r.players = append(r.players[:i], r.players[i+1:]...)
			log.Info().Str("module", "core.room").Str("code", string(r.code)).Str("sid", string(sid)).Msg("player removed")
			return p, true
		}
	}
	return domain.Player{}, false
}

// CloseIfEmpty marks the room closed when no members remain.
// Once closed the room stays closed.
func (r *RoomState) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) == 0 {
		r.closed = true
	}
	return r.closed
}

// RecordScore sets the latest score for (game, playerName), creating the
// game table lazily. Older values are overwritten, never combined. The
// returned table is a copy taken under the same lock as the write, so
// broadcasts built from it observe mutations in application order.
func (r *RoomState) RecordScore(game, playerName string, score float64) ScoreTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.scores[game]
	if !ok {
		table = make(ScoreTable)
		r.scores[game] = table
	}
	table[playerName] = score
	out := make(ScoreTable, len(table))
	for name, s := range table {
		out[name] = s
	}
	return out
}

// GameScores returns a copy of one game's table, nil table when the
// game has no scores yet.
func (r *RoomState) GameScores(game string) ScoreTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.scores[game]
	if !ok {
		return nil
	}
	out := make(ScoreTable, len(table))
	for name, s := range table {
		out[name] = s
	}
	return out
}

// ScoresSnapshot deep-copies all game tables.
func (r *RoomState) ScoresSnapshot() map[string]ScoreTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ScoreTable, len(r.scores))
	for game, table := range r.scores {
		t := make(ScoreTable, len(table))
		for name, s := range table {
			t[name] = s
		}
		out[game] = t
	}
	return out
}

func (r *RoomState) PlayersSnapshot() []domain.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Player, len(r.players))
	copy(out, r.players)
	return out
}
