package app

import (
	"math/rand/v2"
	"sync"

	"github.com/aman-kumar02/Playworld/internal/core"
	"github.com/aman-kumar02/Playworld/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManager is the in-memory authority for all live rooms, keyed by
// normalized room code.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]*core.RoomState
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomCode]*core.RoomState)}
}

// Create generates a code absent from the live registry and registers an
// empty room under it. The draw space is small, so uniqueness of a single
// draw is never trusted: collisions retry against the live map.
func (m *RoomManager) Create() *core.RoomState {
	m.mu.Lock()
	defer m.mu.Unlock()
	var code domain.RoomCode
	for {
		code = randomRoomCode()
		if _, taken := m.rooms[code]; !taken {
			break
		}
	}
	room := core.NewRoomState(code)
	m.rooms[code] = room
	log.Info().Str("module", "app.rooms").Str("code", string(code)).Int("live_rooms", len(m.rooms)).Msg("room created")
	return room
}

func (m *RoomManager) Get(code domain.RoomCode) (*core.RoomState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	return room, ok
}

// EvictIfEmpty removes the room when its last member is gone, freeing the
// code for reuse. The room is closed under the manager lock first, so a
// join racing with eviction sees a closed room instead of an orphaned one.
func (m *RoomManager) EvictIfEmpty(code domain.RoomCode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok {
		return false
	}
	if !room.CloseIfEmpty() {
		return false
	}
	delete(m.rooms, code)
	log.Info().Str("module", "app.rooms").Str("code", string(code)).Int("live_rooms", len(m.rooms)).Msg("empty room evicted")
	return true
}

func (m *RoomManager) List() []core.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, core.RoomInfo{Code: code, PlayerCount: r.PlayerCount()})
	}
	return out
}

func randomRoomCode() domain.RoomCode {
	b := make([]byte, domain.RoomCodeLen)
	for i := range b {
		b[i] = domain.RoomCodeAlphabet[rand.IntN(len(domain.RoomCodeAlphabet))]
	}
	return domain.RoomCode(b)
}
