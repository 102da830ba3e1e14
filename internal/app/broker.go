package app

import (
	"math"

	"github.com/aman-kumar02/Playworld/internal/core"
	"github.com/aman-kumar02/Playworld/internal/domain"
	"github.com/rs/zerolog/log"
)

// Broker applies validated client actions to the room registry. It owns the
// only mutation path to room state; adapters never touch RoomState directly.
type Broker struct {
	Registry *Registry
	Rooms    *RoomManager
}

func NewBroker() *Broker {
	return &Broker{
		Registry: NewRegistry(),
		Rooms:    NewRoomManager(),
	}
}

// JoinResult carries what the adapter needs to answer the joiner and to
// notify the room, snapshotted at join time. Left is set when the join
// moved the session out of another room.
type JoinResult struct {
	Code     domain.RoomCode
	Player   domain.Player
	Scores   map[string]core.ScoreTable
	Rejoined bool
	Left     *LeaveResult
}

// ScoreResult is a single game's table after one score write.
type ScoreResult struct {
	Code   domain.RoomCode
	Game   string
	Scores core.ScoreTable
}

// LeaveResult describes a departure; Scores is the room's remaining state
// for the leaderboard refresh, nil when the room was evicted.
type LeaveResult struct {
	Code    domain.RoomCode
	Player  domain.Player
	Scores  map[string]core.ScoreTable
	Evicted bool
}

// CreateRoom registers a fresh room with the caller as its first member.
// Callers still in another room must Leave first.
func (b *Broker) CreateRoom(sid core.SessionID) (JoinResult, error) {
	name := b.Registry.DisplayName(sid)
	if name == "" {
		name = "Host"
	}
	room := b.Rooms.Create()
	p, _, err := room.AddPlayer(sid, name)
	if err != nil {
		return JoinResult{}, err
	}
	b.Registry.SetRoom(sid, room.Code())
	log.Info().Str("module", "app.broker").Str("sid", string(sid)).Str("code", string(room.Code())).Msg("room created by session")
	return JoinResult{Code: room.Code(), Player: p}, nil
}

// JoinRoom adds the session to the room addressed by rawCode
// (case-insensitive). Re-joining the current room is idempotent: the
// existing membership is returned with Rejoined set and no new entry is
// appended. A session in another room is moved only after the target
// accepts it; on any failure the prior membership stays untouched.
func (b *Broker) JoinRoom(sid core.SessionID, rawCode string) (JoinResult, error) {
	code := domain.NormalizeRoomCode(rawCode)
	if !code.Valid() {
		return JoinResult{}, domain.ErrRoomNotFound
	}
	room, ok := b.Rooms.Get(code)
	if !ok {
		return JoinResult{}, domain.ErrRoomNotFound
	}
	p, added, err := room.AddPlayer(sid, b.Registry.DisplayName(sid))
	if err != nil {
		return JoinResult{}, err
	}
	var left *LeaveResult
	if cur, in := b.Registry.RoomOf(sid); in && cur != code {
		if res, ok := b.Leave(sid); ok {
			left = &res
		}
	}
	b.Registry.SetRoom(sid, code)
	if added {
		log.Info().Str("module", "app.broker").Str("sid", string(sid)).Str("code", string(code)).Str("name", p.Name).Msg("joined room")
	}
	return JoinResult{
		Code:     code,
		Player:   p,
		Scores:   room.ScoresSnapshot(),
		Rejoined: !added,
		Left:     left,
	}, nil
}

// SubmitScore records the latest score for the session's display name in
// one game's table. Last write wins; members only; finite scores only.
func (b *Broker) SubmitScore(sid core.SessionID, rawCode, game string, score float64) (ScoreResult, error) {
	code := domain.NormalizeRoomCode(rawCode)
	room, ok := b.Rooms.Get(code)
	if !ok {
		return ScoreResult{}, domain.ErrRoomNotFound
	}
	p, member := room.Player(sid)
	if !member {
		return ScoreResult{}, domain.ErrNotMember
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return ScoreResult{}, domain.ErrInvalidScore
	}
	table := room.RecordScore(game, p.Name, score)
	log.Debug().Str("module", "app.broker").Str("code", string(code)).Str("game", game).Str("player", p.Name).Float64("score", score).Msg("score recorded")
	return ScoreResult{Code: code, Game: game, Scores: table}, nil
}

// Leave removes the session from its current room, if any, and evicts the
// room once empty.
func (b *Broker) Leave(sid core.SessionID) (LeaveResult, bool) {
	code, ok := b.Registry.RoomOf(sid)
	if !ok {
		return LeaveResult{}, false
	}
	b.Registry.ClearRoom(sid)
	room, ok := b.Rooms.Get(code)
	if !ok {
		return LeaveResult{}, false
	}
	p, removed := room.RemovePlayer(sid)
	if !removed {
		return LeaveResult{}, false
	}
	res := LeaveResult{Code: code, Player: p}
	if b.Rooms.EvictIfEmpty(code) {
		res.Evicted = true
		return res, true
	}
	res.Scores = room.ScoresSnapshot()
	return res, true
}

// Disconnect is the terminal cleanup for a session: leave the current room
// and drop the session record. Unconditional, never negotiated.
func (b *Broker) Disconnect(sid core.SessionID) (LeaveResult, bool) {
	res, left := b.Leave(sid)
	b.Registry.Unbind(sid)
	log.Info().Str("module", "app.broker").Str("sid", string(sid)).Bool("was_in_room", left).Msg("session disconnected")
	return res, left
}
