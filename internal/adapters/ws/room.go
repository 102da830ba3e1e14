package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/aman-kumar02/Playworld/internal/app"
	"github.com/aman-kumar02/Playworld/internal/core"
	"github.com/aman-kumar02/Playworld/internal/domain"
)

func (ctl *Controller) handleCreateRoom(sid core.SessionID, conn core.SignalConnection) {
	if !ctl.Limiter.Allow(sid) {
		ctl.sendError(conn, errorMessage(domain.ErrRateLimited))
		return
	}

	// A session holds at most one membership; creating while in a room
	// leaves the old one first.
	if res, ok := ctl.Broker.Leave(sid); ok {
		ctl.notifyLeft(res)
	}

	res, err := ctl.Broker.CreateRoom(sid)
	if err != nil {
		ctl.sendError(conn, errorMessage(err))
		return
	}

	log.Info().Str("module", "ws").Str("sid", string(sid)).Str("code", string(res.Code)).Msg("create room")
	ctl.sendJSON(conn, struct {
		Type string          `json:"type"`
		Code domain.RoomCode `json:"code"`
	}{"roomCreated", res.Code})
}

func (ctl *Controller) handleJoinRoom(sid core.SessionID, conn core.SignalConnection, data []byte) {
	type joinPayload struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if !ctl.Limiter.Allow(sid) {
		ctl.sendError(conn, errorMessage(domain.ErrRateLimited))
		return
	}

	res, err := ctl.Broker.JoinRoom(sid, p.Code)
	if err != nil {
		// Failed joins leave the sender's current membership untouched.
		log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Str("code", p.Code).Msg("join failed")
		ctl.sendError(conn, errorMessage(err))
		return
	}
	if res.Left != nil {
		ctl.notifyLeft(*res.Left)
	}

	log.Info().Str("module", "ws").Str("sid", string(sid)).Str("code", string(res.Code)).Msg("join")
	ctl.sendJSON(conn, struct {
		Type string          `json:"type"`
		Code domain.RoomCode `json:"code"`
	}{"joinedRoom", res.Code})

	// Re-joining the current room is idempotent and stays silent for the
	// rest of the room.
	if res.Rejoined {
		return
	}

	ctl.broadcastRoom(res.Code, struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{"playerJoined", res.Player.Name})

	ctl.broadcastRoom(res.Code, struct {
		Type   string                     `json:"type"`
		Scores map[string]core.ScoreTable `json:"scores"`
	}{"updateLeaderboard", res.Scores})
}

// handleDisconnect runs the terminal cleanup once the read pump exits and
// tells the remaining members who left.
func (ctl *Controller) handleDisconnect(sid core.SessionID) {
	ctl.Limiter.Forget(sid)
	res, left := ctl.Broker.Disconnect(sid)
	if !left {
		return
	}
	ctl.notifyLeft(res)
}

func (ctl *Controller) notifyLeft(res app.LeaveResult) {
	if res.Evicted {
		return
	}
	ctl.broadcastRoom(res.Code, struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{"playerLeft", res.Player.Name})

	ctl.broadcastRoom(res.Code, struct {
		Type   string                     `json:"type"`
		Scores map[string]core.ScoreTable `json:"scores"`
	}{"updateLeaderboard", res.Scores})
}
