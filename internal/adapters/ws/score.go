package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/aman-kumar02/Playworld/internal/core"
)

func (ctl *Controller) handleUpdateScore(sid core.SessionID, conn core.SignalConnection, data []byte) {
	type scorePayload struct {
		Type  string  `json:"type"`
		Code  string  `json:"code"`
		Game  string  `json:"game"`
		Score float64 `json:"score"`
	}
	var p scorePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad score payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Game == "" {
		ctl.sendError(conn, "bad_payload")
		return
	}

	res, err := ctl.Broker.SubmitScore(sid, p.Code, p.Game, p.Score)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Str("code", p.Code).Str("game", p.Game).Msg("score rejected")
		ctl.sendError(conn, errorMessage(err))
		return
	}

	// Only the submitted game's table goes out; other games in the room
	// stay quiet.
	ctl.broadcastRoom(res.Code, struct {
		Type   string          `json:"type"`
		Game   string          `json:"game"`
		Scores core.ScoreTable `json:"scores"`
	}{"updateLeaderboard", res.Game, res.Scores})
}
