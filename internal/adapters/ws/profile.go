package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/aman-kumar02/Playworld/internal/core"
)

func (ctl *Controller) handleCreateProfile(sid core.SessionID, conn core.SignalConnection, data []byte) {
	type profilePayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p profilePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad profile payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if err := ctl.Broker.Registry.SetDisplayName(sid, p.Name); err != nil {
		ctl.sendError(conn, errorMessage(err))
		return
	}

	log.Info().Str("module", "ws").Str("sid", string(sid)).Str("name", p.Name).Msg("profile created")
	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{"profileCreated", p.Name})
}
