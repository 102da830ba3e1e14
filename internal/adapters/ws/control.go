package ws

import "github.com/aman-kumar02/Playworld/internal/core"

func (ctl *Controller) handlePing(conn core.SignalConnection) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
