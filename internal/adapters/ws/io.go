package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aman-kumar02/Playworld/internal/core"
	"github.com/aman-kumar02/Playworld/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()
	// Closing here tears down the websocket whenever the pump exits, so a
	// canceled context also unblocks readPump and runs its cleanup.
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("readPump closing")
		ctl.handleDisconnect(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleMessage(sid, c, data)
		}
	}
}

// handleMessage is the protocol dispatch: every inbound action arrives as a
// JSON envelope with a type field. Actions from one connection run in
// arrival order; a bad payload answers the sender and touches nothing else.
func (ctl *Controller) handleMessage(sid core.SessionID, conn core.SignalConnection, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendError(conn, "bad_payload")
		return
	}

	switch env.Type {
	case "createProfile":
		ctl.handleCreateProfile(sid, conn, data)
	case "createRoom":
		ctl.handleCreateRoom(sid, conn)
	case "joinRoom":
		ctl.handleJoinRoom(sid, conn, data)
	case "updateScore":
		ctl.handleUpdateScore(sid, conn, data)
	case "ping":
		ctl.handlePing(conn)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown action")
	}
}

func (ctl *Controller) sendJSON(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(b)
}

func (ctl *Controller) sendError(conn core.SignalConnection, msg string) {
	ctl.sendJSON(conn, struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{"error", msg})
}

// broadcastRoom fans one event out to every current member of a room.
// A member that cannot keep up gets its session canceled rather than
// stalling the rest of the room.
func (ctl *Controller) broadcastRoom(code domain.RoomCode, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("broadcast marshal")
		return
	}
	for _, m := range ctl.Broker.Registry.MembersOfRoom(code) {
		if err := m.Signal.TrySend(b); err != nil {
			log.Warn().Err(err).Str("module", "ws").Str("sid", string(m.SID)).Str("code", string(code)).Msg("broadcast drop")
			ctl.Broker.Registry.Cancel(m.SID)
		}
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrNotMember):
		return "You are not a member of this room"
	case errors.Is(err, domain.ErrInvalidScore):
		return "Score must be a finite number"
	case errors.Is(err, domain.ErrNameEmpty):
		return "Name must not be empty"
	case errors.Is(err, domain.ErrNameTooLong):
		return "Name is too long"
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many room requests"
	default:
		return "Invalid action"
	}
}
