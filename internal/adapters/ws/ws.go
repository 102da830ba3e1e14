package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aman-kumar02/Playworld/internal/app"
	"github.com/aman-kumar02/Playworld/internal/config"
	"github.com/aman-kumar02/Playworld/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the websocket face of the broker: it upgrades connections,
// decodes inbound envelopes and fans broker results out to room members.
type Controller struct {
	Broker  *app.Broker
	Limiter *RoomRateLimiter
	cfg     *config.Config
}

func NewController(broker *app.Broker, cfg *config.Config) *Controller {
	return &Controller{
		Broker:  broker,
		Limiter: NewRoomRateLimiter(cfg.RoomRateLimit, cfg.RoomRateWindow),
		cfg:     cfg,
	}
}

// Conn wraps one websocket with a buffered outbound queue. Sends never
// block: a full queue returns ErrBackpressure instead.
type Conn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and binds a fresh session. The client token
// set by the HTTP middleware becomes the session id for this connection.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("new WS connection")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	conn.SetReadLimit(ctl.cfg.ReadLimit)

	wc := &Conn{
		conn: conn,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Broker.Registry.Bind(sid, wc, cancel)

	go ctl.writePump(ctx, wc)
	go ctl.readPump(ctx, sid, wc)
}
