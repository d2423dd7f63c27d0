package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/KraftonexStudios/hackwave-sub001/internal/config"
)

// Server upgrades observers onto the live session feed. The feed is
// one-way: observers receive event envelopes and never send commands,
// so inbound frames are read only to service pings and detect closes.
type Server struct {
	cfg      *config.Config
	hub      *Hub
	upgrader websocket.Upgrader
}

// greeting is the first frame an observer receives after the upgrade.
type greeting struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Ts        int64  `json:"ts"`
}

// NewServer creates a feed server on top of a hub.
func NewServer(cfg *config.Config, h *Hub) *Server {
	return &Server{
		cfg: cfg,
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Observers are read-only, allow all origins.
				return true
			},
		},
	}
}

// HandleFeed handles the WebSocket upgrade for GET /ws?session_id=.
func (s *Server) HandleFeed(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("failed to upgrade feed connection", "error", err)
		return err
	}

	conn := s.hub.NewConnection(ws, sessionID)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.WSMaxMessageSize)

	if err := s.hub.SendJSON(conn, greeting{
		Type:      "feed_connected",
		SessionID: sessionID,
		Ts:        time.Now().UnixMilli(),
	}); err != nil {
		slog.Warn("failed to greet feed observer", "error", err)
	}

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump drains the connection until it closes. Inbound payloads are
// discarded.
func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("feed connection error", "error", err)
			}
			return
		}
	}
}

// writePump forwards queued frames and keeps the connection alive with
// pings.
func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
