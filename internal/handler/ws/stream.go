package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"socialpay/internal/orchestrator"
	"socialpay/internal/presenter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamHandler pushes a rendered view to the payer on every session change.
type StreamHandler struct {
	registry   *orchestrator.Registry
	receiptURL string
	logger     *zap.Logger
}

func NewStreamHandler(registry *orchestrator.Registry, receiptURL string, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{registry: registry, receiptURL: receiptURL, logger: logger}
}

// Stream upgrades the connection and sends views until the session closes
// or the client goes away.
// GET /api/sessions/:id/stream
func (h *StreamHandler) Stream(c echo.Context) error {
	session, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"status": false, "msg": "Session not found"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)
	h.writePump(conn, updates, done)
	return nil
}

func (h *StreamHandler) writePump(conn *websocket.Conn, updates <-chan orchestrator.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(presenter.Render(snap, h.receiptURL)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readPump drains client frames so control messages are handled, and
// signals when the client disconnects.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
