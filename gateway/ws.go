package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Aryok23/garden-advisor/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Same-origin policy is the deployment's problem; the gateway sits
	// behind a proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 90 * time.Second
	wsMaxMessage   = 16 * 1024
)

// handleWS runs a chat conversation over one WebSocket connection. Each
// inbound frame is a chatRequest; each outbound frame a chatResponse.
func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))

		if req.UserID == "" || req.Text == "" {
			g.writeWS(conn, chatResponse{Text: "user_id and text are required", State: "error"})
			continue
		}

		answer := g.advisor.Process(r.Context(), core.Message{
			UserID:  req.UserID,
			Text:    req.Text,
			Channel: "ws",
		})
		if !g.writeWS(conn, chatResponse{
			Text:      answer.Text,
			State:     string(answer.State),
			ToolsUsed: answer.ToolsUsed,
		}) {
			return
		}
	}
}

func (g *Gateway) writeWS(conn *websocket.Conn, resp chatResponse) bool {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(resp); err != nil {
		g.log.Warn().Err(err).Msg("websocket write failed")
		return false
	}
	return true
}
