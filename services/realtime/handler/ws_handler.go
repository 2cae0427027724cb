package handler

import (
	"errors"
	"net/http"
	"time"

	"auction-house/internal/auth"
	"auction-house/internal/broadcast"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 32
)

// clientMessage is what a connected client sends to join or leave an auction
// room.
type clientMessage struct {
	Action string `json:"action"` // "join_auction" or "leave_auction"
	Room   string `json:"room"`
}

// WSHandler upgrades HTTP connections to websockets and bridges them onto
// the broadcast hub.
type WSHandler struct {
	hub      *broadcast.Hub
	jwter    *auth.JWTer
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *broadcast.Hub, jwter *auth.JWTer) *WSHandler {
	return &WSHandler{
		hub:   hub,
		jwter: jwter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS handles GET /ws. The bearer token is passed as a query parameter
// because browsers cannot set headers on websocket upgrades. Each connection
// is auto-subscribed to its own user room so notification pushes reach it
// without an explicit join.
func (h *WSHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	claims, err := h.jwter.Verify(token)
	if err != nil {
		utils.JSONError(c, http.StatusUnauthorized, err, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("ServeWS: upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	client := &wsClient{
		id:     utils.GenerateID(),
		userID: claims.UserID,
		conn:   conn,
		send:   make(chan broadcast.Event, sendBufferSize),
	}

	h.hub.Subscribe(claims.UserID, client)

	go client.writePump()
	go h.readPump(client)

	utils.Info("ServeWS: client connected", map[string]any{
		"client_id": client.id,
		"user_id":   claims.UserID,
	})
}

// readPump consumes join/leave messages until the connection dies, then
// detaches the client from every room.
func (h *WSHandler) readPump(client *wsClient) {
	defer func() {
		h.hub.Drop(client.id)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Warn("ServeWS: read error", map[string]any{"client_id": client.id, "error": err.Error()})
			}
			return
		}

		switch msg.Action {
		case "join_auction":
			if msg.Room != "" {
				h.hub.Subscribe(msg.Room, client)
			}
		case "leave_auction":
			if msg.Room != "" {
				h.hub.Unsubscribe(msg.Room, client.id)
			}
		}
	}
}

// wsClient is one websocket connection, registered on the hub as a
// subscriber. Send never blocks: a full buffer means the client is too slow
// and gets dropped by the hub.
type wsClient struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan broadcast.Event
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Send(event broadcast.Event) error {
	select {
	case c.send <- event:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
