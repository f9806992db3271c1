package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gravitas-games/slotgui/internal/network"
	"github.com/gravitas-games/slotgui/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16384
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	ws      *websocket.Conn
	server  *Server
	session *Session

	// Player information (set after authentication)
	player *models.Player

	// Buffered channel for outbound messages
	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

// NewConnection creates a new connection for an authenticated player
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	return &Connection{
		ws:      ws,
		server:  server,
		session: server.session,
		player:  player,
		send:    make(chan []byte, 256),
		closed:  make(chan struct{}),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.session.AddPlayer(c.player, c)

	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the session
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Failed to parse client message: %v", err)
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.server.ctx.Done():
			return
		}
	}
}

// handleMessage decodes a client message and posts the matching work to
// the session goroutine
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	switch msg.Type {
	case network.MsgTypeOpen:
		var req network.OpenPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		c.post(func() error { return c.session.Open(c.player, req) })

	case network.MsgTypeClick:
		var req network.ClickPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		c.post(func() error { return c.session.Click(c.player, req) })

	case network.MsgTypeClose:
		c.post(func() error {
			c.session.Close(c.player)
			return nil
		})

	case network.MsgTypeInventory:
		var req network.InventoryPayload
		if !c.decode(msg.Payload, &req) {
			return
		}
		c.post(func() error { return c.session.SetInventory(c.player, req) })

	case network.MsgTypePing:
		c.SendMessage(&network.ServerMessage{
			Type:    network.MsgTypePong,
			Payload: network.PongPayload{Timestamp: time.Now().Unix()},
		})

	default:
		log.Printf("Unknown message type: %s", msg.Type)
		c.SendError("unknown_message_type", "Unknown message type")
	}
}

func (c *Connection) decode(payload json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		log.Printf("Failed to parse payload from %s: %v", c.player.ID, err)
		c.SendError("invalid_payload", "Invalid payload")
		return false
	}
	return true
}

// post runs fn on the session goroutine and reports its error to the client
func (c *Connection) post(fn func() error) {
	ok := c.session.Post(func() {
		if err := fn(); err != nil {
			c.session.sendError(c.player.ID, err)
		}
	})
	if !ok {
		c.SendError("shutting_down", "Session is shutting down")
	}
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	select {
	case <-c.closed:
	case c.send <- data:
	default:
		log.Printf("Send buffer full for %s, dropping message", c.player.ID)
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close removes the player from the session and stops the write pump. It
// is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if !c.session.Post(func() { c.session.removeConnection(c) }) {
			log.Printf("Session stopped before %s could leave", c.player.ID)
		}
	})
}
