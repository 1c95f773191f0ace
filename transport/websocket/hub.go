package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/multiworld-game/game/engine"
	"github.com/wricardo/multiworld-game/game/visual"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one observation fanned out to every connected visualizer for
// a world: a session joining, an agent moving, or an agent dying.
type Message struct {
	Event      string             `json:"event"`
	SID        string             `json:"sid,omitempty"`
	Identifier *visual.Identifier `json:"identifier,omitempty"`
	Username   string             `json:"username,omitempty"`
	Prev       *engine.Vector     `json:"prev,omitempty"`
	Curr       *engine.Vector     `json:"curr,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// Client is one connected visualizer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub is the single-world visualization sink: at most one world per
// process attaches one of these, and it fans out
// SessionConnected/AgentMoved/AgentDied to every connected viewer.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new, unstarted visualization hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the hub's event loop. Call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("visualizer connected (total: %d)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("visualizer disconnected (total: %d)", len(h.clients))
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// ServeWS upgrades r to a WebSocket and registers the connection as a
// visualizer client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// NotifySessionConnected emits a "connected" event. It takes the fields a
// world.ConnectedObserver closure reads from its SessionRecord.
func (h *Hub) NotifySessionConnected(sid string, identifier *visual.Identifier, username string) {
	h.broadcast <- &Message{Event: "connected", SID: sid, Identifier: identifier, Username: username}
}

// NotifyAgentMoved emits a "moved" event.
func (h *Hub) NotifyAgentMoved(sid string, prev, curr engine.Vector) {
	h.broadcast <- &Message{Event: "moved", SID: sid, Prev: &prev, Curr: &curr}
}

// NotifyAgentDied emits a "died" event.
func (h *Hub) NotifyAgentDied(sid string, reason engine.DeathReason) {
	h.broadcast <- &Message{Event: "died", SID: sid, Reason: string(reason)}
}

func (h *Hub) deliver(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("failed to marshal visualizer message: %v", err)
		return
	}
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
