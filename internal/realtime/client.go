package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound buffer per connection.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer in front of the API;
		// the websocket endpoint accepts any origin.
		return true
	},
}

// subscription records the room a client currently listens to.
type subscription struct {
	room   string
	region string
	mode   string
	limit  int
}

// Client is one websocket connection attached to the hub.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	log  *zap.SugaredLogger

	// send carries pre-marshaled frames to writePump. It is closed only
	// via closeSend, so broadcasts racing an unregister drop their frame
	// instead of panicking on a closed channel.
	sendMu     sync.Mutex
	send       chan []byte
	sendClosed bool

	subMu sync.Mutex
	sub   *subscription
}

// setSubscription replaces the client's current subscription and returns
// the previous one, nil if the client had none.
func (c *Client) setSubscription(sub *subscription) *subscription {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	prev := c.sub
	c.sub = sub
	return prev
}

// enqueue queues a pre-marshaled frame for delivery, dropping it when the
// client's buffer is full so one slow consumer cannot stall a broadcast.
// Frames enqueued after closeSend are dropped.
func (c *Client) enqueue(frame []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.log.Warnw("dropping frame, client buffer full", "client", c.id)
	}
}

// closeSend marks the client unreachable and closes the send channel,
// releasing writePump. Idempotent; the hub calls it on unregister.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// sendEvent marshals and queues a single event for this client only.
func (c *Client) sendEvent(event string, data interface{}) {
	frame, err := marshalFrame(event, data)
	if err != nil {
		c.log.Errorw("marshaling client event", "event", event, "error", err)
		return
	}
	c.enqueue(frame)
}

// readPump reads frames from the connection and hands them to the handler.
// It runs in its own goroutine; on any read error the client unregisters.
func (c *Client) readPump(handler *Handler) {
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debugw("client read error", "client", c.id, "error", err)
			}
			return
		}
		handler.HandleMessage(c, data)
	}
}

// writePump drains the send channel to the connection and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

// ServeWs upgrades an HTTP request to a websocket connection, registers the
// client, and acknowledges with server:ready.
func ServeWs(hub *Hub, handler *Handler, log *zap.SugaredLogger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorw("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		log:  log,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump(handler)

	client.sendEvent(EventServerReady, map[string]bool{"ok": true})
}
