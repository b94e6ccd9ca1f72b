package wsstream

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// connection wraps a websocket.Conn with a buffered outbound channel,
// the same split bx/socket/conn.go uses between the hub (which only
// ever enqueues) and the per-connection writePump (which owns the
// actual network write).
type connection struct {
	ws   *websocket.Conn
	send chan *Message
}

func newConnection(ws *websocket.Conn) *connection {
	return &connection{ws: ws, send: make(chan *Message, 256)}
}

// writePump drains c.send to the socket and sends periodic pings until
// the channel is closed by the hub on unregister.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.ws.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if err := json.NewEncoder(w).Encode(msg); err != nil {
				w.Close()
				continue
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to notice when the peer goes away (log viewers
// never send anything meaningful back); any inbound frame other than a
// close/pong is simply discarded.
func (c *connection) readPump(onClose func()) {
	defer onClose()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
