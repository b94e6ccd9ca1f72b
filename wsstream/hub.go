package wsstream

import "sync"

type registration struct {
	taskID string
	conn   *connection
}

// Hub fans log/status events out to every connection subscribed to a
// given task id, the repurposed form of bx/socket/hub.go's Hub (which
// tracked one flat client set; ours is keyed per task since many
// concurrent builds each have their own viewers).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*connection]bool

	register   chan registration
	unregister chan registration
}

// NewHub builds a Hub and starts its run loop.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]map[*connection]bool),
		register:   make(chan registration),
		unregister: make(chan registration),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case r := <-h.register:
			h.mu.Lock()
			if h.clients[r.taskID] == nil {
				h.clients[r.taskID] = make(map[*connection]bool)
			}
			h.clients[r.taskID][r.conn] = true
			h.mu.Unlock()

		case r := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[r.taskID]; ok {
				if _, ok := set[r.conn]; ok {
					delete(set, r.conn)
					close(r.conn.send)
				}
				if len(set) == 0 {
					delete(h.clients, r.taskID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastLog pushes one log chunk to every viewer of taskID. A
// nonexistent or empty subscriber set is a silent no-op: broadcasting
// to no one is normal, most builds run unwatched.
func (h *Hub) BroadcastLog(taskID, content string) {
	h.broadcast(taskID, newMessage(taskID, EvtLogChunk, LogChunkPayload{Content: content}))
}

// BroadcastStatus pushes a status transition to every viewer of taskID.
func (h *Hub) BroadcastStatus(taskID, status string) {
	h.broadcast(taskID, newMessage(taskID, EvtBuildStatus, BuildStatusPayload{Status: status}))
}

func (h *Hub) broadcast(taskID string, msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients[taskID] {
		select {
		case conn.send <- msg:
		default:
			// Slow consumer: drop the message rather than block the
			// build pipeline on a stuck viewer.
		}
	}
}

// Subscribe registers conn as a viewer of taskID and starts its pumps.
// It blocks until the connection closes, so callers should invoke it
// from the HTTP handler's own goroutine.
func (h *Hub) Subscribe(taskID string, conn *connection) {
	h.register <- registration{taskID: taskID, conn: conn}
	go conn.writePump()
	conn.readPump(func() {
		h.unregister <- registration{taskID: taskID, conn: conn}
	})
}
