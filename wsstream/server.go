package wsstream

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Server upgrades an HTTP request to a websocket and attaches it to a
// task's subscriber set, grounded on socket/server.go's
// Server.ServeHTTP upgrade pattern.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer builds a Server bound to hub. CORS is left permissive the
// way the teacher's upgrader does, since this endpoint requires the
// same bearer auth as the rest of the API before the upgrade happens.
func NewServer(hub *Hub) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeTask upgrades the request and subscribes the resulting
// connection to taskID's event stream. It blocks until the client
// disconnects.
func (s *Server) ServeTask(w http.ResponseWriter, r *http.Request, taskID string) error {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	conn := newConnection(ws)
	s.hub.Subscribe(taskID, conn)
	return nil
}
