// Package wsstream streams a running build task's log lines to any
// attached viewer over a websocket, the supplemented live-tail feature
// (A.3.1) built from the teacher's socket/ package — but narrated in
// the other direction: the teacher's Hub relayed a client's build
// request to the server, ours only ever pushes log/status events the
// scheduler already produced out to whoever is watching.
package wsstream

import "encoding/json"

// EventType is the kind of event pushed over a task's stream.
type EventType string

const (
	EvtLogChunk    EventType = "log_chunk"
	EvtBuildStatus EventType = "build_status"
	EvtError       EventType = "error"
)

// Message is the JSON envelope sent to every subscriber of a task.
type Message struct {
	Type    EventType       `json:"type"`
	TaskID  string          `json:"task_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LogChunkPayload carries one piece of streamed build output.
type LogChunkPayload struct {
	Content string `json:"content"`
}

// BuildStatusPayload announces a task's status transition.
type BuildStatusPayload struct {
	Status string `json:"status"`
}

func newMessage(taskID string, eventType EventType, payload any) *Message {
	b, _ := json.Marshal(payload)
	return &Message{Type: eventType, TaskID: taskID, Payload: b}
}
