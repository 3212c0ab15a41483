package players

import "time"

// State is the orchestrator lifecycle position.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Source names where the held dictionary came from.
const (
	SourceDurable  = "durable"
	SourceSession  = "session"
	SourceUpstream = "upstream"
)

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Partition string    `json:"partition"`
	State     State     `json:"state"`
	IsLoading bool      `json:"isLoading"`
	Error     string    `json:"error,omitempty"`
	Count     int       `json:"count"`
	Source    string    `json:"source,omitempty"`
	LoadedAt  time.Time `json:"loadedAt,omitempty"`
}

// Observer is notified after every state change. It must not block.
type Observer func(Status)
