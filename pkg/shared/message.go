package shared

// MessageType identifies a message sent over the websocket.
type MessageType int

const (
	MessageTypeText       MessageType = 0 // one line of program output
	MessageTypeDiagnostic MessageType = 1 // a statement error
	MessageTypeStatus     MessageType = 2 // run accepted, stopped, rejected
	MessageTypeDone       MessageType = 3 // run finished, carries Stats
	MessageTypeSession    MessageType = 4 // session ID on connect
)

// Request types sent by the client.
const (
	RequestRun  = "run"
	RequestStop = "stop"
)

// Request is what a client sends to start or stop a run.
type Request struct {
	Type   string   `json:"type"`
	Source string   `json:"source,omitempty"` // script text for "run"
	Args   []string `json:"args,omitempty"`
}

// RunStats mirrors the interpreter counters for the done message.
type RunStats struct {
	Steps       int64 `json:"steps"`
	Jumps       int64 `json:"jumps"`
	Diagnostics int64 `json:"diagnostics"`
	Printed     int64 `json:"printed"`
	DurationMs  int64 `json:"durationMs"`
}

// Message is sent from the server to the client.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`

	SessionID string `json:"sessionId,omitempty"`
	RunID     string `json:"runId,omitempty"`

	// Source line of a diagnostic.
	Line int `json:"line,omitempty"`

	Stats *RunStats `json:"stats,omitempty"`
}
