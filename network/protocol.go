package network

// Server-to-client event names. Frames are JSON: {"event": ..., "data": ...}.
const (
	EventRoomSnapshot = "room"
	EventLyraMessage  = "lyra"
	EventPong         = "pong"
	EventError        = "error"
)

// Client-to-server message types.
const (
	MsgPing = "ping"
)

// Frame is one websocket message in either direction.
type Frame struct {
	Event string `json:"event,omitempty"`
	Type  string `json:"type,omitempty"`
	Data  any    `json:"data,omitempty"`
}
