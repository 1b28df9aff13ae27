// models/models.go
package models

import (
	"time"
)

// AuditEvent 是一条不可变的审计记录. One is appended for every processed
// intent (accepted or puzzle-failed); it is used for replay and debugging
// and is never read by the decision logic.
type AuditEvent struct {
	RoomID  string         `json:"room"`
	Actor   string         `json:"actor"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
	TS      time.Time      `json:"ts"`
}

// RoomSummary is the lightweight listing shape used by the admin RPC
// surface.
type RoomSummary struct {
	RoomID      string `json:"roomId"`
	Status      string `json:"status"`
	Phase       string `json:"phase"`
	PlayerCount int    `json:"playerCount"`
}
