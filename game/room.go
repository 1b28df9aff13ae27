// game/room.go
package game

import "encoding/json"

// RoomStatus 表示房间的业务状态 (lobby, running, paused, ended).
type RoomStatus string

const (
	StatusLobby   RoomStatus = "lobby"
	StatusRunning RoomStatus = "running"
	StatusPaused  RoomStatus = "paused"
	StatusEnded   RoomStatus = "ended"
)

// PuzzleProgress is the progress marker of a single puzzle. It only moves
// forward: locked -> solving -> solved.
type PuzzleProgress string

const (
	PuzzleLocked  PuzzleProgress = "locked"
	PuzzleSolving PuzzleProgress = "solving"
	PuzzleSolved  PuzzleProgress = "solved"
)

// Module status tokens. Only "offline" is interpreted by the engine (it
// blocks puzzle interaction except the bootstrap puzzle); the rest are
// display/gating strings referenced by success conditions.
const (
	ModuleOffline    = "offline"
	ModuleUnstable   = "unstable"
	ModuleStabilized = "stabilized"
)

// Player 是房间内的一个参与者.
type Player struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	Ready       bool   `json:"ready"`
	Connected   bool   `json:"connected"`
	CurrentRoom string `json:"currentRoom"`
	JoinedAt    int64  `json:"joinedAt"`
	LastSeenAt  int64  `json:"lastSeenAt"`
}

// PuzzleState is the persisted progress record of one puzzle instance.
// Data accumulates across attempts (merged, never replaced).
type PuzzleState struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	State PuzzleProgress `json:"state"`
	Data  map[string]any `json:"data"`
}

// Module is one location's machine state.
type Module struct {
	Status  string                  `json:"status"`
	Puzzles map[string]*PuzzleState `json:"puzzles"`
}

// SyncWindow is the transient sub-state of the final synchronization
// puzzle. StartedAt is a server-side unix-millisecond timestamp.
type SyncWindow struct {
	IsOpen        bool     `json:"isOpen"`
	StartedBy     string   `json:"startedBy,omitempty"`
	StartedAt     int64    `json:"startedAt,omitempty"`
	SyncedPlayers []string `json:"syncedPlayers,omitempty"`
}

// Timer is the countdown shown to clients. The engine never reads it.
type Timer struct {
	EndsAt int64 `json:"endsAt"`
	Paused bool  `json:"paused"`
}

// Room 是一局游戏的聚合根. It is loaded as a single document, decided on as
// an immutable snapshot, and persisted via a field-path write-set.
type Room struct {
	ID              string             `json:"id"`
	ScenarioID      string             `json:"scenarioId"`
	HostUID         string             `json:"hostUid"`
	Status          RoomStatus         `json:"status"`
	Phase           Phase              `json:"phase"`
	MaxPlayers      int                `json:"maxPlayers"`
	RequiredPlayers int                `json:"requiredPlayers"`
	CreatedAt       int64              `json:"createdAt"`
	Timer           Timer              `json:"timer"`
	Gauges          map[string]float64 `json:"gauges"`
	Players         map[string]*Player `json:"players"`
	Modules         map[string]*Module `json:"modules"`
	SyncWindow      *SyncWindow        `json:"syncWindow,omitempty"`
}

// ConnectedCount returns the number of players currently flagged connected.
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// ModuleStatus returns the status token of a module, or "" when the module
// does not exist yet.
func (r *Room) ModuleStatus(moduleID string) string {
	if m, ok := r.Modules[moduleID]; ok {
		return m.Status
	}
	return ""
}

// Puzzle returns the stored puzzle state, or nil when the puzzle has never
// been touched.
func (r *Room) Puzzle(moduleID, puzzleID string) *PuzzleState {
	m, ok := r.Modules[moduleID]
	if !ok || m.Puzzles == nil {
		return nil
	}
	return m.Puzzles[puzzleID]
}

// PuzzleSolved reports whether the given puzzle is solved. Cross-module
// success conditions are built on this.
func (r *Room) PuzzleSolved(moduleID, puzzleID string) bool {
	p := r.Puzzle(moduleID, puzzleID)
	return p != nil && p.State == PuzzleSolved
}

// RoomFromDoc decodes a stored document map into a typed Room.
func RoomFromDoc(doc map[string]any) (*Room, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var room Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// ToDoc encodes the room back into a document map, the shape the store
// persists and the write-set paths address.
func (r *Room) ToDoc() (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
