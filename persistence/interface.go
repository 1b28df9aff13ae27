// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/escaperoom/models"
)

// RoomTxFunc runs inside a per-room transaction holding the row lock. It
// may mutate doc in place (via ApplyPaths) and return audit events to
// append; the implementation persists both atomically when changed is
// true. Returning an error rolls everything back.
type RoomTxFunc func(doc map[string]any) (changed bool, events []*models.AuditEvent, err error)

// Database 数据库接口. Two implementations exist: gorm (default) and raw
// database/sql on lib/pq, selected by config.
type Database interface {
	CreateRoom(roomID string, doc map[string]any) error
	GetRoom(roomID string) (map[string]any, error)
	// WithRoom serializes concurrent intents against the same room: the
	// room row is read under SELECT ... FOR UPDATE, the decision runs on
	// that fresh snapshot, and the write-set commits in the same
	// transaction. Two racing solves cannot both apply.
	WithRoom(roomID string, fn RoomTxFunc) error
	ListRooms() ([]*models.RoomSummary, error)
	ListEvents(roomID string, limit int) ([]*models.AuditEvent, error)
	CountRooms() (int, error)
	Close() error
}

// 错误定义
var (
	ErrRoomNotFound   = fmt.Errorf("room not found")
	ErrRoomExists     = fmt.Errorf("room already exists")
	ErrRecordNotFound = fmt.Errorf("record not found")
)
