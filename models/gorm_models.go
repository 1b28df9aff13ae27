// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormRoom 房间文档模型. The whole session state is one jsonb document,
// addressed by field paths; the row is the unit of locking.
type GormRoom struct {
	gorm.Model
	RoomID string         `gorm:"uniqueIndex;not null"`
	Doc    map[string]any `gorm:"type:jsonb;serializer:json;not null"`
}

// GormAuditEvent 审计日志模型 (append-only).
type GormAuditEvent struct {
	gorm.Model
	RoomID  string         `gorm:"index;not null"`
	Actor   string         `gorm:"not null"`
	Kind    string         `gorm:"not null"`
	Payload map[string]any `gorm:"type:jsonb;serializer:json"`
}
