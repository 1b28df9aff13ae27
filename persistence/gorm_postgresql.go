// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/escaperoom/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormRoom{},
		&models.GormAuditEvent{},
	)
}

// CreateRoom 保存新房间文档
func (p *GormPostgreSQL) CreateRoom(roomID string, doc map[string]any) error {
	var existing models.GormRoom
	result := p.db.Where("room_id = ?", roomID).First(&existing)
	if result.Error == nil {
		return ErrRoomExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	room := models.GormRoom{RoomID: roomID, Doc: doc}
	return p.db.Create(&room).Error
}

// GetRoom 加载房间文档 (no lock; snapshot reads for display only)
func (p *GormPostgreSQL) GetRoom(roomID string) (map[string]any, error) {
	var room models.GormRoom
	if err := p.db.Where("room_id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room.Doc, nil
}

// WithRoom 在行锁事务内执行读-改-写
func (p *GormPostgreSQL) WithRoom(roomID string, fn RoomTxFunc) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var room models.GormRoom
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ?", roomID).
			First(&room).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		changed, events, err := fn(room.Doc)
		if err != nil {
			return err
		}

		if changed {
			if err := tx.Model(&room).Update("doc", room.Doc).Error; err != nil {
				return err
			}
		}

		for _, ev := range events {
			record := models.GormAuditEvent{
				RoomID:  ev.RoomID,
				Actor:   ev.Actor,
				Kind:    ev.Kind,
				Payload: ev.Payload,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRooms 列出所有房间摘要
func (p *GormPostgreSQL) ListRooms() ([]*models.RoomSummary, error) {
	var rooms []models.GormRoom
	if err := p.db.Find(&rooms).Error; err != nil {
		return nil, err
	}
	summaries := make([]*models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, summarize(room.RoomID, room.Doc))
	}
	return summaries, nil
}

// ListEvents 按时间倒序读取审计记录
func (p *GormPostgreSQL) ListEvents(roomID string, limit int) ([]*models.AuditEvent, error) {
	var records []models.GormAuditEvent
	query := p.db.Where("room_id = ?", roomID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	events := make([]*models.AuditEvent, 0, len(records))
	for _, record := range records {
		events = append(events, &models.AuditEvent{
			RoomID:  record.RoomID,
			Actor:   record.Actor,
			Kind:    record.Kind,
			Payload: record.Payload,
			TS:      record.CreatedAt,
		})
	}
	return events, nil
}

// CountRooms 统计房间数量
func (p *GormPostgreSQL) CountRooms() (int, error) {
	var count int64
	if err := p.db.Model(&models.GormRoom{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// summarize extracts the listing fields from a room document.
func summarize(roomID string, doc map[string]any) *models.RoomSummary {
	summary := &models.RoomSummary{RoomID: roomID}
	if status, ok := doc["status"].(string); ok {
		summary.Status = status
	}
	if phase, ok := doc["phase"].(string); ok {
		summary.Phase = phase
	}
	if players, ok := doc["players"].(map[string]any); ok {
		summary.PlayerCount = len(players)
	}
	return summary
}
