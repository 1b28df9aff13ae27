// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/escaperoom/models"
)

// PostgreSQL 数据库实现 (raw database/sql on lib/pq). Same contract as the
// gorm implementation; selected with database.driver: "postgres".
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS escape_rooms (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(16) UNIQUE NOT NULL,
            doc JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS escape_audit_events (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(16) NOT NULL,
            actor VARCHAR(255) NOT NULL,
            kind VARCHAR(100) NOT NULL,
            payload JSONB,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_escape_audit_room_id ON escape_audit_events(room_id);
        CREATE INDEX IF NOT EXISTS idx_escape_audit_created_at ON escape_audit_events(created_at);
    `)
	return err
}

// CreateRoom 保存新房间文档
func (p *PostgreSQL) CreateRoom(roomID string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	result, err := p.db.Exec(`
        INSERT INTO escape_rooms (room_id, doc) VALUES ($1, $2)
        ON CONFLICT (room_id) DO NOTHING`,
		roomID, raw)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRoomExists
	}
	return nil
}

// GetRoom 加载房间文档
func (p *PostgreSQL) GetRoom(roomID string) (map[string]any, error) {
	var raw []byte
	err := p.db.QueryRow(`SELECT doc FROM escape_rooms WHERE room_id = $1`, roomID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WithRoom 在行锁事务内执行读-改-写
func (p *PostgreSQL) WithRoom(roomID string, fn RoomTxFunc) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRow(`SELECT doc FROM escape_rooms WHERE room_id = $1 FOR UPDATE`, roomID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	changed, events, err := fn(doc)
	if err != nil {
		return err
	}

	if changed {
		updated, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
            UPDATE escape_rooms SET doc = $1, updated_at = CURRENT_TIMESTAMP
            WHERE room_id = $2`,
			updated, roomID); err != nil {
			return err
		}
	}

	for _, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
            INSERT INTO escape_audit_events (room_id, actor, kind, payload)
            VALUES ($1, $2, $3, $4)`,
			ev.RoomID, ev.Actor, ev.Kind, payload); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRooms 列出所有房间摘要
func (p *PostgreSQL) ListRooms() ([]*models.RoomSummary, error) {
	rows, err := p.db.Query(`SELECT room_id, doc FROM escape_rooms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.RoomSummary
	for rows.Next() {
		var roomID string
		var raw []byte
		if err := rows.Scan(&roomID, &raw); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		summaries = append(summaries, summarize(roomID, doc))
	}
	return summaries, rows.Err()
}

// ListEvents 按时间倒序读取审计记录
func (p *PostgreSQL) ListEvents(roomID string, limit int) ([]*models.AuditEvent, error) {
	query := `SELECT room_id, actor, kind, payload, created_at
              FROM escape_audit_events WHERE room_id = $1 ORDER BY created_at DESC`
	args := []any{roomID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		ev := &models.AuditEvent{}
		var payload []byte
		if err := rows.Scan(&ev.RoomID, &ev.Actor, &ev.Kind, &payload, &ev.TS); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &ev.Payload); err != nil {
				return nil, err
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountRooms 统计房间数量
func (p *PostgreSQL) CountRooms() (int, error) {
	var count int
	err := p.db.QueryRow(`SELECT COUNT(*) FROM escape_rooms`).Scan(&count)
	return count, err
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
