// services/event_service.go
package services

import (
	"errors"
	"net/http"
	"time"

	"github.com/wfunc/escaperoom/catalog"
	"github.com/wfunc/escaperoom/engine"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/models"
	"github.com/wfunc/escaperoom/persistence"
)

// EventResponse is the wire shape returned for POST /event.
type EventResponse struct {
	OK      bool                `json:"ok"`
	Effects []game.ClientEffect `json:"effects,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// EventService is the session gateway core: it enforces the room-level
// preconditions, lazily initializes modules, delegates the decision to the
// engine, and commits write-set plus audit entry in one transaction.
//
// Gateway-level rejections (membership, status, headcount) map to 4xx and
// skip the audit log. Intent-level rejections are ordinary outcomes: HTTP
// 200 with ok:false, and they are audited like accepted intents.
type EventService struct {
	db        persistence.Database
	processor *engine.Processor
}

func NewEventService(db persistence.Database) *EventService {
	return &EventService{db: db, processor: engine.NewProcessor()}
}

// Process handles one authenticated intent. The returned status is the
// HTTP code to respond with.
func (s *EventService) Process(uid, roomID, kind string, payload game.Payload) (*EventResponse, int) {
	if payload == nil {
		payload = game.Payload{}
	}

	var resp *EventResponse
	status := http.StatusOK

	err := s.db.WithRoom(roomID, func(doc map[string]any) (bool, []*models.AuditEvent, error) {
		room, err := game.RoomFromDoc(doc)
		if err != nil {
			return false, nil, err
		}
		room.ID = roomID

		if _, ok := room.Players[uid]; !ok {
			resp = &EventResponse{OK: false, Error: "Player not in room"}
			status = http.StatusForbidden
			return false, nil, nil
		}
		if room.Status != game.StatusRunning {
			resp = &EventResponse{OK: false, Error: "Room not running"}
			status = http.StatusBadRequest
			return false, nil, nil
		}
		if room.ConnectedCount() != room.RequiredPlayers {
			resp = &EventResponse{OK: false, Error: "Incorrect number of players"}
			status = http.StatusBadRequest
			return false, nil, nil
		}

		// Lazy, once: a running room without modules gets its initial set
		// for the current phase. Non-empty modules mean already done.
		changed := false
		if len(room.Modules) == 0 {
			room.Modules = catalog.InitializeModules(room.Phase)
			initWS := game.NewWriteSet()
			initWS.Set("modules", room.Modules)
			if err := persistence.ApplyPaths(doc, initWS); err != nil {
				return false, nil, err
			}
			changed = true
		}

		result := s.processor.Process(kind, payload, room, uid)

		event := &models.AuditEvent{
			RoomID:  roomID,
			Actor:   uid,
			Kind:    kind,
			Payload: payload,
			TS:      time.Now(),
		}

		if !result.OK {
			resp = &EventResponse{OK: false, Error: result.Reject.Error()}
			return changed, []*models.AuditEvent{event}, nil
		}

		if !result.WriteSet.Empty() {
			if err := persistence.ApplyPaths(doc, result.WriteSet); err != nil {
				return false, nil, err
			}
			changed = true
		}
		resp = &EventResponse{OK: true, Effects: result.Effects}
		return changed, []*models.AuditEvent{event}, nil
	})

	if err != nil {
		if errors.Is(err, persistence.ErrRoomNotFound) {
			return &EventResponse{OK: false, Error: "Room not found"}, http.StatusNotFound
		}
		logger.Log.Errorf("Error processing event %s in room %s: %v", kind, roomID, err)
		return &EventResponse{OK: false, Error: "Internal server error"}, http.StatusInternalServerError
	}
	return resp, status
}
