// server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/escaperoom/broadcast"
	"github.com/wfunc/escaperoom/catalog"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/network"
	"github.com/wfunc/escaperoom/persistence"
	"github.com/wfunc/escaperoom/services"
	"github.com/wfunc/escaperoom/session"
)

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &errorResponse{OK: false, Error: msg})
}

// authenticate resolves a token to a uid, writing the 403 itself on
// failure. Returns ok=false when the response is already written.
func (s *GameServer) authenticate(w http.ResponseWriter, token string) (string, bool) {
	uid, err := s.verifier.Verify(token)
	if err != nil {
		writeError(w, http.StatusForbidden, "Invalid token")
		return "", false
	}
	return uid, true
}

// handleEvent is the intent gateway: every in-game action funnels
// through here. On an accepted intent the fresh snapshot is pushed to
// the room's subscribers.
func (s *GameServer) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string       `json:"idToken"`
		RoomID  string       `json:"roomId"`
		Kind    string       `json:"kind"`
		Payload game.Payload `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" || req.RoomID == "" || req.Kind == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	uid, ok := s.authenticate(w, req.IDToken)
	if !ok {
		return
	}

	start := time.Now()
	resp, status := s.events.Process(uid, req.RoomID, req.Kind, req.Payload)
	s.mon.ObserveIntent(resp.OK, time.Since(start))

	if resp.OK {
		s.pushSnapshot(req.RoomID)
		for _, effect := range resp.Effects {
			if effect.Type == "emitLyraMessage" {
				s.broadcaster.BroadcastToRoom(req.RoomID, network.EventLyraMessage, effect)
			}
		}
	}
	writeJSON(w, status, resp)
}

func (s *GameServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken         string `json:"idToken"`
		DisplayName     string `json:"displayName"`
		Avatar          string `json:"avatar"`
		ScenarioID      string `json:"scenarioId"`
		RequiredPlayers int    `json:"requiredPlayers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" || req.RequiredPlayers == 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	uid, ok := s.authenticate(w, req.IDToken)
	if !ok {
		return
	}

	roomID, err := s.rooms.CreateRoom(uid, req.DisplayName, req.Avatar, req.ScenarioID, req.RequiredPlayers)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	logger.Log.Infof("Player %s created room %s", uid, roomID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "roomId": roomID})
}

func (s *GameServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.authenticate(w, r.URL.Query().Get("token"))
	if !ok {
		return
	}
	room, err := s.rooms.GetRoom(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if _, member := room.Players[uid]; !member {
		writeError(w, http.StatusForbidden, "Player not in room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *GameServer) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken     string `json:"idToken"`
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	uid, ok := s.authenticate(w, req.IDToken)
	if !ok {
		return
	}

	roomID := r.PathValue("id")
	if err := s.rooms.JoinRoom(roomID, uid, req.DisplayName, req.Avatar); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.pushSnapshot(roomID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *GameServer) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	s.handleRoomAction(w, r, func(roomID, uid string, _ json.RawMessage) error {
		return s.rooms.LeaveRoom(roomID, uid)
	})
}

func (s *GameServer) handleSetReady(w http.ResponseWriter, r *http.Request) {
	s.handleRoomAction(w, r, func(roomID, uid string, body json.RawMessage) error {
		var req struct {
			Ready bool `json:"ready"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return err
		}
		return s.rooms.SetReady(roomID, uid, req.Ready)
	})
}

func (s *GameServer) handleStartGame(w http.ResponseWriter, r *http.Request) {
	s.handleRoomAction(w, r, func(roomID, uid string, _ json.RawMessage) error {
		return s.rooms.StartGame(roomID, uid)
	})
}

func (s *GameServer) handleEndRoom(w http.ResponseWriter, r *http.Request) {
	s.handleRoomAction(w, r, func(roomID, uid string, _ json.RawMessage) error {
		return s.rooms.EndRoom(roomID, uid)
	})
}

func (s *GameServer) handleMovePlayer(w http.ResponseWriter, r *http.Request) {
	s.handleRoomAction(w, r, func(roomID, uid string, body json.RawMessage) error {
		var req struct {
			ModuleID string `json:"moduleId"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return err
		}
		if req.ModuleID == "" {
			return services.ErrUnknownModule
		}
		return s.rooms.MovePlayer(roomID, uid, req.ModuleID)
	})
}

// handleRoomAction factors the shared shape of the lifecycle routes:
// decode, authenticate, run, push the updated snapshot.
func (s *GameServer) handleRoomAction(w http.ResponseWriter, r *http.Request, action func(roomID, uid string, body json.RawMessage) error) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	uid, ok := s.authenticate(w, req.IDToken)
	if !ok {
		return
	}

	roomID := r.PathValue("id")
	if err := action(roomID, uid, raw); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.pushSnapshot(roomID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *GameServer) handleLyraScript(w http.ResponseWriter, r *http.Request) {
	phase := game.Phase(r.PathValue("phase"))
	if !phase.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown phase")
		return
	}
	writeJSON(w, http.StatusOK, catalog.ScriptByPhase(phase))
}

// handleWebSocket subscribes an authenticated member to a room's
// snapshot stream. Presence is driven by the lifetime of the socket:
// connect marks the player connected, disconnect marks them gone once
// their last session closes.
func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	roomID := r.URL.Query().Get("roomId")
	if token == "" || roomID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	uid, err := s.verifier.Verify(token)
	if err != nil {
		writeError(w, http.StatusForbidden, "Invalid token")
		return
	}
	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if _, member := room.Players[uid]; !member {
		writeError(w, http.StatusForbidden, "Player not in room")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, uid, roomID)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, uid, roomID string) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(s.sessionTimeout)
	sess := session.NewSession(uuid.New().String(), wsConn, uid, roomID)
	s.sessions.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("Player %s subscribed to room %s from %s, session ID: %s", uid, roomID, wsConn.RemoteAddr(), sess.GetID())

	if err := s.rooms.SetPresence(roomID, uid, true); err != nil {
		logger.Log.Warnf("Failed to mark %s present in room %s: %v", uid, roomID, err)
	}
	s.pushSnapshot(roomID)

	defer func() {
		s.sessions.Remove(sess.GetID())
		s.mon.DecOnlinePlayers()
		wsConn.Close()
		logger.Log.Infof("Player %s unsubscribed from room %s, session ID: %s", uid, roomID, sess.GetID())

		if !s.hasLiveSession(uid, roomID) {
			if err := s.rooms.SetPresence(roomID, uid, false); err != nil {
				logger.Log.Warnf("Failed to mark %s absent in room %s: %v", uid, roomID, err)
			}
			s.pushSnapshot(roomID)
		}
	}()

	for {
		frame, err := wsConn.ReadFrame()
		if err != nil {
			return
		}
		sess.Touch()
		if frame.Type == network.MsgPing {
			sess.Send(network.EventPong, nil)
		}
	}
}

func (s *GameServer) hasLiveSession(uid, roomID string) bool {
	for _, sess := range s.sessions.GetByRoom(roomID) {
		if sess.UID == uid {
			return true
		}
	}
	return false
}

// pushSnapshot broadcasts the current room document to its
// subscribers. No subscribers is not an error.
func (s *GameServer) pushSnapshot(roomID string) {
	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		logger.Log.Warnf("Failed to load snapshot for room %s: %v", roomID, err)
		return
	}
	if err := s.broadcaster.BroadcastToRoom(roomID, network.EventRoomSnapshot, room); err != nil && !errors.Is(err, broadcast.ErrNoSubscribers) {
		logger.Log.Warnf("Failed to broadcast snapshot for room %s: %v", roomID, err)
	}
}

func (s *GameServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, persistence.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, services.ErrPlayerNotFound):
		writeError(w, http.StatusForbidden, "Player not in room")
	case errors.Is(err, services.ErrNotHost):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrNotAllReady),
		errors.Is(err, services.ErrNotEnoughPlayer),
		errors.Is(err, services.ErrUnknownModule),
		errors.Is(err, services.ErrBadPlayerCount),
		errors.Is(err, persistence.ErrRoomExists):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Log.Errorf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
