// services/room_service.go
package services

import (
	"errors"
	"math/rand"
	"time"

	"github.com/wfunc/escaperoom/catalog"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/models"
	"github.com/wfunc/escaperoom/persistence"
)

var (
	ErrRoomFull        = errors.New("room is full")
	ErrNotHost         = errors.New("only the host can do that")
	ErrNotAllReady     = errors.New("not all players are ready")
	ErrNotEnoughPlayer = errors.New("not enough players")
	ErrPlayerNotFound  = errors.New("player not in room")
	ErrUnknownModule   = errors.New("unknown module")
	ErrBadPlayerCount  = errors.New("required players must be between 1 and 4")
)

const (
	defaultScenario  = "cryostation9"
	defaultMaxPlayer = 4
	roomIDChars      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomIDLength     = 6
)

// RoomService 房间生命周期服务: create/join/leave/ready/start plus the
// in-game player bookkeeping (location moves, presence). All mutations go
// through the store's per-room transaction.
type RoomService struct {
	db           persistence.Database
	gameDuration time.Duration
}

func NewRoomService(db persistence.Database, gameDuration time.Duration) *RoomService {
	if gameDuration <= 0 {
		gameDuration = 30 * time.Minute
	}
	return &RoomService{db: db, gameDuration: gameDuration}
}

// CreateRoom creates a lobby with the caller as host and first player.
func (s *RoomService) CreateRoom(uid, displayName, avatar, scenarioID string, requiredPlayers int) (string, error) {
	if scenarioID == "" {
		scenarioID = defaultScenario
	}
	if requiredPlayers < 1 || requiredPlayers > defaultMaxPlayer {
		return "", ErrBadPlayerCount
	}

	now := time.Now().UnixMilli()
	room := &game.Room{
		ScenarioID:      scenarioID,
		HostUID:         uid,
		Status:          game.StatusLobby,
		Phase:           game.PhaseIntro,
		MaxPlayers:      defaultMaxPlayer,
		RequiredPlayers: requiredPlayers,
		CreatedAt:       now,
		Timer:           game.Timer{},
		Gauges:          map[string]float64{"energy": 100, "structure": 100, "stability": 100},
		Players: map[string]*game.Player{
			uid: newPlayer(uid, displayName, avatar, now),
		},
		Modules:    map[string]*game.Module{},
		SyncWindow: &game.SyncWindow{IsOpen: false},
	}

	// Room codes can collide; retry a few times before giving up.
	for attempt := 0; attempt < 5; attempt++ {
		roomID := generateRoomID()
		room.ID = roomID
		doc, err := room.ToDoc()
		if err != nil {
			return "", err
		}
		err = s.db.CreateRoom(roomID, doc)
		if err == nil {
			return roomID, nil
		}
		if !errors.Is(err, persistence.ErrRoomExists) {
			return "", err
		}
	}
	return "", persistence.ErrRoomExists
}

// GetRoom loads a typed snapshot for display.
func (s *RoomService) GetRoom(roomID string) (*game.Room, error) {
	doc, err := s.db.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	room, err := game.RoomFromDoc(doc)
	if err != nil {
		return nil, err
	}
	room.ID = roomID
	return room, nil
}

// JoinRoom adds a player, or reconnects one that is already a member.
func (s *RoomService) JoinRoom(roomID, uid, displayName, avatar string) error {
	return s.mutate(roomID, func(room *game.Room) error {
		if existing, ok := room.Players[uid]; ok {
			existing.Connected = true
			existing.LastSeenAt = time.Now().UnixMilli()
			return nil
		}
		if room.Status == game.StatusRunning && len(room.Players) >= room.RequiredPlayers {
			return ErrRoomFull
		}
		if len(room.Players) >= room.MaxPlayers {
			return ErrRoomFull
		}
		room.Players[uid] = newPlayer(uid, displayName, avatar, time.Now().UnixMilli())
		return nil
	})
}

// LeaveRoom removes a player. The host role moves to the earliest-joined
// remaining player; an emptied room ends.
func (s *RoomService) LeaveRoom(roomID, uid string) error {
	return s.mutate(roomID, func(room *game.Room) error {
		if _, ok := room.Players[uid]; !ok {
			return ErrPlayerNotFound
		}
		delete(room.Players, uid)

		if len(room.Players) == 0 {
			room.Status = game.StatusEnded
			return nil
		}
		if room.HostUID == uid {
			room.HostUID = earliestJoined(room.Players)
		}
		return nil
	})
}

// SetReady toggles the lobby ready flag.
func (s *RoomService) SetReady(roomID, uid string, ready bool) error {
	return s.mutate(roomID, func(room *game.Room) error {
		player, ok := room.Players[uid]
		if !ok {
			return ErrPlayerNotFound
		}
		player.Ready = ready
		return nil
	})
}

// StartGame moves the lobby into running: host only, full headcount, all
// ready. The countdown timer starts and the gauges drop to their in-game
// baseline.
func (s *RoomService) StartGame(roomID, uid string) error {
	return s.mutate(roomID, func(room *game.Room) error {
		if room.HostUID != uid {
			return ErrNotHost
		}
		if len(room.Players) < room.RequiredPlayers {
			return ErrNotEnoughPlayer
		}
		for _, player := range room.Players {
			if !player.Ready {
				return ErrNotAllReady
			}
		}
		room.Status = game.StatusRunning
		room.Phase = game.PhaseIntro
		room.Timer = game.Timer{
			EndsAt: time.Now().Add(s.gameDuration).UnixMilli(),
			Paused: false,
		}
		room.Gauges = map[string]float64{"energy": 50, "structure": 50, "stability": 50}
		return nil
	})
}

// EndRoom is the host's terminal transition (story complete or abandoned).
func (s *RoomService) EndRoom(roomID, uid string) error {
	return s.mutate(roomID, func(room *game.Room) error {
		if room.HostUID != uid {
			return ErrNotHost
		}
		room.Status = game.StatusEnded
		return nil
	})
}

// MovePlayer changes the sub-location the player occupies. Puzzle intents
// are only accepted for the module the player currently stands in.
func (s *RoomService) MovePlayer(roomID, uid, moduleID string) error {
	valid := false
	for _, id := range catalog.ModuleIDs {
		if id == moduleID {
			valid = true
			break
		}
	}
	if !valid {
		return ErrUnknownModule
	}
	return s.mutate(roomID, func(room *game.Room) error {
		player, ok := room.Players[uid]
		if !ok {
			return ErrPlayerNotFound
		}
		player.CurrentRoom = moduleID
		player.LastSeenAt = time.Now().UnixMilli()
		return nil
	})
}

// SetPresence flips a player's liveness and drives the running<->paused
// transition: a running room pauses when the connected headcount leaves
// the required count, and resumes when it returns.
func (s *RoomService) SetPresence(roomID, uid string, connected bool) error {
	return s.mutate(roomID, func(room *game.Room) error {
		player, ok := room.Players[uid]
		if !ok {
			return ErrPlayerNotFound
		}
		player.Connected = connected
		player.LastSeenAt = time.Now().UnixMilli()

		connectedCount := room.ConnectedCount()
		switch {
		case room.Status == game.StatusRunning && connectedCount != room.RequiredPlayers:
			room.Status = game.StatusPaused
			room.Timer.Paused = true
		case room.Status == game.StatusPaused && connectedCount == room.RequiredPlayers:
			room.Status = game.StatusRunning
			room.Timer.Paused = false
		}
		return nil
	})
}

// mutate runs fn on a typed room inside the row-locked transaction and
// writes the whole document back.
func (s *RoomService) mutate(roomID string, fn func(room *game.Room) error) error {
	return s.db.WithRoom(roomID, func(doc map[string]any) (bool, []*models.AuditEvent, error) {
		room, err := game.RoomFromDoc(doc)
		if err != nil {
			return false, nil, err
		}
		room.ID = roomID
		if err := fn(room); err != nil {
			return false, nil, err
		}
		updated, err := room.ToDoc()
		if err != nil {
			return false, nil, err
		}
		for key := range doc {
			delete(doc, key)
		}
		for key, value := range updated {
			doc[key] = value
		}
		return true, nil, nil
	})
}

func newPlayer(uid, displayName, avatar string, now int64) *game.Player {
	if displayName == "" {
		displayName = "Anonymous"
	}
	return &game.Player{
		UID:         uid,
		DisplayName: displayName,
		Avatar:      avatar,
		Ready:       false,
		Connected:   true,
		CurrentRoom: "energy",
		JoinedAt:    now,
		LastSeenAt:  now,
	}
}

func earliestJoined(players map[string]*game.Player) string {
	var hostUID string
	var earliest int64
	for uid, player := range players {
		if hostUID == "" || player.JoinedAt < earliest {
			hostUID = uid
			earliest = player.JoinedAt
		}
	}
	return hostUID
}

func generateRoomID() string {
	out := make([]byte, roomIDLength)
	for i := range out {
		out[i] = roomIDChars[rand.Intn(len(roomIDChars))]
	}
	return string(out)
}
