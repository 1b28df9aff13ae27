// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/escaperoom/session"
)

var (
	ErrNoSubscribers = errors.New("no subscribers for room")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, event string, data any) error
	BroadcastToUser(uid string, event string, data any) error
}

// RoomBroadcaster pushes events to every websocket session subscribed to a
// room. Send failures are skipped; the presence sweep reaps dead sessions.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessionManager: sessionManager}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, event string, data any) error {
	sessions := b.sessionManager.GetByRoom(roomID)
	if len(sessions) == 0 {
		return ErrNoSubscribers
	}
	for _, s := range sessions {
		if err := s.Send(event, data); err != nil {
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToUser(uid string, event string, data any) error {
	for _, s := range b.sessionManager.All() {
		if s.UID == uid {
			if err := s.Send(event, data); err != nil {
				continue
			}
		}
	}
	return nil
}
