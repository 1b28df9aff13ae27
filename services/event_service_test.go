package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/wfunc/escaperoom/game"
)

// runningRoom drives a two-player room through the lobby into running.
func runningRoom(t *testing.T, db *mockDB) string {
	t.Helper()
	rooms := NewRoomService(db, 30*time.Minute)
	roomID, err := rooms.CreateRoom("alice", "Alice", "", "", 2)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := rooms.JoinRoom(roomID, "bob", "Bob", ""); err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	rooms.SetReady(roomID, "alice", true)
	rooms.SetReady(roomID, "bob", true)
	if err := rooms.StartGame(roomID, "alice"); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	// The story opens in act1 for puzzle purposes.
	rooms.mutate(roomID, func(room *game.Room) error {
		room.Phase = game.PhaseAct1
		return nil
	})
	return roomID
}

func TestProcessRoomNotFound(t *testing.T) {
	db := newMockDB()
	svc := NewEventService(db)

	resp, status := svc.Process("alice", "NOROOM", "ACT1_ENERGY_CIRCUITS", nil)
	if status != http.StatusNotFound || resp.OK {
		t.Errorf("expected 404, got %d %+v", status, resp)
	}
	if len(db.events) != 0 {
		t.Error("a gateway rejection must not be audited")
	}
}

func TestProcessNonMemberForbidden(t *testing.T) {
	db := newMockDB()
	roomID := runningRoom(t, db)
	svc := NewEventService(db)

	resp, status := svc.Process("mallory", roomID, "ACT1_ENERGY_CIRCUITS", nil)
	if status != http.StatusForbidden || resp.OK {
		t.Errorf("expected 403, got %d %+v", status, resp)
	}
	if len(db.events) != 0 {
		t.Error("a gateway rejection must not be audited")
	}
}

func TestProcessRoomNotRunning(t *testing.T) {
	db := newMockDB()
	rooms := NewRoomService(db, 30*time.Minute)
	roomID, _ := rooms.CreateRoom("alice", "Alice", "", "", 2)
	svc := NewEventService(db)

	resp, status := svc.Process("alice", roomID, "ACT1_ENERGY_CIRCUITS", nil)
	if status != http.StatusBadRequest || resp.OK {
		t.Errorf("expected 400 for a lobby, got %d %+v", status, resp)
	}
	if len(db.events) != 0 {
		t.Error("a gateway rejection must not be audited")
	}
}

func TestProcessHeadcountMismatch(t *testing.T) {
	db := newMockDB()
	roomID := runningRoom(t, db)
	rooms := NewRoomService(db, 30*time.Minute)

	// Force running with a missing player, bypassing the pause transition.
	rooms.mutate(roomID, func(room *game.Room) error {
		room.Players["bob"].Connected = false
		room.Status = game.StatusRunning
		return nil
	})

	svc := NewEventService(db)
	resp, status := svc.Process("alice", roomID, "ACT1_ENERGY_CIRCUITS", nil)
	if status != http.StatusBadRequest || resp.OK {
		t.Errorf("expected 400 on headcount mismatch, got %d %+v", status, resp)
	}
	if len(db.events) != 0 {
		t.Error("a gateway rejection must not be audited")
	}
}

func TestProcessLazyModuleInit(t *testing.T) {
	db := newMockDB()
	roomID := runningRoom(t, db)
	svc := NewEventService(db)

	room := loadRoom(t, db, roomID)
	if len(room.Modules) != 0 {
		t.Fatal("a fresh room should have no modules yet")
	}

	// Any processed intent triggers the one-time seeding, even a rejected
	// one.
	resp, status := svc.Process("alice", roomID, "NO_SUCH_PUZZLE", nil)
	if status != http.StatusOK || resp.OK {
		t.Fatalf("expected a 200 intent rejection, got %d %+v", status, resp)
	}

	room = loadRoom(t, db, roomID)
	if len(room.Modules) != 3 {
		t.Fatalf("expected 3 seeded modules, got %d", len(room.Modules))
	}

	// Progress must survive later intents: seeding happens only once.
	rooms := NewRoomService(db, 30*time.Minute)
	rooms.mutate(roomID, func(room *game.Room) error {
		room.Modules["energy"].Puzzles["ACT1_ENERGY_CIRCUITS"].State = game.PuzzleSolving
		return nil
	})
	svc.Process("alice", roomID, "NO_SUCH_PUZZLE", nil)
	room = loadRoom(t, db, roomID)
	if room.Modules["energy"].Puzzles["ACT1_ENERGY_CIRCUITS"].State != game.PuzzleSolving {
		t.Error("re-processing must not reseed the modules")
	}
}

func TestProcessIntentRejectionIsAudited(t *testing.T) {
	db := newMockDB()
	roomID := runningRoom(t, db)
	svc := NewEventService(db)

	resp, status := svc.Process("alice", roomID, "ACT2_ENERGY_LEVER", game.Payload{"action": "complete"})
	if status != http.StatusOK {
		t.Fatalf("an intent-level rejection is HTTP 200, got %d", status)
	}
	if resp.OK || resp.Error == "" {
		t.Errorf("expected ok:false with a reason, got %+v", resp)
	}

	events, _ := db.ListEvents(roomID, 10)
	if len(events) != 1 {
		t.Fatalf("expected the rejected intent audited, got %d events", len(events))
	}
	if events[0].Actor != "alice" || events[0].Kind != "ACT2_ENERGY_LEVER" {
		t.Errorf("unexpected audit entry: %+v", events[0])
	}
}

func TestProcessAcceptedIntentPersists(t *testing.T) {
	db := newMockDB()
	roomID := runningRoom(t, db)
	svc := NewEventService(db)

	resp, status := svc.Process("alice", roomID, "ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []any{"A-C", "C-F", "A-F"},
	})
	if status != http.StatusOK || !resp.OK {
		t.Fatalf("expected an accepted solve, got %d %+v", status, resp)
	}
	if len(resp.Effects) == 0 {
		t.Error("a solve should report its effects")
	}

	room := loadRoom(t, db, roomID)
	if !room.PuzzleSolved("energy", "ACT1_ENERGY_CIRCUITS") {
		t.Error("the solve should be persisted")
	}
	if room.ModuleStatus("energy") != game.ModuleUnstable {
		t.Errorf("expected energy unstable, got %s", room.ModuleStatus("energy"))
	}
	if room.Gauges["energy"] != 70 {
		t.Errorf("expected energy gauge 70, got %v", room.Gauges["energy"])
	}

	events, _ := db.ListEvents(roomID, 10)
	if len(events) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(events))
	}

	// Idempotent re-submission: accepted, no effects, still audited.
	resp, _ = svc.Process("alice", roomID, "ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []any{"A-C", "C-F", "A-F"},
	})
	if !resp.OK || len(resp.Effects) != 0 {
		t.Errorf("re-submission should be a silent success, got %+v", resp)
	}
	events, _ = db.ListEvents(roomID, 10)
	if len(events) != 2 {
		t.Errorf("expected the re-submission audited too, got %d", len(events))
	}
}
