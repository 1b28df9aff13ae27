package engine

import (
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/escaperoom/catalog"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop().Sugar()
	os.Exit(m.Run())
}

// testRoom builds a running three-player room in the given phase with the
// modules seeded the way the session layer would.
func testRoom(phase game.Phase) *game.Room {
	return &game.Room{
		ID:              "TEST01",
		ScenarioID:      "cryostation9",
		HostUID:         "alice",
		Status:          game.StatusRunning,
		Phase:           phase,
		RequiredPlayers: 3,
		Gauges:          map[string]float64{"energy": 50, "structure": 50, "stability": 50},
		Players: map[string]*game.Player{
			"alice":  {UID: "alice", Connected: true, CurrentRoom: "energy"},
			"bob":    {UID: "bob", Connected: true, CurrentRoom: "system"},
			"cedric": {UID: "cedric", Connected: true, CurrentRoom: "navigation"},
		},
		Modules:    catalog.InitializeModules(phase),
		SyncWindow: &game.SyncWindow{IsOpen: false},
	}
}

func fixedProcessor(now time.Time) *Processor {
	return &Processor{Now: func() time.Time { return now }}
}

func TestUnknownIntentRejected(t *testing.T) {
	p := NewProcessor()
	result := p.Process("DOES_NOT_EXIST", game.Payload{}, testRoom(game.PhaseAct1), "alice")
	if result.OK {
		t.Fatal("unknown intent should be rejected")
	}
	if !errors.Is(result.Reject, game.ErrUnknownIntent) {
		t.Errorf("expected ErrUnknownIntent, got %v", result.Reject)
	}
	if !result.WriteSet.Empty() {
		t.Error("a rejected intent must not produce writes")
	}
}

func TestWrongPhaseRejected(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct2)
	room.Players["alice"].CurrentRoom = "energy"

	result := p.Process("ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []string{"A-C", "C-F", "A-F"},
	}, room, "alice")
	if result.OK {
		t.Fatal("act1 puzzle should be rejected in act2")
	}
	if !errors.Is(result.Reject, game.ErrWrongPhase) {
		t.Errorf("expected ErrWrongPhase, got %v", result.Reject)
	}
}

func TestWrongLocationRejected(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct1)

	// bob stands in system; a correct energy payload must still be refused.
	result := p.Process("ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []string{"A-C", "C-F", "A-F"},
	}, room, "bob")
	if result.OK {
		t.Fatal("intent from the wrong location should be rejected")
	}
	if !errors.Is(result.Reject, game.ErrWrongLocation) {
		t.Errorf("expected ErrWrongLocation, got %v", result.Reject)
	}
}

func TestOfflineModuleRejectsNonBootstrap(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct1)

	// Energy starts offline in act1; the code entry is not a bootstrap
	// puzzle so it cannot run yet.
	result := p.Process("ACT1_ENERGY_CODE_B7", game.Payload{"code": "593-Alpha"}, room, "alice")
	if result.OK {
		t.Fatal("non-bootstrap puzzle on an offline module should be rejected")
	}
	if !errors.Is(result.Reject, game.ErrModuleOffline) {
		t.Errorf("expected ErrModuleOffline, got %v", result.Reject)
	}
}

func TestBootstrapRunsOnOfflineModule(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct1)

	result := p.Process("ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []string{"A-C", "C-F", "A-F"},
	}, room, "alice")
	if !result.OK {
		t.Fatalf("bootstrap puzzle should run on an offline module, got %v", result.Reject)
	}
	if v, _ := result.WriteSet.Get("modules.energy.puzzles.ACT1_ENERGY_CIRCUITS.state"); v != string(game.PuzzleSolved) {
		t.Errorf("expected the puzzle marked solved, got %v", v)
	}
}

func TestSolvedIsIdempotent(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct1)
	room.Modules["energy"].Puzzles["ACT1_ENERGY_CIRCUITS"].State = game.PuzzleSolved

	result := p.Process("ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []string{"A-C", "C-F", "A-F"},
	}, room, "alice")
	if !result.OK {
		t.Fatalf("re-submitting a solved puzzle should succeed, got %v", result.Reject)
	}
	if !result.WriteSet.Empty() {
		t.Error("re-submission must not write anything")
	}
	if len(result.Effects) != 0 {
		t.Errorf("re-submission must not replay effects, got %d", len(result.Effects))
	}
}

func TestFailedAttemptAccumulatesAndNarrates(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct1)
	room.Modules["energy"].Puzzles["ACT1_ENERGY_CIRCUITS"].Data = map[string]any{"attempts": float64(2)}

	result := p.Process("ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []string{"A-B"},
		"note":        "second try",
	}, room, "alice")
	if !result.OK {
		t.Fatalf("a wrong attempt is still a processed intent, got %v", result.Reject)
	}
	if v, _ := result.WriteSet.Get("modules.energy.puzzles.ACT1_ENERGY_CIRCUITS.state"); v != string(game.PuzzleSolving) {
		t.Errorf("expected state solving after a failed attempt, got %v", v)
	}

	data, ok := result.WriteSet.Get("modules.energy.puzzles.ACT1_ENERGY_CIRCUITS.data")
	if !ok {
		t.Fatal("expected merged attempt data in the write-set")
	}
	merged := data.(map[string]any)
	if merged["attempts"] != float64(2) || merged["note"] != "second try" {
		t.Errorf("attempt data should merge, not replace: %v", merged)
	}

	if len(result.Effects) != 1 || result.Effects[0].Type != "emitLyraMessage" {
		t.Fatalf("expected a single failure narration, got %v", result.Effects)
	}
	if result.Effects[0].Message != catalog.FailureMessage("ACT1_ENERGY_CIRCUITS", game.PhaseAct1) {
		t.Errorf("unexpected failure line: %q", result.Effects[0].Message)
	}
}

func TestSuccessAppliesEffectChainInOrder(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct1)

	result := p.Process("ACT1_ENERGY_CIRCUITS", game.Payload{
		"connections": []string{"A-C", "C-F", "A-F"},
	}, room, "alice")
	if !result.OK {
		t.Fatalf("expected success, got %v", result.Reject)
	}

	if v, _ := result.WriteSet.Get("modules.energy.status"); v != game.ModuleUnstable {
		t.Errorf("expected energy unstable, got %v", v)
	}
	if v, _ := result.WriteSet.Get("gauges.energy"); v != float64(70) {
		t.Errorf("expected energy gauge 50+20=70, got %v", v)
	}
	// The code puzzle is seeded locked; unlocking moves it to solving.
	if v, _ := result.WriteSet.Get("modules.energy.puzzles.ACT1_ENERGY_CODE_B7.state"); v != string(game.PuzzleSolving) {
		t.Errorf("expected the code puzzle unlocked, got %v", v)
	}

	types := make([]string, len(result.Effects))
	for i, effect := range result.Effects {
		types[i] = effect.Type
	}
	want := []string{"moduleState", "gauge", "emitLyraMessage", "unlockRoom"}
	if len(types) != len(want) {
		t.Fatalf("expected %d effects, got %v", len(want), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("effect %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestAdvancePhaseHostOnly(t *testing.T) {
	p := NewProcessor()
	room := testRoom(game.PhaseAct1)

	result := p.Process(AdvancePhaseKind, game.Payload{"phase": "act2"}, room, "bob")
	if result.OK {
		t.Fatal("non-host advance should be rejected")
	}
	if !errors.Is(result.Reject, game.ErrHostOnly) {
		t.Errorf("expected ErrHostOnly, got %v", result.Reject)
	}

	result = p.Process(AdvancePhaseKind, game.Payload{"phase": "act9"}, room, "alice")
	if result.OK || !errors.Is(result.Reject, game.ErrInvalidPhase) {
		t.Errorf("expected ErrInvalidPhase, got %v", result.Reject)
	}

	result = p.Process(AdvancePhaseKind, game.Payload{"phase": "act3"}, room, "alice")
	if !result.OK {
		t.Fatalf("host advance should succeed, got %v", result.Reject)
	}
	if v, _ := result.WriteSet.Get("phase"); v != "act3" {
		t.Errorf("expected phase write, got %v", v)
	}

	// The override deliberately skips forward-only validation.
	room.Phase = game.PhaseAct3
	result = p.Process(AdvancePhaseKind, game.Payload{"phase": "act1"}, room, "alice")
	if !result.OK {
		t.Fatalf("host may rewind through the override, got %v", result.Reject)
	}
	if v, _ := result.WriteSet.Get("phase"); v != "act1" {
		t.Errorf("expected rewind write, got %v", v)
	}
}
