package game

import "testing"

func TestRoomDocRoundTrip(t *testing.T) {
	room := &Room{
		ID:              "ABC123",
		ScenarioID:      "cryostation9",
		HostUID:         "alice",
		Status:          StatusRunning,
		Phase:           PhaseAct1,
		RequiredPlayers: 2,
		Gauges:          map[string]float64{"energy": 70},
		Players: map[string]*Player{
			"alice": {UID: "alice", Connected: true, CurrentRoom: "energy", JoinedAt: 1000},
		},
		Modules: map[string]*Module{
			"energy": {
				Status: ModuleUnstable,
				Puzzles: map[string]*PuzzleState{
					"P1": {ID: "P1", Type: "circuit_connect", State: PuzzleSolving, Data: map[string]any{"tries": float64(2)}},
				},
			},
		},
		SyncWindow: &SyncWindow{IsOpen: true, StartedBy: "alice", StartedAt: 5000, SyncedPlayers: []string{"alice"}},
	}

	doc, err := room.ToDoc()
	if err != nil {
		t.Fatalf("ToDoc failed: %v", err)
	}
	back, err := RoomFromDoc(doc)
	if err != nil {
		t.Fatalf("RoomFromDoc failed: %v", err)
	}

	if back.Phase != PhaseAct1 || back.Status != StatusRunning {
		t.Errorf("phase/status lost in round trip: %s/%s", back.Phase, back.Status)
	}
	if back.Gauges["energy"] != 70 {
		t.Errorf("gauge lost: %v", back.Gauges)
	}
	if !back.SyncWindow.IsOpen || back.SyncWindow.StartedAt != 5000 {
		t.Errorf("sync window lost: %+v", back.SyncWindow)
	}
	if back.Puzzle("energy", "P1").Data["tries"] != float64(2) {
		t.Error("puzzle data lost in round trip")
	}
}

func TestRoomHelpers(t *testing.T) {
	room := &Room{
		Players: map[string]*Player{
			"a": {Connected: true},
			"b": {Connected: false},
			"c": {Connected: true},
		},
		Modules: map[string]*Module{
			"energy": {
				Status: ModuleOffline,
				Puzzles: map[string]*PuzzleState{
					"P1": {State: PuzzleSolved},
				},
			},
		},
	}

	if room.ConnectedCount() != 2 {
		t.Errorf("expected 2 connected, got %d", room.ConnectedCount())
	}
	if room.ModuleStatus("energy") != ModuleOffline {
		t.Errorf("unexpected status: %s", room.ModuleStatus("energy"))
	}
	if room.ModuleStatus("cargo") != "" {
		t.Error("missing module should report empty status")
	}
	if !room.PuzzleSolved("energy", "P1") {
		t.Error("P1 should be solved")
	}
	if room.PuzzleSolved("energy", "P2") {
		t.Error("untouched puzzle is not solved")
	}
	if room.Puzzle("cargo", "P1") != nil {
		t.Error("missing module has no puzzles")
	}
}

func TestPhaseOrdering(t *testing.T) {
	if !PhaseIntro.Before(PhaseAct1) || !PhaseAct3.Before(PhaseEpilogue) {
		t.Error("phase ordering broken")
	}
	if PhaseAct2.Before(PhaseAct1) || PhaseAct1.Before(PhaseAct1) {
		t.Error("Before must be strict")
	}
	if Phase("act9").Valid() {
		t.Error("act9 is not a phase")
	}
	if !PhaseEpilogue.Valid() {
		t.Error("epilogue is a phase")
	}
}

func TestPayloadAccessors(t *testing.T) {
	p := Payload{
		"code":        "593-Alpha",
		"frequency":   4.2,
		"count":       3,
		"connections": []any{"A-C", "C-F"},
		"mixed":       []any{"A-C", 7},
	}

	if p.String("code") != "593-Alpha" || p.String("missing") != "" || p.String("count") != "" {
		t.Error("String accessor broken")
	}
	if v, ok := p.Float("frequency"); !ok || v != 4.2 {
		t.Error("Float accessor broken for float64")
	}
	if v, ok := p.Float("count"); !ok || v != 3 {
		t.Error("Float accessor broken for int")
	}
	if _, ok := p.Float("code"); ok {
		t.Error("Float must reject strings")
	}
	if v, ok := p.Strings("connections"); !ok || len(v) != 2 {
		t.Error("Strings accessor broken for []any")
	}
	if _, ok := p.Strings("mixed"); ok {
		t.Error("Strings must reject mixed slices")
	}

	merged := Payload{"b": 2}.Merge(map[string]any{"a": 1, "b": 1})
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("Merge broken: %v", merged)
	}
}
