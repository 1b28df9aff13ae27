package persistence

import (
	"testing"

	"github.com/wfunc/escaperoom/game"
)

func TestApplyPathsCreatesIntermediateMaps(t *testing.T) {
	doc := map[string]any{}
	ws := game.NewWriteSet()
	ws.Set("modules.energy.status", "unstable")
	ws.Set("modules.energy.puzzles.P1.state", "solved")

	if err := ApplyPaths(doc, ws); err != nil {
		t.Fatalf("ApplyPaths failed: %v", err)
	}

	energy := doc["modules"].(map[string]any)["energy"].(map[string]any)
	if energy["status"] != "unstable" {
		t.Errorf("expected status unstable, got %v", energy["status"])
	}
	puzzle := energy["puzzles"].(map[string]any)["P1"].(map[string]any)
	if puzzle["state"] != "solved" {
		t.Errorf("expected state solved, got %v", puzzle["state"])
	}
}

func TestApplyPathsReplacesLeavesOnly(t *testing.T) {
	doc := map[string]any{
		"modules": map[string]any{
			"energy": map[string]any{
				"status": "offline",
				"puzzles": map[string]any{
					"P1": map[string]any{"state": "solving", "data": map[string]any{"tries": float64(3)}},
				},
			},
		},
	}
	ws := game.NewWriteSet()
	ws.Set("modules.energy.status", "stabilized")

	if err := ApplyPaths(doc, ws); err != nil {
		t.Fatalf("ApplyPaths failed: %v", err)
	}

	energy := doc["modules"].(map[string]any)["energy"].(map[string]any)
	if energy["status"] != "stabilized" {
		t.Errorf("expected stabilized, got %v", energy["status"])
	}
	// Sibling data is untouched.
	puzzle := energy["puzzles"].(map[string]any)["P1"].(map[string]any)
	if puzzle["data"].(map[string]any)["tries"] != float64(3) {
		t.Error("sibling puzzle data must survive a status write")
	}
}

func TestApplyPathsNormalizesTypedValues(t *testing.T) {
	doc := map[string]any{}
	ws := game.NewWriteSet()
	ws.Set("syncWindow", &game.SyncWindow{IsOpen: true, StartedBy: "alice", StartedAt: 1234})
	ws.Set("gauges.energy", float64(70))
	ws.Set("count", 3)

	if err := ApplyPaths(doc, ws); err != nil {
		t.Fatalf("ApplyPaths failed: %v", err)
	}

	window, ok := doc["syncWindow"].(map[string]any)
	if !ok {
		t.Fatalf("typed struct should normalize to a map, got %T", doc["syncWindow"])
	}
	if window["isOpen"] != true || window["startedBy"] != "alice" || window["startedAt"] != float64(1234) {
		t.Errorf("unexpected normalized window: %v", window)
	}
	if doc["count"] != float64(3) {
		t.Errorf("ints should normalize to float64, got %T", doc["count"])
	}
	if doc["gauges"].(map[string]any)["energy"] != float64(70) {
		t.Error("plain float64 should pass through")
	}
}

func TestApplyPathsDeterministicOrder(t *testing.T) {
	// "modules" sorts before "modules.energy.status": a whole-subtree write
	// plus a deeper write lands with the deeper one applied last.
	doc := map[string]any{}
	ws := game.NewWriteSet()
	ws.Set("modules", map[string]any{"energy": map[string]any{"status": "offline", "puzzles": map[string]any{}}})
	ws.Set("modules.energy.status", "unstable")

	if err := ApplyPaths(doc, ws); err != nil {
		t.Fatalf("ApplyPaths failed: %v", err)
	}
	energy := doc["modules"].(map[string]any)["energy"].(map[string]any)
	if energy["status"] != "unstable" {
		t.Errorf("deeper path should win, got %v", energy["status"])
	}
	if _, ok := energy["puzzles"]; !ok {
		t.Error("subtree content from the ancestor write must survive")
	}
}
