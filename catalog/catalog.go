// catalog/catalog.go
package catalog

import (
	"sort"
	"strings"

	"github.com/wfunc/escaperoom/game"
)

// Hint 是一个谜题的三级提示.
type Hint struct {
	Level1 string
	Level2 string
	Level3 string
}

// PuzzleDefinition is one immutable catalog entry: the rule that decides
// whether a submitted payload solves the puzzle, and the effect chain to
// apply when it does. SuccessCondition is a pure predicate over the payload
// and a read-only room snapshot, so puzzles can reference cross-module
// state.
type PuzzleDefinition struct {
	ID          string
	Type        string
	Description string
	ModuleID    string
	Phase       game.Phase
	// Bootstrap marks the one puzzle per module allowed to run while the
	// module is still offline.
	Bootstrap        bool
	SuccessCondition func(payload game.Payload, room *game.Room) bool
	Effects          []game.Effect
	Hints            Hint
}

// Lookup resolves a puzzle definition by intent kind. The kind string is
// the puzzle id.
func Lookup(puzzleID string) (*PuzzleDefinition, bool) {
	def, ok := Puzzles[puzzleID]
	return def, ok
}

// FinalSyncID is the special multi-player synchronization intent handled by
// a dedicated sub-protocol in the engine. Its SuccessCondition is
// statically false; completion is orchestrated there, never here.
const FinalSyncID = "ACT3_FINAL_SYNC"

// normalizeConnections canonicalizes circuit segments: "c-a" and "A-C" are
// the same edge, and segment order does not matter.
func normalizeConnections(connections []string) []string {
	out := make([]string, 0, len(connections))
	for _, c := range connections {
		ends := strings.Split(strings.ToUpper(strings.TrimSpace(c)), "-")
		sort.Strings(ends)
		out = append(out, strings.Join(ends, "-"))
	}
	sort.Strings(out)
	return out
}

func connectionsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Puzzles 是 CryoStation 9 剧本的谜题目录.
var Puzzles = map[string]*PuzzleDefinition{
	// --- Act I ---
	"ACT1_ENERGY_CIRCUITS": {
		ID:          "ACT1_ENERGY_CIRCUITS",
		Type:        "circuit_connect",
		Description: "Connect the three energy nodes to restore the flow.",
		ModuleID:    "energy",
		Phase:       game.PhaseAct1,
		Bootstrap:   true,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			connections, ok := payload.Strings("connections")
			if !ok {
				return false
			}
			correct := normalizeConnections([]string{"A-C", "C-F", "A-F"})
			return connectionsEqual(normalizeConnections(connections), correct) &&
				!room.PuzzleSolved("energy", "ACT1_ENERGY_CIRCUITS")
		},
		Effects: []game.Effect{
			game.SetModuleStatus("energy", game.ModuleUnstable),
			game.AdjustGauge("energy", 20),
			game.EmitLyraMessage("act1_energy_circuits_success"),
			game.UnlockPuzzle("ACT1_ENERGY_CODE_B7"),
		},
		Hints: Hint{
			Level1: "Electrical schematics tend to follow logical paths.",
			Level2: "Try linking the start node to the end node through the center.",
			Level3: "The solution is A -> C -> F.",
		},
	},
	"ACT1_ENERGY_CODE_B7": {
		ID:          "ACT1_ENERGY_CODE_B7",
		Type:        "code_entry",
		Description: "Enter protocol B7 to calibrate the secondary line.",
		ModuleID:    "energy",
		Phase:       game.PhaseAct1,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			return payload.String("code") == "593-Alpha" &&
				room.PuzzleSolved("system", "ACT1_SYSTEM_LOG_B7")
		},
		Effects: []game.Effect{
			game.SetModuleStatus("energy", game.ModuleStabilized),
			game.AdjustGauge("energy", 15),
			game.EmitLyraMessage("act1_energy_code_success"),
			game.AdvancePhase(game.PhaseAct2),
		},
		Hints: Hint{
			Level1: "The code is not in this room.",
			Level2: "The System room shows diagnostic logs. Look for a blinking line.",
			Level3: "The code is 593-Alpha.",
		},
	},
	"ACT1_SYSTEM_LOG_B7": {
		ID:          "ACT1_SYSTEM_LOG_B7",
		Type:        "log_reading",
		Description: "Read the log to find protocol B7.",
		ModuleID:    "system",
		Phase:       game.PhaseAct1,
		Bootstrap:   true,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			return !room.PuzzleSolved("system", "ACT1_SYSTEM_LOG_B7")
		},
		Effects: []game.Effect{
			game.EmitLyraMessage("act1_system_log_found"),
		},
		Hints: Hint{
			Level1: "Browse the logs available on the terminal.",
			Level2: "The relevant entry blinks briefly before vanishing.",
			Level3: "The log is titled \"Protocol B7\".",
		},
	},

	// --- Act II ---
	"ACT2_ENERGY_LEVER": {
		ID:          "ACT2_ENERGY_LEVER",
		Type:        "lever_hold",
		Description: "Hold the lever to stabilize the flow.",
		ModuleID:    "energy",
		Phase:       game.PhaseAct2,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			return payload.String("action") == "complete" &&
				room.ModuleStatus("energy") == game.ModuleStabilized &&
				!room.PuzzleSolved("energy", "ACT2_ENERGY_LEVER")
		},
		Effects: []game.Effect{
			game.EmitLyraMessage("act2_energy_lever_success"),
			game.UnlockPuzzle("ACT2_SYSTEM_CALIBRATION"),
		},
		Hints: Hint{
			Level1: "A long press is required.",
			Level2: "Do not release before the light in the System room turns on.",
			Level3: "Hold the lever while another player calibrates the frequencies.",
		},
	},
	"ACT2_SYSTEM_CALIBRATION": {
		ID:          "ACT2_SYSTEM_CALIBRATION",
		Type:        "frequency_match",
		Description: "Match the frequencies.",
		ModuleID:    "system",
		Phase:       game.PhaseAct2,
		Bootstrap:   true,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			frequency, okF := payload.Float("frequency")
			amplitude, okA := payload.Float("amplitude")
			phase, okP := payload.Float("phase")
			return okF && okA && okP &&
				frequency == 4.2 && amplitude == 1.5 && phase == 180 &&
				!room.PuzzleSolved("system", "ACT2_SYSTEM_CALIBRATION")
		},
		Effects: []game.Effect{
			game.SetModuleStatus("system", game.ModuleStabilized),
			game.AdjustGauge("stability", 20),
			game.EmitLyraMessage("act2_system_calibration_success"),
			game.UnlockPuzzle("ACT2_SYSTEM_ROUTING"),
		},
		Hints: Hint{
			Level1: "The target values are not in this room.",
			Level2: "The Energy room player has to read them out to you.",
			Level3: "Frequency 4.2, amplitude 1.5, phase 180.",
		},
	},
	"ACT2_SYSTEM_ROUTING": {
		ID:          "ACT2_SYSTEM_ROUTING",
		Type:        "power_routing",
		Description: "Route power to navigation.",
		ModuleID:    "system",
		Phase:       game.PhaseAct2,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			return room.ModuleStatus("system") == game.ModuleStabilized &&
				!room.PuzzleSolved("system", "ACT2_SYSTEM_ROUTING")
		},
		Effects: []game.Effect{
			game.EmitLyraMessage("act2_system_routing_success"),
			game.UnlockPuzzle("ACT2_NAVIGATION_DIALS"),
		},
		Hints: Hint{
			Level1: "Connect the modules to build a path to NAVIGATION.",
			Level2: "Every connector has to be used.",
			Level3: "The correct path is Energy Out -> Relay A -> NAVIGATION.",
		},
	},
	"ACT2_NAVIGATION_DIALS": {
		ID:          "ACT2_NAVIGATION_DIALS",
		Type:        "dial_adjustment",
		Description: "Adjust the orbital dials.",
		ModuleID:    "navigation",
		Phase:       game.PhaseAct2,
		Bootstrap:   true,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			vector, ok := payload.Float("vector")
			return ok && vector == 0 &&
				!room.PuzzleSolved("navigation", "ACT2_NAVIGATION_DIALS")
		},
		Effects: []game.Effect{
			game.SetModuleStatus("navigation", game.ModuleStabilized),
			game.AdjustGauge("stability", 15),
			game.EmitLyraMessage("act2_navigation_dials_success"),
			game.AdvancePhase(game.PhaseAct3),
		},
		Hints: Hint{
			Level1: "Only one dial matters for stabilization.",
			Level2: "The vector has to return to a neutral position.",
			Level3: "Set the Vector dial to 0 degrees.",
		},
	},

	// --- Act III ---
	"ACT3_ENERGY_CRANK": {
		ID:          "ACT3_ENERGY_CRANK",
		Type:        "crank_turn",
		Description: "Turn the crank to power the system.",
		ModuleID:    "energy",
		Phase:       game.PhaseAct3,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			return payload.String("action") == "complete" &&
				room.ModuleStatus("energy") == game.ModuleStabilized &&
				!room.PuzzleSolved("energy", "ACT3_ENERGY_CRANK")
		},
		Effects: []game.Effect{
			game.AdjustGauge("energy", 10),
			game.EmitLyraMessage("act3_energy_crank_success"),
		},
		Hints: Hint{
			Level1: "This action needs continuous manual power.",
			Level2: "The crank must keep turning while the coordinates are typed in.",
			Level3: "Hold the crank for 15 cumulative seconds.",
		},
	},
	"ACT3_SYSTEM_TRAJECTORY": {
		ID:          "ACT3_SYSTEM_TRAJECTORY",
		Type:        "trajectory_calculation",
		Description: "Compute the trajectory correction values.",
		ModuleID:    "system",
		Phase:       game.PhaseAct3,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			x, okX := payload.Float("x")
			y, okY := payload.Float("y")
			z, okZ := payload.Float("z")
			return okX && okY && okZ &&
				x == 17 && y == 3.2 && z == 5 &&
				!room.PuzzleSolved("system", "ACT3_SYSTEM_TRAJECTORY")
		},
		Effects: []game.Effect{
			game.EmitLyraMessage("act3_system_trajectory_success"),
			game.UnlockPuzzle("ACT3_NAVIGATION_COORDS"),
		},
		Hints: Hint{
			Level1: "An old log found earlier holds the clue.",
			Level2: "Look for a log mentioning an angle, a distance and an impulse.",
			Level3: "X=17, Y=3.2, Z=5.",
		},
	},
	"ACT3_NAVIGATION_COORDS": {
		ID:          "ACT3_NAVIGATION_COORDS",
		Type:        "coords_submission",
		Description: "Enter the correction coordinates.",
		ModuleID:    "navigation",
		Phase:       game.PhaseAct3,
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			x, okX := payload.Float("x")
			y, okY := payload.Float("y")
			z, okZ := payload.Float("z")
			return okX && okY && okZ &&
				x == 17 && y == 3.2 && z == 5 &&
				room.PuzzleSolved("system", "ACT3_SYSTEM_TRAJECTORY") &&
				!room.PuzzleSolved("navigation", "ACT3_NAVIGATION_COORDS")
		},
		Effects: []game.Effect{
			game.EmitLyraMessage("act3_navigation_coords_success"),
			game.OpenSyncWindow(),
		},
		Hints: Hint{
			Level1: "The System room player has to read you the coordinates.",
			Level2: "Enter the three values (X, Y, Z) on the keypad.",
			Level3: "X: 17, Y: 3.2, Z: 5.",
		},
	},
	FinalSyncID: {
		ID:          FinalSyncID,
		Type:        "synchronization",
		Description: "Final synchronization to start the launch sequence.",
		ModuleID:    "navigation",
		Phase:       game.PhaseAct3,
		// Never auto-satisfied; the engine's sync sub-protocol decides.
		SuccessCondition: func(payload game.Payload, room *game.Room) bool {
			return false
		},
		Effects: []game.Effect{
			game.AdvancePhase(game.PhaseEpilogue),
			game.SetModuleStatus("navigation", game.ModuleStabilized),
			game.EmitLyraMessage("act3_final_sync_success"),
			game.SetGauge("energy", 100),
			game.SetGauge("structure", 100),
			game.SetGauge("stability", 100),
		},
		Hints: Hint{
			Level1: "Every player has to press at the same time.",
			Level2: "You only have a very short window to synchronize.",
			Level3: "Press Activate together with your crew (less than 3 seconds apart).",
		},
	},
}
