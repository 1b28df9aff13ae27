// catalog/modules.go
package catalog

import "github.com/wfunc/escaperoom/game"

// ModuleIDs lists the three station locations of the scenario.
var ModuleIDs = []string{"energy", "system", "navigation"}

// InitializeModules builds the initial module set for a story phase.
// Deterministic: the same phase always yields the same layout, every
// puzzle locked. The session layer calls this exactly once, when a running
// room is first observed without modules.
func InitializeModules(phase game.Phase) map[string]*game.Module {
	modules := map[string]*game.Module{
		"energy":     {Status: game.ModuleOffline, Puzzles: map[string]*game.PuzzleState{}},
		"system":     {Status: game.ModuleOffline, Puzzles: map[string]*game.PuzzleState{}},
		"navigation": {Status: game.ModuleOffline, Puzzles: map[string]*game.PuzzleState{}},
	}

	seed := func(moduleID, puzzleID string) {
		def := Puzzles[puzzleID]
		modules[moduleID].Puzzles[puzzleID] = &game.PuzzleState{
			ID:    puzzleID,
			Type:  def.Type,
			State: game.PuzzleLocked,
			Data:  map[string]any{},
		}
	}

	switch phase {
	case game.PhaseIntro, game.PhaseAct1:
		seed("energy", "ACT1_ENERGY_CIRCUITS")
		seed("energy", "ACT1_ENERGY_CODE_B7")
		seed("system", "ACT1_SYSTEM_LOG_B7")
	case game.PhaseAct2:
		modules["energy"].Status = game.ModuleStabilized
		seed("energy", "ACT2_ENERGY_LEVER")
		seed("system", "ACT2_SYSTEM_CALIBRATION")
		seed("system", "ACT2_SYSTEM_ROUTING")
		seed("navigation", "ACT2_NAVIGATION_DIALS")
	case game.PhaseAct3:
		modules["energy"].Status = game.ModuleStabilized
		modules["system"].Status = game.ModuleStabilized
		modules["navigation"].Status = game.ModuleStabilized
		seed("energy", "ACT3_ENERGY_CRANK")
		seed("system", "ACT3_SYSTEM_TRAJECTORY")
		seed("navigation", "ACT3_NAVIGATION_COORDS")
	}

	return modules
}
