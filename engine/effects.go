// engine/effects.go
package engine

import (
	"fmt"
	"strings"

	"github.com/wfunc/escaperoom/catalog"
	"github.com/wfunc/escaperoom/game"
	"github.com/wfunc/escaperoom/logger"
)

// ApplyEffect folds one declarative effect into the write-set accumulator
// and returns the descriptor echoed to clients. Effects of a chain are
// applied strictly in order against the same accumulator, so a later
// effect observes the gauge/module/phase values written by an earlier one.
// Unknown effect tags are logged and surfaced as an "unknown" descriptor,
// never a failure.
func ApplyEffect(effect game.Effect, room *game.Room, ws game.WriteSet) game.ClientEffect {
	switch effect.Type {
	case game.EffectSetModuleStatus:
		ws.Set(modulePath(effect.ModuleID, "status"), effect.Status)
		return game.ClientEffect{Type: "moduleState", ModuleID: effect.ModuleID, Status: effect.Status}

	case game.EffectAdvancePhase:
		// Phases never regress through effects.
		if pendingPhase(room, ws).Before(effect.Phase) {
			ws.Set("phase", string(effect.Phase))
		}
		return game.ClientEffect{Type: "phase", Phase: effect.Phase}

	case game.EffectSetGauge:
		value := clampGauge(effect.Value)
		ws.Set(gaugePath(effect.Target), value)
		return game.ClientEffect{Type: "gauge", Target: effect.Target, Value: value}

	case game.EffectAdjustGauge:
		value := clampGauge(pendingGauge(room, ws, effect.Target) + effect.Delta)
		ws.Set(gaugePath(effect.Target), value)
		return game.ClientEffect{Type: "gauge", Target: effect.Target, Value: value}

	case game.EffectSetPuzzleState:
		if def, ok := catalog.Lookup(effect.PuzzleID); ok {
			// Puzzle progress never regresses.
			if !room.PuzzleSolved(def.ModuleID, effect.PuzzleID) || effect.PuzzleState == game.PuzzleSolved {
				ws.Set(puzzlePath(def.ModuleID, effect.PuzzleID, "state"), string(effect.PuzzleState))
			}
			return game.ClientEffect{Type: "puzzleState", PuzzleID: effect.PuzzleID, ModuleID: def.ModuleID, Status: string(effect.PuzzleState)}
		}
		logger.Log.Warnf("SET_PUZZLE_STATE for unknown puzzle %s", effect.PuzzleID)
		return game.ClientEffect{Type: "unknown"}

	case game.EffectEmitLyraMessage:
		message, ok := catalog.MessageByKey(effect.MessageKey)
		if !ok {
			logger.Log.Warnf("Unknown lyra message key: %s", effect.MessageKey)
			message = "..."
		}
		return game.ClientEffect{Type: "emitLyraMessage", Message: message}

	case game.EffectUnlockPuzzle:
		def, ok := catalog.Lookup(effect.PuzzleID)
		if !ok {
			logger.Log.Warnf("UNLOCK_PUZZLE for unknown puzzle %s", effect.PuzzleID)
			return game.ClientEffect{Type: "unknown"}
		}
		if state := room.Puzzle(def.ModuleID, effect.PuzzleID); state != nil {
			if state.State == game.PuzzleLocked {
				ws.Set(puzzlePath(def.ModuleID, effect.PuzzleID, "state"), string(game.PuzzleSolving))
			}
		} else {
			ws.Set(modulePath(def.ModuleID, "puzzles."+effect.PuzzleID), &game.PuzzleState{
				ID:    effect.PuzzleID,
				Type:  def.Type,
				State: game.PuzzleSolving,
				Data:  map[string]any{},
			})
		}
		return game.ClientEffect{Type: "unlockRoom", PuzzleID: effect.PuzzleID, ModuleID: def.ModuleID}

	case game.EffectOpenSyncWindow:
		// Advisory: the window itself is opened by the final-sync start
		// action; this tells clients to arm the sync UI.
		return game.ClientEffect{Type: "OPEN_SYNC_WINDOW"}

	default:
		logger.Log.Warnf("Unknown effect type: %s", effect.Type)
		return game.ClientEffect{Type: "unknown"}
	}
}

func modulePath(moduleID, field string) string {
	return fmt.Sprintf("modules.%s.%s", moduleID, field)
}

func puzzlePath(moduleID, puzzleID, field string) string {
	return strings.Join([]string{"modules", moduleID, "puzzles", puzzleID, field}, ".")
}

func gaugePath(target string) string {
	return "gauges." + target
}

func clampGauge(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// pendingGauge reads a gauge through the accumulator: a value written by an
// earlier effect of the same chain shadows the snapshot.
func pendingGauge(room *game.Room, ws game.WriteSet, target string) float64 {
	if v, ok := ws.Get(gaugePath(target)); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return room.Gauges[target]
}

// pendingPhase reads the phase through the accumulator.
func pendingPhase(room *game.Room, ws game.WriteSet) game.Phase {
	if v, ok := ws.Get("phase"); ok {
		if s, ok := v.(string); ok {
			return game.Phase(s)
		}
	}
	return room.Phase
}
