// game/effect.go
package game

// EffectType tags a declarative state-change instruction. The interpreter
// tolerates tags it does not know (forward compatibility with a newer
// catalog), so this is open on the wire but closed in this package.
type EffectType string

const (
	EffectSetModuleStatus EffectType = "SET_MODULE_STATUS"
	EffectAdvancePhase    EffectType = "ADVANCE_PHASE"
	EffectSetGauge        EffectType = "SET_GAUGE"
	EffectAdjustGauge     EffectType = "ADJUST_GAUGE"
	EffectSetPuzzleState  EffectType = "SET_PUZZLE_STATE"
	EffectEmitLyraMessage EffectType = "EMIT_LYRA_MESSAGE"
	EffectUnlockPuzzle    EffectType = "UNLOCK_PUZZLE"
	EffectOpenSyncWindow  EffectType = "OPEN_SYNC_WINDOW"
)

// Effect is one entry of a puzzle's effect chain. Only the fields relevant
// to its Type are set; the constructors below keep catalog definitions
// honest about that.
type Effect struct {
	Type EffectType

	ModuleID string
	Status   string

	Phase Phase

	Target string
	Value  float64
	Delta  float64

	PuzzleID    string
	PuzzleState PuzzleProgress

	MessageKey string
}

func SetModuleStatus(moduleID, status string) Effect {
	return Effect{Type: EffectSetModuleStatus, ModuleID: moduleID, Status: status}
}

func AdvancePhase(phase Phase) Effect {
	return Effect{Type: EffectAdvancePhase, Phase: phase}
}

func SetGauge(target string, value float64) Effect {
	return Effect{Type: EffectSetGauge, Target: target, Value: value}
}

func AdjustGauge(target string, delta float64) Effect {
	return Effect{Type: EffectAdjustGauge, Target: target, Delta: delta}
}

func SetPuzzleState(puzzleID string, state PuzzleProgress) Effect {
	return Effect{Type: EffectSetPuzzleState, PuzzleID: puzzleID, PuzzleState: state}
}

func EmitLyraMessage(key string) Effect {
	return Effect{Type: EffectEmitLyraMessage, MessageKey: key}
}

func UnlockPuzzle(puzzleID string) Effect {
	return Effect{Type: EffectUnlockPuzzle, PuzzleID: puzzleID}
}

func OpenSyncWindow() Effect {
	return Effect{Type: EffectOpenSyncWindow}
}

// ClientEffect is the small descriptor echoed back to the caller for UI
// feedback after an effect was folded into the write-set.
type ClientEffect struct {
	Type     string  `json:"type"`
	Message  string  `json:"message,omitempty"`
	ModuleID string  `json:"moduleId,omitempty"`
	Status   string  `json:"status,omitempty"`
	Phase    Phase   `json:"phase,omitempty"`
	Target   string  `json:"target,omitempty"`
	Value    float64 `json:"value,omitempty"`
	PuzzleID string  `json:"puzzleId,omitempty"`
}
