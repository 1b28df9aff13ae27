// engine/intent.go
package engine

import (
	"time"

	"github.com/wfunc/escaperoom/catalog"
	"github.com/wfunc/escaperoom/game"
)

// AdvancePhaseKind is the host-only operator override that sets the phase
// directly, bypassing the forward-only rule. It is always audited.
const AdvancePhaseKind = "ADVANCE_PHASE"

// Result is the outcome of one intent decision. When OK is false, Reject
// carries the structured reason; the write-set is empty and nothing may be
// persisted. When OK is true the write-set is the complete, atomic update
// for this intent (possibly empty for idempotent re-submissions).
type Result struct {
	OK       bool
	Reject   error
	WriteSet game.WriteSet
	Effects  []game.ClientEffect
}

func reject(err error) Result {
	return Result{OK: false, Reject: err, WriteSet: game.NewWriteSet()}
}

// Processor is the pure decision core. It performs no I/O; the clock is
// injected so the sync-window timeout is testable.
type Processor struct {
	Now func() time.Time
}

func NewProcessor() *Processor {
	return &Processor{Now: time.Now}
}

// Process decides one player intent against an immutable room snapshot and
// returns the write-set to persist plus the client-facing effects.
func (p *Processor) Process(kind string, payload game.Payload, room *game.Room, actorUID string) Result {
	if kind == catalog.FinalSyncID {
		return p.processFinalSync(payload, room, actorUID)
	}
	if kind == AdvancePhaseKind {
		return p.processAdvancePhase(payload, room, actorUID)
	}

	def, ok := catalog.Lookup(kind)
	if !ok {
		return reject(game.ErrUnknownIntent)
	}

	if def.Phase != room.Phase {
		return reject(game.ErrWrongPhase)
	}

	player := room.Players[actorUID]
	if player == nil || player.CurrentRoom != def.ModuleID {
		return reject(game.ErrWrongLocation)
	}

	// An offline module rejects everything except its bootstrap puzzle,
	// the one allowed to bring it back online.
	if room.ModuleStatus(def.ModuleID) == game.ModuleOffline && !def.Bootstrap {
		return reject(game.ErrModuleOffline)
	}

	state := room.Puzzle(def.ModuleID, def.ID)
	if state == nil {
		state = &game.PuzzleState{ID: def.ID, Type: def.Type, State: game.PuzzleLocked, Data: map[string]any{}}
	}

	// Solved is terminal: re-submission is a no-op success.
	if state.State == game.PuzzleSolved {
		return Result{OK: true, WriteSet: game.NewWriteSet()}
	}

	ws := game.NewWriteSet()
	var effects []game.ClientEffect
	merged := payload.Merge(state.Data)

	if def.SuccessCondition(payload, room) {
		ws.Set(puzzlePath(def.ModuleID, def.ID, "state"), string(game.PuzzleSolved))
		ws.Set(puzzlePath(def.ModuleID, def.ID, "data"), merged)
		for _, effect := range def.Effects {
			effects = append(effects, ApplyEffect(effect, room, ws))
		}
	} else {
		// Attempts accumulate: multi-step puzzles build up their data
		// across submissions.
		ws.Set(puzzlePath(def.ModuleID, def.ID, "state"), string(game.PuzzleSolving))
		ws.Set(puzzlePath(def.ModuleID, def.ID, "data"), merged)
		if message := catalog.FailureMessage(def.ID, room.Phase); message != "" {
			effects = append(effects, game.ClientEffect{Type: "emitLyraMessage", Message: message})
		}
	}

	return Result{OK: true, WriteSet: ws, Effects: effects}
}

// processAdvancePhase is the host escape hatch: it sets the phase to the
// requested value without forward-only validation. Deliberately narrow and
// separately gated; every call lands in the audit log.
func (p *Processor) processAdvancePhase(payload game.Payload, room *game.Room, actorUID string) Result {
	if room.HostUID != actorUID {
		return reject(game.ErrHostOnly)
	}
	phase := game.Phase(payload.String("phase"))
	if !phase.Valid() {
		return reject(game.ErrInvalidPhase)
	}
	ws := game.NewWriteSet()
	ws.Set("phase", string(phase))
	return Result{
		OK:       true,
		WriteSet: ws,
		Effects:  []game.ClientEffect{{Type: "phase", Phase: phase}},
	}
}
