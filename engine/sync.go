// engine/sync.go
package engine

import (
	"fmt"

	"github.com/wfunc/escaperoom/catalog"
	"github.com/wfunc/escaperoom/game"
)

// SyncWindowMillis is how long the final synchronization window stays open.
// The comparison is inclusive: a complete at exactly 3000 ms elapsed is
// still accepted, anything later is expired.
const SyncWindowMillis = 3000

// processFinalSync runs the two-action sub-protocol of ACT3_FINAL_SYNC.
// The catalog's success condition for this puzzle is statically false;
// completion is orchestrated here instead:
//
//	closed --start--> open{synced: none}
//	open --complete(partial)--> open{synced: +player}
//	open --complete(all players)--> closed, puzzle solved
//	open --(>3s elapsed, checked lazily)--> expired; a new start may reopen
func (p *Processor) processFinalSync(payload game.Payload, room *game.Room, actorUID string) Result {
	switch payload.String("action") {
	case "start":
		return p.startSyncWindow(room, actorUID)
	case "complete":
		return p.completeSync(room, actorUID)
	default:
		return reject(game.ErrSyncUnknownAction)
	}
}

func (p *Processor) startSyncWindow(room *game.Room, actorUID string) Result {
	// An expired window counts as closed: nothing ever writes the close
	// on expiry (rejections persist nothing), so a fresh start overwrites
	// it. Without this the crew could never retry a missed window.
	if window := room.SyncWindow; window != nil && window.IsOpen &&
		p.Now().UnixMilli()-window.StartedAt <= SyncWindowMillis {
		return reject(game.ErrSyncAlreadyOpen)
	}
	ws := game.NewWriteSet()
	ws.Set("syncWindow", &game.SyncWindow{
		IsOpen:        true,
		StartedBy:     actorUID,
		StartedAt:     p.Now().UnixMilli(),
		SyncedPlayers: []string{},
	})
	return Result{
		OK:       true,
		WriteSet: ws,
		Effects:  []game.ClientEffect{{Type: "OPEN_SYNC_WINDOW"}},
	}
}

func (p *Processor) completeSync(room *game.Room, actorUID string) Result {
	window := room.SyncWindow
	if window == nil || !window.IsOpen {
		return reject(game.ErrSyncNotOpen)
	}
	// Server-clock comparison; client time is never trusted. The window is
	// swept lazily here rather than by a background timer.
	if p.Now().UnixMilli()-window.StartedAt > SyncWindowMillis {
		return reject(game.ErrSyncExpired)
	}
	for _, uid := range window.SyncedPlayers {
		if uid == actorUID {
			return reject(game.ErrSyncAlreadySynced)
		}
	}

	synced := append(append([]string{}, window.SyncedPlayers...), actorUID)
	ws := game.NewWriteSet()

	if len(synced) < room.RequiredPlayers {
		ws.Set("syncWindow.syncedPlayers", synced)
		return Result{
			OK:       true,
			WriteSet: ws,
			Effects: []game.ClientEffect{{
				Type:    "emitLyraMessage",
				Message: fmt.Sprintf("%d/%d synced", len(synced), room.RequiredPlayers),
			}},
		}
	}

	// Last player in time: full puzzle success. Apply the catalog's effect
	// chain (phase advance, module status, gauges, narration), mark the
	// puzzle solved and close the window.
	def, _ := catalog.Lookup(catalog.FinalSyncID)
	var effects []game.ClientEffect
	ws.Set(modulePath(def.ModuleID, "puzzles."+def.ID), &game.PuzzleState{
		ID:    def.ID,
		Type:  def.Type,
		State: game.PuzzleSolved,
		Data:  map[string]any{"syncedPlayers": synced},
	})
	for _, effect := range def.Effects {
		effects = append(effects, ApplyEffect(effect, room, ws))
	}
	ws.Set("syncWindow", &game.SyncWindow{IsOpen: false})
	return Result{OK: true, WriteSet: ws, Effects: effects}
}
