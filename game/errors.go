// game/errors.go
package game

import "errors"

// Reject reasons returned by the engine. These are expected outcomes,
// reported to the caller as {ok:false, error}, never surfaced as HTTP
// failures.
var (
	ErrUnknownIntent = errors.New("unknown intent kind")
	ErrWrongPhase    = errors.New("puzzle not available in current phase")
	ErrWrongLocation = errors.New("action not allowed in this room")
	ErrModuleOffline = errors.New("module offline")

	ErrSyncAlreadyOpen   = errors.New("sync window already open")
	ErrSyncNotOpen       = errors.New("sync window is not open")
	ErrSyncExpired       = errors.New("sync window expired")
	ErrSyncAlreadySynced = errors.New("player already synced")
	ErrSyncUnknownAction = errors.New("unknown sync action")
	ErrHostOnly          = errors.New("only host can advance phase")
	ErrInvalidPhase      = errors.New("invalid phase")
)
