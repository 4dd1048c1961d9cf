package battle

import "errors"

// Sentinel kinds for battle operations. Callers classify failures with
// errors.Is; DuplicateVote and BattleClosed are user-facing rejections,
// Contention is transient, StoreUnavailable is fatal for the operation.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("battle not found")
	ErrDuplicateVote    = errors.New("voter already counted")
	ErrBattleClosed     = errors.New("battle is not accepting votes")
	ErrConflict         = errors.New("contender state changed")
	ErrContention       = errors.New("contention retries exhausted")
	ErrStoreUnavailable = errors.New("store unavailable")
)
