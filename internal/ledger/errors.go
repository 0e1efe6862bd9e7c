package ledger

import "errors"

// Sentinel errors shared by every settlement path. Handlers map these to
// HTTP statuses (insufficient funds 400, not found 404, finalized 409).
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyFinalized  = errors.New("already finalized")
)
