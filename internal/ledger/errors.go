// Package ledger is the pure reconciliation core for drawer sessions:
// replaying a transaction list into a running balance, categorizing entries,
// aggregating daily totals, and detecting drift between the persisted and the
// recomputed balance. Every function here is deterministic and side-effect
// free; persistence and locking live in the service layer.
package ledger

import "errors"

// Validation errors — surfaced verbatim to the caller, never retried.
var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInsufficientFunds  = errors.New("amount exceeds the current drawer balance")
	ErrSessionAlreadyOpen = errors.New("a drawer session is already open for this register")
	ErrNoActiveSession    = errors.New("no open drawer session")
	ErrSessionClosed      = errors.New("the drawer session is already closed")
)

// Ledger consistency errors — fatal for that session's computations.
var (
	// ErrMalformedLedger means the transaction list does not start with an
	// opening entry. Computations must fail rather than default to zero.
	ErrMalformedLedger = errors.New("malformed ledger: first entry is not an opening transaction")
	// ErrEmptyLedger means there is nothing to replay; the balance is
	// undefined and the caller must treat the session as absent.
	ErrEmptyLedger = errors.New("empty ledger: balance is undefined")
)
