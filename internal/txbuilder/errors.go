package txbuilder

import "errors"

// Failure kinds from spec §4.6.
var (
	ErrInvalidAmount    = errors.New("txbuilder: zero or overflowing amount")
	ErrMemoTooLong      = errors.New("txbuilder: memo exceeds 512 bytes")
	ErrInsufficientFunds = errors.New("txbuilder: insufficient funds")
	ErrAnchorUnavailable = errors.New("txbuilder: no anchor-aligned note group covers the payment")
	ErrTransactionBuild = errors.New("txbuilder: prover oracle failed to build the transaction")
	ErrInvalidKey       = errors.New("txbuilder: account has no spending key for this pool")
	ErrNoOutputs        = errors.New("txbuilder: at least one output is required")
)
