package prover

import "errors"

var (
	// ErrProofFailed is returned by an Oracle when proof generation itself
	// fails (spec §4.6 TransactionBuild failure kind).
	ErrProofFailed = errors.New("prover: proof generation failed")

	// ErrUnbalanced is returned when a Request's spends do not conserve
	// value against its outputs and fee, a precondition the oracle refuses
	// to prove rather than silently accepting.
	ErrUnbalanced = errors.New("prover: spend and output values do not balance")
)
