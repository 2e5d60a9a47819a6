package keys

import "errors"

var (
	ErrInvalidMnemonic    = errors.New("keys: invalid mnemonic")
	ErrInvalidSeed        = errors.New("keys: invalid seed")
	ErrDiversifierExhausted = errors.New("keys: diversifier index space exhausted")
	ErrUnknownPool        = errors.New("keys: unknown pool")
	ErrInvalidEncoding    = errors.New("keys: invalid bech32 encoding")
	ErrWrongHRP           = errors.New("keys: unexpected bech32 human-readable part")
)
