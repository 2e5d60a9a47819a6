package decrypt

import "errors"

var (
	ErrNotOurs        = errors.New("decrypt: output is not decryptable under any provided key")
	ErrCommitmentMismatch = errors.New("decrypt: reconstructed commitment does not match block-provided value")
)
