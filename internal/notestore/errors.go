package notestore

import "errors"

var (
	ErrNotFound       = errors.New("notestore: not found")
	ErrDuplicate      = errors.New("notestore: duplicate entry")
	ErrInvalidRecord  = errors.New("notestore: invalid encrypted record")
	ErrUnknownAlgo    = errors.New("notestore: unknown encryption algorithm")
	ErrDBConnection   = errors.New("notestore: database connection error")
	ErrMasterKeyUnset = errors.New("notestore: master key not configured")
)
