package frontier

import "errors"

var (
	ErrTreeFull         = errors.New("frontier: tree is full")
	ErrPositionNotFound = errors.New("frontier: position not marked for witness")
	ErrInvalidPosition  = errors.New("frontier: invalid leaf position")
	ErrCheckpointNotFound = errors.New("frontier: checkpoint not found")
	ErrCorruptSnapshot  = errors.New("frontier: corrupt snapshot")
	ErrUnsupportedVersion = errors.New("frontier: unsupported snapshot version")
)
