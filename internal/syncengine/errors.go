package syncengine

import "errors"

var (
	ErrCancelled              = errors.New("syncengine: cancelled")
	ErrInsufficientCheckpoints = errors.New("syncengine: rewind target precedes oldest retained checkpoint")
	ErrNoTreeState            = errors.New("syncengine: indexer returned no tree state")
	ErrTransport              = errors.New("syncengine: transient transport error")
)
