package syncengine

import (
	"context"
	"time"
)

// Follow implements spec §4.4.5: after reaching the current tip, poll the
// indexer for the latest height every ~10s (30s on error), re-entering the
// batch loop whenever the tip advances. It runs until ctx is cancelled or
// Cancel() is called.
func (e *Engine) Follow(ctx context.Context, localHeight uint64) error {
	cur := localHeight
	for {
		if e.isCancelled() {
			return ErrCancelled
		}

		tip, err := e.indexer.LatestBlock(ctx)
		interval := e.cfg.TailFollowPollInterval
		if err != nil {
			interval = e.cfg.TailFollowErrorPollInterval
		} else if tip.Height > cur {
			state, runErr := e.Run(ctx, tip.Height)
			if runErr != nil {
				return runErr
			}
			if state == StateDone {
				cur = tip.Height
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
