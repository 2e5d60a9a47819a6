package syncengine

import (
	"bytes"
	"context"

	"github.com/piratenetwork/lightwallet-core/internal/frontier"
)

// detectReorg implements spec §4.4.3: compare the locally-cached block
// hash at height with the remote one. Returns (true, rollbackHeight) when
// they differ, where rollbackHeight = height-1.
func (e *Engine) detectReorg(ctx context.Context, height uint64) (bool, uint64, error) {
	localHash, ok := e.cache.HashAt(height)
	if !ok {
		return false, 0, nil
	}

	blocks, err := fetchRangeWithRetry(ctx, e.indexer, e.cfg, height, height)
	if err != nil {
		return false, 0, err
	}
	if len(blocks) == 0 {
		return false, 0, nil
	}

	if bytes.Equal(localHash, blocks[0].Hash) {
		return false, 0, nil
	}
	if height == 0 {
		return false, 0, nil
	}
	return true, height - 1, nil
}

// rollback implements spec §4.4.3's recovery: load the frontier snapshot
// at or below rollbackHeight, truncate stored notes/transactions/snapshots
// above it, and reset local_height.
func (e *Engine) rollback(ctx context.Context, rollbackHeight uint64) error {
	snapHeight, blob, err := e.store.LoadSnapshotAtOrBelow(ctx, rollbackHeight)
	if err != nil {
		e.frontierWallet = frontier.NewWalletFrontier()
	} else {
		fw, derr := frontier.Deserialize(blob)
		if derr != nil {
			return derr
		}
		e.frontierWallet = fw
		if snapHeight < rollbackHeight {
			if err := e.frontierWallet.Sapling.RewindTo(snapHeight); err != nil && err != frontier.ErrCheckpointNotFound {
				return err
			}
			if err := e.frontierWallet.Orchard.RewindTo(snapHeight); err != nil && err != frontier.ErrCheckpointNotFound {
				return err
			}
		}
	}

	if err := e.store.TruncateAboveHeight(ctx, rollbackHeight); err != nil {
		return err
	}
	e.cache.Evict(rollbackHeight)

	return e.saveSyncState(ctx, rollbackHeight, rollbackHeight)
}
