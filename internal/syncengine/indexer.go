package syncengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

// Indexer is the subset of walletrpc.Client the engine drives. *walletrpc.
// Client satisfies it; tests substitute a fake.
type Indexer interface {
	LatestBlock(ctx context.Context) (*walletrpc.BlockID, error)
	BlockRange(ctx context.Context, startHeight, endHeight uint64) (*walletrpc.BlockRangeStream, error)
	GetTreeState(ctx context.Context, height uint64) (*walletrpc.TreeState, error)
	GetBridgeTreeState(ctx context.Context, height uint64) (*walletrpc.TreeState, error)
	GetLiteWalletBlockGroup(ctx context.Context, startHeight uint64) (*walletrpc.BlockGroupHint, error)
	GetTransaction(ctx context.Context, hash []byte) (*walletrpc.RawTransaction, error)
	GetTransactionByHeightIndex(ctx context.Context, height uint64, index uint32) (*walletrpc.RawTransaction, error)
}

// fetchRangeWithRetry drains a BlockRange stream into a slice with
// exponential backoff on transient transport errors (spec §4.4.2: "max 3
// attempts, base 100ms doubling").
func fetchRangeWithRetry(ctx context.Context, idx Indexer, cfg *Config, start, end uint64) ([]walletrpc.CompactBlock, error) {
	var lastErr error
	backoff := cfg.FetchBaseBackoff
	for attempt := 0; attempt < cfg.FetchMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		blocks, err := drainRange(ctx, idx, start, end)
		if err == nil {
			return blocks, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrTransport, lastErr)
}

func drainRange(ctx context.Context, idx Indexer, start, end uint64) ([]walletrpc.CompactBlock, error) {
	stream, err := idx.BlockRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	var out []walletrpc.CompactBlock
	for {
		blk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		out = append(out, *blk)
	}
	return out, nil
}

// fetchTreeState tries the bridge-tree RPC first and falls back to the
// legacy tree-state RPC, per spec §4.4.1 step 4.
func fetchTreeState(ctx context.Context, idx Indexer, height uint64) (*walletrpc.TreeState, error) {
	ts, err := idx.GetBridgeTreeState(ctx, height)
	if err == nil {
		return ts, nil
	}
	ts, err = idx.GetTreeState(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTreeState, err)
	}
	return ts, nil
}

// fetchFullTx fetches and decodes a transaction's full (non-compact)
// ciphertext data, trying the hash first and falling back to
// height/index lookup (spec §4.4.2 step 6: "fetch the full transaction by
// hash (with block-height/index fallback)").
func fetchFullTx(ctx context.Context, idx Indexer, height uint64, hash []byte, txIndex uint64) (*walletrpc.FullTx, error) {
	raw, err := idx.GetTransaction(ctx, hash)
	if err != nil {
		raw, err = idx.GetTransactionByHeightIndex(ctx, height, uint32(txIndex))
		if err != nil {
			return nil, err
		}
	}
	return raw.DecodeFullTx()
}
