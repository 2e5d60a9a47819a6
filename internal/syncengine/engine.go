// Package syncengine drives the sync state machine spec §4.4 describes:
// streaming compact blocks, trial-decrypting them, advancing the two
// commitment-tree frontiers, deriving nullifiers, persisting notes and
// detecting spends, checkpointing progress, and recovering across
// interruption or reorg.
package syncengine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/piratenetwork/lightwallet-core/internal/decrypt"
	"github.com/piratenetwork/lightwallet-core/internal/frontier"
	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

// Engine holds everything one account's sync run needs. It has no
// knowledge of transaction building or key derivation beyond the IVKs
// needed for trial decryption.
type Engine struct {
	indexer Indexer
	store   NoteStore
	ivks    decrypt.IVKs
	account types.AccountID
	cfg     *Config
	logger  *zap.SugaredLogger

	frontierWallet *frontier.WalletFrontier
	cache          *blockCache

	counters  Counters
	cancelled atomic.Bool

	// BirthdayHeight is the account's creation height; sync never needs to
	// look below it (spec §4.4.1 step 1).
	BirthdayHeight uint64

	// currentBatchSize is the adaptive batch size state carried across
	// calls to nextBatchSize (spec §4.4.2).
	currentBatchSize     int
	consecutiveHeavy     int
	batchesSinceSnapshot int
	lastSnapshotHeight_  uint64
	lastReorgCheckHeight uint64
}

// New builds an Engine. cfg may be nil, in which case DefaultConfig() is used.
func New(indexer Indexer, store NoteStore, ivks decrypt.IVKs, account types.AccountID, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		indexer:          indexer,
		store:            store,
		ivks:             ivks,
		account:          account,
		cfg:              cfg,
		logger:           zap.NewNop().Sugar(),
		currentBatchSize: cfg.BatchSize,
	}
	e.cache = newBlockCache(func(ctx context.Context, start, end uint64) ([]walletrpc.CompactBlock, error) {
		return fetchRangeWithRetry(ctx, e.indexer, e.cfg, start, end)
	})
	return e
}

// SetLogger attaches a structured logger for enrichment diagnostics (spec
// §4.4.2 step 6's "treat as a false positive... and log"). Engines built
// without calling this discard those messages.
func (e *Engine) SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		e.logger = l
	}
}

// Cancel requests a graceful stop. The engine polls this flag between
// batches and before each fetch (spec §4.4.4).
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

func (e *Engine) isCancelled() bool {
	return e.cancelled.Load()
}

// Counters returns a snapshot of the performance counters (spec §4.4.6).
func (e *Engine) Counters() Snapshot {
	return e.counters.Read()
}

// Run executes startup/resume (§4.4.1) followed by the batch loop (§4.4.2)
// up to targetHeight, returning the terminal state.
func (e *Engine) Run(ctx context.Context, targetHeight uint64) (State, error) {
	resumeHeight, err := e.resume(ctx)
	if err != nil {
		return StateInterrupted, err
	}

	cur := resumeHeight
	for cur <= targetHeight {
		if e.isCancelled() {
			if err := e.finalCheckpoint(ctx, cur-1); err != nil {
				return StateCancelled, err
			}
			return StateCancelled, ErrCancelled
		}

		end := e.batchEnd(ctx, cur, targetHeight)

		start := time.Now()
		blocks, err := e.cache.FetchRange(ctx, cur, end)
		if err != nil {
			return StateInterrupted, err
		}

		heavy, err := e.processBatch(ctx, blocks)
		if err != nil {
			return StateInterrupted, err
		}
		e.counters.recordBatch(uint64(len(blocks)), uint64(heavy.notesDecrypted), uint64(heavy.commitmentsApplied), time.Since(start))

		e.adjustBatchSize(heavy.isHeavy)

		if err := e.maybeCheckpoint(ctx, end, heavy.isHeavy); err != nil {
			return StateInterrupted, err
		}

		if err := e.saveSyncState(ctx, end, targetHeight); err != nil {
			return StateInterrupted, err
		}

		if e.cfg.ReorgCheckInterval > 0 && end-e.lastReorgCheckHeight >= uint64(e.cfg.ReorgCheckInterval) {
			reorged, rollbackHeight, err := e.detectReorg(ctx, end)
			if err != nil {
				return StateInterrupted, err
			}
			if reorged {
				if err := e.rollback(ctx, rollbackHeight); err != nil {
					return StateInterrupted, err
				}
				cur = rollbackHeight + 1
				e.lastReorgCheckHeight = rollbackHeight
				continue
			}
			e.lastReorgCheckHeight = end
		}

		cur = end + 1
	}

	return StateDone, nil
}

// finalCheckpoint serializes both frontiers and writes a snapshot at the
// highest fully-applied height, per spec §4.4.4's cancellation contract.
func (e *Engine) finalCheckpoint(ctx context.Context, height uint64) error {
	if e.frontierWallet == nil {
		return nil
	}
	blob := e.frontierWallet.Serialize()
	if err := e.store.SaveFrontierSnapshot(ctx, height, blob); err != nil {
		return err
	}
	e.lastSnapshotHeight_ = height
	return e.saveSyncState(ctx, height, height)
}

func (e *Engine) saveSyncState(ctx context.Context, localHeight, targetHeight uint64) error {
	return e.store.SaveSyncState(ctx, &notestore.SyncState{
		LocalHeight:          localHeight,
		TargetHeight:         targetHeight,
		LastCheckpointHeight: e.lastSnapshotHeight_,
		UpdatedAt:            syncNowUnix(),
	})
}

var syncNowUnix = func() int64 { return time.Now().Unix() }
