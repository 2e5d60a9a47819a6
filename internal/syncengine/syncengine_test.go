package syncengine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/piratenetwork/lightwallet-core/internal/decrypt"
	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

func TestStateString(t *testing.T) {
	if StateDone.String() != "Done" || StateCancelled.String() != "Cancelled" {
		t.Fatal("unexpected State.String() output")
	}
}

func TestCountersDerivedRates(t *testing.T) {
	var c Counters
	c.recordBatch(100, 5, 200, 0)
	c.totalTimeMs.Store(2000)
	c.blocksProcessed.Store(100)
	c.batchesProcessed.Store(1)

	snap := c.Read()
	if snap.AvgBatchMs != 2000 {
		t.Fatalf("expected avg batch ms 2000, got %v", snap.AvgBatchMs)
	}
	if snap.BlocksPerSecond != 50 {
		t.Fatalf("expected 50 blocks/sec, got %v", snap.BlocksPerSecond)
	}
}

func TestAdjustBatchSizeShrinksThenGrows(t *testing.T) {
	e := &Engine{cfg: DefaultConfig()}
	e.currentBatchSize = e.cfg.BatchSize

	e.adjustBatchSize(true)
	if e.currentBatchSize >= DefaultConfig().BatchSize {
		t.Fatal("expected shrink on heavy batch")
	}
	if e.currentBatchSize < e.cfg.MinBatchSize {
		t.Fatal("shrink must not go below min batch size")
	}

	shrunk := e.currentBatchSize
	e.adjustBatchSize(false)
	if e.currentBatchSize <= shrunk {
		t.Fatal("expected growth after a normal batch")
	}
}

func TestNextBatchSizeRespectsMemoryGuard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeavyBlockThresholdBytes = 1000
	cfg.MaxBatchMemoryBytes = 5000
	e := &Engine{cfg: cfg, currentBatchSize: 100}

	n := e.nextBatchSize()
	if n > 5 {
		t.Fatalf("expected batch size capped by memory guard to <=5, got %d", n)
	}
}

// --- fakes for a full Run() integration test ---

type fakeIndexer struct {
	blocks map[uint64]walletrpc.CompactBlock
}

func (f *fakeIndexer) LatestBlock(ctx context.Context) (*walletrpc.BlockID, error) {
	return &walletrpc.BlockID{Height: uint64(len(f.blocks))}, nil
}

func (f *fakeIndexer) BlockRange(ctx context.Context, start, end uint64) (*walletrpc.BlockRangeStream, error) {
	return nil, errNotImplemented
}

func (f *fakeIndexer) GetTreeState(ctx context.Context, height uint64) (*walletrpc.TreeState, error) {
	return &walletrpc.TreeState{Height: height}, nil
}
func (f *fakeIndexer) GetBridgeTreeState(ctx context.Context, height uint64) (*walletrpc.TreeState, error) {
	return &walletrpc.TreeState{Height: height}, nil
}
func (f *fakeIndexer) GetLiteWalletBlockGroup(ctx context.Context, start uint64) (*walletrpc.BlockGroupHint, error) {
	return nil, errNotImplemented
}
func (f *fakeIndexer) GetTransaction(ctx context.Context, hash []byte) (*walletrpc.RawTransaction, error) {
	return nil, errNotImplemented
}
func (f *fakeIndexer) GetTransactionByHeightIndex(ctx context.Context, height uint64, index uint32) (*walletrpc.RawTransaction, error) {
	return nil, errNotImplemented
}

var errNotImplemented = errors.New("not implemented in fake")

type fakeNoteStore struct {
	mu        sync.Mutex
	syncState *notestore.SyncState
	snapshots map[uint64][]byte
	notes     []*notestore.Note
}

func newFakeNoteStore() *fakeNoteStore {
	return &fakeNoteStore{snapshots: make(map[uint64][]byte)}
}

func (f *fakeNoteStore) LoadSyncState(ctx context.Context) (*notestore.SyncState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncState == nil {
		return nil, notestore.ErrNotFound
	}
	return f.syncState, nil
}
func (f *fakeNoteStore) SaveSyncState(ctx context.Context, st *notestore.SyncState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncState = st
	return nil
}
func (f *fakeNoteStore) LoadSnapshotAtOrBelow(ctx context.Context, height uint64) (uint64, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best uint64
	var blob []byte
	found := false
	for h, b := range f.snapshots {
		if h <= height && (!found || h > best) {
			best, blob, found = h, b, true
		}
	}
	if !found {
		return 0, nil, notestore.ErrNotFound
	}
	return best, blob, nil
}
func (f *fakeNoteStore) SaveFrontierSnapshot(ctx context.Context, height uint64, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[height] = blob
	return nil
}
func (f *fakeNoteStore) PruneOldSnapshots(ctx context.Context, keep int) error { return nil }
func (f *fakeNoteStore) TruncateAboveHeight(ctx context.Context, height uint64) error {
	return nil
}
func (f *fakeNoteStore) InsertNote(ctx context.Context, n *notestore.Note) (types.NoteID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
	return types.NoteID(len(f.notes)), nil
}
func (f *fakeNoteStore) DeleteNote(ctx context.Context, noteID types.NoteID) error { return nil }
func (f *fakeNoteStore) UpdateNoteMemo(ctx context.Context, noteID types.NoteID, memo types.Memo) error {
	return nil
}
func (f *fakeNoteStore) UpdateNoteNullifier(ctx context.Context, noteID types.NoteID, nullifier types.Hash) error {
	return nil
}
func (f *fakeNoteStore) UpsertTransaction(ctx context.Context, t *notestore.TxRecord) error {
	return nil
}
func (f *fakeNoteStore) UpsertTxMemo(ctx context.Context, txid types.Hash, memo types.Memo) error {
	return nil
}
func (f *fakeNoteStore) MarkNoteSpentByNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash, spendingTxID types.Hash) (bool, error) {
	return false, nil
}
func (f *fakeNoteStore) InsertUnlinkedNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash, spendingTxID types.Hash, height uint64) error {
	return nil
}
func (f *fakeNoteStore) ReconcileUnlinkedNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash) (types.Hash, uint64, bool, error) {
	return types.Hash{}, 0, false, nil
}
func (f *fakeNoteStore) GetAccountKey(ctx context.Context, accountID types.AccountID) (*notestore.AccountKey, error) {
	return &notestore.AccountKey{AccountID: accountID}, nil
}

func TestAverageBlockBytesEmpty(t *testing.T) {
	if averageBlockBytes(nil) != 0 {
		t.Fatal("expected 0 for empty batch")
	}
}

func TestEngineResumeSeedsFreshFrontierWhenNoState(t *testing.T) {
	idx := &fakeIndexer{}
	store := newFakeNoteStore()
	e := New(idx, store, decrypt.IVKs{}, types.AccountID(1), nil)

	resumeHeight, err := e.resume(context.Background())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumeHeight != 1 {
		t.Fatalf("expected resume height 1 with no prior state, got %d", resumeHeight)
	}
	if e.frontierWallet == nil {
		t.Fatal("expected frontier wallet to be seeded")
	}
}
