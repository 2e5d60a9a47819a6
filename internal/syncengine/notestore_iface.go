package syncengine

import (
	"context"

	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// NoteStore is the subset of notestore.Store the engine drives. *notestore.
// Store satisfies it; tests substitute a fake.
type NoteStore interface {
	LoadSyncState(ctx context.Context) (*notestore.SyncState, error)
	SaveSyncState(ctx context.Context, st *notestore.SyncState) error

	LoadSnapshotAtOrBelow(ctx context.Context, height uint64) (uint64, []byte, error)
	SaveFrontierSnapshot(ctx context.Context, height uint64, blob []byte) error
	PruneOldSnapshots(ctx context.Context, keep int) error
	TruncateAboveHeight(ctx context.Context, height uint64) error

	InsertNote(ctx context.Context, n *notestore.Note) (types.NoteID, error)
	DeleteNote(ctx context.Context, noteID types.NoteID) error
	UpdateNoteMemo(ctx context.Context, noteID types.NoteID, memo types.Memo) error
	UpdateNoteNullifier(ctx context.Context, noteID types.NoteID, nullifier types.Hash) error

	UpsertTransaction(ctx context.Context, t *notestore.TxRecord) error
	UpsertTxMemo(ctx context.Context, txid types.Hash, memo types.Memo) error

	MarkNoteSpentByNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash, spendingTxID types.Hash) (bool, error)
	InsertUnlinkedNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash, spendingTxID types.Hash, height uint64) error
	ReconcileUnlinkedNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash) (spendingTxID types.Hash, height uint64, found bool, err error)

	GetAccountKey(ctx context.Context, accountID types.AccountID) (*notestore.AccountKey, error)
}
