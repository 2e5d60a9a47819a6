package notestore

import (
	"context"
	"encoding/binary"
)

// SyncState is the singleton per-wallet sync cursor (spec §3.4): the
// highest block whose effects are durably applied, the most recently known
// chain tip, and the highest height a frontier snapshot exists for.
type SyncState struct {
	LocalHeight          uint64
	TargetHeight         uint64
	LastCheckpointHeight uint64
	UpdatedAt            int64 // unix seconds, caller-supplied
}

func (st *SyncState) encode() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:8], st.LocalHeight)
	binary.LittleEndian.PutUint64(buf[8:16], st.TargetHeight)
	binary.LittleEndian.PutUint64(buf[16:24], st.LastCheckpointHeight)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(st.UpdatedAt))
	return buf
}

func decodeSyncState(buf []byte) (*SyncState, error) {
	r := byteReader{buf: buf}
	st := &SyncState{
		LocalHeight:          r.u64(),
		TargetHeight:         r.u64(),
		LastCheckpointHeight: r.u64(),
	}
	st.UpdatedAt = int64(r.u64())
	return st, r.err
}

// SaveSyncState persists the wallet's sync cursor (spec §4.5 save_sync_state).
func (s *Store) SaveSyncState(ctx context.Context, st *SyncState) error {
	sealed, err := s.seal(st.encode())
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sync_state (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, sealed)
	return err
}

// LoadSyncState retrieves the wallet's sync cursor, or ErrNotFound if the
// wallet has never synced (spec §4.5 load_sync_state; consumed by the sync
// engine's Idle → LoadCheckpoint transition).
func (s *Store) LoadSyncState(ctx context.Context) (*SyncState, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM sync_state WHERE id = 1`).Scan(&data)
	if err != nil {
		return nil, ErrNotFound
	}
	plain, err := s.open(data)
	if err != nil {
		return nil, err
	}
	return decodeSyncState(plain)
}

// SaveFrontierSnapshot persists a serialized WalletFrontier blob at height
// (spec §4.5 save_frontier_snapshot). The blob itself (frontier.Serialize
// output) is not further encrypted here: it contains only commitments and
// tree structure, none of which are in the sensitive-column list (spec
// §4.5's list covers witness paths attached to individual notes, not the
// tree's own leaves, which are public chain data).
func (s *Store) SaveFrontierSnapshot(ctx context.Context, height uint64, blob []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO frontier_snapshots (height, data) VALUES ($1, $2)
		ON CONFLICT (height) DO UPDATE SET data = EXCLUDED.data
	`, height, blob)
	return err
}

// LoadSnapshotAtOrBelow returns the newest snapshot at or below height,
// used to resume sync without replaying the whole chain (spec §4.5
// load_snapshot_at_or_below).
func (s *Store) LoadSnapshotAtOrBelow(ctx context.Context, height uint64) (uint64, []byte, error) {
	var gotHeight uint64
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT height, data FROM frontier_snapshots
		WHERE height <= $1 ORDER BY height DESC LIMIT 1
	`, height).Scan(&gotHeight, &data)
	if err != nil {
		return 0, nil, ErrNotFound
	}
	return gotHeight, data, nil
}

// PruneOldSnapshots retains only the keep most recent frontier snapshots
// (spec §4.5 prune_old_snapshots; default retention FRONTIER_SNAPSHOT_RETAIN
// = 10 per spec §4.4.2 step 9).
func (s *Store) PruneOldSnapshots(ctx context.Context, keep int) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM frontier_snapshots
		WHERE height NOT IN (
			SELECT height FROM frontier_snapshots ORDER BY height DESC LIMIT $1
		)
	`, keep)
	return err
}

// TruncateAboveHeight is the reorg-recovery primitive: it deletes notes,
// transactions and frontier snapshots above height inside one database
// transaction (spec §4.5 truncate_above_height). Notes and transactions
// are encrypted per-row, so the height filter is applied after decryption.
func (s *Store) TruncateAboveHeight(ctx context.Context, height uint64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT id, data FROM notes`)
	if err != nil {
		return err
	}
	var staleNoteIDs []uint64
	for rows.Next() {
		var id uint64
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			rows.Close()
			return err
		}
		plain, err := s.open(data)
		if err != nil {
			continue
		}
		n, err := decodeNote(plain)
		if err != nil {
			continue
		}
		if n.Height > height {
			staleNoteIDs = append(staleNoteIDs, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range staleNoteIDs {
		if _, err := tx.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
			return err
		}
	}

	txRows, err := tx.Query(ctx, `SELECT txid_hash, data FROM transactions`)
	if err != nil {
		return err
	}
	var staleTxHashes [][]byte
	for txRows.Next() {
		var key []byte
		var data []byte
		if err := txRows.Scan(&key, &data); err != nil {
			txRows.Close()
			return err
		}
		plain, err := s.open(data)
		if err != nil {
			continue
		}
		t, err := decodeTxRecord(plain)
		if err != nil {
			continue
		}
		if t.Height > height {
			staleTxHashes = append(staleTxHashes, key)
		}
	}
	txRows.Close()
	if err := txRows.Err(); err != nil {
		return err
	}
	for _, key := range staleTxHashes {
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE txid_hash = $1`, key); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM frontier_snapshots WHERE height > $1`, height); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
