package notestore

import (
	"context"
	"encoding/binary"

	"github.com/jackc/pgx/v5"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// unlinkedNullifier is a spend nullifier that arrived before the note it
// spends was known to this store, or before that note's nullifier could be
// derived — an Orchard spend racing ahead of its owning note's full-
// transaction enrichment, most commonly (spec §3 data model, §4.4.2 step 8).
type unlinkedNullifier struct {
	AccountID    types.AccountID
	Nullifier    types.Hash
	SpendingTxID types.Hash
	Height       uint64
}

func (u *unlinkedNullifier) encode() []byte {
	buf := make([]byte, 0, 4+32+32+8)
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(u.AccountID))
	buf = append(buf, u32[:]...)
	buf = append(buf, u.Nullifier[:]...)
	buf = append(buf, u.SpendingTxID[:]...)
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], u.Height)
	buf = append(buf, u64[:]...)
	return buf
}

func decodeUnlinkedNullifier(buf []byte) (*unlinkedNullifier, error) {
	r := byteReader{buf: buf}
	u := &unlinkedNullifier{}
	u.AccountID = types.AccountID(r.u32())
	copy(u.Nullifier[:], r.bytes(types.HashSize))
	copy(u.SpendingTxID[:], r.bytes(types.HashSize))
	u.Height = r.u64()
	return u, r.err
}

// InsertUnlinkedNullifier records a spend nullifier that matched no
// currently-known note, idempotent on (account_id, nullifier) so a
// nullifier seen again in a later batch (a reorg re-fetch, say) does not
// duplicate the row (spec §4.4.2 step 8).
func (s *Store) InsertUnlinkedNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash, spendingTxID types.Hash, height uint64) error {
	u := &unlinkedNullifier{
		AccountID:    accountID,
		Nullifier:    nullifier,
		SpendingTxID: spendingTxID,
		Height:       height,
	}
	sealed, err := s.seal(u.encode())
	if err != nil {
		return err
	}
	nfHash := nullifierLookupHash(s.salt, uint32(accountID), nullifier)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO unlinked_nullifiers (nullifier_hash, data)
		VALUES ($1, $2)
		ON CONFLICT (nullifier_hash) DO UPDATE SET data = EXCLUDED.data
	`, nfHash[:], sealed)
	return err
}

// ReconcileUnlinkedNullifier looks up a previously unmatched nullifier now
// that its owning note's nullifier is derivable. If found, the unlinked row
// is deleted and the spend's txid/height are returned so the caller can
// mark the note spent (spec §4.4.2 step 8, reconciled during a later
// batch's step 4/6).
func (s *Store) ReconcileUnlinkedNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash) (spendingTxID types.Hash, height uint64, found bool, err error) {
	nfHash := nullifierLookupHash(s.salt, uint32(accountID), nullifier)
	var data []byte
	err = s.pool.QueryRow(ctx, `SELECT data FROM unlinked_nullifiers WHERE nullifier_hash = $1`, nfHash[:]).Scan(&data)
	if err == pgx.ErrNoRows {
		return types.Hash{}, 0, false, nil
	}
	if err != nil {
		return types.Hash{}, 0, false, err
	}
	plain, err := s.open(data)
	if err != nil {
		return types.Hash{}, 0, false, err
	}
	u, err := decodeUnlinkedNullifier(plain)
	if err != nil {
		return types.Hash{}, 0, false, err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM unlinked_nullifiers WHERE nullifier_hash = $1`, nfHash[:]); err != nil {
		return types.Hash{}, 0, false, err
	}
	return u.SpendingTxID, u.Height, true, nil
}
