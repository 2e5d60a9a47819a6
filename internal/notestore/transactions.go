package notestore

import (
	"context"
	"encoding/binary"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// TxRecord is one wallet-relevant transaction (spec §4.5 upsert_transaction
// / upsert_tx_memo).
type TxRecord struct {
	TxID      types.Hash
	Height    uint64
	Timestamp uint64
	Fee       uint64
	Memo      types.Memo
}

func (t *TxRecord) encode() []byte {
	buf := make([]byte, 0, 64)
	var u64 [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(u64[:], v)
		buf = append(buf, u64[:]...)
	}
	buf = append(buf, t.TxID[:]...)
	putU64(t.Height)
	putU64(t.Timestamp)
	putU64(t.Fee)
	buf = append(buf, t.Memo[:]...)
	return buf
}

func decodeTxRecord(buf []byte) (*TxRecord, error) {
	r := byteReader{buf: buf}
	t := &TxRecord{}
	copy(t.TxID[:], r.bytes(types.HashSize))
	t.Height = r.u64()
	t.Timestamp = r.u64()
	t.Fee = r.u64()
	copy(t.Memo[:], r.bytes(types.MemoSize))
	return t, r.err
}

func txidHashKey(salt lookupSalt, txid types.Hash) [32]byte {
	return txidLookupHash(salt, 0, txid, 0)
}

// UpsertTransaction records or updates a wallet-relevant transaction (spec
// §4.5 upsert_transaction).
func (s *Store) UpsertTransaction(ctx context.Context, t *TxRecord) error {
	sealed, err := s.seal(t.encode())
	if err != nil {
		return err
	}
	key := txidHashKey(s.salt, t.TxID)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO transactions (txid_hash, height, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (txid_hash) DO UPDATE SET height = EXCLUDED.height, data = EXCLUDED.data
	`, key[:], t.Height, sealed)
	return err
}

// UpsertTxMemo rewrites just the memo on an already-upserted transaction
// (spec §4.5 upsert_tx_memo).
func (s *Store) UpsertTxMemo(ctx context.Context, txid types.Hash, memo types.Memo) error {
	key := txidHashKey(s.salt, txid)
	var data []byte
	if err := s.pool.QueryRow(ctx, `SELECT data FROM transactions WHERE txid_hash = $1`, key[:]).Scan(&data); err != nil {
		return err
	}
	plain, err := s.open(data)
	if err != nil {
		return err
	}
	t, err := decodeTxRecord(plain)
	if err != nil {
		return err
	}
	t.Memo = memo
	sealed, err := s.seal(t.encode())
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `UPDATE transactions SET data = $1 WHERE txid_hash = $2`, sealed, key[:])
	return err
}

// GetTransaction retrieves a transaction record by txid.
func (s *Store) GetTransaction(ctx context.Context, txid types.Hash) (*TxRecord, error) {
	key := txidHashKey(s.salt, txid)
	var data []byte
	if err := s.pool.QueryRow(ctx, `SELECT data FROM transactions WHERE txid_hash = $1`, key[:]).Scan(&data); err != nil {
		return nil, err
	}
	plain, err := s.open(data)
	if err != nil {
		return nil, err
	}
	return decodeTxRecord(plain)
}
