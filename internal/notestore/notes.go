package notestore

import (
	"context"
	"encoding/binary"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// pgxRows narrows pgx.Rows to what scanForNullifier needs, so it can run
// against either a bare connection pool query or a transaction's query
// without duplicating the scan loop.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// Note is one owned shielded note as persisted by the wallet. Every field
// here is encrypted at rest as a single sealed blob per row (spec §4.5
// names every one of these as a sensitive column); the hash columns used
// for indexed lookups are derived separately and never reveal the
// underlying value.
type Note struct {
	ID           types.NoteID
	AccountID    types.AccountID
	Pool         types.Pool
	TxID         types.Hash
	OutputIndex  uint32
	Height       uint64
	Value        uint64
	Diversifier  types.Diversifier
	SeedMaterial [32]byte
	Commitment   types.Hash
	Position     uint64
	WitnessPath  []byte // serialized frontier.Path, opaque here
	Anchor       types.Hash
	Nullifier    types.Hash // zero until derivable (spec §4.3 "Nullifier handling")
	Memo         types.Memo
	Spent        bool
	SpentTxID    types.Hash
}

// SelectableNote is the subset of Note fields the transaction builder
// needs, returned only for notes that clear the witness/seed/anchor
// eligibility bar (spec §4.5 get_unspent_selectable_notes).
type SelectableNote struct {
	NoteID      types.NoteID
	Pool        types.Pool
	Value       uint64
	Anchor      types.Hash
	WitnessPath []byte
	Diversifier types.Diversifier
}

func (n *Note) encode() []byte {
	buf := make([]byte, 0, 256)
	var u64 [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(u64[:], v)
		buf = append(buf, u64[:]...)
	}
	var u32 [4]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(u32[:], v)
		buf = append(buf, u32[:]...)
	}
	putBytes := func(b []byte) {
		putU32(uint32(len(b)))
		buf = append(buf, b...)
	}

	putU32(uint32(n.AccountID))
	buf = append(buf, byte(n.Pool))
	buf = append(buf, n.TxID[:]...)
	putU32(n.OutputIndex)
	putU64(n.Height)
	putU64(n.Value)
	buf = append(buf, n.Diversifier[:]...)
	buf = append(buf, n.SeedMaterial[:]...)
	buf = append(buf, n.Commitment[:]...)
	putU64(n.Position)
	putBytes(n.WitnessPath)
	buf = append(buf, n.Anchor[:]...)
	buf = append(buf, n.Nullifier[:]...)
	buf = append(buf, n.Memo[:]...)
	if n.Spent {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, n.SpentTxID[:]...)
	return buf
}

func decodeNote(buf []byte) (*Note, error) {
	n := &Note{}
	r := byteReader{buf: buf}

	n.AccountID = types.AccountID(r.u32())
	n.Pool = types.Pool(r.u8())
	copy(n.TxID[:], r.bytes(types.HashSize))
	n.OutputIndex = r.u32()
	n.Height = r.u64()
	n.Value = r.u64()
	copy(n.Diversifier[:], r.bytes(types.DiversifierIndexSize))
	copy(n.SeedMaterial[:], r.bytes(32))
	copy(n.Commitment[:], r.bytes(types.HashSize))
	n.Position = r.u64()
	n.WitnessPath = r.lenPrefixedBytes()
	copy(n.Anchor[:], r.bytes(types.HashSize))
	copy(n.Nullifier[:], r.bytes(types.HashSize))
	copy(n.Memo[:], r.bytes(types.MemoSize))
	n.Spent = r.u8() == 1
	copy(n.SpentTxID[:], r.bytes(types.HashSize))

	return n, r.err
}

// byteReader is a small cursor over a flat byte slice, tracking the first
// short-read error encountered so callers can check it once at the end
// instead of threading an error through every field read.
type byteReader struct {
	buf []byte
	pos int
	err error
}

func (r *byteReader) bytes(n int) []byte {
	if r.err != nil || r.pos+n > len(r.buf) {
		r.err = ErrInvalidRecord
		return make([]byte, n)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *byteReader) u8() byte {
	b := r.bytes(1)
	return b[0]
}

func (r *byteReader) u32() uint32 {
	return binary.LittleEndian.Uint32(r.bytes(4))
}

func (r *byteReader) u64() uint64 {
	return binary.LittleEndian.Uint64(r.bytes(8))
}

func (r *byteReader) lenPrefixedBytes() []byte {
	n := r.u32()
	b := r.bytes(int(n))
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// InsertNote persists a newly discovered note, idempotent on
// (pool, txid, output_or_action_index) via txidLookupHash (spec §4.5
// insert_note).
func (s *Store) InsertNote(ctx context.Context, n *Note) (types.NoteID, error) {
	sealed, err := s.seal(n.encode())
	if err != nil {
		return 0, err
	}
	acctHash := nullifierLookupHash(s.salt, uint32(n.AccountID), types.Hash{})
	// The pool occupies the index's top bit, so a Sapling output and an
	// Orchard action at the same index of one transaction stay distinct.
	index := n.OutputIndex | uint32(n.Pool)<<31
	txidHash := txidLookupHash(s.salt, uint32(n.AccountID), n.TxID, index)

	var id uint64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO notes (account_hash, txid_hash, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (txid_hash) DO UPDATE SET data = EXCLUDED.data
		RETURNING id
	`, acctHash[:], txidHash[:], sealed).Scan(&id)
	if err != nil {
		return 0, err
	}
	return types.NoteID(id), nil
}

// GetUnspentNotes returns every unspent note belonging to account_id (spec
// §4.5 get_unspent_notes). Because account id is itself an encrypted
// column, rows are pre-filtered by the keyed account_hash and then
// decrypted to confirm and to recover the rest of the fields.
func (s *Store) GetUnspentNotes(ctx context.Context, accountID types.AccountID) ([]*Note, error) {
	acctHash := nullifierLookupHash(s.salt, uint32(accountID), types.Hash{})

	rows, err := s.pool.Query(ctx, `SELECT id, data FROM notes WHERE account_hash = $1`, acctHash[:])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Note
	for rows.Next() {
		var id uint64
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		plain, err := s.open(data)
		if err != nil {
			continue // corrupt or foreign row; skip rather than fail the whole scan
		}
		n, err := decodeNote(plain)
		if err != nil {
			continue
		}
		if n.Spent || n.AccountID != accountID {
			continue
		}
		n.ID = types.NoteID(id)
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetUnspentSelectableNotes narrows GetUnspentNotes to notes the
// transaction builder may actually spend: a non-empty witness path, valid
// seed material, and (for Orchard) a non-null anchor (spec §4.5).
func (s *Store) GetUnspentSelectableNotes(ctx context.Context, accountID types.AccountID) ([]SelectableNote, error) {
	notes, err := s.GetUnspentNotes(ctx, accountID)
	if err != nil {
		return nil, err
	}
	var out []SelectableNote
	for _, n := range notes {
		if len(n.WitnessPath) == 0 {
			continue
		}
		if n.SeedMaterial == ([32]byte{}) {
			continue
		}
		if n.Pool == types.PoolOrchard && n.Anchor.IsZero() {
			continue
		}
		out = append(out, SelectableNote{
			NoteID:      n.ID,
			Pool:        n.Pool,
			Value:       n.Value,
			Anchor:      n.Anchor,
			WitnessPath: n.WitnessPath,
			Diversifier: n.Diversifier,
		})
	}
	return out, nil
}

// MarkNoteSpentByNullifier marks the note owning nullifier as spent,
// recording spendingTxID. Reports whether a matching unspent note was
// found (spec §4.5 mark_note_spent_by_nullifier).
func (s *Store) MarkNoteSpentByNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash, spendingTxID types.Hash) (bool, error) {
	n, id, err := s.findByNullifier(ctx, accountID, nullifier)
	if err != nil {
		return false, err
	}
	if n == nil {
		return false, nil
	}
	n.Spent = true
	n.SpentTxID = spendingTxID
	sealed, err := s.seal(n.encode())
	if err != nil {
		return false, err
	}
	_, err = s.pool.Exec(ctx, `UPDATE notes SET data = $1 WHERE id = $2`, sealed, id)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) findByNullifier(ctx context.Context, accountID types.AccountID, nullifier types.Hash) (*Note, uint64, error) {
	acctHash := nullifierLookupHash(s.salt, uint32(accountID), types.Hash{})
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM notes WHERE account_hash = $1`, acctHash[:])
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return scanForNullifier(rows, s, accountID, nullifier)
}

func scanForNullifier(rows pgxRows, s *Store, accountID types.AccountID, nullifier types.Hash) (*Note, uint64, error) {
	for rows.Next() {
		var id uint64
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, 0, err
		}
		plain, err := s.open(data)
		if err != nil {
			continue
		}
		n, err := decodeNote(plain)
		if err != nil {
			continue
		}
		if n.AccountID == accountID && n.Nullifier == nullifier && !n.Spent {
			n.ID = types.NoteID(id)
			return n, id, nil
		}
	}
	return nil, 0, rows.Err()
}

// UpdateNoteMemo rewrites the memo field of an already-persisted note, used
// when a full-transaction fetch recovers the memo a compact block omitted.
func (s *Store) UpdateNoteMemo(ctx context.Context, noteID types.NoteID, memo types.Memo) error {
	var data []byte
	if err := s.pool.QueryRow(ctx, `SELECT data FROM notes WHERE id = $1`, uint64(noteID)).Scan(&data); err != nil {
		return err
	}
	plain, err := s.open(data)
	if err != nil {
		return err
	}
	n, err := decodeNote(plain)
	if err != nil {
		return err
	}
	n.Memo = memo
	sealed, err := s.seal(n.encode())
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `UPDATE notes SET data = $1 WHERE id = $2`, sealed, uint64(noteID))
	return err
}

// UpdateNoteNullifier rewrites a note's nullifier, used once a full-
// transaction fetch derives the Orchard nullifier compact decryption could
// not produce (spec §4.4.2 step 6). The nullifier lookup hash a later
// applySpends pass searches by is reconstructed from the decrypted row, not
// stored as a separate index, so no hash column needs updating here.
func (s *Store) UpdateNoteNullifier(ctx context.Context, noteID types.NoteID, nullifier types.Hash) error {
	var data []byte
	if err := s.pool.QueryRow(ctx, `SELECT data FROM notes WHERE id = $1`, uint64(noteID)).Scan(&data); err != nil {
		return err
	}
	plain, err := s.open(data)
	if err != nil {
		return err
	}
	n, err := decodeNote(plain)
	if err != nil {
		return err
	}
	n.Nullifier = nullifier
	sealed, err := s.seal(n.encode())
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `UPDATE notes SET data = $1 WHERE id = $2`, sealed, uint64(noteID))
	return err
}

// DeleteNote removes a note row outright, used when a compact-decryption
// hit turns out to be a false positive against the full ciphertext (spec
// §4.4.2 step 6).
func (s *Store) DeleteNote(ctx context.Context, noteID types.NoteID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, uint64(noteID))
	return err
}

// Balance reports the three-way split spec §4.5's calculate_balance
// defines: a note is spendable iff
// 0 < note.height <= current_height - min_depth and it is unspent.
type Balance struct {
	Spendable uint64
	Pending   uint64
	Total     uint64
}

// CalculateBalance implements spec §4.5 calculate_balance.
func (s *Store) CalculateBalance(ctx context.Context, accountID types.AccountID, currentHeight uint64, minDepth uint64) (Balance, error) {
	notes, err := s.GetUnspentNotes(ctx, accountID)
	if err != nil {
		return Balance{}, err
	}
	return computeBalance(notes, currentHeight, minDepth), nil
}

// computeBalance is the pure core of CalculateBalance, split out so the
// spendable/pending split can be tested without a database.
func computeBalance(notes []*Note, currentHeight, minDepth uint64) Balance {
	var b Balance
	matureCeiling := uint64(0)
	if currentHeight > minDepth {
		matureCeiling = currentHeight - minDepth
	}
	for _, n := range notes {
		b.Total += n.Value
		if n.Height > 0 && n.Height <= matureCeiling {
			b.Spendable += n.Value
		} else {
			b.Pending += n.Value
		}
	}
	return b
}
