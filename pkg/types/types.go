// Package types defines the shared value types used across the wallet core:
// hashes, pools, diversifiers and the note/memo primitives that every other
// package builds on.
package types

import (
	"encoding/hex"
	"errors"
)

// HashSize is the size in bytes of a note commitment, nullifier or Merkle
// node hash in either pool.
const HashSize = 32

// Hash is a 32-byte commitment, nullifier, root or txid.
type Hash [HashSize]byte

// EmptyHash is the zero hash, used as the uncomputed sentinel nullifier.
var EmptyHash = Hash{}

// IsZero reports whether h is the all-zero hash (e.g. a nullifier not yet derivable).
func (h Hash) IsZero() bool {
	return h == EmptyHash
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromHex decodes a hex-encoded 32-byte hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != HashSize {
		return h, errors.New("types: wrong hash length")
	}
	copy(h[:], b)
	return h, nil
}

// Pool discriminates the Sapling and Orchard note protocols. They are
// modeled as a tagged variant rather than a shared interface: nullifier
// derivation, anchor handling and seed material differ enough between them
// that an ostensibly unifying abstraction would hide real contract
// differences (see DESIGN.md).
type Pool uint8

const (
	PoolSapling Pool = iota
	PoolOrchard
)

func (p Pool) String() string {
	switch p {
	case PoolSapling:
		return "sapling"
	case PoolOrchard:
		return "orchard"
	default:
		return "unknown"
	}
}

// Scope distinguishes addresses handed out to third parties from addresses
// used internally for change.
type Scope uint8

const (
	ScopeExternal Scope = iota
	ScopeInternal
)

// DiversifierIndexSize is the width of the ZIP-32 diversifier index as
// carried on the wire (11 bytes), even though the wallet only ever
// allocates indices sequentially from a 32-bit counter (spec §3).
const DiversifierIndexSize = 11

// Diversifier is the 11-byte tag combined with an FVK to derive a distinct
// payment address.
type Diversifier [DiversifierIndexSize]byte

// MemoSize is the fixed size of a shielded memo field.
const MemoSize = 512

// Memo is a padded 512-byte memo attached to an output.
type Memo [MemoSize]byte

// NewMemo pads raw bytes to MemoSize, erroring if they overflow.
func NewMemo(raw []byte) (Memo, error) {
	var m Memo
	if len(raw) > MemoSize {
		return m, errors.New("types: memo too long")
	}
	copy(m[:], raw)
	return m, nil
}

// IsEmpty reports whether the memo is all-zero, i.e. not carried / not recovered.
func (m Memo) IsEmpty() bool {
	for _, b := range m {
		if b != 0 {
			return false
		}
	}
	return true
}

// Bytes trims trailing zero padding for display purposes.
func (m Memo) Bytes() []byte {
	end := len(m)
	for end > 0 && m[end-1] == 0 {
		end--
	}
	out := make([]byte, end)
	copy(out, m[:end])
	return out
}

// AccountID stably identifies an account key group within a wallet. It is
// never recycled within the wallet's lifetime (DESIGN NOTES, spec §9).
type AccountID uint32

// KeyGroupID stably identifies one derived key group (Sapling+Orchard pair)
// belonging to an account.
type KeyGroupID uint64

// NoteID stably identifies a persisted owned note row.
type NoteID uint64
