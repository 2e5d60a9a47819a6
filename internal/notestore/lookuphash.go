package notestore

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// lookupSalt is mixed into every keyed lookup hash so that the hash cannot
// be replayed against a different wallet database to link identities across
// accounts (spec §4.5: "the hash must not link identities across accounts").
// It is generated once per store and persisted in the clear in the
// wallet_meta table (see loadOrCreateSalt), never derived from wallet content.
type lookupSalt [16]byte

func newLookupSalt() lookupSalt {
	var s lookupSalt
	copy(s[:], uuid.New()[:])
	return s
}

// nullifierLookupHash computes the deterministic index-restoring hash for
// (account_id, nullifier) described in spec §4.5, keyed by the store's salt
// so two stores never produce comparable hashes for the same nullifier.
func nullifierLookupHash(salt lookupSalt, accountID uint32, nullifier [32]byte) [32]byte {
	h, _ := blake2b.New256(salt[:])
	var acc [4]byte
	acc[0] = byte(accountID)
	acc[1] = byte(accountID >> 8)
	acc[2] = byte(accountID >> 16)
	acc[3] = byte(accountID >> 24)
	h.Write(acc[:])
	h.Write(nullifier[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// txidLookupHash is the (account_id, txid, index) analogue used to restore
// index use on insert_note's idempotency check without decrypting every row.
func txidLookupHash(salt lookupSalt, accountID uint32, txid [32]byte, index uint32) [32]byte {
	h, _ := blake2b.New256(salt[:])
	var acc [4]byte
	acc[0] = byte(accountID)
	acc[1] = byte(accountID >> 8)
	acc[2] = byte(accountID >> 16)
	acc[3] = byte(accountID >> 24)
	h.Write(acc[:])
	h.Write(txid[:])
	var idx [4]byte
	idx[0] = byte(index)
	idx[1] = byte(index >> 8)
	idx[2] = byte(index >> 16)
	idx[3] = byte(index >> 24)
	h.Write(idx[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
