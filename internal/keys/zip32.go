package keys

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// ZIP-32 style domain separators. The real ZIP-32 uses BLAKE2b with a
// personalization field; golang.org/x/crypto/blake2b does not expose
// personalization in its public API, so the tags are folded into the
// hashed message instead of the BLAKE2b parameter block. This keeps the
// derivation a keyed-hash construction with the same shape (parent chain
// code as key, tag||depth||index||parent-tag as message, 64-byte output
// split into key material and chain code) without claiming wire
// compatibility with the reference derivation (see DESIGN.md).
var (
	saplingMasterTag = []byte("PiratSaplingSeed")
	orchardMasterTag = []byte("PiratOrchardSeed")
	childTag         = []byte("PiratZIP32Child1")
)

// chainKey is the (key material, chain code) pair produced at every level
// of ZIP-32 derivation.
type chainKey struct {
	key       [32]byte
	chainCode [32]byte
}

func expand(key []byte, tag []byte, depth uint8, index uint32, parentTag [4]byte) (chainKey, error) {
	h, err := blake2b.New(64, key)
	if err != nil {
		return chainKey{}, err
	}
	h.Write(tag)
	h.Write([]byte{depth})
	var idxBuf [4]byte
	binary.LittleEndian.PutUint32(idxBuf[:], index)
	h.Write(idxBuf[:])
	h.Write(parentTag[:])
	sum := h.Sum(nil)

	var out chainKey
	copy(out.key[:], sum[:32])
	copy(out.chainCode[:], sum[32:64])
	return out, nil
}

// masterKey derives the level-0 (key, chain code) pair for a pool from the
// wallet seed.
func masterKey(seed []byte, tag []byte) (chainKey, error) {
	h, err := blake2b.New(64, nil)
	if err != nil {
		return chainKey{}, err
	}
	h.Write(tag)
	h.Write(seed)
	sum := h.Sum(nil)

	var out chainKey
	copy(out.key[:], sum[:32])
	copy(out.chainCode[:], sum[32:64])
	return out, nil
}

// deriveChild derives a hardened child at the given index, per the
// m/32'/coin_type'/account' path used for both pools (spec §4.1).
func deriveChild(parent chainKey, depth uint8, index uint32) (chainKey, error) {
	var parentTag [4]byte
	fp := fingerprint(parent)
	copy(parentTag[:], fp[:4])
	return expand(parent.chainCode[:], childTag, depth, index|hardenedBit, parentTag)
}

// hardenedBit marks a ZIP-32 path component as hardened (index >= 2^31),
// the only kind of component the wallet ever derives for account keys.
const hardenedBit = 1 << 31

func fingerprint(k chainKey) [32]byte {
	return blake2b.Sum256(k.key[:])
}

// deriveAccountPath walks m/32'/coin_type'/account' from a seed, returning
// the account-level chain key for one pool.
func deriveAccountPath(seed []byte, masterTag []byte, coinType, account uint32) (chainKey, error) {
	m, err := masterKey(seed, masterTag)
	if err != nil {
		return chainKey{}, err
	}
	coinLevel, err := deriveChild(m, 1, coinType)
	if err != nil {
		return chainKey{}, err
	}
	acctLevel, err := deriveChild(coinLevel, 2, account)
	if err != nil {
		return chainKey{}, err
	}
	return acctLevel, nil
}
