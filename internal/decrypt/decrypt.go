// Package decrypt implements trial decryption of compact outputs/actions
// against a wallet's incoming viewing keys (spec §4.3). The underlying
// note-encryption scheme is out of this system's scope (spec §1
// non-goals: "implementing the underlying note-encryption primitives from
// scratch"); this package treats golang.org/x/crypto/chacha20 as the
// vetted stream cipher compact decryption runs on top of (the compact
// prefix carries no independent authentication tag of its own — the
// commitment-equality check below is the integrity check spec §4.3
// describes), the same role the teacher gives AEAD-style primitives in
// internal/storage for at-rest encryption.
package decrypt

import (
	"context"
	"encoding/binary"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

// DefaultMaxParallel mirrors spec §4.3's default concurrency ceiling.
func DefaultMaxParallel(cpuCount int) int {
	if cpuCount < 1 {
		return 1
	}
	return cpuCount
}

// IVKs bundles the wallet's incoming viewing keys for both pools. Sapling
// is a 32-byte scalar; Orchard's key schedule is wider (diversified-base
// and IVK material), represented here as a 64-byte opaque blob.
type IVKs struct {
	Sapling [32]byte
	Orchard [64]byte
}

// DecryptedNote is one note recovered from compact-block trial decryption.
// Nullifier is deliberately absent here: deriving it needs the leaf
// position (Sapling) or ρ from a full-transaction fetch (Orchard), neither
// of which this package has (spec §4.3 "Nullifier handling").
type DecryptedNote struct {
	Pool          types.Pool
	Height        uint64
	TxIndex       uint64
	ActionIndex   int
	Value         uint64
	Diversifier   types.Diversifier
	SeedMaterial  [32]byte // rseed
	LeadByte      byte     // Sapling only
	Commitment    types.Hash
	TxHash        []byte
	Memo          types.Memo // always empty here; filled by full-tx enrichment
}

// sortKey orders notes per spec §4.3: "re-ordered deterministically by
// (height, tx_index, output_index)".
func sortKey(n *DecryptedNote) (uint64, uint64, int, types.Pool) {
	return n.Height, n.TxIndex, n.ActionIndex, n.Pool
}

// Batch trial-decrypts every Sapling output and Orchard action in a range
// of compact blocks against one key group's IVKs, with bounded
// concurrency across blocks. The returned slice is sorted deterministically
// regardless of completion order (spec §8 "Trial-decrypt determinism").
func Batch(ctx context.Context, blocks []walletrpc.CompactBlock, ivks IVKs, maxParallel int) ([]DecryptedNote, error) {
	if maxParallel < 1 {
		maxParallel = 1
	}

	type result struct {
		notes []DecryptedNote
	}

	results := make([]result, len(blocks))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, blk := range blocks {
		i, blk := i, blk
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				mu.Lock()
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				mu.Unlock()
				return
			default:
			}

			results[i] = result{notes: decryptBlock(blk, ivks)}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	var out []DecryptedNote
	for _, r := range results {
		out = append(out, r.notes...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		hi, ti, oi, pi := sortKey(&out[i])
		hj, tj, oj, pj := sortKey(&out[j])
		if hi != hj {
			return hi < hj
		}
		if ti != tj {
			return ti < tj
		}
		if oi != oj {
			return oi < oj
		}
		return pi < pj
	})
	return out, nil
}

func decryptBlock(blk walletrpc.CompactBlock, ivks IVKs) []DecryptedNote {
	var notes []DecryptedNote
	for _, tx := range blk.Txs {
		for outIdx, out := range tx.SaplingOutputs {
			note, ok := trialDecryptSapling(out, ivks.Sapling)
			if !ok {
				continue
			}
			note.Height = blk.Height
			note.TxIndex = tx.Index
			note.ActionIndex = outIdx
			note.TxHash = tx.Hash
			notes = append(notes, *note)
		}
		for actIdx, act := range tx.OrchardActions {
			note, ok := trialDecryptOrchard(act, ivks.Orchard)
			if !ok {
				continue
			}
			note.Height = blk.Height
			note.TxIndex = tx.Index
			note.ActionIndex = actIdx
			note.TxHash = tx.Hash
			notes = append(notes, *note)
		}
	}
	return notes
}

// saplingCompactPrefixLen is the fixed width of the compact ciphertext
// prefix for Sapling: leadbyte(1) || diversifier(11) || value(8) || rseed(32).
const saplingCompactPrefixLen = 1 + types.DiversifierIndexSize + 8 + 32

// orchardCompactPrefixLen is the Orchard equivalent, without the lead byte:
// diversifier(11) || value(8) || rseed(32).
const orchardCompactPrefixLen = types.DiversifierIndexSize + 8 + 32

// deriveCompactKey derives the per-output symmetric key and nonce from the
// ephemeral key and the recipient's IVK, following the same keyed-hash
// pattern as this wallet's ZIP-32 expansion (internal/keys/zip32.go):
// BLAKE2b over ivk || epk, split into a chacha20 key and nonce.
func deriveCompactKey(ivk, epk []byte) (key [chacha20.KeySize]byte, nonce [chacha20.NonceSize]byte) {
	sum := blake2b.Sum512(append(append([]byte{}, ivk...), epk...))
	copy(key[:], sum[:chacha20.KeySize])
	copy(nonce[:], sum[chacha20.KeySize:chacha20.KeySize+chacha20.NonceSize])
	return key, nonce
}

// decryptCompactPrefix runs the chacha20 keystream against the compact
// ciphertext prefix.
func decryptCompactPrefix(ciphertext []byte, ivk, epk []byte) ([]byte, error) {
	key, nonce := deriveCompactKey(ivk, epk)
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(ciphertext))
	cipher.XORKeyStream(plain, ciphertext)
	return plain, nil
}

// trialDecryptSapling attempts compact decryption of one Sapling output.
// The ciphertext prefix is treated as a plain 52-byte payload recoverable
// once the symmetric key is known: the compact-mode contract (spec §4.3)
// has no independent authentication tag of its own in this representation,
// so "decryption succeeded" is judged by the commitment check below, the
// same discard-on-mismatch contract the spec describes.
func trialDecryptSapling(out walletrpc.CompactSaplingOutput, ivk [32]byte) (*DecryptedNote, bool) {
	if len(out.CiphertextPrefix) < saplingCompactPrefixLen {
		return nil, false
	}
	plain, err := decryptCompactPrefix(out.CiphertextPrefix[:saplingCompactPrefixLen], ivk[:], out.EphemeralKey)
	if err != nil {
		return nil, false
	}

	leadByte := plain[0]
	var diversifier types.Diversifier
	copy(diversifier[:], plain[1:1+types.DiversifierIndexSize])
	value := binary.LittleEndian.Uint64(plain[1+types.DiversifierIndexSize : 1+types.DiversifierIndexSize+8])
	var rseed [32]byte
	copy(rseed[:], plain[1+types.DiversifierIndexSize+8:])

	commitment := reconstructCommitment(types.PoolSapling, diversifier, value, rseed)
	if len(out.Cmu) != types.HashSize || types.Hash(commitment) != hashFromBytes(out.Cmu) {
		return nil, false
	}

	return &DecryptedNote{
		Pool:         types.PoolSapling,
		Value:        value,
		Diversifier:  diversifier,
		SeedMaterial: rseed,
		LeadByte:     leadByte,
		Commitment:   hashFromBytes(out.Cmu),
	}, true
}

// trialDecryptOrchard attempts compact decryption of one Orchard action.
func trialDecryptOrchard(act walletrpc.CompactOrchardAction, ivk [64]byte) (*DecryptedNote, bool) {
	if len(act.CiphertextPrefix) < orchardCompactPrefixLen {
		return nil, false
	}
	plain, err := decryptCompactPrefix(act.CiphertextPrefix[:orchardCompactPrefixLen], ivk[:], act.EphemeralKey)
	if err != nil {
		return nil, false
	}

	var diversifier types.Diversifier
	copy(diversifier[:], plain[:types.DiversifierIndexSize])
	value := binary.LittleEndian.Uint64(plain[types.DiversifierIndexSize : types.DiversifierIndexSize+8])
	var rseed [32]byte
	copy(rseed[:], plain[types.DiversifierIndexSize+8:])

	commitment := reconstructCommitment(types.PoolOrchard, diversifier, value, rseed)
	if len(act.Cmx) != types.HashSize || types.Hash(commitment) != hashFromBytes(act.Cmx) {
		return nil, false
	}

	return &DecryptedNote{
		Pool:         types.PoolOrchard,
		Value:        value,
		Diversifier:  diversifier,
		SeedMaterial: rseed,
		Commitment:   hashFromBytes(act.Cmx),
	}, true
}

func reconstructCommitment(pool types.Pool, div types.Diversifier, value uint64, rseed [32]byte) [32]byte {
	h, _ := blake2b.New256([]byte{byte(pool)})
	h.Write(div[:])
	var vb [8]byte
	binary.LittleEndian.PutUint64(vb[:], value)
	h.Write(vb[:])
	h.Write(rseed[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hashFromBytes(b []byte) types.Hash {
	var h types.Hash
	copy(h[:], b)
	return h
}

// saplingFullLen is the full Sapling note ciphertext: leadbyte(1) ||
// diversifier(11) || value(8) || rseed(32) || memo(512).
const saplingFullLen = 1 + types.DiversifierIndexSize + 8 + 32 + types.MemoSize

// orchardFullLen is the Orchard equivalent. Orchard carries ρ in the full
// ciphertext but not the compact prefix (spec §4.3 "Nullifier handling"):
// diversifier(11) || value(8) || rseed(32) || rho(32) || memo(512).
const orchardFullLen = types.DiversifierIndexSize + 8 + 32 + 32 + types.MemoSize

// FullDecryptedNote extends DecryptedNote with the fields only a
// full-ciphertext decryption can recover: the memo and, for Orchard, ρ
// (spec §4.4.2 step 6).
type FullDecryptedNote struct {
	DecryptedNote
	Rho [32]byte // Orchard only
}

// TrialDecryptFullSapling re-runs decryption against a full Sapling output
// to recover its memo. The commitment formula has no ρ term in this
// wallet's simplified model, so the same reconstructCommitment check as
// the compact path applies.
func TrialDecryptFullSapling(out walletrpc.FullSaplingOutput, ivk [32]byte) (*FullDecryptedNote, bool) {
	if len(out.CiphertextFull) < saplingFullLen {
		return nil, false
	}
	plain, err := decryptCompactPrefix(out.CiphertextFull[:saplingFullLen], ivk[:], out.EphemeralKey)
	if err != nil {
		return nil, false
	}

	leadByte := plain[0]
	off := 1
	var diversifier types.Diversifier
	copy(diversifier[:], plain[off:off+types.DiversifierIndexSize])
	off += types.DiversifierIndexSize
	value := binary.LittleEndian.Uint64(plain[off : off+8])
	off += 8
	var rseed [32]byte
	copy(rseed[:], plain[off:off+32])
	off += 32
	memoBytes := plain[off : off+types.MemoSize]

	commitment := reconstructCommitment(types.PoolSapling, diversifier, value, rseed)
	if len(out.Cmu) != types.HashSize || types.Hash(commitment) != hashFromBytes(out.Cmu) {
		return nil, false
	}

	var memo types.Memo
	copy(memo[:], memoBytes)

	return &FullDecryptedNote{DecryptedNote: DecryptedNote{
		Pool:         types.PoolSapling,
		Value:        value,
		Diversifier:  diversifier,
		SeedMaterial: rseed,
		LeadByte:     leadByte,
		Commitment:   hashFromBytes(out.Cmu),
		Memo:         memo,
	}}, true
}

// TrialDecryptFullOrchard re-runs decryption against a full Orchard action
// to recover its memo and ρ, the latter only ever available here (spec
// §4.4.2 step 6).
func TrialDecryptFullOrchard(act walletrpc.FullOrchardAction, ivk [64]byte) (*FullDecryptedNote, bool) {
	if len(act.CiphertextFull) < orchardFullLen {
		return nil, false
	}
	plain, err := decryptCompactPrefix(act.CiphertextFull[:orchardFullLen], ivk[:], act.EphemeralKey)
	if err != nil {
		return nil, false
	}

	off := 0
	var diversifier types.Diversifier
	copy(diversifier[:], plain[off:off+types.DiversifierIndexSize])
	off += types.DiversifierIndexSize
	value := binary.LittleEndian.Uint64(plain[off : off+8])
	off += 8
	var rseed [32]byte
	copy(rseed[:], plain[off:off+32])
	off += 32
	var rho [32]byte
	copy(rho[:], plain[off:off+32])
	off += 32
	memoBytes := plain[off : off+types.MemoSize]

	commitment := reconstructCommitment(types.PoolOrchard, diversifier, value, rseed)
	if len(act.Cmx) != types.HashSize || types.Hash(commitment) != hashFromBytes(act.Cmx) {
		return nil, false
	}

	var memo types.Memo
	copy(memo[:], memoBytes)

	return &FullDecryptedNote{
		DecryptedNote: DecryptedNote{
			Pool:         types.PoolOrchard,
			Value:        value,
			Diversifier:  diversifier,
			SeedMaterial: rseed,
			Commitment:   hashFromBytes(act.Cmx),
			Memo:         memo,
		},
		Rho: rho,
	}, true
}

// OVKs bundles the wallet's outgoing viewing keys. Unlike IVKs, both pools
// use the same 32-byte width here (internal/keys derives OVK the same way
// for Sapling and Orchard — see DESIGN.md).
type OVKs struct {
	Sapling [32]byte
	Orchard [32]byte
}

// RecoverOutgoingSapling attempts output-recovery decryption of a Sapling
// output this wallet sent, using the out-ciphertext and the account's OVK
// in place of a recipient's IVK (spec §4.4.2 step 7). The out-ciphertext
// is keyed the same way the main ciphertext is in this wallet's simplified
// model, so the existing compact-key derivation applies unchanged.
func RecoverOutgoingSapling(out walletrpc.FullSaplingOutput, ovk [32]byte) (*FullDecryptedNote, bool) {
	if len(out.OutCiphertext) < saplingFullLen {
		return nil, false
	}
	plain, err := decryptCompactPrefix(out.OutCiphertext[:saplingFullLen], ovk[:], out.EphemeralKey)
	if err != nil {
		return nil, false
	}

	leadByte := plain[0]
	off := 1
	var diversifier types.Diversifier
	copy(diversifier[:], plain[off:off+types.DiversifierIndexSize])
	off += types.DiversifierIndexSize
	value := binary.LittleEndian.Uint64(plain[off : off+8])
	off += 8
	var rseed [32]byte
	copy(rseed[:], plain[off:off+32])
	off += 32
	memoBytes := plain[off : off+types.MemoSize]

	commitment := reconstructCommitment(types.PoolSapling, diversifier, value, rseed)
	if len(out.Cmu) != types.HashSize || types.Hash(commitment) != hashFromBytes(out.Cmu) {
		return nil, false
	}

	var memo types.Memo
	copy(memo[:], memoBytes)
	return &FullDecryptedNote{DecryptedNote: DecryptedNote{
		Pool:         types.PoolSapling,
		Value:        value,
		Diversifier:  diversifier,
		SeedMaterial: rseed,
		LeadByte:     leadByte,
		Commitment:   hashFromBytes(out.Cmu),
		Memo:         memo,
	}}, true
}

// RecoverOutgoingOrchard is the Orchard counterpart of RecoverOutgoingSapling.
func RecoverOutgoingOrchard(act walletrpc.FullOrchardAction, ovk [32]byte) (*FullDecryptedNote, bool) {
	if len(act.OutCiphertext) < orchardFullLen {
		return nil, false
	}
	plain, err := decryptCompactPrefix(act.OutCiphertext[:orchardFullLen], ovk[:], act.EphemeralKey)
	if err != nil {
		return nil, false
	}

	off := 0
	var diversifier types.Diversifier
	copy(diversifier[:], plain[off:off+types.DiversifierIndexSize])
	off += types.DiversifierIndexSize
	value := binary.LittleEndian.Uint64(plain[off : off+8])
	off += 8
	var rseed [32]byte
	copy(rseed[:], plain[off:off+32])
	off += 32
	var rho [32]byte
	copy(rho[:], plain[off:off+32])
	off += 32
	memoBytes := plain[off : off+types.MemoSize]

	commitment := reconstructCommitment(types.PoolOrchard, diversifier, value, rseed)
	if len(act.Cmx) != types.HashSize || types.Hash(commitment) != hashFromBytes(act.Cmx) {
		return nil, false
	}

	var memo types.Memo
	copy(memo[:], memoBytes)
	return &FullDecryptedNote{
		DecryptedNote: DecryptedNote{
			Pool:         types.PoolOrchard,
			Value:        value,
			Diversifier:  diversifier,
			SeedMaterial: rseed,
			Commitment:   hashFromBytes(act.Cmx),
			Memo:         memo,
		},
		Rho: rho,
	}, true
}
