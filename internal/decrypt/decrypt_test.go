package decrypt

import (
	"context"
	"encoding/binary"
	"testing"

	"golang.org/x/crypto/chacha20"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

// buildSaplingOutput encrypts a synthetic compact prefix under the given
// IVK/ephemeral key pair, the inverse of trialDecryptSapling, so tests can
// exercise the real decryption path instead of asserting against fixtures.
func buildSaplingOutput(ivk [32]byte, epk []byte, diversifier types.Diversifier, value uint64, rseed [32]byte) walletrpc.CompactSaplingOutput {
	plain := make([]byte, saplingCompactPrefixLen)
	plain[0] = 0x01
	copy(plain[1:1+types.DiversifierIndexSize], diversifier[:])
	binary.LittleEndian.PutUint64(plain[1+types.DiversifierIndexSize:1+types.DiversifierIndexSize+8], value)
	copy(plain[1+types.DiversifierIndexSize+8:], rseed[:])

	key, nonce := deriveCompactKey(ivk[:], epk)
	c, _ := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	ciphertext := make([]byte, len(plain))
	c.XORKeyStream(ciphertext, plain)

	commitment := reconstructCommitment(types.PoolSapling, diversifier, value, rseed)
	return walletrpc.CompactSaplingOutput{
		Cmu:              commitment[:],
		EphemeralKey:     epk,
		CiphertextPrefix: ciphertext,
	}
}

func TestTrialDecryptSaplingSucceedsForOwnedOutput(t *testing.T) {
	var ivk [32]byte
	ivk[0] = 0x42
	epk := []byte("ephemeral-key-material-12")
	var div types.Diversifier
	div[0] = 7
	var rseed [32]byte
	rseed[0] = 9

	out := buildSaplingOutput(ivk, epk, div, 100000, rseed)

	note, ok := trialDecryptSapling(out, ivk)
	if !ok {
		t.Fatal("expected successful decryption for owned output")
	}
	if note.Value != 100000 {
		t.Fatalf("expected value 100000, got %d", note.Value)
	}
	if note.Diversifier != div {
		t.Fatal("diversifier mismatch")
	}
}

func TestTrialDecryptSaplingFailsForWrongKey(t *testing.T) {
	var ivk [32]byte
	ivk[0] = 0x42
	var wrongIvk [32]byte
	wrongIvk[0] = 0x99

	epk := []byte("ephemeral-key-material-12")
	var div types.Diversifier
	var rseed [32]byte

	out := buildSaplingOutput(ivk, epk, div, 5000, rseed)

	if _, ok := trialDecryptSapling(out, wrongIvk); ok {
		t.Fatal("expected decryption to fail under the wrong IVK")
	}
}

func TestBatchIsDeterministicRegardlessOfOrder(t *testing.T) {
	var ivk [32]byte
	ivk[0] = 1
	epk := []byte("epk")

	blocks := make([]walletrpc.CompactBlock, 3)
	for h := 0; h < 3; h++ {
		var div types.Diversifier
		div[0] = byte(h)
		var rseed [32]byte
		out := buildSaplingOutput(ivk, epk, div, uint64(1000*(h+1)), rseed)
		blocks[h] = walletrpc.CompactBlock{
			Height: uint64(h),
			Txs: []walletrpc.CompactTx{
				{Index: 0, SaplingOutputs: []walletrpc.CompactSaplingOutput{out}},
			},
		}
	}

	ctx := context.Background()
	a, err := Batch(ctx, blocks, IVKs{Sapling: ivk}, 1)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	b, err := Batch(ctx, blocks, IVKs{Sapling: ivk}, 4)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("expected 3 notes each, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Height != b[i].Height || a[i].Value != b[i].Value {
			t.Fatalf("batch results differ by concurrency level at index %d: %+v vs %+v", i, a[i], b[i])
		}
	}
	for i := 1; i < len(a); i++ {
		if a[i].Height < a[i-1].Height {
			t.Fatal("notes not sorted by height")
		}
	}
}
