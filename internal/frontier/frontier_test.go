package frontier

import (
	"testing"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

func leafHash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func TestAppendAdvancesRootAndSize(t *testing.T) {
	tr := New(types.PoolSapling, NewMemoryStore())
	if tr.Size() != 0 {
		t.Fatalf("expected empty tree, got size %d", tr.Size())
	}
	emptyRootVal := tr.Root()

	pos, err := tr.Append(leafHash(1))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if pos != 0 {
		t.Fatalf("expected position 0, got %d", pos)
	}
	if tr.Size() != 1 {
		t.Fatalf("expected size 1, got %d", tr.Size())
	}
	if tr.Root() == emptyRootVal {
		t.Fatal("root did not change after appending a leaf")
	}
}

func TestWitnessRoundTrip(t *testing.T) {
	tr := New(types.PoolOrchard, NewMemoryStore())

	var positions []uint64
	for i := byte(0); i < 8; i++ {
		pos, err := tr.Append(leafHash(i))
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		positions = append(positions, pos)
	}
	tr.Mark(positions[3])

	path, err := tr.Witness(positions[3])
	if err != nil {
		t.Fatalf("Witness: %v", err)
	}
	if !VerifyPath(leafHash(3), path, tr.Root()) {
		t.Fatal("witness failed to verify against current root")
	}
}

func TestWitnessUnmarkedPositionFails(t *testing.T) {
	tr := New(types.PoolSapling, NewMemoryStore())
	pos, _ := tr.Append(leafHash(1))
	if _, err := tr.Witness(pos); err != ErrPositionNotFound {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestCheckpointRewind(t *testing.T) {
	tr := New(types.PoolSapling, NewMemoryStore())
	for i := byte(0); i < 3; i++ {
		tr.Append(leafHash(i))
	}
	tr.Checkpoint(100)
	rootAt100 := tr.Root()

	for i := byte(3); i < 6; i++ {
		tr.Append(leafHash(i))
	}
	if tr.Root() == rootAt100 {
		t.Fatal("root should differ after appending more leaves")
	}

	if err := tr.RewindTo(100); err != nil {
		t.Fatalf("RewindTo: %v", err)
	}
	if tr.Size() != 3 {
		t.Fatalf("expected size 3 after rewind, got %d", tr.Size())
	}
	if tr.Root() != rootAt100 {
		t.Fatal("root did not match checkpoint after rewind")
	}
}

func TestRewindUnmarksTruncatedPositions(t *testing.T) {
	tr := New(types.PoolSapling, NewMemoryStore())
	for i := byte(0); i < 3; i++ {
		tr.Append(leafHash(i))
	}
	tr.Checkpoint(10)
	pos, _ := tr.Append(leafHash(9))
	tr.Mark(pos)

	if err := tr.RewindTo(10); err != nil {
		t.Fatalf("RewindTo: %v", err)
	}
	if tr.IsMarked(pos) {
		t.Fatal("position beyond rewound size should be unmarked")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := NewWalletFrontier()
	for i := byte(0); i < 5; i++ {
		if _, err := w.Sapling.Append(leafHash(i)); err != nil {
			t.Fatalf("Append sapling: %v", err)
		}
	}
	for i := byte(0); i < 2; i++ {
		if _, err := w.Orchard.Append(leafHash(i + 100)); err != nil {
			t.Fatalf("Append orchard: %v", err)
		}
	}

	data := w.Serialize()
	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if restored.Sapling.Root() != w.Sapling.Root() {
		t.Fatal("sapling root mismatch after snapshot round trip")
	}
	if restored.Orchard.Root() != w.Orchard.Root() {
		t.Fatal("orchard root mismatch after snapshot round trip")
	}
	if restored.Sapling.Size() != 5 || restored.Orchard.Size() != 2 {
		t.Fatal("leaf counts mismatch after snapshot round trip")
	}
}

func TestDeserializeLegacyBlobYieldsEmptyOrchard(t *testing.T) {
	w := NewWalletFrontier()
	for i := byte(0); i < 4; i++ {
		w.Sapling.Append(leafHash(i))
	}
	legacy := serializeTree(w.Sapling)

	restored, err := Deserialize(legacy)
	if err != nil {
		t.Fatalf("Deserialize legacy: %v", err)
	}
	if restored.Sapling.Root() != w.Sapling.Root() {
		t.Fatal("legacy sapling root mismatch")
	}
	if restored.Orchard.Size() != 0 {
		t.Fatal("legacy blob should yield an empty orchard frontier")
	}
}
