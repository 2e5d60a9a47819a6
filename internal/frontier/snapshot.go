package frontier

import (
	"encoding/binary"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// snapshotMagic identifies a dual-pool frontier snapshot (spec §4.2/§6).
// A buffer without this magic is a legacy bare Sapling frontier blob.
var snapshotMagic = [4]byte{'P', 'F', 'S', '1'}

const snapshotVersion = 1

// WalletFrontier bundles both pools' trees behind the operations the sync
// engine and note store actually need: one append/witness/checkpoint
// surface per pool, plus a combined serialized snapshot.
type WalletFrontier struct {
	Sapling *Tree
	Orchard *Tree
}

// NewWalletFrontier builds a fresh, empty frontier pair.
func NewWalletFrontier() *WalletFrontier {
	return &WalletFrontier{
		Sapling: New(types.PoolSapling, NewMemoryStore()),
		Orchard: New(types.PoolOrchard, NewMemoryStore()),
	}
}

// Tree returns the tree for the given pool.
func (w *WalletFrontier) Tree(pool types.Pool) *Tree {
	if pool == types.PoolOrchard {
		return w.Orchard
	}
	return w.Sapling
}

// Serialize encodes both pools' frontier state into the §6 snapshot wire
// format: magic, version, then each pool's leaf list length-prefixed.
// Only committed leaves are persisted. Marks and checkpoints are not
// written, and Deserialize does not rebuild them: a restored tree starts
// with no marked positions and no checkpoints.
func (w *WalletFrontier) Serialize() []byte {
	sap := serializeTree(w.Sapling)
	orc := serializeTree(w.Orchard)

	out := make([]byte, 0, 4+1+4+len(sap)+4+len(orc))
	out = append(out, snapshotMagic[:]...)
	out = append(out, byte(snapshotVersion))
	out = appendUint32Prefixed(out, sap)
	out = appendUint32Prefixed(out, orc)
	return out
}

// Deserialize parses a snapshot written by Serialize, or a legacy
// bare-Sapling blob (spec §6: "legacy (no magic) = bare Sapling frontier
// with empty Orchard component").
func Deserialize(data []byte) (*WalletFrontier, error) {
	if len(data) >= 4 && [4]byte{data[0], data[1], data[2], data[3]} == snapshotMagic {
		return deserializeTagged(data[4:])
	}
	return deserializeLegacy(data)
}

func deserializeTagged(data []byte) (*WalletFrontier, error) {
	if len(data) < 1 {
		return nil, ErrCorruptSnapshot
	}
	version := data[0]
	if version != snapshotVersion {
		return nil, ErrUnsupportedVersion
	}
	rest := data[1:]

	sapBytes, rest, err := readUint32Prefixed(rest)
	if err != nil {
		return nil, err
	}
	orcBytes, _, err := readUint32Prefixed(rest)
	if err != nil {
		return nil, err
	}

	sap, err := deserializeTree(types.PoolSapling, sapBytes)
	if err != nil {
		return nil, err
	}
	orc, err := deserializeTree(types.PoolOrchard, orcBytes)
	if err != nil {
		return nil, err
	}
	return &WalletFrontier{Sapling: sap, Orchard: orc}, nil
}

func deserializeLegacy(data []byte) (*WalletFrontier, error) {
	sap, err := deserializeTree(types.PoolSapling, data)
	if err != nil {
		return nil, err
	}
	return &WalletFrontier{
		Sapling: sap,
		Orchard: New(types.PoolOrchard, NewMemoryStore()),
	}, nil
}

func serializeTree(t *Tree) []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]byte, 8, 8+int(t.size)*types.HashSize)
	binary.LittleEndian.PutUint64(out, t.size)
	for i := uint64(0); i < t.size; i++ {
		leaf, ok := t.store.GetNode(0, i)
		if !ok {
			leaf = types.EmptyHash
		}
		out = append(out, leaf[:]...)
	}
	return out
}

func deserializeTree(pool types.Pool, data []byte) (*Tree, error) {
	if len(data) < 8 {
		return nil, ErrCorruptSnapshot
	}
	size := binary.LittleEndian.Uint64(data[:8])
	leaves := data[8:]
	if uint64(len(leaves)) != size*types.HashSize {
		return nil, ErrCorruptSnapshot
	}

	store := NewMemoryStore()
	tr := New(pool, store)
	for i := uint64(0); i < size; i++ {
		var leaf types.Hash
		copy(leaf[:], leaves[i*types.HashSize:(i+1)*types.HashSize])
		if _, err := tr.Append(leaf); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

func appendUint32Prefixed(dst, payload []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, payload...)
	return dst
}

func readUint32Prefixed(data []byte) (payload, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, ErrCorruptSnapshot
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return nil, nil, ErrCorruptSnapshot
	}
	return data[:n], data[n:], nil
}
