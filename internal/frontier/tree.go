// Package frontier implements the incremental commitment-tree frontier
// each note pool keeps: an append-only Merkle tree that exposes witnesses
// for marked leaves and supports checkpoint/rewind across reorgs. It is
// adapted from the commitment accumulator in internal/zkp/merkle.go,
// generalized with the mark/checkpoint/rewind operations a bridge-tree
// style frontier needs but a plain append-only accumulator does not.
package frontier

import (
	"crypto/sha256"
	"sync"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// Depth is the fixed depth of both pools' commitment trees.
const Depth = 32

// Store persists tree nodes for a Tree. MemoryStore is the only
// implementation in this module.
type Store interface {
	GetNode(level, index uint64) (types.Hash, bool)
	SetNode(level, index uint64, hash types.Hash)
}

// Path is the authentication path from a leaf to the root.
type Path struct {
	Siblings []types.Hash
	PathBits []bool
	Position uint64
}

// checkpoint records the tree size and root at the moment a block finished
// processing, so a later reorg can be rewound to it.
type checkpoint struct {
	height uint64
	size   uint64
	root   types.Hash
}

// Tree is one pool's incremental commitment-tree frontier.
type Tree struct {
	mu sync.RWMutex

	pool  types.Pool
	store Store

	size uint64
	root types.Hash

	// marked holds the leaf positions whose witnesses the wallet needs to
	// keep current, i.e. positions owning an unspent note. Per
	// SPEC_FULL.md §14 open-question decision 2, marks are never evicted.
	marked map[uint64]struct{}

	checkpoints []checkpoint
}

// New creates an empty frontier for one pool.
func New(pool types.Pool, store Store) *Tree {
	return &Tree{
		pool:   pool,
		store:  store,
		marked: make(map[uint64]struct{}),
	}
}

// Root returns the current Merkle root.
func (t *Tree) Root() types.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.size == 0 {
		return emptyRoot()
	}
	return t.root
}

// Size returns the number of leaves appended so far.
func (t *Tree) Size() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Append adds a new commitment to the tree, returning its leaf position.
func (t *Tree) Append(commitment types.Hash) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.size >= uint64(1)<<Depth {
		return 0, ErrTreeFull
	}

	position := t.size
	t.size++
	t.store.SetNode(0, position, commitment)

	current := commitment
	index := position
	for level := 0; level < Depth; level++ {
		siblingIndex := index ^ 1
		sibling, ok := t.store.GetNode(uint64(level), siblingIndex)
		if !ok {
			sibling = emptyHash(level)
		}

		var parent types.Hash
		if index%2 == 0 {
			parent = hashPair(current, sibling)
		} else {
			parent = hashPair(sibling, current)
		}

		index /= 2
		current = parent
		t.store.SetNode(uint64(level+1), index, current)
	}

	t.root = current
	return position, nil
}

// Mark flags a leaf position as one the wallet needs a witness for, i.e.
// the position of a note the wallet now owns.
func (t *Tree) Mark(position uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marked[position] = struct{}{}
}

// Unmark drops a position from the witnessed set, e.g. once its note has
// been spent and the spend has been confirmed past the reorg window. Not
// currently called by any SPEC_FULL.md operation (mark release policy is
// retain-indefinitely, see DESIGN.md); kept so a future eviction policy has
// somewhere to call into.
func (t *Tree) Unmark(position uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.marked, position)
}

// IsMarked reports whether a position currently has a live witness.
func (t *Tree) IsMarked(position uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.marked[position]
	return ok
}

// Witness computes the authentication path for a marked leaf at the
// current tree size.
func (t *Tree) Witness(position uint64) (*Path, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if position >= t.size {
		return nil, ErrInvalidPosition
	}
	if _, ok := t.marked[position]; !ok {
		return nil, ErrPositionNotFound
	}

	siblings := make([]types.Hash, Depth)
	bits := make([]bool, Depth)

	index := position
	for level := 0; level < Depth; level++ {
		siblingIndex := index ^ 1
		sibling, ok := t.store.GetNode(uint64(level), siblingIndex)
		if !ok {
			sibling = emptyHash(level)
		}
		siblings[level] = sibling
		bits[level] = index%2 == 1
		index /= 2
	}

	return &Path{Siblings: siblings, PathBits: bits, Position: position}, nil
}

// VerifyPath checks that a leaf and its path hash up to the given root.
func VerifyPath(leaf types.Hash, path *Path, root types.Hash) bool {
	if len(path.Siblings) != Depth || len(path.PathBits) != Depth {
		return false
	}
	current := leaf
	for i := 0; i < Depth; i++ {
		if path.PathBits[i] {
			current = hashPair(path.Siblings[i], current)
		} else {
			current = hashPair(current, path.Siblings[i])
		}
	}
	return current == root
}

// Checkpoint records the tree's current size and root under a block
// height, so a later reorg can roll back to it.
func (t *Tree) Checkpoint(height uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkpoints = append(t.checkpoints, checkpoint{
		height: height,
		size:   t.size,
		root:   t.root,
	})
}

// RewindTo truncates the tree back to the checkpoint recorded for height,
// dropping every leaf appended after it. Positions marked beyond the
// rewound size are unmarked, since the notes they referred to no longer
// exist on the rolled-back chain.
func (t *Tree) RewindTo(height uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := -1
	for i := len(t.checkpoints) - 1; i >= 0; i-- {
		if t.checkpoints[i].height == height {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrCheckpointNotFound
	}

	cp := t.checkpoints[idx]
	// Reset nodes covering only dropped leaves and rehash the ancestors of
	// the last kept leaf, so the store holds no trace of the dropped leaves.
	for level := 0; level < Depth && t.size > cp.size; level++ {
		empty := emptyHash(level)
		for i := (cp.size + 1<<level - 1) >> level; i <= ((t.size-1)>>level)|1; i++ {
			t.store.SetNode(uint64(level), i, empty)
		}
		if cp.size > 0 {
			k := (cp.size - 1) >> (level + 1)
			left, _ := t.store.GetNode(uint64(level), 2*k)
			right, _ := t.store.GetNode(uint64(level), 2*k+1)
			t.store.SetNode(uint64(level+1), k, hashPair(left, right))
		}
	}
	t.size = cp.size
	t.root = cp.root
	t.checkpoints = t.checkpoints[:idx+1]

	for pos := range t.marked {
		if pos >= t.size {
			delete(t.marked, pos)
		}
	}
	return nil
}

func emptyHash(level int) types.Hash {
	if level == 0 {
		return types.EmptyHash
	}
	child := emptyHash(level - 1)
	return hashPair(child, child)
}

func emptyRoot() types.Hash {
	return emptyHash(Depth)
}

func hashPair(left, right types.Hash) types.Hash {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// MemoryStore is a simple map-backed Store. Nodes live only in memory; the
// frontier is persisted through Serialize snapshots, not node by node.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[uint64]map[uint64]types.Hash
}

// NewMemoryStore creates an empty in-memory tree node store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[uint64]map[uint64]types.Hash)}
}

func (s *MemoryStore) GetNode(level, index uint64) (types.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lvl, ok := s.nodes[level]
	if !ok {
		return types.EmptyHash, false
	}
	h, ok := lvl[index]
	return h, ok
}

func (s *MemoryStore) SetNode(level, index uint64, hash types.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nodes[level] == nil {
		s.nodes[level] = make(map[uint64]types.Hash)
	}
	s.nodes[level][index] = hash
}
