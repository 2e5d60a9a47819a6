package txbuilder

import (
	"sort"

	"github.com/piratenetwork/lightwallet-core/internal/notestore"
)

// Strategy selects the order candidate notes are offered to the greedy
// selector in. SmallestFirst is the spec's default (privacy: minimizes
// change); the rest are supplemented from original_source's selection.rs.
type Strategy uint8

const (
	SmallestFirst Strategy = iota
	FirstFit
	LargestFirst
	OldestFirst
)

func sortCandidates(notes []*notestore.Note, strategy Strategy) {
	switch strategy {
	case FirstFit:
		// already in whatever order the caller supplied; no sort.
	case LargestFirst:
		sort.SliceStable(notes, func(i, j int) bool { return notes[i].Value > notes[j].Value })
	case OldestFirst:
		sort.SliceStable(notes, func(i, j int) bool { return notes[i].Height < notes[j].Height })
	default: // SmallestFirst
		sort.SliceStable(notes, func(i, j int) bool { return notes[i].Value < notes[j].Value })
	}
}

// selectNotes greedily accumulates notes (pre-sorted by strategy) until the
// running total reaches target, spec §4.6 step 4. Fails with
// ErrInsufficientFunds if the full candidate set can't cover it.
func selectNotes(candidates []*notestore.Note, strategy Strategy, target uint64) ([]*notestore.Note, uint64, error) {
	pool := make([]*notestore.Note, len(candidates))
	copy(pool, candidates)
	sortCandidates(pool, strategy)

	var selected []*notestore.Note
	var total uint64
	for _, n := range pool {
		if total >= target {
			break
		}
		selected = append(selected, n)
		total += n.Value
	}
	if total < target {
		return nil, 0, ErrInsufficientFunds
	}
	return selected, total, nil
}
