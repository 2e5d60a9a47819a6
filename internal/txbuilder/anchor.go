package txbuilder

import (
	"sort"

	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// anchorGroup is every selectable note sharing one recorded anchor (spec
// §4.6 step 3): Sapling notes group by the anchor captured at witness
// creation, Orchard notes by their per-note anchor field.
type anchorGroup struct {
	anchor types.Hash
	notes  []*notestore.Note
	total  uint64
}

// groupByAnchor partitions notes by their Anchor field, sorted by ascending
// total value so the smallest-covering-group search below is a simple
// linear scan.
func groupByAnchor(notes []*notestore.Note) []anchorGroup {
	byAnchor := make(map[types.Hash]*anchorGroup)
	var order []types.Hash
	for _, n := range notes {
		g, ok := byAnchor[n.Anchor]
		if !ok {
			g = &anchorGroup{anchor: n.Anchor}
			byAnchor[n.Anchor] = g
			order = append(order, n.Anchor)
		}
		g.notes = append(g.notes, n)
		g.total += n.Value
	}
	groups := make([]anchorGroup, 0, len(order))
	for _, a := range order {
		groups = append(groups, *byAnchor[a])
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].total < groups[j].total })
	return groups
}

// selectGroupForAmount implements spec §4.6 step 3's group choice: the
// smallest same-anchor group whose total covers amount, or, failing that,
// the richest group available (a forced partial selection). Returns ok=false
// only when there are no groups at all.
func selectGroupForAmount(groups []anchorGroup, amount uint64) (group anchorGroup, partial bool, ok bool) {
	if len(groups) == 0 {
		return anchorGroup{}, false, false
	}
	for _, g := range groups {
		if g.total >= amount {
			return g, false, true
		}
	}
	// groups is sorted ascending by total, so the last entry is richest.
	return groups[len(groups)-1], true, true
}
