package txbuilder

import (
	"context"

	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// NoteStore is the subset of notestore.Store the builder needs. Candidates
// are loaded via GetUnspentNotes rather than GetUnspentSelectableNotes
// because the builder also needs the full seed material and commitment to
// hand the prover oracle a spend witness, not just the selection fields.
type NoteStore interface {
	GetUnspentNotes(ctx context.Context, accountID types.AccountID) ([]*notestore.Note, error)
}

// selectable mirrors notestore's own eligibility bar (spec §4.5
// get_unspent_selectable_notes): a non-empty witness path, non-zero seed
// material, and, for Orchard, a non-null anchor.
func selectable(n *notestore.Note) bool {
	if len(n.WitnessPath) == 0 {
		return false
	}
	if n.SeedMaterial == ([32]byte{}) {
		return false
	}
	if n.Pool == types.PoolOrchard && n.Anchor.IsZero() {
		return false
	}
	return true
}
