// Package txbuilder implements spec §4.6: selecting notes, enforcing
// anchor alignment, computing fees, adding change, and invoking the prover
// oracle to produce a signed transaction. It is adapted from the shape of
// internal/zkp/transaction.go's TransactionBuilder (input/output lists,
// value-conservation check, then a call out to proof generation) but
// generalized to two pools and real note selection instead of
// take-everything-the-caller-added.
package txbuilder

import (
	"context"

	"github.com/piratenetwork/lightwallet-core/internal/frontier"
	"github.com/piratenetwork/lightwallet-core/internal/keys"
	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/internal/prover"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// maxRecomputeIterations bounds the fee-recompute loop (spec §4.6 step 5).
const maxRecomputeIterations = 2

// SpendSource is one key group's contribution of candidate notes: its own
// account id, its key material, whether it is the account's seed-derived
// group (spec §4.6 step 6's change-sink preference), and the store to load
// its unspent notes from.
type SpendSource struct {
	AccountID   types.AccountID
	Keys        *keys.AccountKeys
	SeedDerived bool
	Store       NoteStore
}

// Builder accumulates outputs and builds one transaction against a set of
// spend sources.
type Builder struct {
	outputs     []Output
	feeSchedule FeeSchedule
	strategy    Strategy
	oracle      prover.Oracle
}

// New creates a Builder that will invoke oracle to produce the final signed
// transaction. The default fee schedule and SmallestFirst selection
// strategy apply unless overridden.
func New(oracle prover.Oracle) *Builder {
	return &Builder{
		feeSchedule: DefaultFeeSchedule(),
		strategy:    SmallestFirst,
		oracle:      oracle,
	}
}

// AddOutput validates and queues one payment.
func (b *Builder) AddOutput(o Output) error {
	if err := o.validate(); err != nil {
		return err
	}
	b.outputs = append(b.outputs, o)
	return nil
}

// SetFeeSchedule overrides the default fixed fee schedule.
func (b *Builder) SetFeeSchedule(fs FeeSchedule) { b.feeSchedule = fs }

// SetStrategy overrides the default SmallestFirst note selection order.
func (b *Builder) SetStrategy(s Strategy) { b.strategy = s }

// Result is returned to the caller; the builder never broadcasts (spec
// §4.6 step 9).
type Result struct {
	TxID     types.Hash
	RawBytes []byte
	Size     int
}

type taggedNote struct {
	note   *notestore.Note
	source int
}

// Build runs spec §4.6's algorithm end to end against the given spend
// sources, directing change above DustThreshold to the address at
// changeIndex derived from the chosen key group's pool keys. No separate
// internal-scope key is derived: the change address comes from the same
// keys as externally shared addresses.
func (b *Builder) Build(ctx context.Context, sources []SpendSource, changeIndex keys.DiversifierIndex) (*Result, error) {
	if len(b.outputs) == 0 {
		return nil, ErrNoOutputs
	}
	for _, src := range sources {
		if src.Keys == nil || (src.Keys.Sapling.SpendingKey == nil && src.Keys.Orchard.SpendingKey == nil) {
			return nil, ErrInvalidKey
		}
	}

	var outputSum uint64
	for _, o := range b.outputs {
		outputSum += o.Value
	}

	candidates, err := loadCandidates(ctx, sources)
	if err != nil {
		return nil, err
	}

	required := outputSum + b.feeSchedule.Compute(0, len(b.outputs)+1)

	var selectedSapling, selectedOrchard []taggedNote
	var saplingAnchor, orchardAnchor types.Hash
	var spendTotal uint64

	for iter := 0; iter < maxRecomputeIterations; iter++ {
		saplingShare, orchardShare := allocateShares(required, poolTotal(candidates, types.PoolSapling), poolTotal(candidates, types.PoolOrchard))

		selectedSapling, saplingAnchor, err = pickPool(candidates, types.PoolSapling, saplingShare, b.strategy)
		if err != nil {
			return nil, err
		}
		selectedOrchard, orchardAnchor, err = pickPool(candidates, types.PoolOrchard, orchardShare, b.strategy)
		if err != nil {
			return nil, err
		}

		spendTotal = sumTagged(selectedSapling) + sumTagged(selectedOrchard)
		spends := len(selectedSapling) + len(selectedOrchard)

		fee := b.feeSchedule.Compute(spends, len(b.outputs)+1)
		newRequired := outputSum + fee

		if spendTotal >= newRequired {
			required = newRequired
			break
		}
		if iter == maxRecomputeIterations-1 {
			return nil, ErrInsufficientFunds
		}
		required = newRequired
	}

	change := spendTotal - required
	allSpends := append(append([]taggedNote{}, selectedSapling...), selectedOrchard...)

	changeSource := chooseChangeSource(sources, allSpends)

	req := &prover.Request{
		SaplingAnchor: saplingAnchor,
		OrchardAnchor: orchardAnchor,
		Fee:           required - outputSum,
	}

	for _, o := range b.outputs {
		req.Outputs = append(req.Outputs, prover.OutputInput{
			Pool:        o.Pool,
			Value:       o.Value,
			Diversifier: o.Recipient.Diversifier,
			Pkd:         o.Recipient.Pkd,
			Memo:        memoFrom(o.Memo),
		})
	}

	if change > DustThreshold && changeSource != nil {
		changePool := types.PoolSapling
		if len(selectedOrchard) > 0 {
			changePool = types.PoolOrchard
		}
		pk := &changeSource.Keys.Sapling
		if changePool == types.PoolOrchard {
			pk = &changeSource.Keys.Orchard
		}
		addr := keys.DeriveAddress(pk, changeIndex)
		req.Outputs = append(req.Outputs, prover.OutputInput{
			Pool:        changePool,
			Value:       change,
			Diversifier: addr.Diversifier,
			Pkd:         addr.Pkd,
		})
	}

	for _, tn := range allSpends {
		src := sources[tn.source]
		pk := &src.Keys.Sapling
		if tn.note.Pool == types.PoolOrchard {
			pk = &src.Keys.Orchard
		}
		path, err := frontier.DecodePath(tn.note.WitnessPath)
		if err != nil {
			return nil, err
		}
		req.Spends = append(req.Spends, prover.SpendInput{
			Pool:         tn.note.Pool,
			SpendingKey:  pk.SpendingKey,
			Value:        tn.note.Value,
			Diversifier:  tn.note.Diversifier,
			SeedMaterial: tn.note.SeedMaterial,
			Position:     tn.note.Position,
			Path:         path,
			Nullifier:    tn.note.Nullifier,
		})
	}

	res, err := b.oracle.ProveTransaction(ctx, req)
	if err != nil {
		return nil, ErrTransactionBuild
	}

	return &Result{TxID: res.TxID, RawBytes: res.RawBytes, Size: len(res.RawBytes)}, nil
}

func loadCandidates(ctx context.Context, sources []SpendSource) ([]taggedNote, error) {
	var out []taggedNote
	for i, src := range sources {
		notes, err := src.Store.GetUnspentNotes(ctx, src.AccountID)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if !selectable(n) {
				continue
			}
			out = append(out, taggedNote{note: n, source: i})
		}
	}
	return out, nil
}

func poolTotal(candidates []taggedNote, pool types.Pool) uint64 {
	var total uint64
	for _, tn := range candidates {
		if tn.note.Pool == pool {
			total += tn.note.Value
		}
	}
	return total
}

// allocateShares splits required between the two pools. Orchard is tried
// first (it is the preferred pool when both are available, matching the
// change-pool preference of step 6): whatever it cannot cover falls to
// Sapling. This is a concrete reading of spec §4.6 step 3's "pool's share
// of required", which does not otherwise pin how a mixed-pool payment
// splits across pools.
func allocateShares(required, saplingAvailable, orchardAvailable uint64) (saplingShare, orchardShare uint64) {
	if orchardAvailable >= required {
		return 0, required
	}
	orchardShare = orchardAvailable
	remaining := required - orchardShare
	return remaining, orchardShare
}

// pickPool performs anchor-alignment and selection for one pool's share
// (spec §4.6 steps 3-4). A zero share is a no-op.
func pickPool(candidates []taggedNote, pool types.Pool, share uint64, strategy Strategy) ([]taggedNote, types.Hash, error) {
	if share == 0 {
		return nil, types.Hash{}, nil
	}
	var notes []*notestore.Note
	tagOf := make(map[*notestore.Note]int)
	for _, tn := range candidates {
		if tn.note.Pool == pool {
			notes = append(notes, tn.note)
			tagOf[tn.note] = tn.source
		}
	}
	groups := groupByAnchor(notes)
	group, partial, ok := selectGroupForAmount(groups, share)
	if !ok {
		return nil, types.Hash{}, ErrAnchorUnavailable
	}

	var chosen []*notestore.Note
	if partial {
		chosen = group.notes
	} else {
		sel, _, err := selectNotes(group.notes, strategy, share)
		if err != nil {
			return nil, types.Hash{}, err
		}
		chosen = sel
	}

	out := make([]taggedNote, len(chosen))
	for i, n := range chosen {
		out[i] = taggedNote{note: n, source: tagOf[n]}
	}
	return out, group.anchor, nil
}

func sumTagged(notes []taggedNote) uint64 {
	var total uint64
	for _, tn := range notes {
		total += tn.note.Value
	}
	return total
}

// chooseChangeSource implements spec §4.6 step 6: prefer the seed-derived
// key group among those that actually contributed a spend; otherwise the
// group contributing the largest spend value.
func chooseChangeSource(sources []SpendSource, spends []taggedNote) *SpendSource {
	contributed := make(map[int]uint64)
	for _, tn := range spends {
		contributed[tn.source] += tn.note.Value
	}
	if len(contributed) == 0 {
		if len(sources) == 0 {
			return nil
		}
		return &sources[0]
	}
	for idx := range contributed {
		if sources[idx].SeedDerived {
			return &sources[idx]
		}
	}
	best, bestValue := -1, uint64(0)
	for idx, v := range contributed {
		if v > bestValue {
			best, bestValue = idx, v
		}
	}
	return &sources[best]
}

func memoFrom(raw []byte) types.Memo {
	m, _ := types.NewMemo(raw)
	return m
}
