package txbuilder

import (
	"context"
	"testing"

	"github.com/piratenetwork/lightwallet-core/internal/frontier"
	"github.com/piratenetwork/lightwallet-core/internal/keys"
	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/internal/prover"
	"github.com/piratenetwork/lightwallet-core/pkg/pirnet"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

type fakeStore struct {
	notes []*notestore.Note
}

func (f *fakeStore) GetUnspentNotes(ctx context.Context, accountID types.AccountID) ([]*notestore.Note, error) {
	var out []*notestore.Note
	for _, n := range f.notes {
		if n.AccountID == accountID {
			out = append(out, n)
		}
	}
	return out, nil
}

func encodedPath(pos uint64) []byte {
	p := &frontier.Path{
		Position: pos,
		Siblings: make([]types.Hash, frontier.Depth),
		PathBits: make([]bool, frontier.Depth),
	}
	return frontier.EncodePath(p)
}

func makeNote(pool types.Pool, value uint64, anchor types.Hash, pos uint64) *notestore.Note {
	return &notestore.Note{
		AccountID:    1,
		Pool:         pool,
		Value:        value,
		SeedMaterial: [32]byte{1},
		Anchor:       anchor,
		WitnessPath:  encodedPath(pos),
		Position:     pos,
	}
}

func TestSelectNotesSmallestFirst(t *testing.T) {
	notes := []*notestore.Note{
		makeNote(types.PoolSapling, 500_000, types.Hash{1}, 0),
		makeNote(types.PoolSapling, 100_000, types.Hash{1}, 1),
		makeNote(types.PoolSapling, 250_000, types.Hash{1}, 2),
	}
	selected, total, err := selectNotes(notes, SmallestFirst, 300_000)
	if err != nil {
		t.Fatalf("selectNotes: %v", err)
	}
	if total < 300_000 {
		t.Fatalf("expected total >= 300000, got %d", total)
	}
	if len(selected) != 2 || selected[0].Value != 100_000 || selected[1].Value != 250_000 {
		t.Fatalf("expected [100000, 250000] selected smallest first, got %+v", selected)
	}
}

func TestSelectNotesInsufficientFunds(t *testing.T) {
	notes := []*notestore.Note{makeNote(types.PoolSapling, 100_000, types.Hash{1}, 0)}
	if _, _, err := selectNotes(notes, SmallestFirst, 1_000_000); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestGroupByAnchorPartitions(t *testing.T) {
	notes := []*notestore.Note{
		makeNote(types.PoolSapling, 100_000, types.Hash{1}, 0),
		makeNote(types.PoolSapling, 200_000, types.Hash{2}, 1),
		makeNote(types.PoolSapling, 50_000, types.Hash{2}, 2),
	}
	groups := groupByAnchor(notes)
	if len(groups) != 2 {
		t.Fatalf("expected 2 anchor groups, got %d", len(groups))
	}
	// sorted ascending by total: anchor{1}=100k, anchor{2}=250k
	if groups[0].total != 100_000 || groups[1].total != 250_000 {
		t.Fatalf("unexpected group totals: %+v", groups)
	}
}

func TestSelectGroupForAmountPrefersCoveringGroup(t *testing.T) {
	groups := []anchorGroup{
		{anchor: types.Hash{1}, total: 100_000},
		{anchor: types.Hash{2}, total: 400_000},
	}
	g, partial, ok := selectGroupForAmount(groups, 300_000)
	if !ok || partial {
		t.Fatalf("expected a covering, non-partial group")
	}
	if g.anchor != (types.Hash{2}) {
		t.Fatalf("expected the 400k group chosen, got %+v", g)
	}
}

func TestSelectGroupForAmountFallsBackToRichest(t *testing.T) {
	groups := []anchorGroup{
		{anchor: types.Hash{1}, total: 100_000},
		{anchor: types.Hash{2}, total: 200_000},
	}
	g, partial, ok := selectGroupForAmount(groups, 1_000_000)
	if !ok || !partial {
		t.Fatalf("expected a partial fallback group")
	}
	if g.anchor != (types.Hash{2}) {
		t.Fatalf("expected richest group chosen, got %+v", g)
	}
}

func TestFeeScheduleFixed(t *testing.T) {
	fs := Fixed{Base: 5000, PerExtraAction: 5000}
	if fs.Compute(1, 1) != 5000 {
		t.Fatalf("expected base fee for 2 actions")
	}
	if fs.Compute(2, 2) != 15000 {
		t.Fatalf("expected base + 2*extra for 4 actions, got %d", fs.Compute(2, 2))
	}
}

func accountKeysWithSapling(account types.AccountID) *keys.AccountKeys {
	ak, err := keys.DeriveAccountKeys(make([]byte, 32), pirnet.Mainnet, account)
	if err != nil {
		panic(err)
	}
	return ak
}

func TestBuildSimpleSaplingPayment(t *testing.T) {
	ak := accountKeysWithSapling(1)
	anchor := types.Hash{9}
	store := &fakeStore{notes: []*notestore.Note{
		makeNote(types.PoolSapling, 100_000, anchor, 0),
		makeNote(types.PoolSapling, 500_000, anchor, 1),
	}}

	b := New(prover.SimulatedOracle{})
	recipient := keys.DeriveAddress(&ak.Sapling, 7)
	if err := b.AddOutput(Output{Pool: types.PoolSapling, Recipient: recipient, Value: 50_000}); err != nil {
		t.Fatalf("AddOutput: %v", err)
	}

	sources := []SpendSource{{AccountID: 1, Keys: ak, SeedDerived: true, Store: store}}
	res, err := b.Build(context.Background(), sources, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.TxID.IsZero() {
		t.Fatal("expected non-zero txid")
	}
	if res.Size == 0 {
		t.Fatal("expected non-empty raw bytes")
	}
}

func TestBuildFailsWithNoOutputs(t *testing.T) {
	b := New(prover.SimulatedOracle{})
	if _, err := b.Build(context.Background(), nil, 0); err != ErrNoOutputs {
		t.Fatalf("expected ErrNoOutputs, got %v", err)
	}
}

func TestAddOutputRejectsOversizedMemo(t *testing.T) {
	b := New(prover.SimulatedOracle{})
	err := b.AddOutput(Output{Pool: types.PoolSapling, Value: 1, Memo: make([]byte, types.MemoSize+1)})
	if err != ErrMemoTooLong {
		t.Fatalf("expected ErrMemoTooLong, got %v", err)
	}
}
