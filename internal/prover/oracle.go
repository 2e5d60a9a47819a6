package prover

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/consensys/gnark/frontend"

	"github.com/piratenetwork/lightwallet-core/internal/frontier"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// SpendInput is one plain-Go shielded spend handed to the oracle; the
// oracle (or BuildWitness, for an in-process implementation) lifts this
// into a SpendWitness.
type SpendInput struct {
	Pool         types.Pool
	SpendingKey  []byte
	Value        uint64
	Diversifier  types.Diversifier
	SeedMaterial [32]byte
	Position     uint64
	Path         *frontier.Path
	Nullifier    types.Hash
}

// OutputInput is one plain-Go shielded output handed to the oracle.
type OutputInput struct {
	Pool        types.Pool
	Value       uint64
	Diversifier types.Diversifier
	Pkd         [32]byte
	Memo        types.Memo
}

// Request is the full plain-Go transaction request the transaction builder
// assembles and hands to an Oracle (spec §4.6 step 8, "invoke the prover
// oracle").
type Request struct {
	SaplingAnchor types.Hash
	OrchardAnchor types.Hash
	Spends        []SpendInput
	Outputs       []OutputInput
	Fee           uint64
}

// Result is what the oracle returns: the signed, serialized transaction and
// its canonical txid (spec §4.6 step 9).
type Result struct {
	TxID     types.Hash
	RawBytes []byte
}

// Oracle produces a proved, signed transaction from a Request. Real
// deployments point this at an external prover service; this wallet core
// never runs Setup/Prove itself.
type Oracle interface {
	ProveTransaction(ctx context.Context, req *Request) (*Result, error)
}

// BuildWitness lifts a Request into the gnark-shaped TransactionWitness this
// package documents. It is provided for an in-process Oracle implementation
// (e.g. a test double or a future local-prover backend) and is never called
// by txbuilder directly, which only ever talks to the Oracle interface.
func BuildWitness(req *Request) *TransactionWitness {
	w := &TransactionWitness{
		SaplingAnchor: req.SaplingAnchor,
		OrchardAnchor: req.OrchardAnchor,
		Fee:           req.Fee,
	}
	for _, s := range req.Spends {
		w.Nullifiers = append(w.Nullifiers, s.Nullifier)
		sw := SpendWitness{
			SpendingKey: s.SpendingKey,
			Value:       s.Value,
			Diversifier: s.Diversifier[:],
			Rseed:       s.SeedMaterial[:],
			Position:    s.Position,
		}
		if s.Path != nil {
			for _, sib := range s.Path.Siblings {
				sw.PathSiblings = append(sw.PathSiblings, sib)
			}
			for _, bit := range s.Path.PathBits {
				sw.PathBits = append(sw.PathBits, bit)
			}
		}
		w.Spends = append(w.Spends, sw)
	}
	for _, o := range req.Outputs {
		w.Outputs = append(w.Outputs, OutputWitness{
			Value:       o.Value,
			Diversifier: o.Diversifier[:],
			Pkd:         o.Pkd[:],
			Memo:        memoVariables(o.Memo),
		})
	}
	// Commitments are the circuit's own output of opening each OutputWitness,
	// not an input; an in-process oracle would compute them during Prove,
	// not populate them here.
	return w
}

func memoVariables(m types.Memo) []frontend.Variable {
	// Placeholder shape only; not evaluated since no in-process circuit
	// runs. A real oracle derives its own memo field elements.
	return nil
}

// SimulatedOracle is a development/test Oracle that does not produce a real
// proof. It mirrors the teacher's CircuitManager.GenerateProof placeholder
// ("SIMULATED_PROOF") behavior: it checks value conservation and returns a
// deterministic fixed-size proof blob, useful for exercising txbuilder
// without a live prover service.
type SimulatedOracle struct{}

// ProveTransaction implements Oracle.
func (SimulatedOracle) ProveTransaction(ctx context.Context, req *Request) (*Result, error) {
	var spendSum, outputSum uint64
	for _, s := range req.Spends {
		spendSum += s.Value
	}
	for _, o := range req.Outputs {
		outputSum += o.Value
	}
	if spendSum != outputSum+req.Fee {
		return nil, ErrUnbalanced
	}

	h := sha256.New()
	h.Write(req.SaplingAnchor[:])
	h.Write(req.OrchardAnchor[:])
	for _, s := range req.Spends {
		h.Write(s.Nullifier[:])
	}
	var feeBytes [8]byte
	binary.LittleEndian.PutUint64(feeBytes[:], req.Fee)
	h.Write(feeBytes[:])

	proof := make([]byte, 192) // Groth16 proof size on BN254, as the teacher's placeholder uses
	copy(proof, "SIMULATED_PROOF")

	var txid types.Hash
	copy(txid[:], h.Sum(nil))

	return &Result{TxID: txid, RawBytes: proof}, nil
}
