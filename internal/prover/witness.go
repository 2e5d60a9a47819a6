// Package prover defines the contract between the wallet core and the
// external prover oracle that actually produces zk-SNARK proofs. Proof
// computation is treated as an external service (spec §1 scope): this
// package documents the witness shape the oracle expects, using gnark's
// circuit-witness types, but never calls frontend.Compile, groth16.Setup or
// groth16.Prove itself. It is adapted from the witness layout in
// internal/zkp/circuits.go's TransactionCircuit, generalized to two pools.
package prover

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// ScalarField is the field the oracle's circuits operate over (BN254,
// matching the teacher's CompileTransactionCircuit).
var ScalarField = ecc.BN254.ScalarField()

// SpendWitness documents one shielded spend's private witness: spend
// authority, the reconstructed note's opening, and its Merkle path.
type SpendWitness struct {
	SpendingKey frontend.Variable
	Value       frontend.Variable
	Diversifier frontend.Variable
	Rseed       frontend.Variable
	Position    frontend.Variable
	PathSiblings []frontend.Variable
	PathBits     []frontend.Variable
}

// OutputWitness documents one shielded output's private witness.
type OutputWitness struct {
	Value       frontend.Variable
	Diversifier frontend.Variable
	Pkd         frontend.Variable
	Rseed       frontend.Variable
	Memo        []frontend.Variable
}

// TransactionWitness is the full circuit witness for one transaction: the
// anchors and nullifiers/commitments the circuit exposes as public inputs,
// plus the private witness for every spend and output. Both Sapling and
// Orchard anchors are carried even when one pool contributes no spends,
// since the teacher's single-pool TransactionCircuit generalizes here to a
// two-pool joinsplit-style circuit.
type TransactionWitness struct {
	SaplingAnchor types.Hash   `gnark:",public"`
	OrchardAnchor types.Hash   `gnark:",public"`
	Nullifiers    []types.Hash `gnark:",public"`
	Commitments   []types.Hash `gnark:",public"`
	Fee           frontend.Variable `gnark:",public"`

	Spends  []SpendWitness
	Outputs []OutputWitness
}

// Define would implement frontend.Circuit if this wallet core ever compiled
// the circuit in-process; it currently does not (see package doc), so this
// method only documents the constraint the oracle is expected to enforce.
func (w *TransactionWitness) Define(api frontend.API) error {
	var inputSum, outputSum frontend.Variable = 0, 0
	for _, s := range w.Spends {
		inputSum = api.Add(inputSum, s.Value)
	}
	for _, o := range w.Outputs {
		outputSum = api.Add(outputSum, o.Value)
	}
	api.AssertIsEqual(inputSum, api.Add(outputSum, w.Fee))
	return nil
}
