package keys

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/twistededwards"
)

// jubjubBase returns the Jubjub (BLS12-381 twisted Edwards) curve base
// point, the diversified-base generator Sapling addresses are built from.
// Mirrors the teacher's use of gnark-crypto curve arithmetic in
// internal/zkp/pedersen.go, but on the Edwards curve embedded in BLS12-381
// rather than BN254, since Sapling's inner curve is Jubjub.
func jubjubBase() twistededwards.PointAffine {
	params := twistededwards.GetEdwardsCurve()
	return params.Base
}

// diversifiedBase scales the Jubjub base point by a diversifier-derived
// scalar, the operation behind Sapling's "g_d" diversified generator used
// when deriving a payment address from an FVK and a diversifier.
func diversifiedBase(scalar *big.Int) twistededwards.PointAffine {
	base := jubjubBase()
	var out twistededwards.PointAffine
	out.ScalarMultiplication(&base, scalar)
	return out
}

// ivkValidate checks that a candidate incoming viewing key scalar is in the
// curve's prime-order subgroup, i.e. nonzero mod the Jubjub group order.
// A zero or out-of-range ivk can never produce diversified addresses and is
// rejected before it reaches persistence.
func ivkValidate(ivk *big.Int) bool {
	params := twistededwards.GetEdwardsCurve()
	if ivk.Sign() == 0 {
		return false
	}
	return ivk.Cmp(&params.Order) < 0
}

// pkdFromIvkAndDiversifier computes pk_d = ivk * g_d, the diversified
// transmission key embedded in every Sapling payment address.
func pkdFromIvkAndDiversifier(ivk *big.Int, gd twistededwards.PointAffine) twistededwards.PointAffine {
	var pkd twistededwards.PointAffine
	pkd.ScalarMultiplication(&gd, ivk)
	return pkd
}
