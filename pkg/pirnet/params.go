// Package pirnet carries the per-network constants the rest of the wallet
// core needs: activation heights, coin type and the bech32 HRP table for
// every key and address encoding. It has no dependency on any other
// internal package so that both pkg/walletrpc and internal/keys can import
// it without a cycle.
package pirnet

// Network identifies one of the three chains the wallet can target.
type Network uint8

const (
	Mainnet Network = iota
	Testnet
	Regtest
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	default:
		return "unknown"
	}
}

// HRPs holds the bech32 human-readable prefixes for one network's key and
// address encodings (spec §6).
type HRPs struct {
	SaplingAddress      string
	SaplingExtendedFVK  string
	SaplingExtendedSK   string
	SaplingIVK          string
	OrchardAddress      string
	OrchardExtendedFVK  string
	OrchardExtendedSK   string
}

// Params bundles everything the wallet needs to know about a network.
type Params struct {
	Network Network
	// CoinType is the ZIP-32 / SLIP-44 coin type used in the account
	// derivation path m/32'/coin_type'/account'.
	CoinType uint32
	// SaplingActivationHeight is the first height at which Sapling outputs
	// may appear.
	SaplingActivationHeight uint64
	// OrchardActivationHeight is the first height at which Orchard actions
	// may appear.
	OrchardActivationHeight uint64
	// OverwinterActivationHeight gates the transaction version used when
	// building transactions.
	OverwinterActivationHeight uint64
	HRPs                       HRPs
}

var mainnetParams = Params{
	Network:                    Mainnet,
	CoinType:                   133, // ZEC/ARRR-derived coin type per ZIP-32 registry
	SaplingActivationHeight:    152855,
	OrchardActivationHeight:    1888300,
	OverwinterActivationHeight: 152855,
	HRPs: HRPs{
		SaplingAddress:     "zs",
		SaplingExtendedFVK: "zxviews",
		SaplingExtendedSK:  "secret-extended-key-main",
		SaplingIVK:         "zivks",
		OrchardAddress:     "pirate",
		OrchardExtendedFVK: "pirate-extended-viewing-key",
		OrchardExtendedSK:  "pirate-secret-extended-key",
	},
}

var testnetParams = Params{
	Network:                    Testnet,
	CoinType:                   1,
	SaplingActivationHeight:    280000,
	OrchardActivationHeight:    1842420,
	OverwinterActivationHeight: 207500,
	HRPs: HRPs{
		SaplingAddress:     "ztestsapling",
		SaplingExtendedFVK: "zxviewtestsapling",
		SaplingExtendedSK:  "secret-extended-key-test",
		SaplingIVK:         "zivktestsapling",
		OrchardAddress:     "pirate-test",
		OrchardExtendedFVK: "pirate-extended-viewing-key-test",
		OrchardExtendedSK:  "pirate-secret-extended-key-test",
	},
}

var regtestParams = Params{
	Network:                    Regtest,
	CoinType:                   1,
	SaplingActivationHeight:    1,
	OrchardActivationHeight:    1,
	OverwinterActivationHeight: 1,
	HRPs: HRPs{
		SaplingAddress:     "zregtestsapling",
		SaplingExtendedFVK: "zxviewregtestsapling",
		SaplingExtendedSK:  "secret-extended-key-regtest",
		SaplingIVK:         "zivkregtestsapling",
		OrchardAddress:     "pirate-regtest",
		OrchardExtendedFVK: "pirate-extended-viewing-key-regtest",
		OrchardExtendedSK:  "pirate-secret-extended-key-regtest",
	},
}

// ParamsFor returns the fixed parameter set for a network.
func ParamsFor(n Network) *Params {
	switch n {
	case Testnet:
		return &testnetParams
	case Regtest:
		return &regtestParams
	default:
		return &mainnetParams
	}
}

// AllHRPsUnique verifies the data-model invariant from spec §3: HRPs are
// unique across networks for each key kind. It is not asserted at init
// time, since a failure here is a programmer error in this static table,
// not a runtime condition.
func AllHRPsUnique() bool {
	seen := make(map[string]struct{})
	for _, p := range []*Params{&mainnetParams, &testnetParams, &regtestParams} {
		for _, hrp := range []string{
			p.HRPs.SaplingAddress, p.HRPs.SaplingExtendedFVK, p.HRPs.SaplingExtendedSK,
			p.HRPs.SaplingIVK, p.HRPs.OrchardAddress, p.HRPs.OrchardExtendedFVK, p.HRPs.OrchardExtendedSK,
		} {
			if _, dup := seen[hrp]; dup {
				return false
			}
			seen[hrp] = struct{}{}
		}
	}
	return true
}
