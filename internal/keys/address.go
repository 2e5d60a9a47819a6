package keys

import (
	"math/big"

	"github.com/decred/dcrd/bech32"

	"github.com/piratenetwork/lightwallet-core/pkg/pirnet"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// PaymentAddress is a diversified shielded address: the diversifier plus
// the diversified transmission key derived from it and an IVK.
type PaymentAddress struct {
	Pool        types.Pool
	Diversifier types.Diversifier
	Pkd         [32]byte
}

// DeriveAddress derives the payment address for a diversifier index under
// one pool's key group.
func DeriveAddress(pk *PoolKeys, idx DiversifierIndex) PaymentAddress {
	var div types.Diversifier
	b := idx.Bytes()
	copy(div[:], b[:])

	gd := diversifiedBase(new(big.Int).SetBytes(div[:]))
	pkd := pkdFromIvkAndDiversifier(pk.IVK, gd)
	pkdBytes := pkd.Bytes()

	var out [32]byte
	copy(out[:], pkdBytes[:])

	return PaymentAddress{
		Pool:        pk.Pool,
		Diversifier: div,
		Pkd:         out,
	}
}

// Encode bech32-encodes the payment address using the network's HRP for its
// pool.
func (a PaymentAddress) Encode(net pirnet.Network) (string, error) {
	hrp := hrpForAddress(net, a.Pool)
	payload := make([]byte, 0, len(a.Diversifier)+len(a.Pkd))
	payload = append(payload, a.Diversifier[:]...)
	payload = append(payload, a.Pkd[:]...)

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, converted)
}

// DecodeAddress parses a bech32 shielded address for the given network and
// pool, validating the HRP.
func DecodeAddress(net pirnet.Network, pool types.Pool, encoded string) (PaymentAddress, error) {
	hrp, data, err := bech32.Decode(encoded)
	if err != nil {
		return PaymentAddress{}, ErrInvalidEncoding
	}
	if hrp != hrpForAddress(net, pool) {
		return PaymentAddress{}, ErrWrongHRP
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return PaymentAddress{}, ErrInvalidEncoding
	}
	if len(raw) != types.DiversifierIndexSize+32 {
		return PaymentAddress{}, ErrInvalidEncoding
	}

	var addr PaymentAddress
	addr.Pool = pool
	copy(addr.Diversifier[:], raw[:types.DiversifierIndexSize])
	copy(addr.Pkd[:], raw[types.DiversifierIndexSize:])
	return addr, nil
}

// EncodeFullViewingKey bech32-encodes a pool's fingerprint and IVK into the
// extended-full-viewing-key wire form used for export (spec §6).
func EncodeFullViewingKey(net pirnet.Network, pk *PoolKeys) (string, error) {
	hrp := hrpForFVK(net, pk.Pool)
	payload := make([]byte, 0, 4+32)
	payload = append(payload, pk.FingerprintTag[:]...)
	payload = append(payload, pk.IVK.Bytes()...)

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, converted)
}

func hrpForAddress(net pirnet.Network, pool types.Pool) string {
	p := pirnet.ParamsFor(net)
	if pool == types.PoolOrchard {
		return p.HRPs.OrchardAddress
	}
	return p.HRPs.SaplingAddress
}

func hrpForFVK(net pirnet.Network, pool types.Pool) string {
	p := pirnet.ParamsFor(net)
	if pool == types.PoolOrchard {
		return p.HRPs.OrchardExtendedFVK
	}
	return p.HRPs.SaplingExtendedFVK
}
