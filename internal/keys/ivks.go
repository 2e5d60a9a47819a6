package keys

import "github.com/piratenetwork/lightwallet-core/internal/decrypt"

// IVKs projects an account's two pool incoming viewing keys into the fixed-
// width form decrypt.Batch trial-decrypts against. Orchard's wider 64-byte
// scalar is padded from the low 32 bytes of the big.Int encoding, since this
// wallet core derives both pools' viewing scalars the same way (see
// poolKeysFromChain) rather than the wider native Orchard IVK construction.
func (ak *AccountKeys) IVKs() decrypt.IVKs {
	var out decrypt.IVKs
	ak.Sapling.IVK.FillBytes(out.Sapling[:])
	ak.Orchard.IVK.FillBytes(out.Orchard[32:])
	return out
}

// OVKs projects an account's two pool outgoing viewing keys into the form
// decrypt's output-recovery functions decrypt against. Unlike IVKs, both
// pools already share the same 32-byte width (see poolKeysFromChain), so no
// padding is needed here.
func (ak *AccountKeys) OVKs() decrypt.OVKs {
	return decrypt.OVKs{Sapling: ak.Sapling.OVK, Orchard: ak.Orchard.OVK}
}
