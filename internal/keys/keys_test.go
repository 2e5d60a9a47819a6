package keys

import (
	"testing"
	"time"

	"github.com/piratenetwork/lightwallet-core/pkg/pirnet"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

func TestMnemonicRoundTrip(t *testing.T) {
	m, err := GenerateMnemonic(24)
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	seed, err := SeedFromMnemonic(m, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if len(seed) != 64 {
		t.Fatalf("expected 64-byte seed, got %d", len(seed))
	}
}

func TestSeedFromMnemonicRejectsGarbage(t *testing.T) {
	if _, err := SeedFromMnemonic("not a real mnemonic phrase at all", ""); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
}

func TestDeriveAccountKeysDeterministic(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}

	ak1, err := DeriveAccountKeys(seed, pirnet.Mainnet, 0)
	if err != nil {
		t.Fatalf("DeriveAccountKeys: %v", err)
	}
	ak2, err := DeriveAccountKeys(seed, pirnet.Mainnet, 0)
	if err != nil {
		t.Fatalf("DeriveAccountKeys: %v", err)
	}
	if ak1.Sapling.IVK.Cmp(ak2.Sapling.IVK) != 0 {
		t.Fatal("sapling IVK derivation is not deterministic")
	}
	if ak1.Orchard.IVK.Cmp(ak2.Orchard.IVK) != 0 {
		t.Fatal("orchard IVK derivation is not deterministic")
	}
	if ak1.Sapling.IVK.Cmp(ak1.Orchard.IVK) == 0 {
		t.Fatal("sapling and orchard IVKs must differ within the same account")
	}
}

func TestDeriveAccountKeysVariesByAccount(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i * 3)
	}
	a0, err := DeriveAccountKeys(seed, pirnet.Mainnet, 0)
	if err != nil {
		t.Fatalf("DeriveAccountKeys: %v", err)
	}
	a1, err := DeriveAccountKeys(seed, pirnet.Mainnet, 1)
	if err != nil {
		t.Fatalf("DeriveAccountKeys: %v", err)
	}
	if a0.Sapling.IVK.Cmp(a1.Sapling.IVK) == 0 {
		t.Fatal("different accounts must derive different IVKs")
	}
}

func TestTrackerNeverReusesSharedIndex(t *testing.T) {
	tr := NewTracker(RotationAlwaysFresh)

	idx1, err := tr.NextFreshIndex()
	if err != nil {
		t.Fatalf("NextFreshIndex: %v", err)
	}
	tr.RecordUsage(idx1, func(u *AddressUsage) { u.MarkShared(time.Now()) })

	idx2, err := tr.NextFreshIndex()
	if err != nil {
		t.Fatalf("NextFreshIndex: %v", err)
	}
	if idx1 == idx2 {
		t.Fatal("tracker reused a previously shared index")
	}
}

func TestTrackerReuseUntilReceivedPolicy(t *testing.T) {
	tr := NewTracker(RotationReuseUntilReceived)

	idx, err := tr.CurrentExternal()
	if err != nil {
		t.Fatalf("CurrentExternal: %v", err)
	}
	again, err := tr.CurrentExternal()
	if err != nil {
		t.Fatalf("CurrentExternal: %v", err)
	}
	if idx != again {
		t.Fatal("ReuseUntilReceived should hand back the same address before receipt")
	}

	tr.RecordUsage(idx, func(u *AddressUsage) { u.MarkReceived(time.Now()) })
	tr.highest = idx // simulate persisted state: idx was the highest allocated

	next, err := tr.CurrentExternal()
	if err != nil {
		t.Fatalf("CurrentExternal: %v", err)
	}
	if next == idx {
		t.Fatal("ReuseUntilReceived should rotate once the address has received funds")
	}
}

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i * 7)
	}
	ak, err := DeriveAccountKeys(seed, pirnet.Testnet, 0)
	if err != nil {
		t.Fatalf("DeriveAccountKeys: %v", err)
	}

	addr := DeriveAddress(&ak.Sapling, 0)
	encoded, err := addr.Encode(pirnet.Testnet)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeAddress(pirnet.Testnet, types.PoolSapling, encoded)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if decoded.Diversifier != addr.Diversifier || decoded.Pkd != addr.Pkd {
		t.Fatal("address did not round-trip through bech32")
	}
}

func TestDecodeAddressRejectsWrongHRP(t *testing.T) {
	seed := make([]byte, 64)
	ak, err := DeriveAccountKeys(seed, pirnet.Mainnet, 0)
	if err != nil {
		t.Fatalf("DeriveAccountKeys: %v", err)
	}
	addr := DeriveAddress(&ak.Sapling, 0)
	encoded, err := addr.Encode(pirnet.Mainnet)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := DecodeAddress(pirnet.Testnet, types.PoolSapling, encoded); err != ErrWrongHRP {
		t.Fatalf("expected ErrWrongHRP, got %v", err)
	}
}
