package keys

import (
	"github.com/tyler-smith/go-bip39"
)

// GenerateMnemonic returns a fresh BIP-39 mnemonic. wordCount must be one of
// 12, 18 or 24; any other value falls back to 24 words (32 bytes of
// entropy), matching the seed-phrase strength the wallet recommends by
// default.
func GenerateMnemonic(wordCount int) (string, error) {
	entropyBits := 256
	switch wordCount {
	case 12:
		entropyBits = 128
	case 18:
		entropyBits = 192
	case 24:
		entropyBits = 256
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// SeedFromMnemonic normalizes and validates a mnemonic, then stretches it
// with the BIP-39 passphrase into the 64-byte seed ZIP-32 derivation starts
// from.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	return seed, nil
}
