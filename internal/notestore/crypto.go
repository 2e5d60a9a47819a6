package notestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algo identifies the AEAD cipher a record was sealed under (spec §6: "algo
// ∈ {0: AES-256-GCM, 1: ChaCha20-Poly1305}").
type Algo byte

const (
	AlgoAES256GCM Algo = iota
	AlgoChaCha20Poly1305
)

const recordVersion = 1

// nonceSize is fixed at 12 bytes for both supported AEADs.
const nonceSize = 12

// MasterKey is the 32-byte key every row is sealed under. It never touches
// disk; callers derive it once (e.g. from a wallet passphrase via a KDF not
// implemented here, out of scope per spec §1) and hold it only in memory.
type MasterKey [32]byte

func aeadFor(algo Algo, key MasterKey) (cipher.AEAD, error) {
	switch algo {
	case AlgoAES256GCM:
		block, err := aes.NewCipher(key[:])
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case AlgoChaCha20Poly1305:
		return chacha20poly1305.New(key[:])
	default:
		return nil, ErrUnknownAlgo
	}
}

// seal encrypts plaintext and prepends the [ver:1][algo:1][nonce:12] header
// spec §6 specifies for every persisted sensitive column.
func seal(algo Algo, key MasterKey, plaintext []byte) ([]byte, error) {
	aead, err := aeadFor(algo, key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 2+nonceSize+len(plaintext)+aead.Overhead())
	out = append(out, recordVersion, byte(algo))
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// open decrypts a record sealed by seal. Records without the 2-byte header
// (legacy, pre-encryption rows) are returned verbatim, per spec §4.5:
// "Legacy records without the header are still readable."
func open(key MasterKey, record []byte) ([]byte, error) {
	if !looksHeadered(record) {
		return record, nil
	}
	algo := Algo(record[1])
	aead, err := aeadFor(algo, key)
	if err != nil {
		return nil, err
	}
	if len(record) < 2+nonceSize {
		return nil, ErrInvalidRecord
	}
	nonce := record[2 : 2+nonceSize]
	ciphertext := record[2+nonceSize:]
	return aead.Open(nil, nonce, ciphertext, nil)
}

// looksHeadered distinguishes a [ver][algo][nonce]... record from a legacy
// unheadered plaintext blob. Version 0 is never issued, so a leading byte
// of recordVersion followed by a known algo tag and enough length for a
// nonce is treated as headered; anything else is legacy plaintext.
func looksHeadered(record []byte) bool {
	if len(record) < 2+nonceSize {
		return false
	}
	if record[0] != recordVersion {
		return false
	}
	algo := Algo(record[1])
	return algo == AlgoAES256GCM || algo == AlgoChaCha20Poly1305
}
