package notestore

import (
	"context"
	"encoding/binary"

	"github.com/jackc/pgx/v5"

	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// AccountKey is the persisted record backing one derived key group: the
// viewing keys needed to scan and spend, never the mnemonic itself (spec
// §4.5 insert_account_key; the mnemonic is sealed separately as a wallet
// secret, see UpsertWalletSecret).
type AccountKey struct {
	AccountID      types.AccountID
	Network        byte
	SaplingIVK     []byte
	SaplingOVK     []byte
	SaplingFVKTag  []byte
	OrchardIVK     []byte
	OrchardOVK     []byte
	OrchardFVKTag  []byte
}

func (k *AccountKey) encode() []byte {
	buf := make([]byte, 0, 256)
	var u32 [4]byte
	putBytes := func(b []byte) {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(b)))
		buf = append(buf, u32[:]...)
		buf = append(buf, b...)
	}
	binary.LittleEndian.PutUint32(u32[:], uint32(k.AccountID))
	buf = append(buf, u32[:]...)
	buf = append(buf, k.Network)
	putBytes(k.SaplingIVK)
	putBytes(k.SaplingOVK)
	putBytes(k.SaplingFVKTag)
	putBytes(k.OrchardIVK)
	putBytes(k.OrchardOVK)
	putBytes(k.OrchardFVKTag)
	return buf
}

func decodeAccountKey(buf []byte) (*AccountKey, error) {
	r := byteReader{buf: buf}
	k := &AccountKey{}
	k.AccountID = types.AccountID(r.u32())
	k.Network = r.u8()
	k.SaplingIVK = r.lenPrefixedBytes()
	k.SaplingOVK = r.lenPrefixedBytes()
	k.SaplingFVKTag = r.lenPrefixedBytes()
	k.OrchardIVK = r.lenPrefixedBytes()
	k.OrchardOVK = r.lenPrefixedBytes()
	k.OrchardFVKTag = r.lenPrefixedBytes()
	return k, r.err
}

// InsertAccountKey persists a derived key group's viewing-key material,
// idempotent on account id (spec §4.5 insert_account_key).
func (s *Store) InsertAccountKey(ctx context.Context, k *AccountKey) error {
	sealed, err := s.seal(k.encode())
	if err != nil {
		return err
	}
	acctHash := nullifierLookupHash(s.salt, uint32(k.AccountID), types.Hash{})
	_, err = s.pool.Exec(ctx, `
		INSERT INTO account_keys (account_hash, data)
		VALUES ($1, $2)
		ON CONFLICT (account_hash) DO UPDATE SET data = EXCLUDED.data
	`, acctHash[:], sealed)
	return err
}

// GetAccountKey retrieves a previously inserted account key group.
func (s *Store) GetAccountKey(ctx context.Context, accountID types.AccountID) (*AccountKey, error) {
	acctHash := nullifierLookupHash(s.salt, uint32(accountID), types.Hash{})
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM account_keys WHERE account_hash = $1`, acctHash[:]).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	plain, err := s.open(data)
	if err != nil {
		return nil, err
	}
	return decodeAccountKey(plain)
}

// WalletSecretKind distinguishes the secrets kept outside the per-account
// key table: the recovery mnemonic, a cached spending-key blob (Open
// Question 3: nothing in this module writes one, see DESIGN.md), and each
// pool's diversifier tracker state.
type WalletSecretKind byte

const (
	WalletSecretMnemonic WalletSecretKind = iota
	WalletSecretSpendingKey
	// WalletSecretDiversifierStateSapling and WalletSecretDiversifierStateOrchard
	// each store one pool's encoded diversifier tracker cursor (current
	// index, highest issued index), keeping address issuance gap-limit-aware
	// across CLI invocations (SPEC_FULL.md §13).
	WalletSecretDiversifierStateSapling
	WalletSecretDiversifierStateOrchard
)

// UpsertWalletSecret persists a wallet-scoped secret blob (spec §4.5
// upsert_wallet_secret), sealed like every other sensitive column.
func (s *Store) UpsertWalletSecret(ctx context.Context, kind WalletSecretKind, accountID types.AccountID, secret []byte) error {
	sealed, err := s.seal(secret)
	if err != nil {
		return err
	}
	acctHash := nullifierLookupHash(s.salt, uint32(accountID), types.Hash{byte(kind)})
	_, err = s.pool.Exec(ctx, `
		INSERT INTO wallet_secrets (kind, account_hash, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, account_hash) DO UPDATE SET data = EXCLUDED.data
	`, byte(kind), acctHash[:], sealed)
	return err
}

// GetWalletSecret retrieves a secret stored by UpsertWalletSecret.
func (s *Store) GetWalletSecret(ctx context.Context, kind WalletSecretKind, accountID types.AccountID) ([]byte, error) {
	acctHash := nullifierLookupHash(s.salt, uint32(accountID), types.Hash{byte(kind)})
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM wallet_secrets WHERE kind = $1 AND account_hash = $2`, byte(kind), acctHash[:]).Scan(&data)
	if err != nil {
		return nil, err
	}
	return s.open(data)
}
