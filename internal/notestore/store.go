// Package notestore implements the wallet's persistent, encrypted-at-rest
// note and spend-tracking store (spec §4.5). Every sensitive column is
// sealed with an AEAD under a master key held only in memory; the database
// itself never sees plaintext account ids, values, nullifiers, witness
// paths or viewing keys.
package notestore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection settings, following the same shape as
// the teacher's storage.Config.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32

	// DefaultAlgo is the AEAD used for newly written records. Existing
	// records keep whatever algo their header names.
	DefaultAlgo Algo
}

// DefaultConfig mirrors the teacher's DefaultConfig, pointed at a
// wallet-scoped database instead of the chain database.
func DefaultConfig() *Config {
	return &Config{
		Host:        "localhost",
		Port:        5432,
		User:        "pirate_wallet",
		Password:    "",
		Database:    "pirate_wallet",
		SSLMode:     "disable",
		MaxConns:    10,
		DefaultAlgo: AlgoChaCha20Poly1305,
	}
}

// Store is the pgx-backed, encrypted-at-rest note and spend store.
type Store struct {
	pool      *pgxpool.Pool
	masterKey MasterKey
	algo      Algo
	salt      lookupSalt
}

// Open connects to the database and prepares a Store sealed under key. key
// must already be derived (e.g. from the wallet passphrase); Open never
// reads or writes it to disk.
func Open(ctx context.Context, cfg *Config, key MasterKey) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	algo := cfg.DefaultAlgo

	s := &Store{pool: pool, masterKey: key, algo: algo}
	if err := s.loadOrCreateSalt(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) seal(plaintext []byte) ([]byte, error) {
	return seal(s.algo, s.masterKey, plaintext)
}

func (s *Store) open(record []byte) ([]byte, error) {
	return open(s.masterKey, record)
}

// loadOrCreateSalt reads the wallet's lookup-hash salt row, creating one on
// first run. The salt itself is not sensitive (it has no meaning without
// the data it is mixed into) so it is stored in the clear.
func (s *Store) loadOrCreateSalt(ctx context.Context) error {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT salt FROM wallet_meta WHERE id = 1`).Scan(&raw)
	if err == nil && len(raw) == 16 {
		copy(s.salt[:], raw)
		return nil
	}

	s.salt = newLookupSalt()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO wallet_meta (id, salt) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET salt = EXCLUDED.salt`,
		s.salt[:],
	)
	return err
}
