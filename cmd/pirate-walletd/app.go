// Command pirate-walletd is the wallet core's CLI: it syncs the local note
// store against an indexer, reports balances, builds and submits
// transactions, and manages diversified addresses and viewing keys (spec
// §11's cobra-based replacement for cmd/ccoin-cli's hand-rolled switch).
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piratenetwork/lightwallet-core/internal/keys"
	"github.com/piratenetwork/lightwallet-core/internal/notestore"
	"github.com/piratenetwork/lightwallet-core/internal/walletconfig"
	"github.com/piratenetwork/lightwallet-core/internal/walletlog"
	"github.com/piratenetwork/lightwallet-core/pkg/pirnet"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
)

// masterKeyPersonalization domain-separates the at-rest encryption key from
// every spending/viewing key ZIP-32 derives from the same seed.
var masterKeyPersonalization = []byte("PirateWalletMasterKey01")

func deriveMasterKey(seed []byte) notestore.MasterKey {
	h, _ := blake2b.New256(masterKeyPersonalization)
	h.Write(seed)
	var out notestore.MasterKey
	copy(out[:], h.Sum(nil))
	return out
}

// app bundles everything a subcommand needs after flags are parsed: config,
// logger, seed-derived account keys, and (lazily) an open note store.
type app struct {
	cfg  *walletconfig.Config
	log  *walletlog.Logger
	net  pirnet.Network
	seed []byte

	account types.AccountID

	store *notestore.Store
}

func newApp(v *viper.Viper, seed []byte, account types.AccountID) (*app, error) {
	cfg, err := walletconfig.Load(v)
	if err != nil {
		return nil, err
	}
	logger, err := walletlog.New(walletlog.Options{Level: cfg.LogLevel, FilePath: cfg.DebugLogPath})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: logger, net: pirnet.Mainnet, seed: seed, account: account}, nil
}

func (a *app) accountKeys() (*keys.AccountKeys, error) {
	return keys.DeriveAccountKeys(a.seed, a.net, a.account)
}

func (a *app) openStore(ctx context.Context) (*notestore.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := notestore.Open(ctx, a.cfg.ToNoteStoreConfig(), deriveMasterKey(a.seed))
	if err != nil {
		return nil, fmt.Errorf("opening note store: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.log.Sync()
}

// seedFromEnv reads the wallet seed material the same way across every
// subcommand: a mnemonic in PIRATE_WALLET_MNEMONIC, or failing that a raw
// hex seed in PIRATE_WALLET_SEED. Neither is a §6-documented key, since key
// material entry is deliberately kept out of config files and flags.
func seedFromEnv() ([]byte, error) {
	if mnemonic := os.Getenv("PIRATE_WALLET_MNEMONIC"); mnemonic != "" {
		return keys.SeedFromMnemonic(mnemonic, os.Getenv("PIRATE_WALLET_PASSPHRASE"))
	}
	if rawHex := os.Getenv("PIRATE_WALLET_SEED"); rawHex != "" {
		return hex.DecodeString(rawHex)
	}
	return nil, fmt.Errorf("neither PIRATE_WALLET_MNEMONIC nor PIRATE_WALLET_SEED is set")
}

func main() {
	root := &cobra.Command{
		Use:   "pirate-walletd",
		Short: "Pirate Chain shielded light-wallet core",
	}

	var configFile string
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file")
	root.PersistentFlags().Uint32("account", 0, "ZIP-32 account index")

	v, err := walletconfig.New("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := walletconfig.BindFlags(root, v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
		}
		return nil
	}

	root.AddCommand(
		newSyncCmd(v),
		newBalanceCmd(v),
		newSendCmd(v),
		newAddressCmd(v),
		newExportViewingKeyCmd(v),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
