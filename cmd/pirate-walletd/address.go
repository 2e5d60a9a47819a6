package main

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piratenetwork/lightwallet-core/internal/keys"
	"github.com/piratenetwork/lightwallet-core/internal/notestore"
)

func newAddressCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Manage diversified shielded addresses",
	}
	cmd.AddCommand(newAddressNewCmd(v))
	return cmd
}

func newAddressNewCmd(v *viper.Viper) *cobra.Command {
	var pool string
	c := &cobra.Command{
		Use:   "new",
		Short: "Allocate and print the next fresh diversified address",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := accountFromCmd(cmd)
			if err != nil {
				return err
			}
			seed, err := seedFromEnv()
			if err != nil {
				return err
			}
			a, err := newApp(v, seed, account)
			if err != nil {
				return err
			}
			defer a.close()

			ak, err := a.accountKeys()
			if err != nil {
				return err
			}
			var poolKeys *keys.PoolKeys
			var secretKind notestore.WalletSecretKind
			switch pool {
			case "sapling":
				poolKeys, secretKind = &ak.Sapling, notestore.WalletSecretDiversifierStateSapling
			case "orchard":
				poolKeys, secretKind = &ak.Orchard, notestore.WalletSecretDiversifierStateOrchard
			default:
				return fmt.Errorf("unknown pool %q, want sapling or orchard", pool)
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			tracker := poolKeys.Diversifiers
			if cursor, err := store.GetWalletSecret(ctx, secretKind, account); err == nil && len(cursor) == 8 {
				var c [8]byte
				copy(c[:], cursor)
				tracker = keys.DecodeCursor(keys.RotationAlwaysFresh, c)
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}

			idx, err := tracker.NextFreshIndex()
			if err != nil {
				return err
			}
			cursor := tracker.EncodeCursor()
			if err := store.UpsertWalletSecret(ctx, secretKind, account, cursor[:]); err != nil {
				return err
			}

			addr := keys.DeriveAddress(poolKeys, idx)
			encoded, err := addr.Encode(a.net)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
	c.Flags().StringVar(&pool, "pool", "orchard", "pool to derive the address from (sapling, orchard)")
	return c
}
