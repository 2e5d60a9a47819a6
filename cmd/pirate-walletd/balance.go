package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// minConfirmationDepth is the default maturity window for "spendable"
// (spec §4.5's minDepth parameter); not a §6-documented key since no
// external operator has asked to tune it yet.
const minConfirmationDepth = 10

func newBalanceCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account's spendable and pending balance",
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

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			state, err := store.LoadSyncState(ctx)
			if err != nil {
				return fmt.Errorf("loading sync state: %w", err)
			}
			bal, err := store.CalculateBalance(ctx, account, state.LocalHeight, minConfirmationDepth)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "spendable: %d arrrtoshi\npending:   %d arrrtoshi\ntotal:     %d arrrtoshi\n",
				bal.Spendable, bal.Pending, bal.Total)
			return nil
		},
	}
}
