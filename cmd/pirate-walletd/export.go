package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piratenetwork/lightwallet-core/internal/keys"
)

func newExportViewingKeyCmd(v *viper.Viper) *cobra.Command {
	var pool string
	cmd := &cobra.Command{
		Use:   "export-viewing-key",
		Short: "Print the account's full viewing key for one pool",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var pk *keys.PoolKeys
			switch pool {
			case "sapling":
				pk = &ak.Sapling
			case "orchard":
				pk = &ak.Orchard
			default:
				return fmt.Errorf("unknown pool %q, want sapling or orchard", pool)
			}

			fvk, err := keys.EncodeFullViewingKey(a.net, pk)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fvk)
			return nil
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "orchard", "pool to export (sapling, orchard)")
	return cmd
}
