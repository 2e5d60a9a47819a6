package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piratenetwork/lightwallet-core/internal/syncengine"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

// compactTxStreamerService is the fully qualified lightwalletd-compatible
// gRPC service name this wallet core speaks to.
const compactTxStreamerService = "cash.z.wallet.sdk.rpc.CompactTxStreamer"

func newSyncCmd(v *viper.Viper) *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the local note store against the configured indexer",
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
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			client, err := walletrpc.Dial(ctx, a.cfg.IndexerAddr, a.cfg.TLSEnabled, compactTxStreamerService)
			if err != nil {
				return err
			}
			defer client.Close()

			engine := syncengine.New(client, store, ak.IVKs(), account, a.cfg.ToSyncEngineConfig())
			engine.SetLogger(a.log.SugaredLogger)

			latest, err := client.LatestBlock(ctx)
			if err != nil {
				return fmt.Errorf("fetching chain tip: %w", err)
			}

			state, err := engine.Run(ctx, latest.Height)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			a.log.Infow("sync complete", "state", state.String(), "target_height", latest.Height)

			if follow {
				a.log.Infow("following chain tip")
				if err := engine.Follow(ctx, latest.Height); err != nil {
					return fmt.Errorf("follow: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&follow, "follow", false, "keep polling for new blocks after catching up")
	return cmd
}

func accountFromCmd(cmd *cobra.Command) (types.AccountID, error) {
	n, err := cmd.Flags().GetUint32("account")
	if err != nil {
		return 0, err
	}
	return types.AccountID(n), nil
}
