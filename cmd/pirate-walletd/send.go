package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piratenetwork/lightwallet-core/internal/keys"
	"github.com/piratenetwork/lightwallet-core/internal/prover"
	"github.com/piratenetwork/lightwallet-core/internal/txbuilder"
	"github.com/piratenetwork/lightwallet-core/pkg/types"
	"github.com/piratenetwork/lightwallet-core/pkg/walletrpc"
)

func newSendCmd(v *viper.Viper) *cobra.Command {
	var (
		toAddr   string
		amount   uint64
		memo     string
		pool     string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build, prove and broadcast a shielded payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := accountFromCmd(cmd)
			if err != nil {
				return err
			}
			if amount == 0 {
				return txbuilder.ErrInvalidAmount
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

			var targetPool types.Pool
			switch pool {
			case "sapling":
				targetPool = types.PoolSapling
			case "orchard":
				targetPool = types.PoolOrchard
			default:
				return fmt.Errorf("unknown pool %q, want sapling or orchard", pool)
			}
			recipient, err := keys.DecodeAddress(a.net, targetPool, toAddr)
			if err != nil {
				return fmt.Errorf("decoding recipient address: %w", err)
			}

			builder := txbuilder.New(prover.SimulatedOracle{})
			if err := builder.AddOutput(txbuilder.Output{
				Pool:      targetPool,
				Recipient: recipient,
				Value:     amount,
				Memo:      []byte(memo),
			}); err != nil {
				return err
			}

			sources := []txbuilder.SpendSource{{
				AccountID:   account,
				Keys:        ak,
				SeedDerived: true,
				Store:       store,
			}}
			changeIdx, err := ak.Sapling.Diversifiers.CurrentExternal()
			if err != nil {
				return err
			}

			result, err := builder.Build(ctx, sources, changeIdx)
			if err != nil {
				return fmt.Errorf("building transaction: %w", err)
			}
			a.log.Infow("transaction built", "txid", fmt.Sprintf("%x", result.TxID), "size", result.Size)

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "txid: %x\nsize: %d bytes (not broadcast, --dry-run set)\n", result.TxID, result.Size)
				return nil
			}

			client, err := walletrpc.Dial(ctx, a.cfg.IndexerAddr, a.cfg.TLSEnabled, compactTxStreamerService)
			if err != nil {
				return err
			}
			defer client.Close()

			sendResult, err := client.SendTransaction(ctx, result.RawBytes)
			if err != nil {
				return fmt.Errorf("broadcasting: %w", err)
			}
			if sendResult.ErrorCode != 0 {
				return fmt.Errorf("indexer rejected transaction (%d): %s", sendResult.ErrorCode, sendResult.ErrorMessage)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "txid: %x\n", sendResult.Txid)
			return nil
		},
	}
	cmd.Flags().StringVar(&toAddr, "to", "", "bech32-encoded recipient address")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount in arrrtoshi")
	cmd.Flags().StringVar(&memo, "memo", "", "plaintext memo, up to 512 bytes")
	cmd.Flags().StringVar(&pool, "pool", "orchard", "recipient pool (sapling, orchard)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build and prove but do not broadcast")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
