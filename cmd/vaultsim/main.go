// Command vaultsim seeds the vault engine from config and replays the
// fast-forward demo scenario: deposit, advance N days, harvest the adapter's
// yield, and withdraw.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/polystream/vault/config"
	"github.com/polystream/vault/epoch"
	"github.com/polystream/vault/keeper"
	"github.com/polystream/vault/simulation"
	"github.com/polystream/vault/store"
	"github.com/polystream/vault/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vaultsim",
		Short:         "Vault accounting engine simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		vaultID    string
		user       string
		deposit    int64
		yield      int64
		days       int64
		protocolID string
		apyBps     uint64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the deposit / fast-forward / harvest / withdraw scenario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			logger := log.NewLogger(cmd.OutOrStdout())

			var (
				vaults    types.VaultRepository
				positions types.PositionRepository
			)
			if cfg.Database.SQLitePath != "" {
				s, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
				if err != nil {
					return err
				}
				defer s.Close()
				vaults, positions = s, s
			} else {
				s := store.NewMemoryStore()
				vaults, positions = s, s
			}

			genesis := time.Now().UTC().Truncate(time.Second)
			schedule, err := epoch.NewSchedule(genesis, time.Duration(cfg.Epoch.DurationSeconds)*time.Second)
			if err != nil {
				return err
			}
			clock := epoch.NewManualClock(genesis)

			ledger := simulation.NewTokenLedger()
			registry := simulation.NewRegistry()
			adapter := simulation.NewFixedYieldAdapter(apyBps)
			if err := registry.RegisterProtocol(ctx, protocolID); err != nil {
				return err
			}

			events := simulation.NewRecordingEventService()
			k := keeper.NewKeeper(vaults, positions, registry, ledger, schedule, clock, events, logger)

			var target *config.VaultConfig
			for _, vc := range cfg.Vaults {
				vault, err := k.GetVault(ctx, vc.ID)
				if err != nil {
					return err
				}
				if vault == nil {
					if _, err := k.CreateVault(ctx, vc); err != nil {
						return err
					}
				}
				if err := registry.RegisterAdapter(ctx, protocolID, vc.UnderlyingAsset, adapter); err != nil {
					return err
				}
				if vc.ID == vaultID {
					vcCopy := vc
					target = &vcCopy
				}
			}
			if target == nil {
				return fmt.Errorf("vault %q not in config (have %d vaults)", vaultID, len(cfg.Vaults))
			}
			if err := k.AddProtocol(ctx, vaultID, protocolID); err != nil {
				return err
			}

			scenario := &simulation.Scenario{
				Keeper:  k,
				Clock:   clock,
				Ledger:  ledger,
				Adapter: adapter,
				VaultID: vaultID,
				User:    user,
			}
			report, err := scenario.Run(ctx,
				sdkmath.NewInt(deposit*types.AmountScalar),
				sdkmath.NewInt(yield*types.AmountScalar),
				days,
			)
			if err != nil {
				return err
			}

			logger.Info("scenario complete",
				"vault", vaultID,
				"shares_minted", report.SharesMinted.String(),
				"harvested", report.Harvested.String(),
				"share_price", report.SharePrice.String(),
				"amount_net", report.AmountNet.String(),
				"fee_charged", report.FeeCharged.String(),
				"final_balance", report.FinalBalance.String(),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the engine config file")
	cmd.Flags().StringVar(&vaultID, "vault", "high-risk", "vault id to run the scenario against")
	cmd.Flags().StringVar(&user, "user", "demo-user", "depositor account")
	cmd.Flags().Int64Var(&deposit, "deposit", 1000, "deposit amount in whole asset units")
	cmd.Flags().Int64Var(&yield, "yield", 50, "yield the adapter reports, in whole asset units")
	cmd.Flags().Int64Var(&days, "days", 200, "days to fast-forward before harvesting")
	cmd.Flags().StringVar(&protocolID, "protocol", "demo-lending", "protocol id to allocate to")
	cmd.Flags().Uint64Var(&apyBps, "apy-bps", 692, "APY the adapter reports, in basis points")
	return cmd
}
