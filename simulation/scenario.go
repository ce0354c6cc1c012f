package simulation

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/epoch"
	"github.com/polystream/vault/keeper"
)

// Scenario drives a keeper through a scripted fast-forward sequence: fund a
// user, deposit, advance time while the adapter accrues yield, harvest, and
// finally withdraw. It reproduces the demo flow of advancing N days and then
// forcing exactly one harvest evaluation.
type Scenario struct {
	Keeper  *keeper.Keeper
	Clock   *epoch.ManualClock
	Ledger  *TokenLedger
	Adapter *FixedYieldAdapter

	VaultID string
	User    string
}

// Report summarizes the state after a scenario run.
type Report struct {
	SharesMinted sdkmath.Int
	Harvested    sdkmath.Int
	AmountNet    sdkmath.Int
	FeeCharged   sdkmath.Int
	SharePrice   sdkmath.Int
	FinalBalance sdkmath.Int
}

// Run executes deposit → advance days → accrue+harvest → withdraw-all and
// returns the resulting figures.
func (s *Scenario) Run(ctx context.Context, depositAmount, yieldAmount sdkmath.Int, days int64) (*Report, error) {
	s.Ledger.Fund(s.User, depositAmount)

	dep, err := s.Keeper.Deposit(ctx, s.VaultID, s.User, depositAmount)
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	if err := s.Clock.AdvanceDays(days); err != nil {
		return nil, err
	}
	s.Adapter.AccrueYield(yieldAmount)

	harvest, err := s.Keeper.CheckAndHarvest(ctx, s.VaultID)
	if err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}
	if !harvest.Due {
		return nil, fmt.Errorf("harvest unexpectedly not due after %d days", days)
	}

	// Harvested yield enters the vault's custody so the payout can settle.
	s.Ledger.Fund(s.VaultID, harvest.HarvestedAmount)

	price, err := s.Keeper.SharePrice(ctx, s.VaultID)
	if err != nil {
		return nil, err
	}

	wd, err := s.Keeper.Withdraw(ctx, s.VaultID, s.User, dep.Shares)
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}

	return &Report{
		SharesMinted: dep.Shares,
		Harvested:    harvest.HarvestedAmount,
		AmountNet:    wd.AmountNet,
		FeeCharged:   wd.FeeCharged,
		SharePrice:   price,
		FinalBalance: s.Ledger.BalanceOf(s.User),
	}, nil
}
