package simulation

import (
	"context"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/types"
)

// FixedYieldAdapter is a protocol adapter whose yield is set explicitly by
// the test or scenario. Harvest drains the pending yield, so consecutive
// harvests without a new accrual return zero.
type FixedYieldAdapter struct {
	mu           sync.Mutex
	apy          uint64
	pendingYield sdkmath.Int
	deposited    sdkmath.Int
	harvestErr   error
}

var _ types.ProtocolAdapter = (*FixedYieldAdapter)(nil)

// NewFixedYieldAdapter creates an adapter reporting the given APY in basis
// points.
func NewFixedYieldAdapter(apyBasisPoints uint64) *FixedYieldAdapter {
	return &FixedYieldAdapter{
		apy:          apyBasisPoints,
		pendingYield: sdkmath.ZeroInt(),
		deposited:    sdkmath.ZeroInt(),
	}
}

// AccrueYield adds amount to the yield the next harvest will report.
func (a *FixedYieldAdapter) AccrueYield(amount sdkmath.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingYield = a.pendingYield.Add(amount)
}

// FailHarvests makes subsequent harvests return err; nil restores normal
// behavior.
func (a *FixedYieldAdapter) FailHarvests(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.harvestErr = err
}

// Deposit places amount with the venue.
func (a *FixedYieldAdapter) Deposit(_ context.Context, amount sdkmath.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deposited = a.deposited.Add(amount)
	return nil
}

// Withdraw pulls shareAmount back from the venue.
func (a *FixedYieldAdapter) Withdraw(_ context.Context, shareAmount sdkmath.Int, _ string) (sdkmath.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if shareAmount.GT(a.deposited) {
		shareAmount = a.deposited
	}
	a.deposited = a.deposited.Sub(shareAmount)
	return shareAmount, nil
}

// Harvest returns and clears the pending yield.
func (a *FixedYieldAdapter) Harvest(_ context.Context) (sdkmath.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.harvestErr != nil {
		return sdkmath.Int{}, a.harvestErr
	}
	out := a.pendingYield
	a.pendingYield = sdkmath.ZeroInt()
	return out, nil
}

// GetAPY returns the configured rate in basis points.
func (a *FixedYieldAdapter) GetAPY(_ context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apy, nil
}
