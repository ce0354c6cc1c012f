package keeper

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/types"
)

// accrueTimeWeight folds the epochs elapsed since the position's last accrual
// into its time-weighted share balance, and mirrors the accrual into the
// vault aggregate. It must run before any share-count mutation so the
// weighting reflects the balance actually held during the elapsed period.
func accrueTimeWeight(vault *types.Vault, position *types.Position, currentEpoch uint64) {
	// A current epoch at or before the cursor has nothing to fold in. The
	// cursor stays put so a stale clock cannot re-open accrued epochs.
	if currentEpoch <= position.LastAccrualEpoch {
		return
	}
	elapsed := currentEpoch - position.LastAccrualEpoch
	accrued := position.Shares.MulRaw(int64(elapsed))
	position.TimeWeightedShares = position.TimeWeightedShares.Add(accrued)
	vault.TotalTimeWeightedShares = vault.TotalTimeWeightedShares.Add(accrued)
	position.LastAccrualEpoch = currentEpoch
}

// reduceTimeWeight scales the position's accrued weight down by the withdrawn
// fraction, so withdrawing and redepositing cannot launder weighting. Share
// counts on the position must not have been mutated yet.
func reduceTimeWeight(vault *types.Vault, position *types.Position, sharesAfter sdkmath.Int) {
	before := position.Shares
	if before.IsZero() {
		return
	}
	reduced := position.TimeWeightedShares.Mul(sharesAfter).Quo(before)
	delta := position.TimeWeightedShares.Sub(reduced)
	position.TimeWeightedShares = reduced
	vault.TotalTimeWeightedShares = vault.TotalTimeWeightedShares.Sub(delta)
}

// LedgerShareSum folds every position in the vault and returns the total
// share count held by depositors. It must always equal the vault's
// TotalShares aggregate.
func (k *Keeper) LedgerShareSum(ctx context.Context, vaultID string) (sdkmath.Int, error) {
	positions, err := k.Positions.PositionsForVault(ctx, vaultID)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to list positions for vault %s: %w", vaultID, err)
	}
	sum := sdkmath.ZeroInt()
	for _, p := range positions {
		sum = sum.Add(p.Shares)
	}
	return sum, nil
}
