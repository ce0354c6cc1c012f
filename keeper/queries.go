package keeper

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/utils"
)

// BalanceOf returns the user's share balance in the vault. An unknown user
// has a zero balance.
func (k *Keeper) BalanceOf(ctx context.Context, vaultID, owner string) (sdkmath.Int, error) {
	if _, err := k.mustGetVault(ctx, vaultID); err != nil {
		return sdkmath.Int{}, err
	}
	position, err := k.getOrNewPosition(ctx, vaultID, owner)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return position.Shares, nil
}

// TotalValueLocked returns the vault's total assets under management.
func (k *Keeper) TotalValueLocked(ctx context.Context, vaultID string) (sdkmath.Int, error) {
	vault, err := k.mustGetVault(ctx, vaultID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return vault.TotalAssetsManaged, nil
}

// SharePrice returns the vault's current share price at
// utils.PricePrecision fixed point, 1:1 when no shares exist.
func (k *Keeper) SharePrice(ctx context.Context, vaultID string) (sdkmath.Int, error) {
	vault, err := k.mustGetVault(ctx, vaultID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return utils.SharePrice(vault.TotalAssetsManaged, vault.TotalShares), nil
}

// EstimatedAPY returns the vault's yield rate in basis points, passed through
// from the active protocol adapters. With multiple protocols the mean of the
// adapter rates is reported; with none, zero.
func (k *Keeper) EstimatedAPY(ctx context.Context, vaultID string) (uint64, error) {
	vault, err := k.mustGetVault(ctx, vaultID)
	if err != nil {
		return 0, err
	}
	if len(vault.ActiveProtocolIds) == 0 {
		return 0, nil
	}

	var total uint64
	for _, protocolID := range vault.ActiveProtocolIds {
		adapter, err := k.Registry.GetAdapter(ctx, protocolID, vault.UnderlyingAsset)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve adapter for protocol %s: %w", protocolID, err)
		}
		apy, err := adapter.GetAPY(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to query APY from protocol %s: %w", protocolID, err)
		}
		total += apy
	}
	return total / uint64(len(vault.ActiveProtocolIds)), nil
}

// TimeWeightedShares returns the user's accrued time-weighted share balance,
// including epochs elapsed since the position's last accrual.
func (k *Keeper) TimeWeightedShares(ctx context.Context, vaultID, owner string) (sdkmath.Int, error) {
	if _, err := k.mustGetVault(ctx, vaultID); err != nil {
		return sdkmath.Int{}, err
	}
	position, err := k.getOrNewPosition(ctx, vaultID, owner)
	if err != nil {
		return sdkmath.Int{}, err
	}
	currentEpoch, err := k.CurrentEpoch()
	if err != nil {
		return sdkmath.Int{}, err
	}
	accrued := position.TimeWeightedShares
	if currentEpoch > position.LastAccrualEpoch {
		accrued = accrued.Add(position.Shares.MulRaw(int64(currentEpoch - position.LastAccrualEpoch)))
	}
	return accrued, nil
}

// TotalTimeWeightedShares returns the vault-wide time-weight aggregate as of
// the last committed accrual.
func (k *Keeper) TotalTimeWeightedShares(ctx context.Context, vaultID string) (sdkmath.Int, error) {
	vault, err := k.mustGetVault(ctx, vaultID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return vault.TotalTimeWeightedShares, nil
}

// EntryTime returns the unix time of the user's first deposit, zero if the
// user has never deposited.
func (k *Keeper) EntryTime(ctx context.Context, vaultID, owner string) (int64, error) {
	if _, err := k.mustGetVault(ctx, vaultID); err != nil {
		return 0, err
	}
	position, err := k.getOrNewPosition(ctx, vaultID, owner)
	if err != nil {
		return 0, err
	}
	return position.EntryTime, nil
}

// ActiveUsers returns the vault's registry of users that have deposited at
// least once, in first-deposit order.
func (k *Keeper) ActiveUsers(ctx context.Context, vaultID string) ([]string, error) {
	if _, err := k.mustGetVault(ctx, vaultID); err != nil {
		return nil, err
	}
	return k.Positions.ActiveUsers(ctx, vaultID)
}

// EpochDeposits returns the amount the user deposited in the given epoch.
func (k *Keeper) EpochDeposits(ctx context.Context, vaultID, owner string, epochIndex uint64) (sdkmath.Int, error) {
	if _, err := k.mustGetVault(ctx, vaultID); err != nil {
		return sdkmath.Int{}, err
	}
	position, err := k.getOrNewPosition(ctx, vaultID, owner)
	if err != nil {
		return sdkmath.Int{}, err
	}
	amount, ok := position.EpochDeposits[epochIndex]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}
	return amount, nil
}
