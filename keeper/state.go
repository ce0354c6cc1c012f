package keeper

import (
	"context"
	"fmt"

	"github.com/polystream/vault/types"
)

// mustGetVault retrieves a vault by id, translating absence into a typed error.
func (k *Keeper) mustGetVault(ctx context.Context, vaultID string) (*types.Vault, error) {
	vault, err := k.Vaults.GetVault(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vault %s: %w", vaultID, err)
	}
	if vault == nil {
		return nil, types.ErrVaultNotFound.Wrapf("vault %s", vaultID)
	}
	return vault, nil
}

// setVault validates and persists a vault.
func (k *Keeper) setVault(ctx context.Context, vault *types.Vault) error {
	if err := vault.Validate(); err != nil {
		return err
	}
	return k.Vaults.SetVault(ctx, vault)
}

// getOrNewPosition returns the stored position for the owner, or a fresh
// zero-share position if the owner has never deposited.
func (k *Keeper) getOrNewPosition(ctx context.Context, vaultID, owner string) (*types.Position, error) {
	position, err := k.Positions.GetPosition(ctx, vaultID, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load position %s/%s: %w", vaultID, owner, err)
	}
	if position == nil {
		position = types.NewPosition(vaultID, owner)
	}
	return position, nil
}

// commitLedger persists a mutated position and its vault as one unit. The
// repositories expose no transactions, so a failed vault persist compensates
// by writing the pre-mutation position snapshot back, keeping the sum of
// position shares equal to the vault's TotalShares aggregate.
func (k *Keeper) commitLedger(ctx context.Context, vault *types.Vault, mutated, prior *types.Position) error {
	if err := k.commitPosition(ctx, mutated, prior.Version); err != nil {
		return err
	}
	if err := k.setVault(ctx, vault); err != nil {
		if rerr := k.Positions.SetPosition(ctx, prior.Clone()); rerr != nil {
			k.logger.Error("failed to restore position after vault persist failure",
				"vault", mutated.VaultID, "owner", mutated.Owner, "err", rerr)
		}
		return fmt.Errorf("failed to persist vault: %w", err)
	}
	return nil
}

// commitPosition writes a mutated position after checking that the stored
// version still matches the one the mutation was computed against. The
// version check is the optimistic guard against a writer racing a stale read.
func (k *Keeper) commitPosition(ctx context.Context, mutated *types.Position, readVersion uint64) error {
	stored, err := k.Positions.GetPosition(ctx, mutated.VaultID, mutated.Owner)
	if err != nil {
		return fmt.Errorf("failed to re-read position %s/%s: %w", mutated.VaultID, mutated.Owner, err)
	}
	if stored != nil && stored.Version != readVersion {
		return types.ErrConcurrentModification.Wrapf(
			"position %s/%s version %d, expected %d", mutated.VaultID, mutated.Owner, stored.Version, readVersion)
	}
	mutated.Version = readVersion + 1
	return k.Positions.SetPosition(ctx, mutated)
}
