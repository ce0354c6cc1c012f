package keeper

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/polystream/vault/types"
	"github.com/polystream/vault/utils"
)

// VaultAttributer provides the attributes for creating a new vault.
type VaultAttributer interface {
	GetID() string
	GetRiskTier() string
	GetUnderlyingAsset() string
	GetBaseWithdrawalFee() string
	GetEarlyWithdrawalFee() string
	GetLockPeriodSeconds() int64
	GetWithdrawalDelaySeconds() uint64
}

// CreateVault creates the vault based on the provided attributes.
func (k *Keeper) CreateVault(ctx context.Context, attributes VaultAttributer) (*types.Vault, error) {
	existing, err := k.Vaults.GetVault(ctx, attributes.GetID())
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing vault: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("vault %s already exists", attributes.GetID())
	}

	vault := types.NewVault(attributes.GetID(), types.RiskTier(attributes.GetRiskTier()), attributes.GetUnderlyingAsset())
	vault.BaseWithdrawalFee = attributes.GetBaseWithdrawalFee()
	vault.EarlyWithdrawalFee = attributes.GetEarlyWithdrawalFee()
	vault.LockPeriodSeconds = attributes.GetLockPeriodSeconds()
	vault.WithdrawalDelaySeconds = attributes.GetWithdrawalDelaySeconds()
	vault.LastEpochTime = k.schedule.Genesis().Unix()

	if err := k.setVault(ctx, vault); err != nil {
		return nil, fmt.Errorf("failed to store new vault: %w", err)
	}

	k.emitEvent(ctx, types.NewEventVaultCreated(vault))
	return vault, nil
}

// GetVault finds a vault by id. Returns nil if no vault exists under the id.
func (k *Keeper) GetVault(ctx context.Context, vaultID string) (*types.Vault, error) {
	return k.Vaults.GetVault(ctx, vaultID)
}

// SetPaused toggles the vault's pause switch. A paused vault rejects all
// mutating operations until unpaused.
func (k *Keeper) SetPaused(ctx context.Context, vaultID string, paused bool) error {
	lock := k.vaultLock(vaultID)
	lock.Lock()
	defer lock.Unlock()

	vault, err := k.mustGetVault(ctx, vaultID)
	if err != nil {
		return err
	}
	if vault.Paused == paused {
		return nil
	}
	vault.Paused = paused
	if err := k.setVault(ctx, vault); err != nil {
		return err
	}
	k.emitEvent(ctx, types.NewEventVaultPauseToggled(vaultID, paused))
	return nil
}

// Deposit converts an underlying-asset amount into vault shares for the user.
//
// The operation is all-or-nothing: the share computation runs on cloned
// state, the asset transfer collaborator provides the definitive settlement
// signal, and only after it succeeds are the mutated vault and position
// committed. A failed transfer leaves no partial share credit.
func (k *Keeper) Deposit(ctx context.Context, vaultID, owner string, amount sdkmath.Int) (*types.DepositResult, error) {
	lock := k.vaultLock(vaultID)
	lock.Lock()
	defer lock.Unlock()

	trace := k.newTxTrace("deposit", vaultID, owner)
	result, err := k.executeDeposit(ctx, trace, vaultID, owner, amount)
	if err != nil {
		trace.reject(err)
		return nil, err
	}
	return result, nil
}

func (k *Keeper) executeDeposit(ctx context.Context, trace *txTrace, vaultID, owner string, amount sdkmath.Int) (*types.DepositResult, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return nil, types.ErrInvalidAmount.Wrapf("deposit amount must be positive, got %s", amount)
	}

	now, err := k.observeNow(vaultID)
	if err != nil {
		return nil, err
	}

	stored, err := k.mustGetVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if stored.Paused {
		return nil, types.ErrVaultPaused.Wrapf("vault %s", vaultID)
	}

	storedPos, err := k.getOrNewPosition(ctx, vaultID, owner)
	if err != nil {
		return nil, err
	}

	currentEpoch, err := k.schedule.CurrentEpoch(now)
	if err != nil {
		return nil, err
	}
	trace.advance(types.TxStatusValidated)

	// Work on clones; nothing below mutates persisted state until commit.
	vault := stored.Clone()
	position := storedPos.Clone()

	accrueTimeWeight(vault, position, currentEpoch)

	shares, err := utils.CalculateSharesFromAssets(amount, vault.TotalAssetsManaged, vault.TotalShares)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate shares from assets: %w", err)
	}
	if shares.IsZero() {
		return nil, types.ErrInvalidAmount.Wrapf("deposit of %s is too small and mints zero shares", amount)
	}
	trace.advance(types.TxStatusSharesComputed)

	if err := k.Transfer.TransferFrom(ctx, owner, vaultID, amount); err != nil {
		if errors.Is(err, types.ErrInsufficientBalance) {
			return nil, err
		}
		return nil, types.ErrTransferFailed.Wrapf("deposit settlement: %v", err)
	}

	firstDeposit := !position.HasDepositedBefore
	position.Shares = position.Shares.Add(shares)
	position.RecordEpochDeposit(currentEpoch, amount)
	if firstDeposit {
		position.EntryTime = now.Unix()
		position.HasDepositedBefore = true
	}

	vault.TotalShares = vault.TotalShares.Add(shares)
	vault.TotalPrincipal = vault.TotalPrincipal.Add(amount)
	vault.TotalAssetsManaged = vault.TotalAssetsManaged.Add(amount)
	trace.advance(types.TxStatusApplied)

	if err := k.commitLedger(ctx, vault, position, storedPos); err != nil {
		// The deposit was already pulled into custody; return it so a
		// failed commit leaves the owner whole.
		if rerr := k.Transfer.Transfer(ctx, vaultID, owner, amount); rerr != nil {
			k.logger.Error("failed to return deposit after commit failure",
				"vault", vaultID, "owner", owner, "err", rerr)
		}
		return nil, err
	}
	if firstDeposit {
		if err := k.Positions.AppendActiveUser(ctx, vaultID, owner); err != nil {
			return nil, fmt.Errorf("failed to register active user: %w", err)
		}
	}
	trace.advance(types.TxStatusConfirmed)

	txRef := uuid.NewString()
	k.emitEvent(ctx, types.NewEventDeposited(vaultID, owner, amount, shares, txRef))
	return &types.DepositResult{Shares: shares, TxRef: txRef}, nil
}

// Withdraw redeems shares for the underlying asset, applying the withdrawal
// fee tiers. The ledger mutation (share burn, weight reduction, aggregate
// decrements) is applied immediately with the shares held in escrow; payout
// settles inline when the vault has no withdrawal delay, otherwise the
// request is queued and settled by SettlePending once due. The fee stays in
// the vault, inflating the share price for remaining holders.
func (k *Keeper) Withdraw(ctx context.Context, vaultID, owner string, shareAmount sdkmath.Int) (*types.WithdrawResult, error) {
	lock := k.vaultLock(vaultID)
	lock.Lock()
	defer lock.Unlock()

	trace := k.newTxTrace("withdraw", vaultID, owner)
	result, err := k.executeWithdraw(ctx, trace, vaultID, owner, shareAmount)
	if err != nil {
		trace.reject(err)
		return nil, err
	}
	return result, nil
}

func (k *Keeper) executeWithdraw(ctx context.Context, trace *txTrace, vaultID, owner string, shareAmount sdkmath.Int) (*types.WithdrawResult, error) {
	if shareAmount.IsNil() || !shareAmount.IsPositive() {
		return nil, types.ErrInvalidAmount.Wrapf("withdraw share amount must be positive, got %s", shareAmount)
	}

	now, err := k.observeNow(vaultID)
	if err != nil {
		return nil, err
	}

	stored, err := k.mustGetVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if stored.Paused {
		return nil, types.ErrVaultPaused.Wrapf("vault %s", vaultID)
	}

	storedPos, err := k.getOrNewPosition(ctx, vaultID, owner)
	if err != nil {
		return nil, err
	}
	if shareAmount.GT(storedPos.Shares) {
		return nil, types.ErrInsufficientShares.Wrapf("withdraw %s exceeds balance %s", shareAmount, storedPos.Shares)
	}

	currentEpoch, err := k.schedule.CurrentEpoch(now)
	if err != nil {
		return nil, err
	}
	trace.advance(types.TxStatusValidated)

	vault := stored.Clone()
	position := storedPos.Clone()

	accrueTimeWeight(vault, position, currentEpoch)

	gross, err := utils.CalculateAssetsFromShares(shareAmount, vault.TotalShares, vault.TotalAssetsManaged)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate assets from shares: %w", err)
	}
	if gross.IsZero() {
		return nil, types.ErrInvalidAmount.Wrapf("redeem amount of %s shares is too small and results in zero assets", shareAmount)
	}

	early := now.Unix()-position.EntryTime < vault.LockPeriodSeconds
	fee, err := utils.CalculateWithdrawalFee(gross, vault.BaseWithdrawalFee, vault.EarlyWithdrawalFee, early)
	if err != nil {
		return nil, err
	}
	net := gross.Sub(fee)
	trace.advance(types.TxStatusSharesComputed)

	sharesAfter := position.Shares.Sub(shareAmount)
	reduceTimeWeight(vault, position, sharesAfter)
	position.Shares = sharesAfter

	vault.TotalShares = vault.TotalShares.Sub(shareAmount)
	vault.TotalAssetsManaged = vault.TotalAssetsManaged.Sub(net)
	principalOut := gross
	if principalOut.GT(vault.TotalPrincipal) {
		principalOut = vault.TotalPrincipal
	}
	vault.TotalPrincipal = vault.TotalPrincipal.Sub(principalOut)

	txRef := uuid.NewString()

	if vault.WithdrawalDelaySeconds == 0 {
		if err := k.Transfer.Transfer(ctx, vaultID, owner, net); err != nil {
			if errors.Is(err, types.ErrInsufficientBalance) {
				return nil, err
			}
			return nil, types.ErrTransferFailed.Wrapf("withdrawal settlement: %v", err)
		}
		trace.advance(types.TxStatusApplied)
		if err := k.commitLedger(ctx, vault, position, storedPos); err != nil {
			// The payout already left custody; pull it back so the owner
			// does not keep both the shares and the assets.
			if rerr := k.Transfer.TransferFrom(ctx, owner, vaultID, net); rerr != nil {
				k.logger.Error("failed to recover payout after commit failure",
					"vault", vaultID, "owner", owner, "err", rerr)
			}
			return nil, err
		}
		trace.advance(types.TxStatusConfirmed)
		k.emitEvent(ctx, types.NewEventWithdrawn(vaultID, owner, shareAmount, net, fee, txRef))
		return &types.WithdrawResult{AmountNet: net, FeeCharged: fee, TxRef: txRef}, nil
	}

	// Delayed path: the escrow mutation is applied now, the payout settles
	// later.
	trace.advance(types.TxStatusApplied)
	if err := k.commitLedger(ctx, vault, position, storedPos); err != nil {
		return nil, err
	}
	trace.advance(types.TxStatusConfirmed)

	payoutTime := now.Unix() + int64(vault.WithdrawalDelaySeconds)
	requestID, err := k.PendingWithdrawalQueue.Enqueue(payoutTime, types.PendingWithdrawal{
		VaultID:      vaultID,
		Owner:        owner,
		Shares:       shareAmount,
		AmountGross:  gross,
		AmountNet:    net,
		Fee:          fee,
		PrincipalOut: principalOut,
		TxRef:        txRef,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue pending withdrawal: %w", err)
	}

	k.emitEvent(ctx, types.NewEventWithdrawRequested(vaultID, owner, shareAmount, net, fee, requestID, txRef))
	return &types.WithdrawResult{AmountNet: net, FeeCharged: fee, TxRef: txRef, Pending: true, RequestID: requestID}, nil
}
