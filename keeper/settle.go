package keeper

import (
	"context"
	"fmt"

	"github.com/polystream/vault/types"
)

// SettlePending processes the queue of pending withdrawals due at the clock's
// current time. Each due request is claimed by dequeueing it before the
// payout is attempted, so overlapping settlement calls cannot both pay the
// same request. If the payout fails, the escrowed shares are refunded to the
// owner's position. An error is returned only if the queue walk itself fails,
// not for individual payout or refund failures.
func (k *Keeper) SettlePending(ctx context.Context) error {
	now := k.clock.Now().Unix()

	type dueEntry struct {
		payoutTime int64
		id         uint64
		req        types.PendingWithdrawal
	}
	var due []dueEntry

	err := k.PendingWithdrawalQueue.WalkDue(now, func(payoutTime int64, id uint64, req types.PendingWithdrawal) (bool, error) {
		due = append(due, dueEntry{payoutTime: payoutTime, id: id, req: req})
		return false, nil
	})
	if err != nil {
		k.logger.Error("error during pending withdrawal queue walk", "err", err)
		return fmt.Errorf("pending withdrawal walk failed: %w", err)
	}

	for _, entry := range due {
		if err := k.PendingWithdrawalQueue.Dequeue(entry.payoutTime, entry.id); err != nil {
			// Another settler claimed this request between the walk and
			// the dequeue. Leave it to them.
			continue
		}
		if err := k.processSinglePayout(ctx, entry.req); err != nil {
			k.logger.Error("pending withdrawal payout failed, refunding escrow",
				"request_id", entry.id, "vault", entry.req.VaultID, "owner", entry.req.Owner, "err", err)
			k.refundWithdrawal(ctx, entry.id, entry.req, reasonForError(err))
		}
	}
	return nil
}

// processSinglePayout pays out a pending withdrawal to the owner. The ledger
// mutation was applied at request time; the only remaining step is the asset
// transfer. A non-nil error signals the caller to refund the escrow.
func (k *Keeper) processSinglePayout(ctx context.Context, req types.PendingWithdrawal) error {
	if err := k.Transfer.Transfer(ctx, req.VaultID, req.Owner, req.AmountNet); err != nil {
		return types.ErrTransferFailed.Wrapf("pending withdrawal payout: %v", err)
	}
	k.emitEvent(ctx, types.NewEventWithdrawn(req.VaultID, req.Owner, req.Shares, req.AmountNet, req.Fee, req.TxRef))
	return nil
}

// refundWithdrawal reverses the ledger mutation of a failed pending
// withdrawal: the escrowed shares are re-credited to the owner's position and
// the vault aggregates are restored. Time weighting is not restored; accrual
// resumes from the refunded balance. Failures here are logged, not
// propagated, since the request is dequeued either way and the event record
// carries the reason.
func (k *Keeper) refundWithdrawal(ctx context.Context, id uint64, req types.PendingWithdrawal, reason string) {
	lock := k.vaultLock(req.VaultID)
	lock.Lock()
	defer lock.Unlock()

	vault, err := k.mustGetVault(ctx, req.VaultID)
	if err != nil {
		k.logger.Error("cannot refund withdrawal for missing vault", "request_id", id, "vault", req.VaultID, "err", err)
		return
	}
	stored, err := k.getOrNewPosition(ctx, req.VaultID, req.Owner)
	if err != nil {
		k.logger.Error("cannot refund withdrawal, position load failed", "request_id", id, "owner", req.Owner, "err", err)
		return
	}

	position := stored.Clone()
	position.Shares = position.Shares.Add(req.Shares)
	vault.TotalShares = vault.TotalShares.Add(req.Shares)
	vault.TotalAssetsManaged = vault.TotalAssetsManaged.Add(req.AmountNet)
	vault.TotalPrincipal = vault.TotalPrincipal.Add(req.PrincipalOut)

	if err := k.commitLedger(ctx, vault, position, stored); err != nil {
		k.logger.Error("failed to persist refund", "request_id", id, "vault", req.VaultID, "owner", req.Owner, "err", err)
		return
	}

	k.emitEvent(ctx, types.NewEventWithdrawRefunded(req.VaultID, req.Owner, req.Shares, id, reason))
}

func reasonForError(err error) string {
	switch {
	case err == nil:
		return types.RefundReasonUnknown
	case types.ErrInsufficientBalance.Is(err):
		return types.RefundReasonInsufficientFunds
	case types.ErrVaultNotFound.Is(err):
		return types.RefundReasonVaultNotFound
	case types.ErrTransferFailed.Is(err):
		return types.RefundReasonTransferFailed
	default:
		return types.RefundReasonUnknown
	}
}
