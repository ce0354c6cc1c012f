package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/types"
)

func (s *TestSuite) TestWithdrawAfterLockChargesBaseFee() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.advanceAndHarvest(vaultID, 200, 50)

	res, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(1_000))
	s.Require().NoError(err)
	s.Require().False(res.Pending)
	s.Require().Equal(sdkmath.NewInt(1_045), res.AmountNet, "1050 gross less truncated 0.5% fee")
	s.Require().Equal(sdkmath.NewInt(5), res.FeeCharged)

	s.Require().Equal(sdkmath.NewInt(1_045), s.ledger.BalanceOf(alice))

	vault := s.mustVault(vaultID)
	s.Require().True(vault.TotalShares.IsZero())
	s.Require().Equal(sdkmath.NewInt(5), vault.TotalAssetsManaged, "fee stays in the vault")
}

func (s *TestSuite) TestWithdrawBeforeLockChargesEarlyFee() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(10))

	res, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(500))
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(473), res.AmountNet, "500 gross less truncated 5.5% fee")
	s.Require().Equal(sdkmath.NewInt(27), res.FeeCharged)
}

func (s *TestSuite) TestWithdrawAtLockBoundaryChargesBaseFeeOnly() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(30))

	res, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(500))
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(2), res.FeeCharged, "exactly at the lock boundary is not early")
}

func (s *TestSuite) TestWithdrawRejectsExcessShares() {
	s.fundAndDeposit(vaultID, alice, 1_000)

	_, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(1_001))
	s.Require().ErrorIs(err, types.ErrInsufficientShares)

	_, err = s.k.Withdraw(s.ctx, vaultID, bob, sdkmath.NewInt(1))
	s.Require().ErrorIs(err, types.ErrInsufficientShares)
}

func (s *TestSuite) TestWithdrawRejectsNonPositiveShares() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	for _, shares := range []sdkmath.Int{sdkmath.ZeroInt(), sdkmath.NewInt(-1)} {
		_, err := s.k.Withdraw(s.ctx, vaultID, alice, shares)
		s.Require().ErrorIs(err, types.ErrInvalidAmount)
	}
}

func (s *TestSuite) TestWithdrawReducesTimeWeightProportionally() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(200))

	// 1000 shares held for 200 epochs, then half withdrawn.
	_, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(500))
	s.Require().NoError(err)

	weight, err := s.k.TimeWeightedShares(s.ctx, vaultID, alice)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(100_000), weight, "200000 accrued, halved with the shares")

	total, err := s.k.TotalTimeWeightedShares(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(100_000), total)
}

func (s *TestSuite) TestFullWithdrawZeroesTimeWeight() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(200))

	_, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(1_000))
	s.Require().NoError(err)

	weight, err := s.k.TimeWeightedShares(s.ctx, vaultID, alice)
	s.Require().NoError(err)
	s.Require().True(weight.IsZero())

	total, err := s.k.TotalTimeWeightedShares(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().True(total.IsZero())
}

func (s *TestSuite) TestPausedVaultRejectsWithdrawals() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.k.SetPaused(s.ctx, vaultID, true))

	_, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(100))
	s.Require().ErrorIs(err, types.ErrVaultPaused)
}

func (s *TestSuite) TestDelayedWithdrawQueuesAndSettles() {
	s.fundAndDeposit(delayedVaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(200))

	res, err := s.k.Withdraw(s.ctx, delayedVaultID, alice, sdkmath.NewInt(400))
	s.Require().NoError(err)
	s.Require().True(res.Pending)
	s.Require().Equal(sdkmath.NewInt(398), res.AmountNet, "400 gross less truncated 0.5% fee")
	s.Require().Equal(1, s.k.PendingWithdrawalQueue.Len())

	// The ledger mutation is immediate; only the payout waits.
	balance, err := s.k.BalanceOf(s.ctx, delayedVaultID, alice)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(600), balance)
	s.Require().True(s.ledger.BalanceOf(alice).IsZero())

	// Not due yet: settling is a no-op.
	s.Require().NoError(s.k.SettlePending(s.ctx))
	s.Require().Equal(1, s.k.PendingWithdrawalQueue.Len())
	s.Require().True(s.ledger.BalanceOf(alice).IsZero())

	s.Require().NoError(s.clock.AdvanceDays(2))
	s.Require().NoError(s.k.SettlePending(s.ctx))
	s.Require().Equal(0, s.k.PendingWithdrawalQueue.Len())
	s.Require().Equal(sdkmath.NewInt(398), s.ledger.BalanceOf(alice))

	events := s.events.EventsOfType("withdrawn")
	s.Require().Len(events, 1)
	s.Require().Empty(s.events.EventsOfType("withdraw_refunded"))
}

func (s *TestSuite) TestFailedPayoutRefundsEscrowedShares() {
	s.fundAndDeposit(delayedVaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(200))

	res, err := s.k.Withdraw(s.ctx, delayedVaultID, alice, sdkmath.NewInt(400))
	s.Require().NoError(err)
	s.Require().True(res.Pending)

	// Drain the vault's custody account so the payout cannot settle.
	s.Require().NoError(s.ledger.Transfer(s.ctx, delayedVaultID, "sink", sdkmath.NewInt(1_000)))

	s.Require().NoError(s.clock.AdvanceDays(2))
	s.Require().NoError(s.k.SettlePending(s.ctx))
	s.Require().Equal(0, s.k.PendingWithdrawalQueue.Len(), "failed requests are dequeued after refund")

	// The escrow is reversed: shares and vault aggregates restored.
	balance, err := s.k.BalanceOf(s.ctx, delayedVaultID, alice)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(1_000), balance)

	vault := s.mustVault(delayedVaultID)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalShares)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalAssetsManaged)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalPrincipal)
	s.Require().True(s.ledger.BalanceOf(alice).IsZero())

	refunds := s.events.EventsOfType("withdraw_refunded")
	s.Require().Len(refunds, 1)
	ev, ok := refunds[0].(*types.EventWithdrawRefunded)
	s.Require().True(ok)
	s.Require().Equal(alice, ev.Owner)
	s.Require().Equal("400", ev.Shares)
	s.Require().Equal(types.RefundReasonTransferFailed, ev.Reason)
}

func (s *TestSuite) TestInlineWithdrawEmitsWithdrawnEvent() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(40))

	_, err := s.k.Withdraw(s.ctx, vaultID, alice, sdkmath.NewInt(1_000))
	s.Require().NoError(err)

	events := s.events.EventsOfType("withdrawn")
	s.Require().Len(events, 1)
	ev, ok := events[0].(*types.EventWithdrawn)
	s.Require().True(ok)
	s.Require().Equal("1000", ev.Shares)
	s.Require().Equal("995", ev.AmountNet)
	s.Require().Equal("5", ev.Fee)
}
