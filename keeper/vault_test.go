package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/config"
	"github.com/polystream/vault/types"
	"github.com/polystream/vault/utils"
)

func (s *TestSuite) TestCreateVaultRejectsDuplicate() {
	_, err := s.k.CreateVault(s.ctx, config.VaultConfig{ID: vaultID, RiskTier: "high", UnderlyingAsset: asset})
	s.Require().ErrorContains(err, "already exists")
}

func (s *TestSuite) TestFirstDepositMintsSharesOneToOne() {
	shares := s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().Equal(sdkmath.NewInt(1_000), shares)

	vault := s.mustVault(vaultID)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalShares)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalPrincipal)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalAssetsManaged)

	price, err := s.k.SharePrice(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(utils.PricePrecision, price)

	s.Require().True(s.ledger.BalanceOf(alice).IsZero())
	s.Require().Equal(sdkmath.NewInt(1_000), s.ledger.BalanceOf(vaultID))
}

func (s *TestSuite) TestDepositAfterYieldMintsProportionally() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.advanceAndHarvest(vaultID, 1, 50)

	shares := s.fundAndDeposit(vaultID, bob, 500)
	s.Require().Equal(sdkmath.NewInt(476), shares, "floor(500 * 1000 / 1050)")

	vault := s.mustVault(vaultID)
	s.Require().Equal(sdkmath.NewInt(1_476), vault.TotalShares)
	s.Require().Equal(sdkmath.NewInt(1_550), vault.TotalAssetsManaged)
	s.Require().Equal(sdkmath.NewInt(1_500), vault.TotalPrincipal)
}

func (s *TestSuite) TestDepositRecordsEntryTimeOnFirstDepositOnly() {
	s.fundAndDeposit(vaultID, alice, 1_000)

	entry, err := s.k.EntryTime(s.ctx, vaultID, alice)
	s.Require().NoError(err)
	s.Require().Equal(s.genesis.Unix(), entry)

	s.Require().NoError(s.clock.AdvanceDays(5))
	s.fundAndDeposit(vaultID, alice, 200)

	entry, err = s.k.EntryTime(s.ctx, vaultID, alice)
	s.Require().NoError(err)
	s.Require().Equal(s.genesis.Unix(), entry, "second deposit must not reset entry time")
}

func (s *TestSuite) TestDepositRegistersActiveUserOnce() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.fundAndDeposit(vaultID, bob, 500)
	s.fundAndDeposit(vaultID, alice, 300)

	users, err := s.k.ActiveUsers(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal([]string{alice, bob}, users)
}

func (s *TestSuite) TestDepositTracksPerEpochAmounts() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(3))
	s.fundAndDeposit(vaultID, alice, 250)
	s.fundAndDeposit(vaultID, alice, 250)

	amount, err := s.k.EpochDeposits(s.ctx, vaultID, alice, 0)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(1_000), amount)

	amount, err = s.k.EpochDeposits(s.ctx, vaultID, alice, 3)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(500), amount)

	amount, err = s.k.EpochDeposits(s.ctx, vaultID, alice, 1)
	s.Require().NoError(err)
	s.Require().True(amount.IsZero())
}

func (s *TestSuite) TestDepositRejectsNonPositiveAmount() {
	for _, amount := range []sdkmath.Int{sdkmath.ZeroInt(), sdkmath.NewInt(-5)} {
		_, err := s.k.Deposit(s.ctx, vaultID, alice, amount)
		s.Require().ErrorIs(err, types.ErrInvalidAmount)
	}
}

func (s *TestSuite) TestDepositFailsWithoutFunds() {
	_, err := s.k.Deposit(s.ctx, vaultID, alice, sdkmath.NewInt(1_000))
	s.Require().ErrorIs(err, types.ErrInsufficientBalance)

	vault := s.mustVault(vaultID)
	s.Require().True(vault.TotalShares.IsZero(), "failed transfer must not mint shares")

	balance, err := s.k.BalanceOf(s.ctx, vaultID, alice)
	s.Require().NoError(err)
	s.Require().True(balance.IsZero())

	users, err := s.k.ActiveUsers(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Empty(users)
}

func (s *TestSuite) TestDepositRejectsUnknownVault() {
	s.ledger.Fund(alice, sdkmath.NewInt(100))
	_, err := s.k.Deposit(s.ctx, "no-such-vault", alice, sdkmath.NewInt(100))
	s.Require().ErrorIs(err, types.ErrVaultNotFound)
}

func (s *TestSuite) TestPausedVaultRejectsDeposits() {
	s.Require().NoError(s.k.SetPaused(s.ctx, vaultID, true))

	s.ledger.Fund(alice, sdkmath.NewInt(100))
	_, err := s.k.Deposit(s.ctx, vaultID, alice, sdkmath.NewInt(100))
	s.Require().ErrorIs(err, types.ErrVaultPaused)

	s.Require().NoError(s.k.SetPaused(s.ctx, vaultID, false))
	_, err = s.k.Deposit(s.ctx, vaultID, alice, sdkmath.NewInt(100))
	s.Require().NoError(err)
}

func (s *TestSuite) TestDepositEmitsEvent() {
	s.fundAndDeposit(vaultID, alice, 1_000)

	events := s.events.EventsOfType("deposited")
	s.Require().Len(events, 1)
	ev, ok := events[0].(*types.EventDeposited)
	s.Require().True(ok)
	s.Require().Equal(vaultID, ev.VaultID)
	s.Require().Equal(alice, ev.Owner)
	s.Require().Equal("1000", ev.Amount)
	s.Require().Equal("1000", ev.Shares)
	s.Require().NotEmpty(ev.TxRef)
}

func (s *TestSuite) TestBalanceOfUnknownUserIsZero() {
	balance, err := s.k.BalanceOf(s.ctx, vaultID, "stranger")
	s.Require().NoError(err)
	s.Require().True(balance.IsZero())
}
