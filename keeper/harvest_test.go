package keeper_test

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/types"
	"github.com/polystream/vault/utils"
)

func (s *TestSuite) TestHarvestNotDueWithinEpoch() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.adapter.AccrueYield(sdkmath.NewInt(50))

	res, err := s.k.CheckAndHarvest(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().False(res.Due)
	s.Require().True(res.HarvestedAmount.IsZero())

	vault := s.mustVault(vaultID)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalAssetsManaged, "not-due harvest must not mutate")
	s.Require().Equal(s.genesis.Unix(), vault.LastEpochTime)
}

func (s *TestSuite) TestHarvestFoldsYieldIntoAssets() {
	s.fundAndDeposit(vaultID, alice, 1_000)

	res := s.advanceAndHarvest(vaultID, 1, 50)
	s.Require().True(res.Due)
	s.Require().Equal(sdkmath.NewInt(50), res.HarvestedAmount)

	vault := s.mustVault(vaultID)
	s.Require().Equal(sdkmath.NewInt(1_050), vault.TotalAssetsManaged)
	s.Require().Equal(sdkmath.NewInt(1_000), vault.TotalPrincipal, "principal is deposits only")
	s.Require().Equal(s.clock.Now().Unix(), vault.LastEpochTime)

	price, err := s.k.SharePrice(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(1_050_000_000_000), price)
}

func (s *TestSuite) TestHarvestIsIdempotentWithinEpoch() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.advanceAndHarvest(vaultID, 1, 50)

	// Same instant: the timestamp gate reports not due, nothing changes.
	s.adapter.AccrueYield(sdkmath.NewInt(999))
	res, err := s.k.CheckAndHarvest(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().False(res.Due)

	vault := s.mustVault(vaultID)
	s.Require().Equal(sdkmath.NewInt(1_050), vault.TotalAssetsManaged)
}

func (s *TestSuite) TestHarvestMultipleElapsedEpochsRunsOnce() {
	s.fundAndDeposit(vaultID, alice, 1_000)

	// 5 epochs elapse but the accumulated yield is pulled in one harvest.
	res := s.advanceAndHarvest(vaultID, 5, 250)
	s.Require().True(res.Due)
	s.Require().Equal(sdkmath.NewInt(250), res.HarvestedAmount)
}

func (s *TestSuite) TestHarvestWithNoSharesAdvancesEpochOnly() {
	s.adapter.AccrueYield(sdkmath.NewInt(99))
	s.Require().NoError(s.clock.AdvanceDays(1))

	res, err := s.k.CheckAndHarvest(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().True(res.Due)
	s.Require().True(res.HarvestedAmount.IsZero(), "no holders, nothing to distribute")

	vault := s.mustVault(vaultID)
	s.Require().True(vault.TotalAssetsManaged.IsZero())
	s.Require().Equal(s.clock.Now().Unix(), vault.LastEpochTime)

	price, err := s.k.SharePrice(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(utils.PricePrecision, price, "empty vault stays at 1:1")
}

func (s *TestSuite) TestHarvestAdapterFailureAborts() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.clock.AdvanceDays(1))
	s.adapter.FailHarvests(errors.New("venue offline"))

	_, err := s.k.CheckAndHarvest(s.ctx, vaultID)
	s.Require().ErrorContains(err, "venue offline")

	vault := s.mustVault(vaultID)
	s.Require().Equal(s.genesis.Unix(), vault.LastEpochTime, "failed harvest must not advance the epoch marker")

	// The next attempt succeeds and pulls the yield.
	s.adapter.FailHarvests(nil)
	s.adapter.AccrueYield(sdkmath.NewInt(50))
	res, err := s.k.CheckAndHarvest(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().True(res.Due)
	s.Require().Equal(sdkmath.NewInt(50), res.HarvestedAmount)
}

func (s *TestSuite) TestPausedVaultRejectsHarvest() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().NoError(s.k.SetPaused(s.ctx, vaultID, true))
	s.Require().NoError(s.clock.AdvanceDays(1))

	_, err := s.k.CheckAndHarvest(s.ctx, vaultID)
	s.Require().ErrorIs(err, types.ErrVaultPaused)
}

func (s *TestSuite) TestHarvestEmitsEvent() {
	s.fundAndDeposit(vaultID, alice, 1_000)
	s.advanceAndHarvest(vaultID, 1, 50)

	events := s.events.EventsOfType("harvested")
	s.Require().Len(events, 1)
	ev, ok := events[0].(*types.EventHarvested)
	s.Require().True(ok)
	s.Require().Equal(vaultID, ev.VaultID)
	s.Require().Equal("50", ev.HarvestedAmount)
	s.Require().Equal(s.clock.Now().Unix(), ev.Timestamp)
}

func (s *TestSuite) TestAddProtocolRejectsDuplicate() {
	err := s.k.AddProtocol(s.ctx, vaultID, protocolID)
	s.Require().ErrorIs(err, types.ErrProtocolAlreadyActive)
}

func (s *TestSuite) TestAddProtocolRequiresAdapter() {
	err := s.k.AddProtocol(s.ctx, vaultID, "unknown-protocol")
	s.Require().ErrorContains(err, "no adapter")
}

func (s *TestSuite) TestRemoveProtocol() {
	s.Require().NoError(s.k.RemoveProtocol(s.ctx, vaultID, protocolID))
	s.Require().False(s.mustVault(vaultID).HasProtocol(protocolID))

	err := s.k.RemoveProtocol(s.ctx, vaultID, protocolID)
	s.Require().ErrorIs(err, types.ErrProtocolNotActive)
}

func (s *TestSuite) TestEstimatedAPYPassesThroughAdapterRate() {
	apy, err := s.k.EstimatedAPY(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(uint64(692), apy)

	s.Require().NoError(s.k.RemoveProtocol(s.ctx, vaultID, protocolID))
	apy, err = s.k.EstimatedAPY(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(uint64(0), apy)
}

// TestFullLifecycle walks a single depositor through the whole arc: deposit
// at genesis, 200 days of epochs with one harvest, then a full post-lock
// withdrawal.
func (s *TestSuite) TestFullLifecycle() {
	shares := s.fundAndDeposit(vaultID, alice, 1_000)
	s.Require().Equal(sdkmath.NewInt(1_000), shares)

	res := s.advanceAndHarvest(vaultID, 200, 50)
	s.Require().Equal(sdkmath.NewInt(50), res.HarvestedAmount)

	epochIndex, err := s.k.CurrentEpoch()
	s.Require().NoError(err)
	s.Require().Equal(uint64(200), epochIndex)

	price, err := s.k.SharePrice(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(1_050_000_000_000), price)

	weight, err := s.k.TimeWeightedShares(s.ctx, vaultID, alice)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(200_000), weight, "1000 shares over 200 epochs")

	out, err := s.k.Withdraw(s.ctx, vaultID, alice, shares)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(1_045), out.AmountNet)
	s.Require().Equal(sdkmath.NewInt(5), out.FeeCharged)
	s.Require().Equal(sdkmath.NewInt(1_045), s.ledger.BalanceOf(alice))

	vault := s.mustVault(vaultID)
	s.Require().True(vault.TotalShares.IsZero())
	s.Require().True(vault.TotalPrincipal.IsZero())
	s.Require().Equal(sdkmath.NewInt(5), vault.TotalAssetsManaged)

	tvl, err := s.k.TotalValueLocked(s.ctx, vaultID)
	s.Require().NoError(err)
	s.Require().Equal(sdkmath.NewInt(5), tvl)
}
