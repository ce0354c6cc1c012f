package types

import (
	"fmt"
	"slices"

	sdkmath "cosmossdk.io/math"
)

// Vault is the pooled fund for one risk tier. All aggregate amounts are
// integers in base units of the underlying asset; shares are unscaled
// integers. The share price is TotalAssetsManaged / TotalShares, defined as
// 1:1 when TotalShares is zero.
type Vault struct {
	// ID uniquely identifies the vault.
	ID string
	// RiskTier is the tier this vault serves.
	RiskTier RiskTier
	// UnderlyingAsset is the identifier of the accepted deposit token.
	UnderlyingAsset string
	// Paused rejects all mutating operations while set.
	Paused bool

	// TotalShares is the sum of all depositor share balances.
	TotalShares sdkmath.Int
	// TotalPrincipal is the cost basis: deposits net of withdrawals.
	TotalPrincipal sdkmath.Int
	// TotalAssetsManaged is underlying held plus amounts placed with
	// protocol adapters, including harvested yield.
	TotalAssetsManaged sdkmath.Int
	// TotalTimeWeightedShares aggregates every position's time-weight accrual.
	TotalTimeWeightedShares sdkmath.Int

	// LastEpochTime is the unix time of the most recent harvest boundary.
	LastEpochTime int64
	// ActiveProtocolIds is the ordered set of protocol adapters allocated to.
	ActiveProtocolIds []string

	// BaseWithdrawalFee applies to all withdrawals, as a decimal string
	// (e.g. "0.005" for 0.5%).
	BaseWithdrawalFee string
	// EarlyWithdrawalFee additionally applies to withdrawals made before the
	// lock period elapses, as a decimal string.
	EarlyWithdrawalFee string
	// LockPeriodSeconds is the holding duration below which the early
	// withdrawal fee applies.
	LockPeriodSeconds int64
	// WithdrawalDelaySeconds defers withdrawal payout; zero settles inline.
	WithdrawalDelaySeconds uint64
}

// NewVault creates a vault with zeroed aggregates.
func NewVault(id string, tier RiskTier, underlyingAsset string) *Vault {
	return &Vault{
		ID:                      id,
		RiskTier:                tier,
		UnderlyingAsset:         underlyingAsset,
		TotalShares:             sdkmath.ZeroInt(),
		TotalPrincipal:          sdkmath.ZeroInt(),
		TotalAssetsManaged:      sdkmath.ZeroInt(),
		TotalTimeWeightedShares: sdkmath.ZeroInt(),
	}
}

// Clone returns a deep copy of the vault.
func (v Vault) Clone() *Vault {
	c := v
	c.ActiveProtocolIds = slices.Clone(v.ActiveProtocolIds)
	return &c
}

// Validate performs basic validation on the vault fields.
func (v Vault) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vault id is required")
	}
	if err := v.RiskTier.Validate(); err != nil {
		return err
	}
	if v.UnderlyingAsset == "" {
		return fmt.Errorf("underlying asset is required")
	}
	if v.TotalShares.IsNil() || v.TotalShares.IsNegative() {
		return fmt.Errorf("total shares must be non-negative")
	}
	if v.TotalPrincipal.IsNil() || v.TotalPrincipal.IsNegative() {
		return fmt.Errorf("total principal must be non-negative")
	}
	if v.TotalAssetsManaged.IsNil() || v.TotalAssetsManaged.IsNegative() {
		return fmt.Errorf("total assets managed must be non-negative")
	}
	if v.TotalTimeWeightedShares.IsNil() || v.TotalTimeWeightedShares.IsNegative() {
		return fmt.Errorf("total time-weighted shares must be non-negative")
	}
	if len(v.BaseWithdrawalFee) > 0 {
		if _, err := sdkmath.LegacyNewDecFromStr(v.BaseWithdrawalFee); err != nil {
			return fmt.Errorf("invalid base withdrawal fee: %s", v.BaseWithdrawalFee)
		}
	}
	if len(v.EarlyWithdrawalFee) > 0 {
		if _, err := sdkmath.LegacyNewDecFromStr(v.EarlyWithdrawalFee); err != nil {
			return fmt.Errorf("invalid early withdrawal fee: %s", v.EarlyWithdrawalFee)
		}
	}
	if v.LockPeriodSeconds < 0 {
		return fmt.Errorf("lock period must be non-negative")
	}
	return nil
}

// HasProtocol reports whether the protocol id is in the active set.
func (v Vault) HasProtocol(protocolID string) bool {
	return slices.Contains(v.ActiveProtocolIds, protocolID)
}

// ValidateUnderlyingAsset checks that the given asset identifier is the one
// this vault accepts.
func (v Vault) ValidateUnderlyingAsset(asset string) error {
	if asset != v.UnderlyingAsset {
		return fmt.Errorf("%s asset not supported for vault, expected %s", asset, v.UnderlyingAsset)
	}
	return nil
}
