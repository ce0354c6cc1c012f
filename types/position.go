package types

import (
	"fmt"
	"maps"

	sdkmath "cosmossdk.io/math"
)

// Position is one depositor's claim on one vault. A position is created on
// first deposit and never deleted; a zero-share position becomes dormant,
// preserving EntryTime for audit.
type Position struct {
	VaultID string
	Owner   string

	// Shares is this user's claim on the vault.
	Shares sdkmath.Int
	// TimeWeightedShares accrues shares held multiplied by epochs elapsed,
	// reduced proportionally on partial withdrawal.
	TimeWeightedShares sdkmath.Int
	// EntryTime is the unix time of the first deposit.
	EntryTime int64
	// HasDepositedBefore marks the user as already present in the
	// active-users registry.
	HasDepositedBefore bool
	// EpochDeposits maps epoch index to the amount deposited in that epoch.
	EpochDeposits map[uint64]sdkmath.Int
	// LastAccrualEpoch is the epoch through which TimeWeightedShares has
	// been accrued.
	LastAccrualEpoch uint64

	// Version increments on every committed mutation and is checked at
	// commit time to detect concurrent writers.
	Version uint64
}

// NewPosition creates an empty position for the given owner and vault.
func NewPosition(vaultID, owner string) *Position {
	return &Position{
		VaultID:            vaultID,
		Owner:              owner,
		Shares:             sdkmath.ZeroInt(),
		TimeWeightedShares: sdkmath.ZeroInt(),
		EpochDeposits:      map[uint64]sdkmath.Int{},
	}
}

// Clone returns a deep copy of the position.
func (p Position) Clone() *Position {
	c := p
	c.EpochDeposits = maps.Clone(p.EpochDeposits)
	if c.EpochDeposits == nil {
		c.EpochDeposits = map[uint64]sdkmath.Int{}
	}
	return &c
}

// Validate performs basic validation on the position fields.
func (p Position) Validate() error {
	if p.VaultID == "" {
		return fmt.Errorf("position vault id is required")
	}
	if p.Owner == "" {
		return fmt.Errorf("position owner is required")
	}
	if p.Shares.IsNil() || p.Shares.IsNegative() {
		return fmt.Errorf("position shares must be non-negative")
	}
	if p.TimeWeightedShares.IsNil() || p.TimeWeightedShares.IsNegative() {
		return fmt.Errorf("position time-weighted shares must be non-negative")
	}
	return nil
}

// RecordEpochDeposit adds amount to the deposits recorded for the epoch.
func (p *Position) RecordEpochDeposit(epochIndex uint64, amount sdkmath.Int) {
	if p.EpochDeposits == nil {
		p.EpochDeposits = map[uint64]sdkmath.Int{}
	}
	prev, ok := p.EpochDeposits[epochIndex]
	if !ok {
		prev = sdkmath.ZeroInt()
	}
	p.EpochDeposits[epochIndex] = prev.Add(amount)
}
