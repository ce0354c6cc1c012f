package types

import (
	sdkmath "cosmossdk.io/math"
)

// DepositResult reports a completed deposit.
type DepositResult struct {
	// Shares minted to the depositor.
	Shares sdkmath.Int
	// TxRef identifies the settlement transaction.
	TxRef string
}

// WithdrawResult reports a withdrawal. When the vault has a withdrawal delay
// the payout is pending and RequestID identifies the queued request;
// AmountNet and FeeCharged are fixed at request time either way.
type WithdrawResult struct {
	AmountNet  sdkmath.Int
	FeeCharged sdkmath.Int
	TxRef      string
	Pending    bool
	RequestID  uint64
}

// HarvestResult reports a harvest attempt. Due is false when no full epoch
// has elapsed since the last harvest; that is a no-op signal, not an error.
type HarvestResult struct {
	Due             bool
	HarvestedAmount sdkmath.Int
}
