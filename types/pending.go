package types

import (
	sdkmath "cosmossdk.io/math"
)

// PendingWithdrawal is a withdrawal whose shares have been escrowed and whose
// payout is deferred until the vault's withdrawal delay elapses. The ledger
// mutation has already been applied; settlement pays out AmountNet, and a
// failed payout refunds the escrowed shares.
type PendingWithdrawal struct {
	VaultID string
	Owner   string
	// Shares is the escrowed share amount, needed to refund on failure.
	Shares sdkmath.Int
	// AmountGross is the asset value of the shares at request time.
	AmountGross sdkmath.Int
	// AmountNet is the payout after fees.
	AmountNet sdkmath.Int
	// Fee is the withheld withdrawal fee.
	Fee sdkmath.Int
	// PrincipalOut is the cost-basis reduction applied at request time,
	// needed to restore TotalPrincipal exactly on refund.
	PrincipalOut sdkmath.Int
	TxRef        string
}
