package types

import "slices"

// TxStatus tracks a deposit or withdrawal through its processing lifecycle.
// The ledger mutation is only applied after the asset transfer settles, and
// Rejected is terminal with no observable partial effect.
type TxStatus string

const (
	TxStatusRequested      TxStatus = "requested"
	TxStatusValidated      TxStatus = "validated"
	TxStatusSharesComputed TxStatus = "shares_computed"
	TxStatusApplied        TxStatus = "applied"
	TxStatusConfirmed      TxStatus = "confirmed"
	TxStatusRejected       TxStatus = "rejected"
)

// Rejection is possible up to the point the mutation is applied; a transfer
// failure surfaces after share computation, so SharesComputed can still
// reject. Once Applied, the only way forward is Confirmed.
var txTransitions = map[TxStatus][]TxStatus{
	TxStatusRequested:      {TxStatusValidated, TxStatusRejected},
	TxStatusValidated:      {TxStatusSharesComputed, TxStatusRejected},
	TxStatusSharesComputed: {TxStatusApplied, TxStatusRejected},
	TxStatusApplied:        {TxStatusConfirmed},
}

// CanTransitionTo reports whether next is a legal successor status.
func (s TxStatus) CanTransitionTo(next TxStatus) bool {
	return slices.Contains(txTransitions[s], next)
}

// Terminal reports whether the status admits no further transitions.
func (s TxStatus) Terminal() bool {
	return len(txTransitions[s]) == 0
}
