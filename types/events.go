package types

import (
	sdkmath "cosmossdk.io/math"
)

const (
	RefundReasonInsufficientFunds = "insufficient_funds"
	RefundReasonTransferFailed    = "transfer_failed"
	RefundReasonVaultNotFound     = "vault_not_found"
	RefundReasonUnknown           = "unknown_error"
)

// Event is an audit record emitted by the engine. Events are for
// observability and indexing, not user notification.
type Event interface {
	EventType() string
}

type EventVaultCreated struct {
	VaultID         string
	RiskTier        string
	UnderlyingAsset string
}

func (EventVaultCreated) EventType() string { return "vault_created" }

// NewEventVaultCreated creates a new EventVaultCreated event.
func NewEventVaultCreated(vault *Vault) *EventVaultCreated {
	return &EventVaultCreated{
		VaultID:         vault.ID,
		RiskTier:        string(vault.RiskTier),
		UnderlyingAsset: vault.UnderlyingAsset,
	}
}

type EventDeposited struct {
	VaultID string
	Owner   string
	Amount  string
	Shares  string
	TxRef   string
}

func (EventDeposited) EventType() string { return "deposited" }

// NewEventDeposited creates a new EventDeposited event.
func NewEventDeposited(vaultID, owner string, amount, shares sdkmath.Int, txRef string) *EventDeposited {
	return &EventDeposited{
		VaultID: vaultID,
		Owner:   owner,
		Amount:  amount.String(),
		Shares:  shares.String(),
		TxRef:   txRef,
	}
}

type EventWithdrawRequested struct {
	VaultID   string
	Owner     string
	Shares    string
	AmountNet string
	Fee       string
	RequestID uint64
	TxRef     string
}

func (EventWithdrawRequested) EventType() string { return "withdraw_requested" }

// NewEventWithdrawRequested creates a new EventWithdrawRequested event.
func NewEventWithdrawRequested(vaultID, owner string, shares, amountNet, fee sdkmath.Int, requestID uint64, txRef string) *EventWithdrawRequested {
	return &EventWithdrawRequested{
		VaultID:   vaultID,
		Owner:     owner,
		Shares:    shares.String(),
		AmountNet: amountNet.String(),
		Fee:       fee.String(),
		RequestID: requestID,
		TxRef:     txRef,
	}
}

type EventWithdrawn struct {
	VaultID   string
	Owner     string
	Shares    string
	AmountNet string
	Fee       string
	TxRef     string
}

func (EventWithdrawn) EventType() string { return "withdrawn" }

// NewEventWithdrawn creates a new EventWithdrawn event.
func NewEventWithdrawn(vaultID, owner string, shares, amountNet, fee sdkmath.Int, txRef string) *EventWithdrawn {
	return &EventWithdrawn{
		VaultID:   vaultID,
		Owner:     owner,
		Shares:    shares.String(),
		AmountNet: amountNet.String(),
		Fee:       fee.String(),
		TxRef:     txRef,
	}
}

type EventWithdrawRefunded struct {
	VaultID   string
	Owner     string
	Shares    string
	RequestID uint64
	Reason    string
}

func (EventWithdrawRefunded) EventType() string { return "withdraw_refunded" }

// NewEventWithdrawRefunded creates a new EventWithdrawRefunded event.
func NewEventWithdrawRefunded(vaultID, owner string, shares sdkmath.Int, requestID uint64, reason string) *EventWithdrawRefunded {
	return &EventWithdrawRefunded{
		VaultID:   vaultID,
		Owner:     owner,
		Shares:    shares.String(),
		RequestID: requestID,
		Reason:    reason,
	}
}

type EventHarvested struct {
	VaultID         string
	Timestamp       int64
	HarvestedAmount string
}

func (EventHarvested) EventType() string { return "harvested" }

// NewEventHarvested creates a new EventHarvested event.
func NewEventHarvested(vaultID string, timestamp int64, harvested sdkmath.Int) *EventHarvested {
	return &EventHarvested{
		VaultID:         vaultID,
		Timestamp:       timestamp,
		HarvestedAmount: harvested.String(),
	}
}

type EventProtocolAdded struct {
	VaultID    string
	ProtocolID string
}

func (EventProtocolAdded) EventType() string { return "protocol_added" }

// NewEventProtocolAdded creates a new EventProtocolAdded event.
func NewEventProtocolAdded(vaultID, protocolID string) *EventProtocolAdded {
	return &EventProtocolAdded{VaultID: vaultID, ProtocolID: protocolID}
}

type EventProtocolRemoved struct {
	VaultID    string
	ProtocolID string
}

func (EventProtocolRemoved) EventType() string { return "protocol_removed" }

// NewEventProtocolRemoved creates a new EventProtocolRemoved event.
func NewEventProtocolRemoved(vaultID, protocolID string) *EventProtocolRemoved {
	return &EventProtocolRemoved{VaultID: vaultID, ProtocolID: protocolID}
}

type EventVaultPauseToggled struct {
	VaultID string
	Paused  bool
}

func (EventVaultPauseToggled) EventType() string { return "vault_pause_toggled" }

// NewEventVaultPauseToggled creates a new EventVaultPauseToggled event.
func NewEventVaultPauseToggled(vaultID string, paused bool) *EventVaultPauseToggled {
	return &EventVaultPauseToggled{VaultID: vaultID, Paused: paused}
}
