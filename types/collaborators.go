package types

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
)

// AssetTransfer is the external settlement collaborator. Its methods return a
// definitive success/failure signal; the engine commits ledger mutations only
// on success and discards them on failure.
type AssetTransfer interface {
	// Approve authorizes spender to move up to amount of the caller's funds.
	Approve(ctx context.Context, owner, spender string, amount sdkmath.Int) error
	// TransferFrom moves amount from owner into the vault's custody.
	TransferFrom(ctx context.Context, owner, vault string, amount sdkmath.Int) error
	// Transfer pays amount out of the vault's custody to the recipient.
	Transfer(ctx context.Context, vault, recipient string, amount sdkmath.Int) error
}

// ProtocolAdapter represents one yield-generating venue.
type ProtocolAdapter interface {
	Deposit(ctx context.Context, amount sdkmath.Int) error
	Withdraw(ctx context.Context, shareAmount sdkmath.Int, user string) (sdkmath.Int, error)
	// Harvest returns the yield accumulated since the previous harvest.
	Harvest(ctx context.Context) (sdkmath.Int, error)
	// GetAPY returns the venue's current yield rate in basis points.
	GetAPY(ctx context.Context) (uint64, error)
}

// ProtocolRegistry resolves protocol ids to adapter handles. It carries no
// accounting logic.
type ProtocolRegistry interface {
	GetAdapter(ctx context.Context, protocolID, asset string) (ProtocolAdapter, error)
	RegisterProtocol(ctx context.Context, protocolID string) error
	RegisterAdapter(ctx context.Context, protocolID, asset string, adapter ProtocolAdapter) error
}

// Clock is the engine's time source. Simulation clocks additionally support
// deterministic fast-forward.
type Clock interface {
	Now() time.Time
}

// VaultRepository persists vault aggregates. GetVault returns (nil, nil) when
// no vault exists under the id.
type VaultRepository interface {
	GetVault(ctx context.Context, vaultID string) (*Vault, error)
	SetVault(ctx context.Context, vault *Vault) error
	ListVaultIDs(ctx context.Context) ([]string, error)
}

// PositionRepository persists depositor positions and the per-vault
// active-users registry. GetPosition returns (nil, nil) when the owner has
// never deposited.
type PositionRepository interface {
	GetPosition(ctx context.Context, vaultID, owner string) (*Position, error)
	SetPosition(ctx context.Context, position *Position) error
	PositionsForVault(ctx context.Context, vaultID string) ([]*Position, error)
	ActiveUsers(ctx context.Context, vaultID string) ([]string, error)
	AppendActiveUser(ctx context.Context, vaultID, owner string) error
}

// EventService receives engine audit events.
type EventService interface {
	Emit(ctx context.Context, event Event)
}
