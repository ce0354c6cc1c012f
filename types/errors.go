package types

import "cosmossdk.io/errors"

var (
	ErrInvalidAmount          = errors.Register(ModuleName, 2, "invalid amount")
	ErrInsufficientShares     = errors.Register(ModuleName, 3, "insufficient shares")
	ErrInsufficientBalance    = errors.Register(ModuleName, 4, "insufficient balance")
	ErrTransferFailed         = errors.Register(ModuleName, 5, "asset transfer failed")
	ErrInvalidTimeTravel      = errors.Register(ModuleName, 6, "clock moved backward")
	ErrProtocolAlreadyActive  = errors.Register(ModuleName, 7, "protocol already active")
	ErrProtocolNotActive      = errors.Register(ModuleName, 8, "protocol not active")
	ErrConcurrentModification = errors.Register(ModuleName, 9, "concurrent modification of position")
	ErrVaultNotFound          = errors.Register(ModuleName, 10, "vault not found")
	ErrVaultPaused            = errors.Register(ModuleName, 11, "vault is paused")
)
