// Package simulation provides in-memory implementations of the engine's
// external collaborators for tests and the simulator binary: a funded token
// ledger, fixed-yield protocol adapters, an adapter registry and a recording
// event service.
package simulation

import (
	"context"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/polystream/vault/types"
)

// TokenLedger is an in-memory fungible-token ledger implementing the asset
// transfer collaborator. Transfers are definitive: they either move the full
// amount or fail with no effect.
type TokenLedger struct {
	mu       sync.Mutex
	balances map[string]sdkmath.Int
}

var _ types.AssetTransfer = (*TokenLedger)(nil)

// NewTokenLedger creates an empty ledger.
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{balances: map[string]sdkmath.Int{}}
}

// Fund credits amount to the account.
func (l *TokenLedger) Fund(account string, amount sdkmath.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = l.balanceLocked(account).Add(amount)
}

// BalanceOf returns the account's balance.
func (l *TokenLedger) BalanceOf(account string) sdkmath.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(account)
}

// Approve is a no-op; the in-memory ledger does not track allowances.
func (l *TokenLedger) Approve(_ context.Context, _, _ string, _ sdkmath.Int) error {
	return nil
}

// TransferFrom moves amount from owner to the vault's custody account.
func (l *TokenLedger) TransferFrom(_ context.Context, owner, vault string, amount sdkmath.Int) error {
	return l.move(owner, vault, amount)
}

// Transfer pays amount from the vault's custody account to the recipient.
func (l *TokenLedger) Transfer(_ context.Context, vault, recipient string, amount sdkmath.Int) error {
	return l.move(vault, recipient, amount)
}

func (l *TokenLedger) move(from, to string, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return types.ErrInvalidAmount.Wrapf("transfer amount %s", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBal := l.balanceLocked(from)
	if fromBal.LT(amount) {
		return types.ErrInsufficientBalance.Wrapf("%s has %s, needs %s", from, fromBal, amount)
	}
	l.balances[from] = fromBal.Sub(amount)
	l.balances[to] = l.balanceLocked(to).Add(amount)
	return nil
}

func (l *TokenLedger) balanceLocked(account string) sdkmath.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}
