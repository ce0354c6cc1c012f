package keeper

import (
	"cosmossdk.io/log"

	"github.com/polystream/vault/types"
)

// txTrace records a transaction's movement through its lifecycle statuses
// for the audit log. Illegal transitions are logged, not enforced; the
// processor's control flow is the actual guard.
type txTrace struct {
	logger log.Logger
	status types.TxStatus
}

func (k *Keeper) newTxTrace(op, vaultID, owner string) *txTrace {
	return &txTrace{
		logger: k.logger.With("op", op, "vault", vaultID, "owner", owner),
		status: types.TxStatusRequested,
	}
}

func (t *txTrace) advance(next types.TxStatus) {
	if !t.status.CanTransitionTo(next) {
		t.logger.Error("illegal tx status transition", "from", string(t.status), "to", string(next))
	}
	t.logger.Debug("tx status", "from", string(t.status), "to", string(next))
	t.status = next
}

func (t *txTrace) reject(err error) {
	if t.status.Terminal() {
		return
	}
	t.logger.Debug("tx rejected", "at", string(t.status), "err", err)
	t.status = types.TxStatusRejected
}
