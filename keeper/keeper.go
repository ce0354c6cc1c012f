// Package keeper implements the vault accounting engine: share ledger,
// deposit/withdraw processing, epoch-gated harvesting and the pending
// settlement queue. The keeper is stateless over injected repositories and
// collaborators, so it can be exercised without any transport or UI runtime.
package keeper

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/log"

	"github.com/polystream/vault/container"
	"github.com/polystream/vault/epoch"
	"github.com/polystream/vault/types"
)

type Keeper struct {
	Vaults    types.VaultRepository
	Positions types.PositionRepository
	Registry  types.ProtocolRegistry
	Transfer  types.AssetTransfer

	PendingWithdrawalQueue *container.PendingWithdrawalQueue

	schedule     epoch.Schedule
	clock        types.Clock
	eventService types.EventService
	logger       log.Logger

	// Mutations are serialized per vault, not globally, so the tier vaults
	// process deposits concurrently with each other.
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	lastSeen map[string]int64
}

// NewKeeper wires the engine. A nil eventService drops events; a nil logger
// falls back to a no-op logger.
func NewKeeper(
	vaults types.VaultRepository,
	positions types.PositionRepository,
	registry types.ProtocolRegistry,
	transfer types.AssetTransfer,
	schedule epoch.Schedule,
	clock types.Clock,
	eventService types.EventService,
	logger log.Logger,
) *Keeper {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Keeper{
		Vaults:                 vaults,
		Positions:              positions,
		Registry:               registry,
		Transfer:               transfer,
		PendingWithdrawalQueue: container.NewPendingWithdrawalQueue(),
		schedule:               schedule,
		clock:                  clock,
		eventService:           eventService,
		logger:                 logger.With("module", types.ModuleName),
		locks:                  map[string]*sync.Mutex{},
		lastSeen:               map[string]int64{},
	}
}

// Schedule returns the engine's epoch schedule.
func (k *Keeper) Schedule() epoch.Schedule { return k.schedule }

// CurrentEpoch returns the epoch index at the clock's current time.
func (k *Keeper) CurrentEpoch() (uint64, error) {
	return k.schedule.CurrentEpoch(k.clock.Now())
}

// vaultLock returns the mutation lock for a vault id, creating it on first use.
func (k *Keeper) vaultLock(vaultID string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[vaultID]
	if !ok {
		l = &sync.Mutex{}
		k.locks[vaultID] = l
	}
	return l
}

// observeNow reads the clock and rejects backwards movement relative to the
// vault's last observed time. Callers must hold the vault lock.
func (k *Keeper) observeNow(vaultID string) (time.Time, error) {
	now := k.clock.Now()

	k.mu.Lock()
	defer k.mu.Unlock()
	if last, ok := k.lastSeen[vaultID]; ok && now.Unix() < last {
		return time.Time{}, types.ErrInvalidTimeTravel.Wrapf("time %d precedes last observed %d", now.Unix(), last)
	}
	k.lastSeen[vaultID] = now.Unix()
	return now, nil
}

func timeFromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func (k *Keeper) emitEvent(ctx context.Context, event types.Event) {
	if k.eventService == nil {
		return
	}
	k.eventService.Emit(ctx, event)
}
