// Package store provides repository implementations for vault and position
// state. The engine is stateless and operates over the injected repository
// interfaces; these are the in-memory and SQLite backings.
package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/polystream/vault/types"
)

// MemoryStore is an in-memory repository for vaults, positions and the
// active-users registry. Values are cloned on every read and write so callers
// always observe a consistent snapshot.
type MemoryStore struct {
	mu          sync.RWMutex
	vaults      map[string]*types.Vault
	positions   map[string]map[string]*types.Position
	activeUsers map[string][]string
}

var (
	_ types.VaultRepository    = (*MemoryStore)(nil)
	_ types.PositionRepository = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vaults:      map[string]*types.Vault{},
		positions:   map[string]map[string]*types.Position{},
		activeUsers: map[string][]string{},
	}
}

// GetVault returns the vault under the id, or (nil, nil) if none exists.
func (s *MemoryStore) GetVault(_ context.Context, vaultID string) (*types.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vaults[vaultID]
	if !ok {
		return nil, nil
	}
	return v.Clone(), nil
}

// SetVault stores the vault, replacing any previous state under its id.
func (s *MemoryStore) SetVault(_ context.Context, vault *types.Vault) error {
	if err := vault.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults[vault.ID] = vault.Clone()
	return nil
}

// ListVaultIDs returns all vault ids in sorted order.
func (s *MemoryStore) ListVaultIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.vaults))
	for id := range s.vaults {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetPosition returns the owner's position in the vault, or (nil, nil) if the
// owner has never deposited.
func (s *MemoryStore) GetPosition(_ context.Context, vaultID, owner string) (*types.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[vaultID][owner]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

// SetPosition stores the position.
func (s *MemoryStore) SetPosition(_ context.Context, position *types.Position) error {
	if err := position.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byOwner, ok := s.positions[position.VaultID]
	if !ok {
		byOwner = map[string]*types.Position{}
		s.positions[position.VaultID] = byOwner
	}
	byOwner[position.Owner] = position.Clone()
	return nil
}

// PositionsForVault returns every position in the vault, ordered by owner.
func (s *MemoryStore) PositionsForVault(_ context.Context, vaultID string) ([]*types.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byOwner := s.positions[vaultID]
	owners := make([]string, 0, len(byOwner))
	for owner := range byOwner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	positions := make([]*types.Position, 0, len(owners))
	for _, owner := range owners {
		positions = append(positions, byOwner[owner].Clone())
	}
	return positions, nil
}

// ActiveUsers returns the vault's active-users registry in append order.
func (s *MemoryStore) ActiveUsers(_ context.Context, vaultID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.activeUsers[vaultID]), nil
}

// AppendActiveUser appends the owner to the vault's registry. Appending an
// already-registered owner is a no-op; the registry records each user exactly
// once.
func (s *MemoryStore) AppendActiveUser(_ context.Context, vaultID, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.activeUsers[vaultID], owner) {
		return nil
	}
	s.activeUsers[vaultID] = append(s.activeUsers[vaultID], owner)
	return nil
}
