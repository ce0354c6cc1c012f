package simulation

import (
	"context"
	"fmt"
	"sync"

	"github.com/polystream/vault/types"
)

// Registry is an in-memory protocol registry resolving (protocolID, asset)
// pairs to adapter handles.
type Registry struct {
	mu        sync.Mutex
	protocols map[string]bool
	adapters  map[string]types.ProtocolAdapter
}

var _ types.ProtocolRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		protocols: map[string]bool{},
		adapters:  map[string]types.ProtocolAdapter{},
	}
}

func adapterKey(protocolID, asset string) string {
	return protocolID + "/" + asset
}

// RegisterProtocol records a protocol id.
func (r *Registry) RegisterProtocol(_ context.Context, protocolID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.protocols[protocolID] {
		return fmt.Errorf("protocol %s already registered", protocolID)
	}
	r.protocols[protocolID] = true
	return nil
}

// RegisterAdapter binds an adapter to a (protocol, asset) pair.
func (r *Registry) RegisterAdapter(_ context.Context, protocolID, asset string, adapter types.ProtocolAdapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.protocols[protocolID] {
		return fmt.Errorf("protocol %s not registered", protocolID)
	}
	r.adapters[adapterKey(protocolID, asset)] = adapter
	return nil
}

// GetAdapter resolves the adapter for a (protocol, asset) pair.
func (r *Registry) GetAdapter(_ context.Context, protocolID, asset string) (types.ProtocolAdapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	adapter, ok := r.adapters[adapterKey(protocolID, asset)]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for protocol %s and asset %s", protocolID, asset)
	}
	return adapter, nil
}
