package placement

import (
	"fmt"
	"sync"

	"github.com/jaspertzx/shardvault/internal/backend"
)

type slot struct {
	name    string
	adapter backend.Adapter
}

// RoundRobinPlacer resolves shard index i to the location registered at
// position i, wrapping around past the end of the registered set. With
// exactly n locations registered for an (n)-shard codec, position i and
// shard index i coincide for every i, so the wraparound branch never
// triggers in normal operation; it only matters if fewer locations than
// shards are ever registered.
type RoundRobinPlacer struct {
	mu    sync.RWMutex
	slots []slot
}

// NewRoundRobinPlacer creates an empty placer. Locations must be
// registered before Place is called.
func NewRoundRobinPlacer() *RoundRobinPlacer {
	return &RoundRobinPlacer{}
}

// RegisterLocation appends name to the placement ring. Its position
// among prior registrations becomes its shard index under Place.
func (p *RoundRobinPlacer) RegisterLocation(name string, adapter backend.Adapter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.slots {
		if s.name == name {
			return fmt.Errorf("location %s already registered", name)
		}
	}
	p.slots = append(p.slots, slot{name: name, adapter: adapter})
	return nil
}

// GetAdapterForLocation walks the registered set for name.
func (p *RoundRobinPlacer) GetAdapterForLocation(name string) (backend.Adapter, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.slots {
		if s.name == name {
			return s.adapter, nil
		}
	}
	return nil, fmt.Errorf("no adapter found for location: %s", name)
}

// Place resolves shardIndex to a registered location.
func (p *RoundRobinPlacer) Place(shardIndex int) (string, backend.Adapter, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := len(p.slots)
	if count == 0 {
		return "", nil, fmt.Errorf("no locations registered")
	}

	var s slot
	if shardIndex < count {
		s = p.slots[shardIndex]
	} else {
		s = p.slots[shardIndex%count]
	}
	return s.name, s.adapter, nil
}

// ListLocations returns registered names in registration order.
func (p *RoundRobinPlacer) ListLocations() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.slots))
	for i, s := range p.slots {
		names[i] = s.name
	}
	return names
}
