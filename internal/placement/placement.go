// Package placement resolves which storage backend a given shard index
// belongs to, and the lookup by location name used by the CLI's
// raw-put/raw-get diagnostics. It is the only thing standing between the orchestrator and
// a raw slice of backends.
package placement

import (
	"github.com/jaspertzx/shardvault/internal/backend"
)

// Placer resolves shard indexes to backends.
//
// Implementations must be thread-safe and deterministic: the same
// shardIndex must always resolve to the same backend for the lifetime of
// the process, since reconstruction depends on it for positional
// alignment with the codec's shard slots.
type Placer interface {
	// GetAdapterForLocation resolves a registered location by its name,
	// independent of shard index.
	GetAdapterForLocation(name string) (backend.Adapter, error)

	// Place resolves the backend that owns shardIndex.
	Place(shardIndex int) (string, backend.Adapter, error)

	// RegisterLocation adds a named backend to the pool Place draws
	// from. Called during startup wiring, before any Place call.
	RegisterLocation(name string, adapter backend.Adapter) error

	// ListLocations returns every registered location name, in
	// registration order.
	ListLocations() []string
}
