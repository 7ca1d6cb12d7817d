// Package backend defines the BackendAdapter contract and the two
// concrete object-storage bindings (S3, GCS) the orchestrator fans
// shard I/O out to. Every adapter instance corresponds to exactly one
// LogicalLocation; names are flat, opaque blob keys chosen by the
// orchestrator.
package backend

import (
	"context"
	"time"
)

// Adapter abstracts one logical storage location. All operations are
// blocking; callers supply their own parallelism and must honor the
// passed context's deadline (the orchestrator attaches a per-call
// timeout before invoking an adapter).
type Adapter interface {
	// Put is create-or-overwrite of an opaque blob; it must be durable
	// before returning success.
	Put(ctx context.Context, shardName string, data []byte) error
	// Get returns the exact bytes last successfully written under
	// shardName, or an error wrapping errors.ErrNotFound.
	Get(ctx context.Context, shardName string) ([]byte, error)
	// Exists reports whether shardName is currently reachable at this
	// backend. Adapters must not perform digest verification.
	Exists(ctx context.Context, shardName string) (bool, error)
	// Delete is idempotent; a missing shardName is success.
	Delete(ctx context.Context, shardName string) error
}

// WithTimeout returns a context bound by d, or ctx unchanged if d<=0.
// Every ShardOrchestrator call into an Adapter goes through this so a
// slow backend degrades to a transient failure instead of hanging a
// whole fan-out group.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
