// Package debugstore is a diagnostics-only, non-sharded passthrough
// over a single backend adapter. It exists so an operator can
// sanity-check one backend location directly, without going through
// erasure coding. It is reachable only from the CLI's raw-put/raw-get
// subcommands, never from the Boundary HTTP surface.
package debugstore

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jaspertzx/shardvault/internal/backend"
	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// Store performs direct put/get against a single backend.Adapter, with
// no sharding, no metadata, and no digest verification.
type Store struct {
	adapter backend.Adapter
}

// New builds a Store over adapter.
func New(adapter backend.Adapter) *Store {
	return &Store{adapter: adapter}
}

// Put writes data under name directly to the backend.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	log.Debugf("debugstore: raw put %s (%d bytes)", name, len(data))
	return s.adapter.Put(ctx, name, data)
}

// Get reads the bytes stored under name directly from the backend.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	log.Debugf("debugstore: raw get %s", name)
	data, err := s.adapter.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shverrors.FetchingResourceError(name), err)
	}
	return data, nil
}
