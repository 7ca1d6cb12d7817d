// Package codec implements the Reed-Solomon (k, m) erasure code used to
// split a file into n = k+m equal-length shards and reconstruct it from
// any k surviving shards.
//
// The heavy lifting (GF(2^8) matrix arithmetic) is delegated to
// github.com/klauspost/reedsolomon. This package is the reconciliation
// layer around it: it owns padding, the
// InsufficientShards/InconsistentShardLength/InvalidParameters error
// taxonomy, and the zero-length-input edge case that the bare library
// does not handle the way callers here need it to.
package codec

import (
	"bytes"

	"github.com/klauspost/reedsolomon"

	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// Codec encodes and decodes shards for a fixed (dataShards, parityShards)
// pair. It holds no mutable state; a single value is safe to share and
// call concurrently from any number of goroutines.
type Codec struct {
	dataShards   int
	parityShards int
}

// New returns a Codec for k data shards and m parity shards. k must be
// at least 1 and m at least 0.
func New(dataShards, parityShards int) (*Codec, error) {
	if dataShards <= 0 || parityShards < 0 {
		return nil, shverrors.ErrInvalidParameters
	}
	return &Codec{dataShards: dataShards, parityShards: parityShards}, nil
}

// TotalShards returns k+m.
func (c *Codec) TotalShards() int {
	return c.dataShards + c.parityShards
}

// DataShards returns k.
func (c *Codec) DataShards() int {
	return c.dataShards
}

// ParityShards returns m.
func (c *Codec) ParityShards() int {
	return c.parityShards
}

// ShardSize returns ceil(originalSize/k), the length every shard of a
// file of the given size must have.
func (c *Codec) ShardSize(originalSize int64) int64 {
	if originalSize <= 0 {
		return 0
	}
	k := int64(c.dataShards)
	return (originalSize + k - 1) / k
}

// Encode splits data into n equal-length shards: the first k hold the
// original bytes (the last data shard zero-padded to ShardSize), the
// remaining m are parity derived from them. Encode is deterministic:
// identical input always produces byte-identical output.
func (c *Codec) Encode(data []byte) ([][]byte, error) {
	n := c.TotalShards()

	if len(data) == 0 {
		shards := make([][]byte, n)
		for i := range shards {
			shards[i] = []byte{}
		}
		return shards, nil
	}

	enc, err := reedsolomon.New(c.dataShards, c.parityShards)
	if err != nil {
		return nil, shverrors.ErrInvalidParameters
	}

	shards, err := enc.Split(data)
	if err != nil {
		return nil, shverrors.ErrInvalidParameters
	}

	if err := enc.Encode(shards); err != nil {
		return nil, shverrors.ErrInternal
	}

	return shards, nil
}

// Decode reconstructs the original file from slots, a vector of exactly
// n entries where a nil entry represents a missing or rejected shard.
// originalSize is the authoritative byte count to truncate to, since
// padding added by Encode is not recoverable from the shards alone.
//
// Decode fails with ErrInsufficientShards when fewer than k slots are
// present, and with ErrInconsistentShardLength when the present slots
// disagree on length. An originalSize of 0 returns an empty result
// without inspecting the slots. Because the code is MDS, the reconstructed bytes
// do not depend on which k of the present shards happen to be used
// internally: any k present, undamaged shards yield the unique original
// file, so no explicit lowest-index tie-break is needed beyond what the
// underlying matrix inversion already does deterministically.
func (c *Codec) Decode(slots [][]byte, originalSize int64) ([]byte, error) {
	n := c.TotalShards()
	if len(slots) != n {
		return nil, shverrors.ErrInvalidParameters
	}
	if originalSize == 0 {
		return []byte{}, nil
	}

	present := 0
	shardLen := -1
	for _, s := range slots {
		if s == nil {
			continue
		}
		present++
		if shardLen == -1 {
			shardLen = len(s)
		} else if len(s) != shardLen {
			return nil, shverrors.ErrInconsistentShardLength
		}
	}
	if present < c.dataShards {
		return nil, shverrors.ErrInsufficientShards
	}

	enc, err := reedsolomon.New(c.dataShards, c.parityShards)
	if err != nil {
		return nil, shverrors.ErrInvalidParameters
	}

	shards := make([][]byte, n)
	copy(shards, slots)

	if err := enc.Reconstruct(shards); err != nil {
		if err == reedsolomon.ErrTooFewShards {
			return nil, shverrors.ErrInsufficientShards
		}
		return nil, shverrors.ErrInternal
	}

	var buf bytes.Buffer
	if err := enc.Join(&buf, shards, int(originalSize)); err != nil {
		return nil, shverrors.ErrInternal
	}
	return buf.Bytes(), nil
}

// ReconstructShards is like Decode but returns all n canonical shards
// (recomputed from the original bytes) instead of the original file.
// The orchestrator uses this during self-healing to regenerate shards
// that were found missing or corrupted.
func (c *Codec) ReconstructShards(slots [][]byte, originalSize int64) ([][]byte, error) {
	data, err := c.Decode(slots, originalSize)
	if err != nil {
		return nil, err
	}
	return c.Encode(data)
}
