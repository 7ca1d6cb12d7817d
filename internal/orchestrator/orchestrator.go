// Package orchestrator implements the behavioural core of the erasure
// coded object store: encode+upload, download+verify+decode with
// self-healing, listing, and deletion. It owns parallelism across
// shards, deferring the actual shard arithmetic to codec.Codec, shard
// placement to placement.Placer, and persistence to metadata.Store.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jaspertzx/shardvault/internal/backend"
	"github.com/jaspertzx/shardvault/internal/codec"
	"github.com/jaspertzx/shardvault/internal/domain"
	shverrors "github.com/jaspertzx/shardvault/internal/errors"
	"github.com/jaspertzx/shardvault/internal/metadata"
	"github.com/jaspertzx/shardvault/internal/placement"
)

// ShardOrchestrator drives every file-level operation. A single value is
// shared process-wide; its fields are immutable after construction, so
// it is safe to call concurrently from any number of goroutines.
type ShardOrchestrator struct {
	codec          *codec.Codec
	placer         placement.Placer
	store          metadata.Store
	workerPoolSize int
	perCallTimeout time.Duration
}

// New constructs a ShardOrchestrator. workerPoolSize bounds the number
// of shards processed concurrently per operation; a value <= 0 falls
// back to codec's shard count (one worker per shard, per the
// concurrency model's "n workers per file operation" rule).
func New(c *codec.Codec, placer placement.Placer, store metadata.Store, workerPoolSize int, perCallTimeout time.Duration) *ShardOrchestrator {
	if workerPoolSize <= 0 {
		workerPoolSize = c.TotalShards()
	}
	return &ShardOrchestrator{
		codec:          c,
		placer:         placer,
		store:          store,
		workerPoolSize: workerPoolSize,
		perCallTimeout: perCallTimeout,
	}
}

func (o *ShardOrchestrator) shardAdapter(i int) (string, backend.Adapter, error) {
	return o.placer.Place(i)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func newShardName(originalFilename string, shardIndex int) string {
	return fmt.Sprintf("%s.%d.%s", originalFilename, shardIndex, uuid.New().String())
}

// Upload encodes payload into n shards and writes metadata+blobs for
// each in parallel. Either all n rows and n blobs land durably, or the
// upload is rolled back and ErrUploadFailed is returned.
func (o *ShardOrchestrator) Upload(ctx context.Context, ownerID, originalFilename string, payload []byte) error {
	existing, err := o.store.FindShards(ctx, ownerID, originalFilename)
	if err != nil {
		return fmt.Errorf("upload: check existing shards: %w", shverrors.ErrInternal)
	}
	if len(existing) > 0 {
		return shverrors.ErrAlreadyExists
	}

	shards, err := o.codec.Encode(payload)
	if err != nil {
		return fmt.Errorf("upload: encode: %w", err)
	}

	n := o.codec.TotalShards()
	shardSize := o.codec.ShardSize(int64(len(payload)))
	shardNames := make([]string, n)
	for i := range shardNames {
		shardNames[i] = newShardName(originalFilename, i)
	}

	log.Debugf("orchestrator: upload %s/%s: encoded %d shards of size %d", ownerID, originalFilename, n, shardSize)

	uploaded := make([]bool, n)
	inserted := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workerPoolSize)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, adapter, err := o.shardAdapter(i)
			if err != nil {
				return fmt.Errorf("upload: resolve backend for shard %d: %w", i, err)
			}

			rec := domain.ShardRecord{
				OwnerID:          ownerID,
				OriginalFilename: originalFilename,
				ShardName:        shardNames[i],
				ShardIndex:       i,
				ShardSHA256:      sha256Hex(shards[i]),
				ShardByteSize:    int64(len(shards[i])),
				OriginalFileSize: int64(len(payload)),
			}

			if err := o.store.InsertShard(gctx, rec); err != nil {
				return fmt.Errorf("upload: insert shard %d metadata: %w", i, err)
			}
			inserted[i] = true

			putCtx, cancel := backend.WithTimeout(gctx, o.perCallTimeout)
			defer cancel()
			if err := adapter.Put(putCtx, shardNames[i], shards[i]); err != nil {
				return fmt.Errorf("upload: put shard %d: %w", i, err)
			}
			uploaded[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warnf("orchestrator: upload %s/%s failed, rolling back: %v", ownerID, originalFilename, err)
		o.compensateUpload(ownerID, originalFilename, shardNames, inserted, uploaded)
		return fmt.Errorf("%w: %v", shverrors.ErrUploadFailed, err)
	}

	return nil
}

// compensateUpload best-effort deletes any rows/blobs a failed upload
// managed to write before the failure. Run with a fresh context since
// the triggering one may already be cancelled.
func (o *ShardOrchestrator) compensateUpload(ownerID, originalFilename string, shardNames []string, inserted, uploaded []bool) {
	ctx := context.Background()
	for i, name := range shardNames {
		if inserted[i] {
			if err := o.store.DeleteShard(ctx, ownerID, name); err != nil {
				log.Warnf("orchestrator: compensating delete of shard metadata %s failed: %v", name, err)
			}
		}
		if uploaded[i] {
			if _, adapter, err := o.shardAdapter(i); err == nil {
				delCtx, cancel := backend.WithTimeout(ctx, o.perCallTimeout)
				err := adapter.Delete(delCtx, name)
				cancel()
				if err != nil {
					log.Warnf("orchestrator: compensating delete of blob %s failed: %v", name, err)
				}
			}
		}
	}
}

// Retrieve reconstructs a file, self-healing any missing or corrupted
// shard along the way. Self-heal failures are logged, not surfaced.
func (o *ShardOrchestrator) Retrieve(ctx context.Context, ownerID, originalFilename string) ([]byte, error) {
	records, err := o.store.FindShards(ctx, ownerID, originalFilename)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", shverrors.ErrInternal)
	}
	if len(records) == 0 {
		return nil, shverrors.ErrNotFound
	}
	if records[0].OriginalFileSize == 0 {
		// An empty file needs no shards to reconstruct; skip the fetch
		// and presence check entirely so a degraded empty-file upload
		// still retrieves successfully.
		return []byte{}, nil
	}

	n := o.codec.TotalShards()
	slots := make([][]byte, n)
	// Every index starts absent, including any index with no metadata
	// row at all; a successful, digest-verified fetch is the only thing
	// that clears it.
	absent := make([]bool, n)
	for i := range absent {
		absent[i] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workerPoolSize)
	for idx := range records {
		idx := idx
		rec := records[idx]
		g.Go(func() error {
			_, adapter, err := o.shardAdapter(rec.ShardIndex)
			if err != nil {
				return nil
			}
			getCtx, cancel := backend.WithTimeout(gctx, o.perCallTimeout)
			defer cancel()
			data, err := adapter.Get(getCtx, rec.ShardName)
			if err != nil {
				log.Warnf("orchestrator: shard %d of %s/%s absent: %v", rec.ShardIndex, ownerID, originalFilename, err)
				return nil
			}
			if sha256Hex(data) != rec.ShardSHA256 {
				log.Warnf("orchestrator: shard %d of %s/%s digest mismatch", rec.ShardIndex, ownerID, originalFilename)
				return nil
			}
			slots[rec.ShardIndex] = data
			absent[rec.ShardIndex] = false
			return nil
		})
	}
	// errgroup's Go functions above never return a non-nil error, so
	// Wait cannot fail; kept for idiomatic fan-out/join symmetry.
	_ = g.Wait()

	presentCount := 0
	for _, a := range absent {
		if !a {
			presentCount++
		}
	}
	if presentCount < o.codec.DataShards() {
		return nil, shverrors.ErrUnrecoverable
	}

	originalSize := records[0].OriginalFileSize
	reconstructed, err := o.codec.Decode(slots, originalSize)
	if err != nil {
		return nil, fmt.Errorf("retrieve: decode: %w", err)
	}

	if presentCount < n {
		o.selfHeal(ownerID, originalFilename, originalSize, absent)
	}

	return reconstructed, nil
}

// selfHeal regenerates and re-persists every shard index flagged absent
// during a retrieval. It runs against a background context so it
// survives the triggering request's cancellation, and never fails the
// read that discovered the damage.
func (o *ShardOrchestrator) selfHeal(ownerID, originalFilename string, originalSize int64, absent []bool) {
	ctx := context.Background()

	data, err := o.store.FindShards(ctx, ownerID, originalFilename)
	if err != nil || len(data) == 0 {
		log.Warnf("orchestrator: self-heal %s/%s: re-reading metadata failed: %v", ownerID, originalFilename, err)
		return
	}

	shards, err := o.reencodeFromRecords(ctx, ownerID, originalFilename, originalSize, data)
	if err != nil {
		log.Warnf("orchestrator: self-heal %s/%s: %v", ownerID, originalFilename, err)
		return
	}

	byIndex := make(map[int]domain.ShardRecord, len(data))
	for _, rec := range data {
		byIndex[rec.ShardIndex] = rec
	}

	var g errgroup.Group
	g.SetLimit(o.workerPoolSize)
	for i := 0; i < o.codec.TotalShards(); i++ {
		if !absent[i] {
			continue
		}
		i := i
		oldRec, hadRow := byIndex[i]
		g.Go(func() error {
			newName := newShardName(originalFilename, i)
			rec := domain.ShardRecord{
				OwnerID:          ownerID,
				OriginalFilename: originalFilename,
				ShardName:        newName,
				ShardIndex:       i,
				ShardSHA256:      sha256Hex(shards[i]),
				ShardByteSize:    int64(len(shards[i])),
				OriginalFileSize: originalSize,
			}

			// Swap the row at index i in place rather than deleting then
			// inserting, so a crash or error between the two steps never
			// leaves that index with zero metadata rows. If there was no
			// prior row for this index, fall back to an insert.
			var metaErr error
			if hadRow {
				metaErr = o.store.UpdateShard(ctx, rec)
			} else {
				metaErr = o.store.InsertShard(ctx, rec)
			}
			if metaErr != nil {
				log.Warnf("orchestrator: self-heal %s/%s shard %d: persist metadata: %v", ownerID, originalFilename, i, metaErr)
				return nil
			}

			_, adapter, err := o.shardAdapter(i)
			if err != nil {
				log.Warnf("orchestrator: self-heal %s/%s shard %d: resolve backend: %v", ownerID, originalFilename, i, err)
				return nil
			}
			putCtx, cancel := backend.WithTimeout(ctx, o.perCallTimeout)
			defer cancel()
			if err := adapter.Put(putCtx, newName, shards[i]); err != nil {
				log.Warnf("orchestrator: self-heal %s/%s shard %d: upload: %v", ownerID, originalFilename, i, err)
				return nil
			}

			// The old blob now outlives any metadata row pointing at it;
			// remove it so a repeatedly-healed index doesn't leak one
			// orphaned blob per heal.
			if hadRow && oldRec.ShardName != newName {
				if err := adapter.Delete(putCtx, oldRec.ShardName); err != nil {
					log.Warnf("orchestrator: self-heal %s/%s shard %d: delete stale blob %s: %v", ownerID, originalFilename, i, oldRec.ShardName, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// reencodeFromRecords recomputes all n canonical shards for a file by
// downloading its currently-reachable shards and delegating to
// codec.ReconstructShards, which runs the same Decode that Retrieve
// uses and then re-encodes the result. Kept separate so self-heal does not need to thread
// slots collected mid-retrieval.
func (o *ShardOrchestrator) reencodeFromRecords(ctx context.Context, ownerID, originalFilename string, originalSize int64, records []domain.ShardRecord) ([][]byte, error) {
	n := o.codec.TotalShards()
	slots := make([][]byte, n)

	var g errgroup.Group
	g.SetLimit(o.workerPoolSize)
	for idx := range records {
		rec := records[idx]
		g.Go(func() error {
			_, adapter, err := o.shardAdapter(rec.ShardIndex)
			if err != nil {
				return nil
			}
			getCtx, cancel := backend.WithTimeout(ctx, o.perCallTimeout)
			defer cancel()
			data, err := adapter.Get(getCtx, rec.ShardName)
			if err != nil || sha256Hex(data) != rec.ShardSHA256 {
				return nil
			}
			slots[rec.ShardIndex] = data
			return nil
		})
	}
	_ = g.Wait()

	shards, err := o.codec.ReconstructShards(slots, originalSize)
	if err != nil {
		return nil, fmt.Errorf("reencode: %w", err)
	}
	return shards, nil
}

// List returns every file owned by ownerID, with per-file shard health.
// Files are probed in parallel; the shards of one file are probed one
// after another (see probeRetrievable).
func (o *ShardOrchestrator) List(ctx context.Context, ownerID string) ([]domain.FileInfo, error) {
	reps, err := o.store.ListOwnedFilenames(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list: %w", shverrors.ErrInternal)
	}

	infos := make([]domain.FileInfo, len(reps))
	var g errgroup.Group
	g.SetLimit(o.workerPoolSize)

	for idx := range reps {
		idx := idx
		rep := reps[idx]
		g.Go(func() error {
			records, err := o.store.FindShards(ctx, ownerID, rep.OriginalFilename)
			if err != nil {
				infos[idx] = domain.FileInfo{OriginalFilename: rep.OriginalFilename, OriginalFileSize: rep.OriginalFileSize, ShardsTotal: o.codec.TotalShards()}
				return nil
			}

			retrievable := o.probeRetrievable(ctx, records)
			infos[idx] = domain.FileInfo{
				OriginalFilename:  rep.OriginalFilename,
				OriginalFileSize:  rep.OriginalFileSize,
				ShardsTotal:       o.codec.TotalShards(),
				ShardsRetrievable: retrievable,
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(infos, func(i, j int) bool { return infos[i].OriginalFilename < infos[j].OriginalFilename })
	return infos, nil
}

// probeRetrievable counts reachable shards sequentially: List already
// runs one of these per owned file under its own workerPoolSize-limited
// errgroup, so a second, independent limit here would let total
// concurrent backend calls reach workerPoolSize^2.
func (o *ShardOrchestrator) probeRetrievable(ctx context.Context, records []domain.ShardRecord) int {
	n := 0
	for _, rec := range records {
		_, adapter, err := o.shardAdapter(rec.ShardIndex)
		if err != nil {
			continue
		}
		existsCtx, cancel := backend.WithTimeout(ctx, o.perCallTimeout)
		ok, err := adapter.Exists(existsCtx, rec.ShardName)
		cancel()
		if err == nil && ok {
			n++
		}
	}
	return n
}

// Delete removes metadata first, then best-effort deletes blobs. Once
// metadata is gone the file is logically absent regardless of blob
// deletion outcome.
func (o *ShardOrchestrator) Delete(ctx context.Context, ownerID, originalFilename string) error {
	records, err := o.store.FindShards(ctx, ownerID, originalFilename)
	if err != nil {
		return fmt.Errorf("delete: %w", shverrors.ErrInternal)
	}

	if err := o.store.DeleteFile(ctx, ownerID, originalFilename); err != nil {
		return fmt.Errorf("delete: %w", shverrors.ErrInternal)
	}

	var g errgroup.Group
	g.SetLimit(o.workerPoolSize)
	for idx := range records {
		rec := records[idx]
		g.Go(func() error {
			_, adapter, err := o.shardAdapter(rec.ShardIndex)
			if err != nil {
				return nil
			}
			delCtx, cancel := backend.WithTimeout(ctx, o.perCallTimeout)
			defer cancel()
			if err := adapter.Delete(delCtx, rec.ShardName); err != nil {
				log.Warnf("orchestrator: delete %s/%s shard %d: blob cleanup failed: %v", ownerID, originalFilename, rec.ShardIndex, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return nil
}
