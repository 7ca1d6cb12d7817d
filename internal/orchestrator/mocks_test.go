package orchestrator

import (
	"context"
	"sync"

	"github.com/jaspertzx/shardvault/internal/domain"
	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// mockAdapter is an in-memory backend.Adapter, one per logical location.
// It can be told to drop a specific shardName to simulate blob loss.
type mockAdapter struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	dropped  map[string]bool
	putCount int
}

func newMockAdapter() *mockAdapter {
	return &mockAdapter{blobs: make(map[string][]byte), dropped: make(map[string]bool)}
}

func (m *mockAdapter) Put(ctx context.Context, shardName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[shardName] = cp
	m.putCount++
	return nil
}

func (m *mockAdapter) Get(ctx context.Context, shardName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropped[shardName] {
		return nil, shverrors.ErrNotFound
	}
	data, ok := m.blobs[shardName]
	if !ok {
		return nil, shverrors.ErrNotFound
	}
	return data, nil
}

func (m *mockAdapter) Exists(ctx context.Context, shardName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropped[shardName] {
		return false, nil
	}
	_, ok := m.blobs[shardName]
	return ok, nil
}

func (m *mockAdapter) Delete(ctx context.Context, shardName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, shardName)
	return nil
}

func (m *mockAdapter) drop(shardName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[shardName] = true
}

// mockStore is an in-memory metadata.Store keyed by (ownerID, filename).
type mockStore struct {
	mu      sync.Mutex
	byOwner map[string]map[string][]domain.ShardRecord // ownerID -> filename -> records
}

func newMockStore() *mockStore {
	return &mockStore{byOwner: make(map[string]map[string][]domain.ShardRecord)}
}

func (s *mockStore) InsertShard(ctx context.Context, rec domain.ShardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.byOwner[rec.OwnerID]
	if !ok {
		files = make(map[string][]domain.ShardRecord)
		s.byOwner[rec.OwnerID] = files
	}
	for _, existing := range files[rec.OriginalFilename] {
		if existing.ShardIndex == rec.ShardIndex {
			return shverrors.ErrAlreadyExists
		}
	}
	files[rec.OriginalFilename] = append(files[rec.OriginalFilename], rec)
	return nil
}

func (s *mockStore) UpdateShard(ctx context.Context, rec domain.ShardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.byOwner[rec.OwnerID][rec.OriginalFilename]
	for i, existing := range records {
		if existing.ShardIndex == rec.ShardIndex {
			records[i] = rec
			return nil
		}
	}
	return shverrors.ErrNotFound
}

func (s *mockStore) FindShards(ctx context.Context, ownerID, originalFilename string) ([]domain.ShardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append([]domain.ShardRecord{}, s.byOwner[ownerID][originalFilename]...)
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if records[j].ShardIndex < records[i].ShardIndex {
				records[i], records[j] = records[j], records[i]
			}
		}
	}
	return records, nil
}

func (s *mockStore) ListOwnedFilenames(ctx context.Context, ownerID string) ([]domain.ShardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reps []domain.ShardRecord
	for _, records := range s.byOwner[ownerID] {
		for _, rec := range records {
			if rec.ShardIndex == 0 {
				reps = append(reps, rec)
			}
		}
	}
	return reps, nil
}

func (s *mockStore) DeleteFile(ctx context.Context, ownerID, originalFilename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if files, ok := s.byOwner[ownerID]; ok {
		delete(files, originalFilename)
	}
	return nil
}

func (s *mockStore) DeleteShard(ctx context.Context, ownerID, shardName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.byOwner[ownerID]
	if !ok {
		return nil
	}
	for filename, records := range files {
		for i, rec := range records {
			if rec.ShardName == shardName {
				files[filename] = append(records[:i], records[i+1:]...)
				return nil
			}
		}
	}
	return nil
}
