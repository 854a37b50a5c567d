package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"
)

// MemoryStore is an in-memory RecordStore with the same pagination and
// merge-patch semantics as the REST adapter. It backs engine and writer tests
// and local dry runs; FailWrites injects per-record write failures.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*models.FinancialRecord

	// FailWrites maps record IDs whose writes should fail, for failure
	// isolation tests.
	FailWrites map[string]error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*models.FinancialRecord),
	}
}

// Seed loads records into a collection, replacing any record with the same ID.
func (s *MemoryStore) Seed(collection string, records ...*models.FinancialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*models.FinancialRecord)
	}
	for _, r := range records {
		clone := *r
		clone.Attributes = r.Attributes.Clone()
		if clone.Attributes == nil {
			clone.Attributes = models.Attributes{}
		}
		s.collections[collection][r.ID] = &clone
	}
}

// Get returns the stored record by ID, or nil.
func (s *MemoryStore) Get(collection, id string) *models.FinancialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if coll := s.collections[collection]; coll != nil {
		return coll[id]
	}
	return nil
}

// FetchPage returns one page of records, ordered by ID for determinism.
func (s *MemoryStore) FetchPage(ctx context.Context, collection string, filter Filter, offset, limit int) ([]*models.FinancialRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreError(apperrors.CodeFetchFailed,
			fmt.Sprintf("fetching page from %s", collection), err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[collection]
	ids := make([]string, 0, len(coll))
	for id, r := range coll {
		if filter.Matches(r) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	page := make([]*models.FinancialRecord, 0, end-offset)
	for _, id := range ids[offset:end] {
		r := coll[id]
		clone := *r
		clone.Attributes = r.Attributes.Clone()
		page = append(page, &clone)
	}
	return page, nil
}

// FetchAll pages through the collection until a short page is returned.
func (s *MemoryStore) FetchAll(ctx context.Context, collection string, filter Filter) ([]*models.FinancialRecord, error) {
	return fetchAll(ctx, s, collection, filter)
}

// UpsertAttributes merges the patch into the stored record's attribute map.
func (s *MemoryStore) UpsertAttributes(ctx context.Context, collection, id string, patch models.Attributes) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError(apperrors.CodeWriteFailed,
			fmt.Sprintf("patching %s/%s", collection, id), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.FailWrites[id]; ok {
		return apperrors.NewStoreError(apperrors.CodeWriteFailed,
			fmt.Sprintf("patching %s/%s", collection, id), err)
	}

	coll := s.collections[collection]
	if coll == nil || coll[id] == nil {
		return apperrors.NewStoreError(apperrors.CodeRecordNotFound,
			fmt.Sprintf("record %s not found in %s", id, collection), nil)
	}
	coll[id].Attributes = coll[id].Attributes.Merge(patch)
	return nil
}
