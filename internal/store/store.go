// Package store provides paginated read/write access to named record
// collections. The engine treats the datastore as a generic paginated record
// store supporting equality/range filters and an attribute-level merge
// upsert; the REST adapter targets a PostgREST-style endpoint and the memory
// store backs tests and local dry runs.
package store

import (
	"context"
	"time"

	"ledger-reconciliation-service/internal/models"
)

// DefaultPageSize is the page size used by FetchAll.
const DefaultPageSize = 500

// Filter describes the server-side selection applied to a fetch. Zero values
// mean "no constraint".
type Filter struct {
	// Equality terms on attribute keys.
	Equals map[string]string

	// Date range bounds, inclusive.
	DateFrom time.Time
	DateTo   time.Time
}

// Matches reports whether a record passes the filter. Used by the memory
// store; the REST adapter pushes the same terms into query parameters.
func (f Filter) Matches(r *models.FinancialRecord) bool {
	for k, v := range f.Equals {
		if r.Attributes.GetString(k) != v {
			return false
		}
	}
	if !f.DateFrom.IsZero() && r.Date.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && r.Date.After(f.DateTo) {
		return false
	}
	return true
}

// RecordStore is the contract between the reconciliation engine and the
// datastore. UpsertAttributes must merge the patch into the record's existing
// attribute map at field level; the engine never assumes whole-document
// last-write-wins.
type RecordStore interface {
	FetchPage(ctx context.Context, collection string, filter Filter, offset, limit int) ([]*models.FinancialRecord, error)
	FetchAll(ctx context.Context, collection string, filter Filter) ([]*models.FinancialRecord, error)
	UpsertAttributes(ctx context.Context, collection, id string, patch models.Attributes) error
}

// fetchAll pages through a collection until a short page is returned. Shared
// by both adapters so pagination behaves identically everywhere.
func fetchAll(ctx context.Context, s RecordStore, collection string, filter Filter) ([]*models.FinancialRecord, error) {
	var all []*models.FinancialRecord
	offset := 0
	for {
		page, err := s.FetchPage(ctx, collection, filter, offset, DefaultPageSize)
		if err != nil {
			// Partial reads are usable: fewer records to match this run.
			return all, err
		}
		all = append(all, page...)
		if len(page) < DefaultPageSize {
			return all, nil
		}
		offset += DefaultPageSize
	}
}
