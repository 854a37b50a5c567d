package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ledger-reconciliation-service/internal/models"
	apperrors "ledger-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// RestConfig holds the connection settings for the REST record store.
type RestConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate checks that the connection settings are usable.
func (c *RestConfig) Validate() error {
	if c.BaseURL == "" {
		return apperrors.NewConfigurationError(apperrors.CodeMissingCredentials,
			"record store URL is required").
			WithSuggestion("set RECON_STORE_URL or --store-url")
	}
	if c.APIKey == "" {
		return apperrors.NewConfigurationError(apperrors.CodeMissingCredentials,
			"record store API key is required").
			WithSuggestion("set RECON_STORE_KEY")
	}
	return nil
}

// RestStore talks to a PostgREST-style endpoint: collections are tables under
// /rest/v1/, rows carry a free-form attributes JSON column, and updates patch
// only the attributes column of a single row selected by id.
type RestStore struct {
	config *RestConfig
	client *http.Client
}

// restRow is the wire shape of one record.
type restRow struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Amount      json.Number       `json:"amount"`
	Description string            `json:"description"`
	Attributes  models.Attributes `json:"attributes"`
}

// NewRestStore creates a RestStore from validated configuration.
func NewRestStore(config *RestConfig) (*RestStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &RestStore{
		config: config,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// FetchPage fetches one page of records from a collection.
func (s *RestStore) FetchPage(ctx context.Context, collection string, filter Filter, offset, limit int) ([]*models.FinancialRecord, error) {
	q := url.Values{}
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("order", "id.asc")
	for k, v := range filter.Equals {
		q.Set("attributes->>"+k, "eq."+v)
	}
	if !filter.DateFrom.IsZero() {
		q.Add("date", "gte."+filter.DateFrom.Format("2006-01-02"))
	}
	if !filter.DateTo.IsZero() {
		q.Add("date", "lte."+filter.DateTo.Format("2006-01-02"))
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", s.config.BaseURL, collection, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.CodeFetchFailed,
			fmt.Sprintf("building fetch request for %s", collection), err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.CodeFetchFailed,
			fmt.Sprintf("fetching page from %s", collection), err).
			WithContext("offset", offset)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewStoreError(apperrors.CodeUnexpectedStatus,
			fmt.Sprintf("fetching page from %s: status %d", collection, resp.StatusCode), nil).
			WithContext("body", string(body))
	}

	var rows []restRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, apperrors.NewStoreError(apperrors.CodeFetchFailed,
			fmt.Sprintf("decoding page from %s", collection), err)
	}

	records := make([]*models.FinancialRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// FetchAll pages through the collection until a short page is returned. On a
// page error the records fetched so far are returned alongside the error.
func (s *RestStore) FetchAll(ctx context.Context, collection string, filter Filter) ([]*models.FinancialRecord, error) {
	return fetchAll(ctx, s, collection, filter)
}

// UpsertAttributes merges the patch into the record's attribute map. The
// current attributes are read first and merged client-side, so keys written
// by independent processes are never clobbered.
func (s *RestStore) UpsertAttributes(ctx context.Context, collection, id string, patch models.Attributes) error {
	current, err := s.fetchAttributes(ctx, collection, id)
	if err != nil {
		return err
	}

	merged := current.Merge(patch)
	payload, err := json.Marshal(map[string]interface{}{"attributes": merged})
	if err != nil {
		return apperrors.NewStoreError(apperrors.CodeWriteFailed,
			fmt.Sprintf("encoding patch for %s/%s", collection, id), err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s", s.config.BaseURL, collection, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewStoreError(apperrors.CodeWriteFailed,
			fmt.Sprintf("building patch request for %s/%s", collection, id), err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.NewStoreError(apperrors.CodeWriteFailed,
			fmt.Sprintf("patching %s/%s", collection, id), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return apperrors.NewStoreError(apperrors.CodeUnexpectedStatus,
			fmt.Sprintf("patching %s/%s: status %d", collection, id, resp.StatusCode), nil)
	}
	return nil
}

// fetchAttributes reads the current attribute map of a single record.
func (s *RestStore) fetchAttributes(ctx context.Context, collection, id string) (models.Attributes, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s&select=attributes", s.config.BaseURL, collection, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.CodeFetchFailed,
			fmt.Sprintf("building read for %s/%s", collection, id), err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewStoreError(apperrors.CodeFetchFailed,
			fmt.Sprintf("reading %s/%s before merge", collection, id), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewStoreError(apperrors.CodeUnexpectedStatus,
			fmt.Sprintf("reading %s/%s: status %d", collection, id, resp.StatusCode), nil)
	}

	var rows []struct {
		Attributes models.Attributes `json:"attributes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, apperrors.NewStoreError(apperrors.CodeFetchFailed,
			fmt.Sprintf("decoding %s/%s", collection, id), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewStoreError(apperrors.CodeRecordNotFound,
			fmt.Sprintf("record %s not found in %s", id, collection), nil)
	}
	return rows[0].Attributes, nil
}

func (s *RestStore) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Accept", "application/json")
}

func (r restRow) toRecord() *models.FinancialRecord {
	rec := &models.FinancialRecord{
		ID:          r.ID,
		Description: r.Description,
		Attributes:  r.Attributes,
	}
	if r.Attributes == nil {
		rec.Attributes = models.Attributes{}
	}
	if t, err := time.Parse("2006-01-02", r.Date); err == nil {
		rec.Date = t
	} else if t, err := time.Parse(time.RFC3339, r.Date); err == nil {
		rec.Date = t
	}
	if d, err := decimal.NewFromString(r.Amount.String()); err == nil {
		rec.Amount = d
	}
	return rec
}
