// Package writer applies match patches to the record store with bounded
// concurrency. Writes fan out in fixed-size batches; each batch settles fully
// before the next starts, bounding peak load on the store. Per-item failures
// are isolated and reported, never escalated: a failed write leaves its
// record unmatched for the next run, which is safe because matching
// recomputes candidates from current state.
package writer

import (
	"context"
	"sync"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/store"
	"ledger-reconciliation-service/pkg/logger"
)

// DefaultBatchSize is the number of writes issued concurrently per batch.
const DefaultBatchSize = 50

// maxReportedFailures caps the itemized failure list in the report.
const maxReportedFailures = 20

// Writer applies patches to a record store.
type Writer struct {
	store     store.RecordStore
	batchSize int
	dryRun    bool
	log       logger.Logger
}

// WriteFailure records one isolated write failure.
type WriteFailure struct {
	RecordID string `json:"record_id"`
	Err      error  `json:"-"`
	Reason   string `json:"reason"`
}

// Report summarizes the write phase of a run.
type Report struct {
	DryRun   bool           `json:"dry_run"`
	Total    int            `json:"total"`
	Applied  int            `json:"applied"`
	Failed   int            `json:"failed"`
	Failures []WriteFailure `json:"failures,omitempty"`
}

// Option configures a Writer.
type Option func(*Writer)

// WithBatchSize sets the concurrent batch size.
func WithBatchSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithDryRun makes Apply compute the report without touching the store.
func WithDryRun(dryRun bool) Option {
	return func(w *Writer) {
		w.dryRun = dryRun
	}
}

// New creates a Writer for the given store.
func New(s store.RecordStore, log logger.Logger, opts ...Option) *Writer {
	if log == nil {
		log = logger.NewNullLogger()
	}
	w := &Writer{
		store:     s,
		batchSize: DefaultBatchSize,
		log:       log.WithComponent("writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Apply writes the patches to the collection in concurrent batches. All
// writes in a batch are issued together and the batch settles before the
// next begins. The returned report itemizes the first failures; the error
// return is nil even when individual writes fail.
func (w *Writer) Apply(ctx context.Context, collection string, patches []*models.Patch) *Report {
	report := &Report{DryRun: w.dryRun, Total: len(patches)}
	if len(patches) == 0 {
		return report
	}

	if w.dryRun {
		w.log.Infof("dry run: skipping %d writes to %s", len(patches), collection)
		return report
	}

	for start := 0; start < len(patches); start += w.batchSize {
		end := start + w.batchSize
		if end > len(patches) {
			end = len(patches)
		}
		w.applyBatch(ctx, collection, patches[start:end], report)
	}

	w.log.WithFields(logger.Fields{
		"collection": collection,
		"applied":    report.Applied,
		"failed":     report.Failed,
	}).Info("write phase complete")

	return report
}

// applyBatch fans out one batch and waits for every write to settle.
func (w *Writer) applyBatch(ctx context.Context, collection string, batch []*models.Patch, report *Report) {
	type outcome struct {
		recordID string
		err      error
	}

	outcomes := make([]outcome, len(batch))
	var wg sync.WaitGroup

	for i, patch := range batch {
		wg.Add(1)
		go func(i int, patch *models.Patch) {
			defer wg.Done()
			err := w.store.UpsertAttributes(ctx, collection, patch.RecordID, patch.Attributes)
			outcomes[i] = outcome{recordID: patch.RecordID, err: err}
		}(i, patch)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.err == nil {
			report.Applied++
			continue
		}
		report.Failed++
		w.log.WithError(o.err).WithField("record", o.recordID).Warn("write failed; record stays unmatched")
		if len(report.Failures) < maxReportedFailures {
			report.Failures = append(report.Failures, WriteFailure{
				RecordID: o.recordID,
				Err:      o.err,
				Reason:   o.err.Error(),
			})
		}
	}
}
