// Package reconciler orchestrates a full reconciliation run: paginated reads
// from the record store, the pure in-memory match phase, the bounded-
// concurrency write phase, and result assembly. Read failures degrade to
// partial collections; write failures are isolated per record. A run always
// completes with a report, and "nothing more to match" is a normal outcome.
package reconciler

import (
	"context"
	"time"

	"ledger-reconciliation-service/internal/chain"
	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/internal/store"
	"ledger-reconciliation-service/internal/writer"
	"ledger-reconciliation-service/pkg/logger"
)

// Request describes one reconciliation invocation.
type Request struct {
	SourceCollection string
	TargetCollection string
	Filter           store.Filter
	DryRun           bool
	BatchSize        int
}

// ChainRequest describes one chain coverage invocation.
type ChainRequest struct {
	BankCollection    string
	GatewayCollection string
	Filter            store.Filter
}

// Service coordinates the reconciliation workflow. The record store is an
// injected dependency; the service holds no ambient state between runs.
type Service struct {
	store  store.RecordStore
	config *matcher.Config
	log    logger.Logger
}

// NewService creates a Service over the given store and matching config.
func NewService(s store.RecordStore, config *matcher.Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Service{
		store:  s,
		config: config,
		log:    log.WithComponent("reconciler"),
	}
}

// Reconcile runs the full pipeline for one source/target collection pair.
func (s *Service) Reconcile(ctx context.Context, req Request) (*reporter.RunReport, error) {
	sources := s.fetchTolerant(ctx, req.SourceCollection, req.Filter)
	targets := s.fetchTolerant(ctx, req.TargetCollection, req.Filter)

	engine := matcher.NewEngine(s.config, s.log)
	result := engine.Run(sources, targets, time.Now())

	w := writer.New(s.store, s.log,
		writer.WithDryRun(req.DryRun),
		writer.WithBatchSize(req.BatchSize))
	writeReport := w.Apply(ctx, req.SourceCollection, result.Patches)

	return &reporter.RunReport{
		Summary:     result.Summary,
		WriteReport: writeReport,
		Patches:     result.Patches,
	}, nil
}

// ChainCoverage produces the read-only chain coverage report.
func (s *Service) ChainCoverage(ctx context.Context, req ChainRequest) (*reporter.RunReport, error) {
	bank := s.fetchTolerant(ctx, req.BankCollection, req.Filter)
	gateway := s.fetchTolerant(ctx, req.GatewayCollection, req.Filter)

	resolver := chain.NewResolver(gateway)
	return &reporter.RunReport{
		Coverage: resolver.Score(bank),
	}, nil
}

// fetchTolerant pages a collection, settling for whatever was fetched when a
// page fails mid-scan. Fewer records just means fewer records to match this
// run; the remainder is picked up next run.
func (s *Service) fetchTolerant(ctx context.Context, collection string, filter store.Filter) []*models.FinancialRecord {
	records, err := s.store.FetchAll(ctx, collection, filter)
	if err != nil {
		s.log.WithError(err).WithFields(logger.Fields{
			"collection": collection,
			"fetched":    len(records),
		}).Warn("partial fetch; continuing with records read so far")
	}
	return records
}
