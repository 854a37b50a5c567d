package matcher

import (
	"time"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine runs the strategy cascade over a source collection against an
// indexed target collection. The match phase is pure and in-memory:
// deterministic given identical input ordering, with no side effects.
type Engine struct {
	config     *Config
	strategies []Strategy
	log        logger.Logger
}

// Result is the outcome of one matching run.
type Result struct {
	RunID            string
	Patches          []*models.Patch
	UnmatchedSources []*models.FinancialRecord
	UnclaimedTargets []*models.FinancialRecord
	Summary          Summary
}

// Summary provides aggregate statistics about a matching run.
type Summary struct {
	RunID             string          `json:"run_id"`
	SourceCount       int             `json:"source_count"`
	TargetCount       int             `json:"target_count"`
	PreviouslyMatched int             `json:"previously_matched"`
	Matched           int             `json:"matched"`
	Unmatched         int             `json:"unmatched"`
	ByStrategy        map[string]int  `json:"by_strategy"`
	MatchedAmount     decimal.Decimal `json:"matched_amount"`
	UnmatchedAmount   decimal.Decimal `json:"unmatched_amount"`
	Duration          time.Duration   `json:"duration"`
}

// NewEngine creates a matching engine with the full strategy cascade.
func NewEngine(config *Config, log logger.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Engine{
		config:     config,
		strategies: Cascade(),
		log:        log.WithComponent("matcher"),
	}
}

// Run matches sources against targets and returns the patches to write. The
// engine is re-entrant: sources already carrying a match annotation and
// targets already matched in a previous run are excluded from candidacy, so
// re-running after writes yields zero new matches.
func (e *Engine) Run(sources, targets []*models.FinancialRecord, now time.Time) *Result {
	started := time.Now()
	runID := uuid.NewString()

	var candidateTargets []*models.FinancialRecord
	for _, t := range targets {
		if !t.IsMatched() {
			candidateTargets = append(candidateTargets, t)
		}
	}
	idx := NewTargetIndex(candidateTargets)
	claims := NewClaimRegistry()

	stats := idx.GetStats()
	e.log.WithFields(logger.Fields{
		"run_id":       runID,
		"sources":      len(sources),
		"targets":      stats.Targets,
		"unique_refs":  stats.UniqueRefs,
		"unique_names": stats.UniqueNames,
	}).Info("starting matching run")

	result := &Result{RunID: runID}
	summary := Summary{
		RunID:           runID,
		SourceCount:     len(sources),
		TargetCount:     len(candidateTargets),
		ByStrategy:      make(map[string]int),
		MatchedAmount:   decimal.Zero,
		UnmatchedAmount: decimal.Zero,
	}

	for _, source := range sources {
		if source.IsMatched() {
			summary.PreviouslyMatched++
			continue
		}
		patch := e.matchOne(source, idx, claims, runID, now)
		if patch == nil {
			result.UnmatchedSources = append(result.UnmatchedSources, source)
			summary.Unmatched++
			summary.UnmatchedAmount = summary.UnmatchedAmount.Add(source.AbsAmount())
			continue
		}
		result.Patches = append(result.Patches, patch)
		summary.Matched++
		summary.ByStrategy[patch.Strategy]++
		summary.MatchedAmount = summary.MatchedAmount.Add(source.AbsAmount())
	}

	for _, t := range candidateTargets {
		if !claims.TargetClaimed(t.ID) {
			result.UnclaimedTargets = append(result.UnclaimedTargets, t)
		}
	}

	summary.Duration = time.Since(started)
	result.Summary = summary

	e.log.WithFields(logger.Fields{
		"run_id":    runID,
		"matched":   summary.Matched,
		"unmatched": summary.Unmatched,
		"duration":  summary.Duration.String(),
	}).Info("matching run complete")

	return result
}

// matchOne walks the cascade for a single source record. The first strategy
// that yields a valid candidate wins; its claim is registered before the
// patch is emitted.
func (e *Engine) matchOne(source *models.FinancialRecord, idx *TargetIndex, claims *ClaimRegistry, runID string, now time.Time) *models.Patch {
	for _, strategy := range e.strategies {
		candidate := strategy.Match(source, idx, claims, e.config)
		if candidate == nil {
			continue
		}

		if strategy.ClaimsTarget() {
			if !claims.TryClaim(source.ID, candidate.Target.ID) {
				// Claimed targets are filtered before scoring; a failed
				// claim here means the source was consumed already.
				return nil
			}
			e.logMatch(candidate)
			return models.NewPatch(candidate, runID, now)
		}

		if !claims.ClaimSource(source.ID) {
			return nil
		}
		e.logMatch(candidate)
		return models.NewClassificationPatch(candidate, runID, now)
	}
	return nil
}

func (e *Engine) logMatch(c *models.MatchCandidate) {
	e.log.WithFields(logger.Fields{
		"source":     c.Source.ID,
		"target":     c.Target.ID,
		"strategy":   c.Strategy,
		"confidence": c.Confidence,
	}).Debug("match accepted")
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}
