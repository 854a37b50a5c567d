package matcher

import (
	"sort"
	"strings"
	"time"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/normalize"
	"ledger-reconciliation-service/internal/similarity"

	"github.com/shopspring/decimal"
)

// Strategy names as written into reconciliation_strategy.
const (
	StrategyExternalID     = "external_id"
	StrategyIdentityAmount = "identity_amount"
	StrategyIdentityDate   = "identity_date"
	StrategyAmountDate     = "amount_date"
	StrategyClassification = "identity_classification"
)

// Strategy is one rule in the cascade. Match returns nil when the predicate
// fails for the source record; a non-nil candidate is final for that source
// (no weaker strategy re-scores it).
type Strategy interface {
	Name() string

	// ClaimsTarget reports whether an accepted candidate consumes its
	// target. Classification-only matches do not.
	ClaimsTarget() bool

	Match(source *models.FinancialRecord, idx *TargetIndex, claims *ClaimRegistry, cfg *Config) *models.MatchCandidate
}

// Cascade returns the full strategy list in priority order, highest
// confidence first.
func Cascade() []Strategy {
	return []Strategy{
		externalIDStrategy{},
		identityAmountStrategy{},
		identityDateStrategy{},
		amountDateStrategy{},
		classificationStrategy{},
	}
}

// externalIDStrategy links a source whose external-id field embeds an
// identifier fragment found inside a target's reference field. References
// carry source-specific prefixes and check digits around the shared fragment,
// so containment over normalized fragments is the predicate.
type externalIDStrategy struct{}

func (externalIDStrategy) Name() string       { return StrategyExternalID }
func (externalIDStrategy) ClaimsTarget() bool { return true }

func (externalIDStrategy) Match(source *models.FinancialRecord, idx *TargetIndex, claims *ClaimRegistry, cfg *Config) *models.MatchCandidate {
	raw := source.ExternalReference()
	if raw == "" {
		return nil
	}

	build := func(targets []*models.FinancialRecord) []*models.MatchCandidate {
		var out []*models.MatchCandidate
		for _, t := range targets {
			if claims.TargetClaimed(t.ID) {
				continue
			}
			out = append(out, &models.MatchCandidate{
				Source:      source,
				Target:      t,
				Strategy:    StrategyExternalID,
				Confidence:  1.0,
				AccountCode: t.AccountCode(),
				AmountDiff:  source.AbsAmount().Sub(t.AbsAmount()).Abs(),
				DateDiff:    dateDiff(source.Date, t.Date),
				Score:       1.0,
			})
		}
		return out
	}

	// Whole-reference equality is resolved from the exact index before the
	// linear containment scan runs.
	whole := normalize.Reference(raw)
	if len(whole) >= cfg.MinReferenceFragment {
		if best := pickBest(build(idx.ByReference(whole))); best != nil {
			return best
		}
	}

	var candidates []*models.MatchCandidate
	for _, fragment := range referenceFragments(raw, cfg.MinReferenceFragment) {
		candidates = append(candidates, build(idx.ByReferenceFragment(fragment))...)
	}
	return pickBest(candidates)
}

// identityAmountStrategy links records of the same normalized customer whose
// absolute amounts differ by no more than max(percent tolerance, fixed
// minimum). The tolerance boundary is inclusive.
type identityAmountStrategy struct{}

func (identityAmountStrategy) Name() string       { return StrategyIdentityAmount }
func (identityAmountStrategy) ClaimsTarget() bool { return true }

func (identityAmountStrategy) Match(source *models.FinancialRecord, idx *TargetIndex, claims *ClaimRegistry, cfg *Config) *models.MatchCandidate {
	name := normalize.Name(source.CustomerName())
	if name == "" {
		return nil
	}

	tolerance := cfg.AmountTolerance(source.AbsAmount())
	var candidates []*models.MatchCandidate
	for _, t := range idx.ByName[name] {
		if claims.TargetClaimed(t.ID) {
			continue
		}
		if !directionCompatible(source, t, cfg) {
			continue
		}
		diff := source.AbsAmount().Sub(t.AbsAmount()).Abs()
		if diff.GreaterThan(tolerance) {
			continue
		}
		dd := dateDiff(source.Date, t.Date)
		candidates = append(candidates, &models.MatchCandidate{
			Source:      source,
			Target:      t,
			Strategy:    StrategyIdentityAmount,
			Confidence:  0.90,
			AccountCode: t.AccountCode(),
			AmountDiff:  diff,
			DateDiff:    dd,
			Score:       weightedScore(cfg, amountCloseness(diff, tolerance), dateCloseness(dd), 1.0),
		})
	}
	return pickBest(candidates)
}

// identityDateStrategy links records of the same normalized customer with no
// amount constraint, picking the nearest date inside the lookback window.
// Confidence decays stepwise with date distance.
type identityDateStrategy struct{}

func (identityDateStrategy) Name() string       { return StrategyIdentityDate }
func (identityDateStrategy) ClaimsTarget() bool { return true }

func (identityDateStrategy) Match(source *models.FinancialRecord, idx *TargetIndex, claims *ClaimRegistry, cfg *Config) *models.MatchCandidate {
	name := normalize.Name(source.CustomerName())
	if name == "" || source.Date.IsZero() {
		return nil
	}

	lookback := time.Duration(cfg.LookbackDays) * 24 * time.Hour
	var candidates []*models.MatchCandidate
	for _, t := range idx.ByName[name] {
		if claims.TargetClaimed(t.ID) {
			continue
		}
		if !directionCompatible(source, t, cfg) {
			continue
		}
		if t.Date.IsZero() {
			continue
		}
		dd := dateDiff(source.Date, t.Date)
		if dd > lookback {
			continue
		}
		candidates = append(candidates, &models.MatchCandidate{
			Source:      source,
			Target:      t,
			Strategy:    StrategyIdentityDate,
			Confidence:  dateStepConfidence(dd),
			AccountCode: t.AccountCode(),
			AmountDiff:  source.AbsAmount().Sub(t.AbsAmount()).Abs(),
			DateDiff:    dd,
			Score:       dateCloseness(dd),
		})
	}

	// Nearest date wins outright for this strategy.
	best := (*models.MatchCandidate)(nil)
	for _, c := range candidates {
		if best == nil || c.DateDiff < best.DateDiff ||
			(c.DateDiff == best.DateDiff && c.Target.ID < best.Target.ID) {
			best = c
		}
	}
	return best
}

// amountDateStrategy is the last transactional resort: no identity, amounts
// within a small flat tolerance and dates within a short window. Amounts
// below the configured floor are excluded to avoid false positives on small,
// common values.
type amountDateStrategy struct{}

func (amountDateStrategy) Name() string       { return StrategyAmountDate }
func (amountDateStrategy) ClaimsTarget() bool { return true }

func (amountDateStrategy) Match(source *models.FinancialRecord, idx *TargetIndex, claims *ClaimRegistry, cfg *Config) *models.MatchCandidate {
	if source.Date.IsZero() || source.AbsAmount().LessThan(cfg.MinAmountForAmountDate) {
		return nil
	}

	window := time.Duration(cfg.DateWindowDays) * 24 * time.Hour
	spread := cfg.AbsoluteAmountTolerance.Ceil().IntPart() + 1
	var candidates []*models.MatchCandidate
	for _, t := range idx.NearAmount(source.AbsAmount(), spread) {
		if claims.TargetClaimed(t.ID) {
			continue
		}
		if !directionCompatible(source, t, cfg) {
			continue
		}
		diff := source.AbsAmount().Sub(t.AbsAmount()).Abs()
		if diff.GreaterThan(cfg.AbsoluteAmountTolerance) {
			continue
		}
		if t.Date.IsZero() {
			continue
		}
		dd := dateDiff(source.Date, t.Date)
		if dd > window {
			continue
		}
		nameSim := similarity.Dice(normalize.Name(source.CustomerName()), normalize.Name(t.CustomerName()))
		candidates = append(candidates, &models.MatchCandidate{
			Source:      source,
			Target:      t,
			Strategy:    StrategyAmountDate,
			Confidence:  0.60,
			AccountCode: t.AccountCode(),
			AmountDiff:  diff,
			DateDiff:    dd,
			Score:       weightedScore(cfg, amountCloseness(diff, cfg.AbsoluteAmountTolerance), dateCloseness(dd), nameSim),
		})
	}
	return pickBest(candidates)
}

// classificationStrategy assigns a probable financial-account classification
// from the closest-dated target of the same customer, without establishing a
// transactional link. The target is not consumed.
type classificationStrategy struct{}

func (classificationStrategy) Name() string       { return StrategyClassification }
func (classificationStrategy) ClaimsTarget() bool { return false }

func (classificationStrategy) Match(source *models.FinancialRecord, idx *TargetIndex, claims *ClaimRegistry, cfg *Config) *models.MatchCandidate {
	name := normalize.Name(source.CustomerName())
	if name == "" {
		return nil
	}

	var best *models.MatchCandidate
	for _, t := range idx.ByName[name] {
		if t.AccountCode() == "" {
			continue
		}
		dd := dateDiff(source.Date, t.Date)
		c := &models.MatchCandidate{
			Source:      source,
			Target:      t,
			Strategy:    StrategyClassification,
			Confidence:  0.50,
			AccountCode: t.AccountCode(),
			AmountDiff:  source.AbsAmount().Sub(t.AbsAmount()).Abs(),
			DateDiff:    dd,
			Score:       dateCloseness(dd),
		}
		if best == nil || c.DateDiff < best.DateDiff ||
			(c.DateDiff == best.DateDiff && c.Target.ID < best.Target.ID) {
			best = c
		}
	}
	return best
}

// referenceFragments splits a raw external reference into normalized
// fragments long enough to be searchable. The whole normalized reference is
// included first.
func referenceFragments(raw string, minLen int) []string {
	seen := make(map[string]bool)
	var fragments []string

	add := func(f string) {
		if len(f) >= minLen && !seen[f] {
			seen[f] = true
			fragments = append(fragments, f)
		}
	}

	add(normalize.Reference(raw))
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) {
		add(normalize.Reference(part))
	}
	return fragments
}

// directionCompatible rejects sign mismatches when both records encode
// direction. Zero amounts carry no direction.
func directionCompatible(source, target *models.FinancialRecord, cfg *Config) bool {
	if !cfg.EnforceDirection {
		return true
	}
	if source.Amount.IsZero() || target.Amount.IsZero() {
		return true
	}
	return source.Amount.Sign() == target.Amount.Sign()
}

// dateDiff returns the absolute difference between two dates.
func dateDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d
}

// dateStepConfidence maps date distance to the stepwise confidence of the
// identity+date strategy.
func dateStepConfidence(dd time.Duration) float64 {
	days := dd.Hours() / 24
	switch {
	case days <= 7:
		return 0.75
	case days <= 30:
		return 0.65
	case days <= 90:
		return 0.55
	default:
		return 0.50
	}
}

// amountCloseness linearly decays from 1 at zero difference to 0 at the
// tolerance boundary.
func amountCloseness(diff, tolerance decimal.Decimal) float64 {
	if tolerance.IsZero() {
		if diff.IsZero() {
			return 1
		}
		return 0
	}
	ratio, _ := diff.Div(tolerance).Float64()
	if ratio > 1 {
		return 0
	}
	return 1 - ratio
}

// dateCloseness linearly decays over a 90-day horizon.
func dateCloseness(dd time.Duration) float64 {
	const horizon = 90 * 24 * time.Hour
	if dd >= horizon {
		return 0
	}
	return 1 - float64(dd)/float64(horizon)
}

// weightedScore combines the normalized sub-scores with the configured
// weights.
func weightedScore(cfg *Config, amount, date, name float64) float64 {
	return cfg.Weights.Amount*amount + cfg.Weights.Date*date + cfg.Weights.Name*name
}

// pickBest ranks candidates by weighted score; equal scores break ties by
// smaller amount difference, then smaller date difference, then target ID.
func pickBest(candidates []*models.MatchCandidate) *models.MatchCandidate {
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if cmp := a.AmountDiff.Cmp(b.AmountDiff); cmp != 0 {
			return cmp < 0
		}
		if a.DateDiff != b.DateDiff {
			return a.DateDiff < b.DateDiff
		}
		return a.Target.ID < b.Target.ID
	})
	return candidates[0]
}
