// Package matcher implements the multi-strategy, confidence-scored matching
// engine that links source records (bank entries, gateway transactions) to
// target records (invoices, orders) under ambiguity.
//
// The engine runs an ordered strategy cascade, highest confidence first:
//  1. External-identifier match (1.00)
//  2. Identity + amount within tolerance (0.90)
//  3. Identity + nearest date, stepwise confidence (0.50-0.75)
//  4. Amount + date window, no identity (0.60)
//  5. Identity only, probable classification (0.50)
//
// A source record accepts the first strategy that yields a valid candidate
// and is never re-scored by a weaker strategy. Targets accepted into a match
// are claimed through a ClaimRegistry and become invisible to later candidate
// searches, so each target is consumed at most once per run.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig(), log)
//	result := engine.Run(sources, targets, time.Now())
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the monetary and date tolerances of the matching cascade.
type Config struct {
	// AmountTolerancePercent is the relative tolerance for identity+amount
	// matching, as a percentage of the source amount (0.0 to 100.0).
	AmountTolerancePercent float64 `json:"amount_tolerance_percent"`

	// AmountToleranceMin is the fixed floor of the identity+amount
	// tolerance, so small amounts still tolerate rounding differences.
	AmountToleranceMin decimal.Decimal `json:"amount_tolerance_min"`

	// AbsoluteAmountTolerance is the flat tolerance used by the
	// amount+date strategy.
	AbsoluteAmountTolerance decimal.Decimal `json:"absolute_amount_tolerance"`

	// DateWindowDays bounds the amount+date strategy's date search.
	DateWindowDays int `json:"date_window_days"`

	// LookbackDays bounds the identity+nearest-date strategy's search.
	LookbackDays int `json:"lookback_days"`

	// MinAmountForAmountDate excludes small, common amounts from the
	// amount+date strategy to avoid false positives.
	MinAmountForAmountDate decimal.Decimal `json:"min_amount_for_amount_date"`

	// MinReferenceFragment is the minimum length of a normalized
	// identifier fragment considered by the external-id strategy.
	MinReferenceFragment int `json:"min_reference_fragment"`

	// EnforceDirection rejects candidates whose amount signs disagree when
	// both records encode direction, so expense and revenue flows never
	// cross-match.
	EnforceDirection bool `json:"enforce_direction"`

	// Weights combine the normalized sub-scores when several candidates
	// pass one strategy's predicate.
	Weights Weights `json:"weights"`
}

// Weights defines the relative importance of sub-scores when ranking
// candidates within a single strategy.
type Weights struct {
	Amount float64 `json:"amount"`
	Date   float64 `json:"date"`
	Name   float64 `json:"name"`
}

// DefaultConfig returns the tolerances used in production runs.
func DefaultConfig() *Config {
	return &Config{
		AmountTolerancePercent:  2.0,
		AmountToleranceMin:      decimal.NewFromInt(1),
		AbsoluteAmountTolerance: decimal.NewFromInt(1),
		DateWindowDays:          5,
		LookbackDays:            365,
		MinAmountForAmountDate:  decimal.NewFromInt(50),
		MinReferenceFragment:    5,
		EnforceDirection:        true,
		Weights: Weights{
			Amount: 0.5,
			Date:   0.3,
			Name:   0.2,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.AmountTolerancePercent < 0 || c.AmountTolerancePercent > 100 {
		return fmt.Errorf("amount tolerance percent must be between 0.0 and 100.0: %f", c.AmountTolerancePercent)
	}
	if c.AmountToleranceMin.IsNegative() {
		return fmt.Errorf("amount tolerance minimum cannot be negative: %s", c.AmountToleranceMin)
	}
	if c.AbsoluteAmountTolerance.IsNegative() {
		return fmt.Errorf("absolute amount tolerance cannot be negative: %s", c.AbsoluteAmountTolerance)
	}
	if c.DateWindowDays < 0 {
		return fmt.Errorf("date window days cannot be negative: %d", c.DateWindowDays)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback days must be positive: %d", c.LookbackDays)
	}
	if c.MinReferenceFragment < 3 {
		return fmt.Errorf("minimum reference fragment must be at least 3: %d", c.MinReferenceFragment)
	}
	return c.Weights.Validate()
}

// Validate checks that the weights are usable.
func (w *Weights) Validate() error {
	for name, v := range map[string]float64{"amount": w.Amount, "date": w.Date, "name": w.Name} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", name, v)
		}
	}
	total := w.Amount + w.Date + w.Name
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// AmountTolerance computes the identity+amount tolerance for a given amount:
// the larger of the percentage tolerance and the fixed minimum.
func (c *Config) AmountTolerance(amount decimal.Decimal) decimal.Decimal {
	pct := amount.Abs().Mul(decimal.NewFromFloat(c.AmountTolerancePercent / 100.0))
	if pct.LessThan(c.AmountToleranceMin) {
		return c.AmountToleranceMin
	}
	return pct
}
