package matcher

import (
	"testing"
	"time"

	"ledger-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(id, customer string, amount float64, date time.Time) *models.FinancialRecord {
	return &models.FinancialRecord{
		ID:     id,
		Date:   date,
		Amount: decimal.NewFromFloat(amount),
		Attributes: models.Attributes{
			models.AttrCustomerName: customer,
		},
	}
}

func classifiedTarget(id, customer, invoice, fac string, amount float64, date time.Time) *models.FinancialRecord {
	r := target(id, customer, invoice, amount, date)
	r.Attributes[models.AttrAccountCode] = fac
	return r
}

func TestExternalIDStrategy(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "x", "#DSDES4519A0D-48689", 120, day(2026, 2, 1)),
		target("t2", "y", "INV-777", 99, day(2026, 2, 1)),
	})
	cfg := DefaultConfig()
	claims := NewClaimRegistry()

	src := source("s1", "", 120, day(2026, 2, 3))
	src.Attributes[models.AttrExternalOrderID] = "4519a0d-5116552"

	c := externalIDStrategy{}.Match(src, idx, claims, cfg)
	require.NotNil(t, c)
	assert.Equal(t, "t1", c.Target.ID)
	assert.Equal(t, StrategyExternalID, c.Strategy)
	assert.Equal(t, 1.0, c.Confidence)
}

func TestExternalIDStrategyPrefersExactReference(t *testing.T) {
	// t1 merely contains the reference; t2 equals it. The exact lookup wins
	// even though t1 sorts first among containment candidates.
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "x", "PRE-ORDER-55501-POST", 120, day(2026, 2, 1)),
		target("t2", "y", "ORDER-55501", 120, day(2026, 2, 1)),
	})
	cfg := DefaultConfig()

	src := source("s1", "", 120, day(2026, 2, 3))
	src.Attributes[models.AttrExternalOrderID] = "ORDER-55501"

	c := externalIDStrategy{}.Match(src, idx, NewClaimRegistry(), cfg)
	require.NotNil(t, c)
	assert.Equal(t, "t2", c.Target.ID)
}

func TestExternalIDStrategyIgnoresShortFragments(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "x", "REF-123", 120, day(2026, 2, 1)),
	})
	cfg := DefaultConfig()

	src := source("s1", "", 120, day(2026, 2, 3))
	src.Attributes[models.AttrExternalOrderID] = "123-ab"

	assert.Nil(t, externalIDStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))
}

func TestExternalIDStrategySkipsClaimedTargets(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "x", "ORDER-88421", 120, day(2026, 2, 1)),
	})
	cfg := DefaultConfig()
	claims := NewClaimRegistry()
	claims.TryClaim("other", "t1")

	src := source("s1", "", 120, day(2026, 2, 3))
	src.Attributes[models.AttrExternalOrderID] = "88421"

	assert.Nil(t, externalIDStrategy{}.Match(src, idx, claims, cfg))
}

func TestIdentityAmountStrategy(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("INV1", "jane smith", "INV1", 101.50, day(2026, 1, 12)),
		target("INV2", "jane smith", "INV2", 250, day(2026, 1, 12)),
	})
	cfg := DefaultConfig()

	src := source("s1", "Jane Smith", 100.00, day(2026, 1, 10))
	c := identityAmountStrategy{}.Match(src, idx, NewClaimRegistry(), cfg)

	require.NotNil(t, c)
	assert.Equal(t, "INV1", c.Target.ID)
	assert.Equal(t, 0.90, c.Confidence)
}

func TestIdentityAmountToleranceBoundary(t *testing.T) {
	cfg := DefaultConfig()
	// Tolerance for 100.00 at 2% with a 1.00 floor is exactly 2.00.
	tol := cfg.AmountTolerance(decimal.NewFromInt(100))
	require.True(t, tol.Equal(decimal.NewFromInt(2)))

	tests := []struct {
		name         string
		targetAmount float64
		wantMatch    bool
	}{
		{"exactly at boundary", 102.00, true},
		{"strictly above boundary", 102.01, false},
		{"exactly at lower boundary", 98.00, true},
		{"strictly below lower boundary", 97.99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewTargetIndex([]*models.FinancialRecord{
				target("t1", "jane smith", "INV1", tt.targetAmount, day(2026, 1, 12)),
			})
			src := source("s1", "Jane Smith", 100.00, day(2026, 1, 10))
			c := identityAmountStrategy{}.Match(src, idx, NewClaimRegistry(), cfg)
			if tt.wantMatch {
				assert.NotNil(t, c)
			} else {
				assert.Nil(t, c)
			}
		})
	}
}

func TestIdentityAmountSkipsEmptyIdentity(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "", "INV1", 100, day(2026, 1, 12)),
	})
	cfg := DefaultConfig()

	// Source and target both lack identity; empty keys never match each
	// other.
	src := source("s1", "", 100, day(2026, 1, 10))
	assert.Nil(t, identityAmountStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))
}

func TestIdentityAmountDirectionCheck(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "jane smith", "INV1", 100, day(2026, 1, 12)),
	})
	cfg := DefaultConfig()

	// An outflow must not cross-match a revenue invoice.
	src := source("s1", "Jane Smith", -100, day(2026, 1, 10))
	assert.Nil(t, identityAmountStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))

	cfg.EnforceDirection = false
	assert.NotNil(t, identityAmountStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))
}

func TestIdentityDateStrategy(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("far", "jane smith", "INV1", 500, day(2025, 11, 1)),
		target("near", "jane smith", "INV2", 900, day(2026, 1, 8)),
	})
	cfg := DefaultConfig()

	src := source("s1", "Jane Smith", 100, day(2026, 1, 10))
	c := identityDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg)

	require.NotNil(t, c)
	assert.Equal(t, "near", c.Target.ID)
	assert.Equal(t, 0.75, c.Confidence)
}

func TestIdentityDateConfidenceSteps(t *testing.T) {
	tests := []struct {
		name       string
		targetDate time.Time
		confidence float64
	}{
		{"within a week", day(2026, 1, 5), 0.75},
		{"within a month", day(2025, 12, 20), 0.65},
		{"within a quarter", day(2025, 11, 1), 0.55},
		{"within lookback", day(2025, 6, 1), 0.50},
	}

	cfg := DefaultConfig()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewTargetIndex([]*models.FinancialRecord{
				target("t1", "jane smith", "INV1", 100, tt.targetDate),
			})
			src := source("s1", "Jane Smith", 100, day(2026, 1, 10))
			c := identityDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg)
			require.NotNil(t, c)
			assert.Equal(t, tt.confidence, c.Confidence)
		})
	}
}

func TestIdentityDateDirectionCheck(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "jane smith", "INV1", 500, day(2026, 1, 8)),
	})
	cfg := DefaultConfig()

	// With no amount constraint, an outflow would otherwise reach a revenue
	// invoice of the same customer by name alone.
	src := source("s1", "Jane Smith", -100, day(2026, 1, 10))
	assert.Nil(t, identityDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))

	cfg.EnforceDirection = false
	assert.NotNil(t, identityDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))
}

func TestIdentityDateLookbackBound(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "jane smith", "INV1", 100, day(2024, 6, 1)),
	})
	cfg := DefaultConfig()

	src := source("s1", "Jane Smith", 100, day(2026, 1, 10))
	assert.Nil(t, identityDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))
}

func TestAmountDateStrategy(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "someone else", "INV1", 200.50, day(2026, 1, 9)),
	})
	cfg := DefaultConfig()

	src := source("s1", "unrelated descriptor", 200.00, day(2026, 1, 10))
	c := amountDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg)

	require.NotNil(t, c)
	assert.Equal(t, StrategyAmountDate, c.Strategy)
	assert.Equal(t, 0.60, c.Confidence)
}

func TestAmountDateMinimumAmountFloor(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "someone else", "INV1", 20, day(2026, 1, 10)),
	})
	cfg := DefaultConfig()

	// Small, common amounts are excluded to avoid false positives.
	src := source("s1", "unrelated", 20, day(2026, 1, 10))
	assert.Nil(t, amountDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))
}

func TestAmountDateWindowBound(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		target("t1", "someone", "INV1", 200, day(2026, 1, 1)),
	})
	cfg := DefaultConfig()

	src := source("s1", "unrelated", 200, day(2026, 1, 10))
	assert.Nil(t, amountDateStrategy{}.Match(src, idx, NewClaimRegistry(), cfg))
}

func TestClassificationStrategy(t *testing.T) {
	idx := NewTargetIndex([]*models.FinancialRecord{
		classifiedTarget("t1", "jane smith", "INV1", "7010", 500, day(2026, 1, 5)),
		target("t2", "jane smith", "INV2", 900, day(2026, 1, 9)),
	})
	cfg := DefaultConfig()

	src := source("s1", "Jane Smith", 100, day(2026, 1, 10))
	c := classificationStrategy{}.Match(src, idx, NewClaimRegistry(), cfg)

	// t2 is closer in date but unclassified; the classification strategy
	// only considers targets with a resolved account code.
	require.NotNil(t, c)
	assert.Equal(t, "t1", c.Target.ID)
	assert.Equal(t, "7010", c.AccountCode)
	assert.Equal(t, 0.50, c.Confidence)
}
