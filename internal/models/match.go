package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MatchCandidate is a potential link between one source record and one target
// record, produced by a single strategy. Candidates exist only during a run;
// an accepted candidate becomes a Patch.
type MatchCandidate struct {
	Source     *FinancialRecord
	Target     *FinancialRecord
	Strategy   string
	Confidence float64

	// AccountCode is the target's resolved classification, carried so the
	// patch does not need to re-read the target.
	AccountCode string

	// Sub-scores used for tie-breaking between candidates of one strategy.
	AmountDiff decimal.Decimal
	DateDiff   time.Duration
	Score      float64
}

// String returns a compact representation for verbose match logging.
func (c *MatchCandidate) String() string {
	return fmt.Sprintf("MatchCandidate{%s -> %s, strategy: %s, confidence: %.2f}",
		c.Source.ID, c.Target.ID, c.Strategy, c.Confidence)
}

// Patch is one write-back unit for a newly matched source record: the
// attribute keys to merge into the record's bag. Patches never remove or
// overwrite keys outside the reconciliation namespace.
type Patch struct {
	RecordID   string     `json:"record_id"`
	Attributes Attributes `json:"attributes"`

	// Kept for reporting; not persisted.
	Strategy   string          `json:"strategy"`
	Confidence float64         `json:"confidence"`
	Amount     decimal.Decimal `json:"amount"`
	TargetID   string          `json:"target_id"`
}

// NewPatch builds the write-back patch for an accepted transactional match.
// Classification-only matches use NewClassificationPatch instead.
func NewPatch(c *MatchCandidate, runID string, now time.Time) *Patch {
	attrs := Attributes{
		AttrMatchedInvoiceNumber: c.Target.Attributes.GetString(AttrInvoiceNumber),
		AttrMatchedOrderID:       c.Target.Attributes.GetString(AttrExternalOrderID),
		AttrMatchedCustomer:      c.Target.CustomerName(),
		AttrStrategy:             c.Strategy,
		AttrConfidence:           c.Confidence,
		AttrReconciledAt:         now.UTC().Format(time.RFC3339),
		AttrRunID:                runID,
	}
	if c.AccountCode != "" {
		attrs[AttrMatchedInvoiceFAC] = c.AccountCode
	}
	return &Patch{
		RecordID:   c.Source.ID,
		Attributes: attrs,
		Strategy:   c.Strategy,
		Confidence: c.Confidence,
		Amount:     c.Source.AbsAmount(),
		TargetID:   c.Target.ID,
	}
}

// NewClassificationPatch builds a patch that assigns a probable
// classification without claiming a target invoice. No matched_invoice_number
// or matched_order_id is written, so the record is matched for P&L purposes
// only.
func NewClassificationPatch(c *MatchCandidate, runID string, now time.Time) *Patch {
	return &Patch{
		RecordID: c.Source.ID,
		Attributes: Attributes{
			AttrMatchedInvoiceFAC: c.AccountCode,
			AttrMatchedCustomer:   c.Target.CustomerName(),
			AttrStrategy:          c.Strategy,
			AttrConfidence:        c.Confidence,
			AttrReconciledAt:      now.UTC().Format(time.RFC3339),
			AttrRunID:             runID,
		},
		Strategy:   c.Strategy,
		Confidence: c.Confidence,
		Amount:     c.Source.AbsAmount(),
	}
}
