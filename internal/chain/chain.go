// Package chain evaluates reconciliation coverage by following the link
// chain: bank inflow -> gateway transaction -> invoice/order ->
// financial-account classification. It is a read-only aggregation layer used
// to judge the matching engine's output quality; it never produces writes.
package chain

import (
	"sort"

	"ledger-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Resolution classifies how far a bank record's chain resolves.
type Resolution string

const (
	// ResolutionDirect means the bank record already carries its own
	// classification.
	ResolutionDirect Resolution = "direct"

	// ResolutionFull means at least one gateway link resolves through a
	// matched invoice to a classification.
	ResolutionFull Resolution = "full"

	// ResolutionPartial means gateway links exist but none resolves to a
	// classification.
	ResolutionPartial Resolution = "partial"

	// ResolutionNone means the record has no chain at all.
	ResolutionNone Resolution = "none"
)

// Coverage aggregates counts and monetary totals per resolution state.
type Coverage struct {
	Partition string `json:"partition"`

	DirectCount  int `json:"direct_count"`
	FullCount    int `json:"full_count"`
	PartialCount int `json:"partial_count"`
	NoneCount    int `json:"none_count"`

	DirectAmount  decimal.Decimal `json:"direct_amount"`
	FullAmount    decimal.Decimal `json:"full_amount"`
	PartialAmount decimal.Decimal `json:"partial_amount"`
	NoneAmount    decimal.Decimal `json:"none_amount"`
}

// Total returns the number of bank records in the partition.
func (c *Coverage) Total() int {
	return c.DirectCount + c.FullCount + c.PartialCount + c.NoneCount
}

// Resolver traverses stored chain references. Gateway records are looked up
// by ID from their stored transaction-id references.
type Resolver struct {
	gatewayByID map[string]*models.FinancialRecord
}

// NewResolver indexes the gateway collection by record ID.
func NewResolver(gateway []*models.FinancialRecord) *Resolver {
	byID := make(map[string]*models.FinancialRecord, len(gateway))
	for _, g := range gateway {
		byID[g.ID] = g
	}
	return &Resolver{gatewayByID: byID}
}

// Resolve classifies one bank record's chain.
func (r *Resolver) Resolve(bank *models.FinancialRecord) Resolution {
	if bank.AccountCode() != "" || bank.Attributes.Has(models.AttrMatchedInvoiceFAC) {
		return ResolutionDirect
	}

	trxIDs := bank.Attributes.GetStringList(models.AttrGatewayTrxIDs)
	if len(trxIDs) == 0 {
		return ResolutionNone
	}

	// One classified link is enough for a full resolution.
	for _, id := range trxIDs {
		g, ok := r.gatewayByID[id]
		if !ok {
			continue
		}
		if g.Attributes.GetString(models.AttrMatchedInvoiceFAC) != "" {
			return ResolutionFull
		}
	}
	return ResolutionPartial
}

// Score aggregates coverage per bank-source partition, keyed by the
// source_partition attribute. Records without a partition fall under the
// empty key. Partitions are returned in sorted order.
func (r *Resolver) Score(bank []*models.FinancialRecord) []*Coverage {
	byPartition := make(map[string]*Coverage)

	for _, b := range bank {
		partition := b.Attributes.GetString(models.AttrSourcePartition)
		cov, ok := byPartition[partition]
		if !ok {
			cov = &Coverage{
				Partition:     partition,
				DirectAmount:  decimal.Zero,
				FullAmount:    decimal.Zero,
				PartialAmount: decimal.Zero,
				NoneAmount:    decimal.Zero,
			}
			byPartition[partition] = cov
		}

		amount := b.AbsAmount()
		switch r.Resolve(b) {
		case ResolutionDirect:
			cov.DirectCount++
			cov.DirectAmount = cov.DirectAmount.Add(amount)
		case ResolutionFull:
			cov.FullCount++
			cov.FullAmount = cov.FullAmount.Add(amount)
		case ResolutionPartial:
			cov.PartialCount++
			cov.PartialAmount = cov.PartialAmount.Add(amount)
		case ResolutionNone:
			cov.NoneCount++
			cov.NoneAmount = cov.NoneAmount.Add(amount)
		}
	}

	partitions := make([]string, 0, len(byPartition))
	for p := range byPartition {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	out := make([]*Coverage, 0, len(partitions))
	for _, p := range partitions {
		out = append(out, byPartition[p])
	}
	return out
}
