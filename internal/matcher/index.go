package matcher

import (
	"strings"

	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/normalize"

	"github.com/shopspring/decimal"
)

// TargetIndex provides the lookup structures built once per run over the
// target collection. Records with empty normalized identity or reference keys
// are not indexed under those keys, so empty keys can never match each other.
type TargetIndex struct {
	// ByExternalID maps a normalized external reference to the records
	// sharing it.
	ByExternalID map[string][]*models.FinancialRecord

	// ByName maps a normalized customer name to that customer's records.
	ByName map[string][]*models.FinancialRecord

	// ByAmountBucket maps round(abs(amount)) to the records at that
	// rounded value; neighboring buckets are probed for tolerant search.
	ByAmountBucket map[int64][]*models.FinancialRecord

	// AllTargets holds every indexed record.
	AllTargets []*models.FinancialRecord

	refs []refEntry
}

// refEntry supports fragment-containment search over target references.
type refEntry struct {
	ref    string
	record *models.FinancialRecord
}

// NewTargetIndex builds all indexes in one pass over the target collection.
func NewTargetIndex(targets []*models.FinancialRecord) *TargetIndex {
	idx := &TargetIndex{
		ByExternalID:   make(map[string][]*models.FinancialRecord),
		ByName:         make(map[string][]*models.FinancialRecord),
		ByAmountBucket: make(map[int64][]*models.FinancialRecord),
		AllTargets:     targets,
	}

	for _, t := range targets {
		if ref := normalize.Reference(t.ExternalReference()); ref != "" {
			idx.ByExternalID[ref] = append(idx.ByExternalID[ref], t)
			idx.refs = append(idx.refs, refEntry{ref: ref, record: t})
		}
		if name := normalize.Name(t.CustomerName()); name != "" {
			idx.ByName[name] = append(idx.ByName[name], t)
		}
		bucket := amountBucket(t.AbsAmount())
		idx.ByAmountBucket[bucket] = append(idx.ByAmountBucket[bucket], t)
	}

	return idx
}

// ByReference returns targets whose normalized reference equals ref.
func (idx *TargetIndex) ByReference(ref string) []*models.FinancialRecord {
	if ref == "" {
		return nil
	}
	return idx.ByExternalID[ref]
}

// ByReferenceFragment returns targets whose normalized reference contains the
// fragment. References embed identifier fragments with source-specific
// prefixes and suffixes, so containment is the lookup, not equality.
func (idx *TargetIndex) ByReferenceFragment(fragment string) []*models.FinancialRecord {
	if fragment == "" {
		return nil
	}
	var out []*models.FinancialRecord
	for _, e := range idx.refs {
		if strings.Contains(e.ref, fragment) {
			out = append(out, e.record)
		}
	}
	return out
}

// NearAmount returns targets whose rounded absolute amount is within spread
// of the given amount's bucket, probing neighboring buckets.
func (idx *TargetIndex) NearAmount(amount decimal.Decimal, spread int64) []*models.FinancialRecord {
	center := amountBucket(amount.Abs())
	var out []*models.FinancialRecord
	for b := center - spread; b <= center+spread; b++ {
		out = append(out, idx.ByAmountBucket[b]...)
	}
	return out
}

// Stats summarizes index coverage for logging.
type Stats struct {
	Targets      int
	UniqueRefs   int
	UniqueNames  int
	AmountRanges int
}

// GetStats returns statistics about the index.
func (idx *TargetIndex) GetStats() Stats {
	return Stats{
		Targets:      len(idx.AllTargets),
		UniqueRefs:   len(idx.ByExternalID),
		UniqueNames:  len(idx.ByName),
		AmountRanges: len(idx.ByAmountBucket),
	}
}

func amountBucket(abs decimal.Decimal) int64 {
	return abs.Round(0).IntPart()
}
