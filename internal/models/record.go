// Package models defines the core data types shared across the reconciliation
// pipeline: financial records with their free-form attribute bags, match
// candidates produced by the strategy cascade, and the write-back patches that
// annotate matched records.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Attribute keys written by the matching engine. Upstream processes own every
// other key in the bag; the engine only ever merges these in.
const (
	AttrMatchedInvoiceNumber = "matched_invoice_number"
	AttrMatchedInvoiceFAC    = "matched_invoice_fac"
	AttrMatchedCustomer      = "matched_customer"
	AttrMatchedOrderID       = "matched_order_id"
	AttrStrategy             = "reconciliation_strategy"
	AttrConfidence           = "reconciliation_confidence"
	AttrReconciledAt         = "reconciled_at"
	AttrRunID                = "reconciliation_run_id"
)

// Attribute keys read by the engine from upstream-owned data.
const (
	AttrCustomerName    = "customer_name"
	AttrCustomerEmail   = "customer_email"
	AttrExternalOrderID = "external_order_id"
	AttrInvoiceNumber   = "invoice_number"
	AttrAccountCode     = "financial_account_code"
	AttrGatewayTrxIDs   = "gateway_transaction_ids"
	AttrSourcePartition = "source_partition"
)

// FinancialRecord is one row from any source or target collection. The typed
// fields are present in every collection; everything else lives in the
// attribute bag and is accessed through its typed getters.
type FinancialRecord struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Attributes  Attributes      `json:"attributes"`
}

// Validate performs basic validation on the record. A zero amount or date is
// legal here; individual strategies reject records missing the fields their
// predicate needs.
func (r *FinancialRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("record ID cannot be empty")
	}
	return nil
}

// CustomerName returns the raw customer name from the attribute bag, falling
// back to the description when no explicit name is present.
func (r *FinancialRecord) CustomerName() string {
	if name := r.Attributes.GetString(AttrCustomerName); name != "" {
		return name
	}
	return r.Description
}

// ExternalReference returns the record's external order or invoice reference,
// whichever is present.
func (r *FinancialRecord) ExternalReference() string {
	if ref := r.Attributes.GetString(AttrExternalOrderID); ref != "" {
		return ref
	}
	return r.Attributes.GetString(AttrInvoiceNumber)
}

// AccountCode returns the record's financial-account classification code, or
// empty when unclassified.
func (r *FinancialRecord) AccountCode() string {
	return r.Attributes.GetString(AttrAccountCode)
}

// IsMatched reports whether a previous run already annotated this record with
// a match. Presence of any match annotation key counts; matched status is
// derived, never stored as its own field.
func (r *FinancialRecord) IsMatched() bool {
	return r.Attributes.Has(AttrMatchedInvoiceNumber) ||
		r.Attributes.Has(AttrMatchedOrderID) ||
		r.Attributes.Has(AttrMatchedInvoiceFAC)
}

// AbsAmount returns the magnitude of the record's amount. All monetary
// comparisons in the matching engine operate on magnitudes; sign is a
// separate direction check.
func (r *FinancialRecord) AbsAmount() decimal.Decimal {
	return r.Amount.Abs()
}

// String returns a compact representation for logs.
func (r *FinancialRecord) String() string {
	return fmt.Sprintf("FinancialRecord{ID: %s, Date: %s, Amount: %s}",
		r.ID, r.Date.Format("2006-01-02"), r.Amount.String())
}
