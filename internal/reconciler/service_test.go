package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/models"
	"ledger-reconciliation-service/internal/store"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func bankRecord(id, customer string, amount float64, date time.Time) *models.FinancialRecord {
	return &models.FinancialRecord{
		ID:          id,
		Date:        date,
		Amount:      decimal.NewFromFloat(amount),
		Description: customer,
		Attributes:  models.Attributes{},
	}
}

func invoiceRecord(id, customer, invoice string, amount float64, date time.Time) *models.FinancialRecord {
	return &models.FinancialRecord{
		ID:     id,
		Date:   date,
		Amount: decimal.NewFromFloat(amount),
		Attributes: models.Attributes{
			models.AttrCustomerName:  customer,
			models.AttrInvoiceNumber: invoice,
		},
	}
}

func seededService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	mem.Seed("bank_records",
		bankRecord("bank_1", "Jane Smith", 101.50, day(10)),
		bankRecord("bank_2", "Nobody Known", 999, day(10)),
	)
	mem.Seed("invoices",
		invoiceRecord("inv_1", "Jane Smith", "F-1001", 101.50, day(9)),
	)
	return NewService(mem, matcher.DefaultConfig(), nil), mem
}

func TestReconcileDryRunLeavesStoreUntouched(t *testing.T) {
	svc, mem := seededService(t)

	report, err := svc.Reconcile(context.Background(), Request{
		SourceCollection: "bank_records",
		TargetCollection: "invoices",
		DryRun:           true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Matched)
	assert.Equal(t, 1, report.Summary.Unmatched)
	require.NotNil(t, report.WriteReport)
	assert.True(t, report.WriteReport.DryRun)
	assert.Equal(t, 1, report.WriteReport.Total)
	assert.Zero(t, report.WriteReport.Applied)

	stored := mem.Get("bank_records", "bank_1")
	require.NotNil(t, stored)
	assert.False(t, stored.IsMatched())
}

func TestReconcileExecutePersistsPatches(t *testing.T) {
	svc, mem := seededService(t)

	report, err := svc.Reconcile(context.Background(), Request{
		SourceCollection: "bank_records",
		TargetCollection: "invoices",
	})
	require.NoError(t, err)

	require.NotNil(t, report.WriteReport)
	assert.Equal(t, 1, report.WriteReport.Applied)
	assert.Zero(t, report.WriteReport.Failed)

	stored := mem.Get("bank_records", "bank_1")
	require.NotNil(t, stored)
	assert.True(t, stored.IsMatched())
	assert.Equal(t, "F-1001", stored.Attributes.GetString(models.AttrMatchedInvoiceNumber))
	assert.Equal(t, report.Summary.RunID, stored.Attributes.GetString(models.AttrRunID))
}

func TestReconcileRerunIsIdempotent(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()
	req := Request{SourceCollection: "bank_records", TargetCollection: "invoices"}

	first, err := svc.Reconcile(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Summary.Matched)

	second, err := svc.Reconcile(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, second.Summary.Matched)
	assert.Equal(t, 1, second.Summary.PreviouslyMatched)
}

func TestReconcileIsolatesWriteFailures(t *testing.T) {
	svc, mem := seededService(t)
	mem.Seed("bank_records", bankRecord("bank_3", "John Doe", 250, day(11)))
	mem.Seed("invoices", invoiceRecord("inv_2", "John Doe", "F-1002", 250, day(11)))
	mem.FailWrites = map[string]error{"bank_1": assert.AnError}

	report, err := svc.Reconcile(context.Background(), Request{
		SourceCollection: "bank_records",
		TargetCollection: "invoices",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Matched)
	assert.Equal(t, 1, report.WriteReport.Applied)
	assert.Equal(t, 1, report.WriteReport.Failed)
	require.Len(t, report.WriteReport.Failures, 1)
	assert.Equal(t, "bank_1", report.WriteReport.Failures[0].RecordID)

	assert.True(t, mem.Get("bank_records", "bank_3").IsMatched())
	assert.False(t, mem.Get("bank_records", "bank_1").IsMatched())
}

func TestReconcileEmptyCollections(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), matcher.DefaultConfig(), nil)

	report, err := svc.Reconcile(context.Background(), Request{
		SourceCollection: "bank_records",
		TargetCollection: "invoices",
	})
	require.NoError(t, err)
	assert.Zero(t, report.Summary.Matched)
	assert.Zero(t, report.WriteReport.Total)
}

func TestChainCoverage(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Seed("bank_records",
		&models.FinancialRecord{
			ID:     "bank_1",
			Amount: decimal.NewFromInt(100),
			Attributes: models.Attributes{
				models.AttrAccountCode: "4000",
			},
		},
		&models.FinancialRecord{
			ID:     "bank_2",
			Amount: decimal.NewFromInt(40),
			Attributes: models.Attributes{
				models.AttrGatewayTrxIDs: []string{"trx_1"},
			},
		},
		&models.FinancialRecord{
			ID:         "bank_3",
			Amount:     decimal.NewFromInt(7),
			Attributes: models.Attributes{},
		},
	)
	mem.Seed("gateway_transactions",
		&models.FinancialRecord{
			ID:         "trx_1",
			Attributes: models.Attributes{},
		},
	)

	svc := NewService(mem, matcher.DefaultConfig(), nil)
	report, err := svc.ChainCoverage(context.Background(), ChainRequest{
		BankCollection:    "bank_records",
		GatewayCollection: "gateway_transactions",
	})
	require.NoError(t, err)

	require.Len(t, report.Coverage, 1)
	cov := report.Coverage[0]
	assert.Equal(t, 3, cov.Total())
	assert.Equal(t, 1, cov.DirectCount)
	assert.Equal(t, 1, cov.PartialCount)
	assert.Equal(t, 1, cov.NoneCount)
}
