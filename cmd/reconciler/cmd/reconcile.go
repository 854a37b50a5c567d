package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"ledger-reconciliation-service/cmd/reconciler/config"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/internal/store"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	sourceCollection string
	targetCollection string
	execute          bool
	outputFormat     string
	startDate        string
	endDate          string
	amountTolerance  float64
	dateWindow       int
	lookbackDays     int
	minAmount        float64
	batchSize        int
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match a source collection against a target collection",
	Long: `Reconcile runs the strategy cascade over unmatched records of the source
collection (bank entries or gateway transactions) against the target
collection (invoices/orders), and writes one match annotation patch per
accepted link back into the source record's attribute map.

The default mode is a dry run: patches are computed and reported but not
persisted. Pass --execute to apply writes. Remaining unmatched records are a
normal outcome; the process exits zero and retries them on the next run.

Examples:
  # Audit what would match, without writing
  reconciler reconcile --source-collection bank_entries --target-collection invoices

  # Apply writes with custom tolerances
  reconciler reconcile --source-collection gateway_transactions \
    --target-collection invoices --execute \
    --amount-tolerance 2.0 --date-window 5 --lookback 365`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&sourceCollection, "source-collection", "s", "", "source collection name (required)")
	reconcileCmd.Flags().StringVarP(&targetCollection, "target-collection", "t", "", "target collection name (required)")

	reconcileCmd.Flags().BoolVar(&execute, "execute", false, "apply writes (default is dry run)")
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")

	reconcileCmd.Flags().StringVar(&startDate, "start-date", "", "filter start date (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVar(&endDate, "end-date", "", "filter end date (YYYY-MM-DD)")

	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 2.0, "amount tolerance percentage (0.0-100.0)")
	reconcileCmd.Flags().IntVarP(&dateWindow, "date-window", "d", 5, "amount+date strategy window in days")
	reconcileCmd.Flags().IntVar(&lookbackDays, "lookback", 365, "identity+date strategy lookback in days")
	reconcileCmd.Flags().Float64Var(&minAmount, "min-amount", 50, "minimum amount for the amount+date strategy")
	reconcileCmd.Flags().IntVar(&batchSize, "batch-size", 50, "concurrent writes per batch")

	reconcileCmd.MarkFlagRequired("source-collection")
	reconcileCmd.MarkFlagRequired("target-collection")

	viper.BindPFlag(config.KeyAmountTolerance, reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag(config.KeyDateWindow, reconcileCmd.Flags().Lookup("date-window"))
	viper.BindPFlag(config.KeyLookback, reconcileCmd.Flags().Lookup("lookback"))
	viper.BindPFlag(config.KeyMinAmount, reconcileCmd.Flags().Lookup("min-amount"))
	viper.BindPFlag(config.KeyBatchSize, reconcileCmd.Flags().Lookup("batch-size"))
}

// validateReconcileFlags validates flag values before the run starts.
func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format: %s (valid: console, json)", outputFormat)
	}
	if _, err := parseDateFilter(); err != nil {
		return err
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log, err := logger.NewLogger(config.BuildLoggerConfig())
	if err != nil {
		return err
	}

	matcherCfg, err := config.BuildMatcherConfig()
	if err != nil {
		return err
	}

	storeCfg, err := config.BuildStoreConfig()
	if err != nil {
		return err
	}
	recordStore, err := store.NewRestStore(storeCfg)
	if err != nil {
		return err
	}

	filter, err := parseDateFilter()
	if err != nil {
		return err
	}

	service := reconciler.NewService(recordStore, matcherCfg, log)
	report, err := service.Reconcile(context.Background(), reconciler.Request{
		SourceCollection: sourceCollection,
		TargetCollection: targetCollection,
		Filter:           filter,
		DryRun:           !execute,
		BatchSize:        batchSize,
	})
	if err != nil {
		return err
	}

	r := reporter.New(os.Stdout, viper.GetBool(config.KeyVerbose))
	return r.Render(report, reporter.OutputFormat(outputFormat))
}

// parseDateFilter builds the store filter from the date flags.
func parseDateFilter() (store.Filter, error) {
	var filter store.Filter
	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return filter, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", startDate)
		}
		filter.DateFrom = t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return filter, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD", endDate)
		}
		filter.DateTo = t
	}
	return filter, nil
}
