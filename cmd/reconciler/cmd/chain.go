package cmd

import (
	"context"
	"fmt"
	"os"

	"ledger-reconciliation-service/cmd/reconciler/config"
	"ledger-reconciliation-service/internal/reconciler"
	"ledger-reconciliation-service/internal/reporter"
	"ledger-reconciliation-service/internal/store"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	bankCollection    string
	gatewayCollection string
	chainFormat       string
)

// chainCmd reports how far each bank record's link chain resolves. It is
// read-only: no writes are issued in any mode.
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Report chain coverage from bank inflows to classifications",
	Long: `Chain follows each bank inflow's stored gateway-transaction references
through the gateway collection to matched invoices and their P&L
classifications, and reports counts and monetary totals per bank-source
partition: direct classification, fully resolved, partially resolved, and no
chain.

Example:
  reconciler chain --bank-collection bank_entries --gateway-collection gateway_transactions`,

	RunE: runChain,
}

func init() {
	rootCmd.AddCommand(chainCmd)

	chainCmd.Flags().StringVar(&bankCollection, "bank-collection", "", "bank inflow collection name (required)")
	chainCmd.Flags().StringVar(&gatewayCollection, "gateway-collection", "", "gateway transaction collection name (required)")
	chainCmd.Flags().StringVarP(&chainFormat, "output-format", "f", "console", "output format: console, json")

	chainCmd.MarkFlagRequired("bank-collection")
	chainCmd.MarkFlagRequired("gateway-collection")
}

func runChain(cmd *cobra.Command, args []string) error {
	if !reporter.OutputFormat(chainFormat).IsValid() {
		return fmt.Errorf("invalid output format: %s (valid: console, json)", chainFormat)
	}

	log, err := logger.NewLogger(config.BuildLoggerConfig())
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

	service := reconciler.NewService(recordStore, nil, log)
	report, err := service.ChainCoverage(context.Background(), reconciler.ChainRequest{
		BankCollection:    bankCollection,
		GatewayCollection: gatewayCollection,
	})
	if err != nil {
		return err
	}

	r := reporter.New(os.Stdout, viper.GetBool(config.KeyVerbose))
	return r.Render(report, reporter.OutputFormat(chainFormat))
}
