// Package config builds component configurations from CLI flags, environment
// variables, and the optional config file, all read through viper.
package config

import (
	"time"

	"ledger-reconciliation-service/internal/matcher"
	"ledger-reconciliation-service/internal/store"
	apperrors "ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Viper keys. Store credentials come from the environment (RECON_STORE_URL,
// RECON_STORE_KEY) via the RECON prefix; the rest are bound to flags.
const (
	KeyStoreURL        = "store-url"
	KeyStoreKey        = "store-key"
	KeyVerbose         = "verbose"
	KeyLogFormat       = "log-format"
	KeyAmountTolerance = "amount-tolerance"
	KeyDateWindow      = "date-window"
	KeyLookback        = "lookback"
	KeyMinAmount       = "min-amount"
	KeyBatchSize       = "batch-size"
)

// BuildMatcherConfig creates the matching configuration from bound settings.
func BuildMatcherConfig() (*matcher.Config, error) {
	cfg := matcher.DefaultConfig()

	if viper.IsSet(KeyAmountTolerance) {
		cfg.AmountTolerancePercent = viper.GetFloat64(KeyAmountTolerance)
	}
	if viper.IsSet(KeyDateWindow) {
		cfg.DateWindowDays = viper.GetInt(KeyDateWindow)
	}
	if viper.IsSet(KeyLookback) {
		cfg.LookbackDays = viper.GetInt(KeyLookback)
	}
	if viper.IsSet(KeyMinAmount) {
		cfg.MinAmountForAmountDate = decimal.NewFromFloat(viper.GetFloat64(KeyMinAmount))
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError(apperrors.CodeInvalidConfig, err.Error())
	}
	return cfg, nil
}

// BuildStoreConfig creates the record store connection settings. Missing
// credentials surface as a fatal configuration error before any record is
// read.
func BuildStoreConfig() (*store.RestConfig, error) {
	cfg := &store.RestConfig{
		BaseURL: viper.GetString(KeyStoreURL),
		APIKey:  viper.GetString(KeyStoreKey),
		Timeout: 30 * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildLoggerConfig creates the logger configuration from bound settings.
func BuildLoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if viper.GetBool(KeyVerbose) {
		cfg.Level = logger.DebugLevel
	}
	if viper.GetString(KeyLogFormat) == string(logger.JSONFormat) {
		cfg.Format = logger.JSONFormat
	}
	return cfg
}
