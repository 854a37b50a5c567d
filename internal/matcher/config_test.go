package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative tolerance percent", func(c *Config) { c.AmountTolerancePercent = -1 }},
		{"tolerance percent over 100", func(c *Config) { c.AmountTolerancePercent = 101 }},
		{"negative tolerance minimum", func(c *Config) { c.AmountToleranceMin = decimal.NewFromInt(-1) }},
		{"negative date window", func(c *Config) { c.DateWindowDays = -1 }},
		{"zero lookback", func(c *Config) { c.LookbackDays = 0 }},
		{"tiny reference fragment", func(c *Config) { c.MinReferenceFragment = 2 }},
		{"weight out of range", func(c *Config) { c.Weights.Amount = 1.5 }},
		{"weights do not sum", func(c *Config) { c.Weights = Weights{Amount: 0.1, Date: 0.1, Name: 0.1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAmountTolerance(t *testing.T) {
	cfg := DefaultConfig()

	// 2% of 1000 is 20, above the floor.
	assert.True(t, cfg.AmountTolerance(decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(20)))

	// 2% of 10 is 0.20, below the 1.00 floor.
	assert.True(t, cfg.AmountTolerance(decimal.NewFromInt(10)).Equal(decimal.NewFromInt(1)))

	// Negative amounts use the magnitude.
	assert.True(t, cfg.AmountTolerance(decimal.NewFromInt(-1000)).Equal(decimal.NewFromInt(20)))
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	require.NotNil(t, clone)

	clone.LookbackDays = 30
	clone.Weights.Amount = 0.9
	assert.Equal(t, 365, cfg.LookbackDays)
	assert.Equal(t, 0.5, cfg.Weights.Amount)
}
