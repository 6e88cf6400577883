package partitioner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadParameters(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"k below two", func(cfg *Config) { cfg.K = 1 }},
		{"negative epsilon", func(cfg *Config) { cfg.Epsilon = -0.1 }},
		{"zero trials", func(cfg *Config) { cfg.InitialPartitioningAttempts = 0 }},
		{"negative vcycles", func(cfg *Config) { cfg.GlobalSearchIterations = -1 }},
		{"zero contraction multiplier", func(cfg *Config) { cfg.ContractionLimitMultiplier = 0 }},
		{"zero weight multiplier", func(cfg *Config) { cfg.MaxAllowedWeightMultiplier = 0 }},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestDeriveQuantities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 4
	cfg.Epsilon = 0.05
	cfg.ContractionLimitMultiplier = 160
	cfg.MaxAllowedWeightMultiplier = 3.5

	cfg.DeriveQuantities(10000, 10000)

	require.Equal(t, 640, cfg.ContractionLimit)
	// ceil(3.5 * 10000 / 640) = 55
	require.Equal(t, 55, cfg.MaxAllowedNodeWeight)
	// (1.05) * ceil(10000/4) = 2625
	require.Equal(t, 2625, cfg.MaxPartWeight)
	require.Greater(t, cfg.Beta, 0.0)
}

func TestDeriveQuantitiesUBFactorForBisection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 2
	cfg.Epsilon = 0.1

	cfg.DeriveQuantities(1000, 1000)

	// exp = 1, so ub = 50 * (2 * 1.1 * 500/1000 - 1) = 5
	require.InDelta(t, 5.0, cfg.HmetisUBFactor, 1e-9)
}
