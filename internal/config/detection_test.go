package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDetectionConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultDetectionConfig().Validate())
}

func TestDetectionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DetectionConfig)
		wantErr string
	}{
		{
			name:    "zscore window too small",
			mutate:  func(c *DetectionConfig) { c.SeasonalZScore.Window = 1 },
			wantErr: "seasonal_zscore.window",
		},
		{
			name:    "zscore threshold zero",
			mutate:  func(c *DetectionConfig) { c.SeasonalZScore.ZThreshold = 0 },
			wantErr: "seasonal_zscore.z_threshold",
		},
		{
			name:    "zscore negative min count",
			mutate:  func(c *DetectionConfig) { c.SeasonalZScore.MinCount = -1 },
			wantErr: "seasonal_zscore.min_count",
		},
		{
			name:    "ewma alpha at lower bound",
			mutate:  func(c *DetectionConfig) { c.EWMA.Alpha = 0 },
			wantErr: "ewma.alpha",
		},
		{
			name:    "ewma alpha at upper bound",
			mutate:  func(c *DetectionConfig) { c.EWMA.Alpha = 1 },
			wantErr: "ewma.alpha",
		},
		{
			name:    "ewma k zero",
			mutate:  func(c *DetectionConfig) { c.EWMA.K = 0 },
			wantErr: "ewma.k",
		},
		{
			name:    "ewma warmup zero",
			mutate:  func(c *DetectionConfig) { c.EWMA.Warmup = 0 },
			wantErr: "ewma.warmup",
		},
		{
			name:    "latency window too small",
			mutate:  func(c *DetectionConfig) { c.Latency.Window = 1 },
			wantErr: "latency.window",
		},
		{
			name:    "latency factor not above one",
			mutate:  func(c *DetectionConfig) { c.Latency.Factor = 1 },
			wantErr: "latency.factor",
		},
		{
			name:    "negative static ceiling",
			mutate:  func(c *DetectionConfig) { c.Latency.StaticCeilingMs = -10 },
			wantErr: "latency.static_ceiling_ms",
		},
		{
			name:    "revenue trailing buckets zero",
			mutate:  func(c *DetectionConfig) { c.Revenue.TrailingBuckets = 0 },
			wantErr: "revenue.trailing_buckets",
		},
		{
			name:    "revenue drop factor one",
			mutate:  func(c *DetectionConfig) { c.Revenue.DropFactor = 1 },
			wantErr: "revenue.drop_factor",
		},
		{
			name:    "revenue negative baseline",
			mutate:  func(c *DetectionConfig) { c.Revenue.MinBaseline = -1 },
			wantErr: "revenue.min_baseline",
		},
		{
			name:    "geo negative floor",
			mutate:  func(c *DetectionConfig) { c.Geo.AbsoluteFloor = -1 },
			wantErr: "geo.absolute_floor",
		},
		{
			name:    "geo relative factor zero",
			mutate:  func(c *DetectionConfig) { c.Geo.RelativeFactor = 0 },
			wantErr: "geo.relative_factor",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDetectionConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
