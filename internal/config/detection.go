package config

import "fmt"

// DetectionConfig holds per-detector thresholds for one evaluation pass.
// Every field has a documented default; a zero-value sub-config is invalid,
// callers start from DefaultDetectionConfig and override selectively.
type DetectionConfig struct {
	SeasonalZScore SeasonalZScoreConfig `yaml:"seasonal_zscore"`
	EWMA           EWMAConfig           `yaml:"ewma"`
	Latency        LatencyConfig        `yaml:"latency"`
	Revenue        RevenueConfig        `yaml:"revenue"`
	Geo            GeoConfig            `yaml:"geo"`
}

// SeasonalZScoreConfig configures the seasonal z-score detector.
type SeasonalZScoreConfig struct {
	// Window is the number of trailing buckets forming the seasonal baseline
	Window int `yaml:"window"`
	// ZThreshold is the z-score above which a point is anomalous
	ZThreshold float64 `yaml:"z_threshold"`
	// MinCount suppresses flags on buckets with fewer observed events,
	// regardless of z-score
	MinCount float64 `yaml:"min_count"`
}

// EWMAConfig configures the EWMA drift detector.
type EWMAConfig struct {
	// Alpha is the exponential smoothing factor, 0 < Alpha < 1
	Alpha float64 `yaml:"alpha"`
	// K is the multiple of the weighted standard deviation that marks a point
	// anomalous
	K float64 `yaml:"k"`
	// MinCount suppresses flags on buckets with fewer observed events
	MinCount float64 `yaml:"min_count"`
	// Warmup is the number of leading points used only to seed the average
	Warmup int `yaml:"warmup"`
}

// LatencyConfig configures the latency spike detector.
type LatencyConfig struct {
	// Window is the number of trailing p95 buckets forming the baseline
	Window int `yaml:"window"`
	// Factor flags a bucket when its p95 exceeds Factor times the baseline
	Factor float64 `yaml:"factor"`
	// StaticCeilingMs is an optional absolute p95 ceiling in milliseconds.
	// Zero disables the static ceiling; when both ceilings apply, the lower
	// one wins.
	StaticCeilingMs float64 `yaml:"static_ceiling_ms"`
}

// RevenueConfig configures the revenue drop detector.
type RevenueConfig struct {
	// TrailingBuckets is K, the number of prior buckets averaged into the
	// baseline. The first K buckets of a series are never flagged.
	TrailingBuckets int `yaml:"trailing_buckets"`
	// DropFactor flags a bucket when revenue falls below DropFactor times the
	// trailing average, 0 < DropFactor < 1
	DropFactor float64 `yaml:"drop_factor"`
	// MinBaseline is the smallest trailing average considered meaningful;
	// buckets with a baseline below it are skipped
	MinBaseline float64 `yaml:"min_baseline"`
}

// GeoConfig configures the geographic failure detector.
type GeoConfig struct {
	// AbsoluteFloor is the minimum failure count in a bucket for a dimension
	// to be flagged at all. Guards low-traffic regions against noise.
	AbsoluteFloor float64 `yaml:"absolute_floor"`
	// RelativeFactor flags a dimension when its failure rate exceeds
	// RelativeFactor times the all-dimension average rate
	RelativeFactor float64 `yaml:"relative_factor"`
}

// DefaultDetectionConfig returns the documented default thresholds.
func DefaultDetectionConfig() *DetectionConfig {
	return &DetectionConfig{
		SeasonalZScore: SeasonalZScoreConfig{
			Window:     6,
			ZThreshold: 3.0,
			MinCount:   5,
		},
		EWMA: EWMAConfig{
			Alpha:    0.3,
			K:        3.0,
			MinCount: 5,
			Warmup:   3,
		},
		Latency: LatencyConfig{
			Window: 6,
			Factor: 2.5,
		},
		Revenue: RevenueConfig{
			TrailingBuckets: 6,
			DropFactor:      0.7,
			MinBaseline:     1.0,
		},
		Geo: GeoConfig{
			AbsoluteFloor:  5,
			RelativeFactor: 2.0,
		},
	}
}

// Validate checks threshold ranges. A ConfigError here fails the pass fast,
// before any detector runs.
func (c *DetectionConfig) Validate() error {
	if c.SeasonalZScore.Window < 2 {
		return NewConfigError("seasonal_zscore.window must be at least 2")
	}
	if c.SeasonalZScore.ZThreshold <= 0 {
		return NewConfigError("seasonal_zscore.z_threshold must be positive")
	}
	if c.SeasonalZScore.MinCount < 0 {
		return NewConfigError("seasonal_zscore.min_count must not be negative")
	}
	if c.EWMA.Alpha <= 0 || c.EWMA.Alpha >= 1 {
		return NewConfigError(fmt.Sprintf("ewma.alpha must be in (0, 1), got %v", c.EWMA.Alpha))
	}
	if c.EWMA.K <= 0 {
		return NewConfigError("ewma.k must be positive")
	}
	if c.EWMA.Warmup < 1 {
		return NewConfigError("ewma.warmup must be at least 1")
	}
	if c.Latency.Window < 2 {
		return NewConfigError("latency.window must be at least 2")
	}
	if c.Latency.Factor <= 1 {
		return NewConfigError("latency.factor must be greater than 1")
	}
	if c.Latency.StaticCeilingMs < 0 {
		return NewConfigError("latency.static_ceiling_ms must not be negative")
	}
	if c.Revenue.TrailingBuckets < 1 {
		return NewConfigError("revenue.trailing_buckets must be at least 1")
	}
	if c.Revenue.DropFactor <= 0 || c.Revenue.DropFactor >= 1 {
		return NewConfigError(fmt.Sprintf("revenue.drop_factor must be in (0, 1), got %v", c.Revenue.DropFactor))
	}
	if c.Revenue.MinBaseline < 0 {
		return NewConfigError("revenue.min_baseline must not be negative")
	}
	if c.Geo.AbsoluteFloor < 0 {
		return NewConfigError("geo.absolute_floor must not be negative")
	}
	if c.Geo.RelativeFactor <= 0 {
		return NewConfigError("geo.relative_factor must be positive")
	}
	return nil
}
