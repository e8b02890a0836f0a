package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/vigil/internal/models"
)

// geoSet builds dimensioned failed/total count series with one bucket per
// country, all sharing the same timestamp.
func geoSet(failed, total map[string]float64) *models.SeriesSet {
	set := &models.SeriesSet{}
	for dim, f := range failed {
		set.Series = append(set.Series,
			series(models.MetricFailedCount, dim, models.KindCount, 5*time.Minute, f),
			series(models.MetricTotalCount, dim, models.KindCount, 5*time.Minute, total[dim]),
		)
	}
	return set
}

func TestGeoFailureFlagsOutlierRegion(t *testing.T) {
	d := NewGeoFailureDetector()
	cfg := defaultCfg()

	set := geoSet(
		map[string]float64{"US": 50, "DE": 1, "JP": 1, "GB": 1},
		map[string]float64{"US": 100, "DE": 100, "JP": 100, "GB": 100},
	)
	events := d.Detect(set, cfg)

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, models.DetectorGeoFailure, e.Detector)
	assert.Equal(t, "US", e.Dimension)
	assert.InDelta(t, 0.5, e.Observed, 1e-9)
	// All-dimension average: 53 failures over 400 transactions.
	assert.InDelta(t, 53.0/400.0, e.Baseline, 1e-9)
	assert.Greater(t, e.Deviation, cfg.Geo.RelativeFactor)
}

func TestGeoFailureAbsoluteFloorGuardsLowTraffic(t *testing.T) {
	d := NewGeoFailureDetector()
	cfg := defaultCfg()

	// JP fails every one of its 4 transactions. The rate is extreme but the
	// count is under the floor of 5, so this is noise, not an outage.
	set := geoSet(
		map[string]float64{"JP": 4, "US": 1, "DE": 1},
		map[string]float64{"JP": 4, "US": 100, "DE": 100},
	)
	assert.Empty(t, d.Detect(set, cfg))
}

func TestGeoFailureRelativeFactorGuard(t *testing.T) {
	d := NewGeoFailureDetector()
	cfg := defaultCfg()

	// Every region fails at the same rate: nobody is an outlier, no matter
	// how high the shared rate is.
	set := geoSet(
		map[string]float64{"US": 30, "DE": 30, "JP": 30},
		map[string]float64{"US": 100, "DE": 100, "JP": 100},
	)
	assert.Empty(t, d.Detect(set, cfg))
}

func TestGeoFailureIgnoresGlobalSeries(t *testing.T) {
	d := NewGeoFailureDetector()

	// Only global count series: the geo detector has no dimensions to compare.
	set := failedCounts(100, 100, 100)
	assert.Empty(t, d.Detect(set, defaultCfg()))
}

func TestGeoFailureDeterministicOrder(t *testing.T) {
	d := NewGeoFailureDetector()
	cfg := defaultCfg()

	// Two outlier regions in one bucket: output is sorted by dimension.
	set := geoSet(
		map[string]float64{"US": 80, "DE": 80, "JP": 1, "GB": 1, "FR": 1},
		map[string]float64{"US": 100, "DE": 100, "JP": 100, "GB": 100, "FR": 100},
	)
	events := d.Detect(set, cfg)

	require.Len(t, events, 2)
	assert.Equal(t, "DE", events[0].Dimension)
	assert.Equal(t, "US", events[1].Dimension)
}
