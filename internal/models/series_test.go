package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func makeSeries(metric, dimension string, kind SeriesKind, bucket time.Duration, values ...float64) MetricSeries {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Timestamp: t0.Add(time.Duration(i) * bucket), Value: v}
	}
	return MetricSeries{
		Metric:    metric,
		Dimension: dimension,
		Kind:      kind,
		Bucket:    bucket,
		Points:    points,
	}
}

func TestMetricSeriesValidate(t *testing.T) {
	tests := []struct {
		name    string
		series  MetricSeries
		wantErr string
	}{
		{
			name:   "valid series",
			series: makeSeries(MetricFailedCount, "", KindCount, 5*time.Minute, 1, 2, 3),
		},
		{
			name:   "valid empty points",
			series: makeSeries(MetricRevenue, "", KindRevenue, time.Hour),
		},
		{
			name:    "empty metric name",
			series:  makeSeries("", "", KindCount, 5*time.Minute, 1),
			wantErr: "empty metric name",
		},
		{
			name: "zero bucket width",
			series: MetricSeries{
				Metric: MetricFailedCount,
				Kind:   KindCount,
			},
			wantErr: "bucket width must be positive",
		},
		{
			name: "non-finite value",
			series: MetricSeries{
				Metric: MetricFailedCount,
				Kind:   KindCount,
				Bucket: 5 * time.Minute,
				Points: []Point{{Timestamp: t0, Value: math.NaN()}},
			},
			wantErr: "non-finite value",
		},
		{
			name: "duplicate timestamps",
			series: MetricSeries{
				Metric: MetricFailedCount,
				Kind:   KindCount,
				Bucket: 5 * time.Minute,
				Points: []Point{
					{Timestamp: t0, Value: 1},
					{Timestamp: t0, Value: 2},
				},
			},
			wantErr: "strictly increasing",
		},
		{
			name: "timestamps out of order",
			series: MetricSeries{
				Metric: MetricFailedCount,
				Kind:   KindCount,
				Bucket: 5 * time.Minute,
				Points: []Point{
					{Timestamp: t0.Add(time.Hour), Value: 1},
					{Timestamp: t0, Value: 2},
				},
			},
			wantErr: "strictly increasing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsInputError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSeriesSetValidateRejectsDuplicateKeys(t *testing.T) {
	set := &SeriesSet{Series: []MetricSeries{
		makeSeries(MetricFailedCount, "US", KindCount, 5*time.Minute, 1),
		makeSeries(MetricFailedCount, "US", KindCount, 5*time.Minute, 2),
	}}

	err := set.Validate()
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Contains(t, err.Error(), "duplicate series key")
}

func TestSeriesSetLookups(t *testing.T) {
	set := &SeriesSet{Series: []MetricSeries{
		makeSeries(MetricFailedCount, "", KindCount, 5*time.Minute, 1),
		makeSeries(MetricFailedCount, "US", KindCount, 5*time.Minute, 2),
		makeSeries(MetricRevenue, "", KindRevenue, time.Hour, 100),
	}}

	require.NoError(t, set.Validate())
	assert.False(t, set.Empty())

	assert.Len(t, set.ByMetric(MetricFailedCount), 2)
	assert.Len(t, set.ByKind(KindRevenue), 1)

	global := set.Find(MetricFailedCount, "")
	require.NotNil(t, global)
	assert.Equal(t, "", global.Dimension)

	assert.Nil(t, set.Find(MetricLatencyP95, ""))
}

func TestSeriesSetEmpty(t *testing.T) {
	assert.True(t, (&SeriesSet{}).Empty())
	assert.True(t, (&SeriesSet{Series: []MetricSeries{
		makeSeries(MetricRevenue, "", KindRevenue, time.Hour),
	}}).Empty())
}

func TestTimeWindowOverlaps(t *testing.T) {
	window := func(startMin, endMin int) TimeWindow {
		return TimeWindow{
			Start: t0.Add(time.Duration(startMin) * time.Minute),
			End:   t0.Add(time.Duration(endMin) * time.Minute),
		}
	}

	tests := []struct {
		name string
		a, b TimeWindow
		want bool
	}{
		{"identical", window(0, 10), window(0, 10), true},
		{"partial overlap", window(0, 10), window(5, 15), true},
		{"containment", window(0, 20), window(5, 10), true},
		{"touching endpoints do not overlap", window(0, 10), window(10, 20), false},
		{"disjoint", window(0, 10), window(30, 40), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTimeWindowUnion(t *testing.T) {
	a := TimeWindow{Start: t0, End: t0.Add(10 * time.Minute)}
	b := TimeWindow{Start: t0.Add(5 * time.Minute), End: t0.Add(30 * time.Minute)}

	u := a.Union(b)
	assert.Equal(t, t0, u.Start)
	assert.Equal(t, t0.Add(30*time.Minute), u.End)
	assert.Equal(t, 30*time.Minute, u.Duration())
}

func TestSeriesWindow(t *testing.T) {
	s := makeSeries(MetricFailedCount, "", KindCount, 5*time.Minute, 1, 2)
	w := s.Window(1)
	assert.Equal(t, t0.Add(5*time.Minute), w.Start)
	assert.Equal(t, t0.Add(10*time.Minute), w.End)
}
