package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moolen/vigil/internal/models"
)

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name      string
		kind      models.DetectorKind
		deviation float64
		want      models.Severity
	}{
		{"zscore at threshold", models.DetectorSeasonalZScore, 3.1, models.SeverityMedium},
		{"zscore high", models.DetectorSeasonalZScore, 4.5, models.SeverityHigh},
		{"zscore critical", models.DetectorSeasonalZScore, 6.0, models.SeverityCritical},
		{"ewma medium", models.DetectorEWMA, 3.5, models.SeverityMedium},
		{"ewma critical", models.DetectorEWMA, 12.0, models.SeverityCritical},
		{"latency ratio medium", models.DetectorLatencySpike, 2.6, models.SeverityMedium},
		{"latency ratio high", models.DetectorLatencySpike, 3.2, models.SeverityHigh},
		{"latency ratio critical", models.DetectorLatencySpike, 4.0, models.SeverityCritical},
		{"revenue shallow drop", models.DetectorRevenueDrop, 0.35, models.SeverityMedium},
		{"revenue deep drop", models.DetectorRevenueDrop, 0.6, models.SeverityHigh},
		{"revenue near-total drop", models.DetectorRevenueDrop, 0.95, models.SeverityCritical},
		{"geo multiple medium", models.DetectorGeoFailure, 2.1, models.SeverityMedium},
		{"geo multiple high", models.DetectorGeoFailure, 3.0, models.SeverityHigh},
		{"unknown kind defaults to medium", models.DetectorKind("bogus"), 99, models.SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSeverity(tt.kind, tt.deviation))
		})
	}
}
