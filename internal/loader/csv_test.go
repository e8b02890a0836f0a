package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/vigil/internal/models"
)

func TestReadTransactionsCSV(t *testing.T) {
	input := strings.Join([]string{
		"timestamp,status,amount,country,latency_ms",
		"2026-03-01T00:00:00Z,success,12.50,US,110",
		"2026-03-01T00:01:00Z,failed,20,DE,",
		"2026-03-01 00:02:00,success,,GB,95.5",
	}, "\n")

	txs, err := ReadTransactionsCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), txs[0].Timestamp)
	assert.Equal(t, "success", txs[0].Status)
	assert.Equal(t, 12.5, txs[0].Amount)
	assert.Equal(t, "US", txs[0].Country)
	assert.True(t, txs[0].HasLatency)
	assert.Equal(t, 110.0, txs[0].LatencyMs)

	assert.True(t, txs[1].Failed())
	assert.False(t, txs[1].HasLatency, "empty latency cell carries no sample")

	assert.Equal(t, 0.0, txs[2].Amount, "empty amount defaults to zero")
	assert.Equal(t, 95.5, txs[2].LatencyMs)
}

func TestReadTransactionsCSVColumnOrder(t *testing.T) {
	// Columns are resolved by header name, not position.
	input := strings.Join([]string{
		"country,status,timestamp",
		"JP,success,2026-03-01T09:00:00Z",
	}, "\n")

	txs, err := ReadTransactionsCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "JP", txs[0].Country)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), txs[0].Timestamp)
}

func TestReadTransactionsCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "missing timestamp column",
			input:   "status,amount\nsuccess,10",
			wantErr: `missing required column "timestamp"`,
		},
		{
			name:    "missing status column",
			input:   "timestamp,amount\n2026-03-01T00:00:00Z,10",
			wantErr: `missing required column "status"`,
		},
		{
			name:    "unparseable timestamp",
			input:   "timestamp,status\nnot-a-time,success",
			wantErr: `line 2: unparseable timestamp "not-a-time"`,
		},
		{
			name:    "non-numeric amount",
			input:   "timestamp,status,amount\n2026-03-01T00:00:00Z,success,abc",
			wantErr: `line 2: non-numeric amount "abc"`,
		},
		{
			name:    "non-numeric latency",
			input:   "timestamp,status,latency_ms\n2026-03-01T00:00:00Z,success,slow",
			wantErr: `line 2: non-numeric latency_ms "slow"`,
		},
		{
			name:    "ragged row",
			input:   "timestamp,status\n2026-03-01T00:00:00Z,success,extra",
			wantErr: "malformed CSV row at line 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTransactionsCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, models.IsInputError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadTransactionsCSVEmptyInput(t *testing.T) {
	txs, err := ReadTransactionsCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestLoadCSVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.csv")
	content := strings.Join([]string{
		"timestamp,status,amount,country",
		"2026-03-01T00:00:00Z,success,10,US",
		"2026-03-01T00:01:00Z,failed,5,US",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := LoadCSVFile(path, DefaultConfig())
	require.NoError(t, err)

	total := set.Find(models.MetricTotalCount, "")
	require.NotNil(t, total)
	require.Len(t, total.Points, 1)
	assert.Equal(t, 2.0, total.Points[0].Value)
}

func TestLoadCSVFileMissing(t *testing.T) {
	_, err := LoadCSVFile(filepath.Join(t.TempDir(), "nope.csv"), DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open transactions file")
}
