package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/moolen/vigil/internal/models"
)

// timestampLayouts are accepted timestamp formats, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ReadTransactionsCSV parses a transactions CSV stream. The header row must
// contain at least timestamp and status columns; amount, country and
// latency_ms are optional. Malformed rows surface as InputError: a pass over
// malformed input must abort, not skip rows silently.
func ReadTransactionsCSV(r io.Reader) ([]Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInputError("failed to read CSV header: %v", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"timestamp", "status"} {
		if _, ok := col[required]; !ok {
			return nil, models.NewInputError("CSV is missing required column %q", required)
		}
	}
	latencyIdx, hasLatencyCol := col["latency_ms"]

	var txs []Transaction
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, models.NewInputError("malformed CSV row at line %d: %v", line, err)
		}

		tx := Transaction{Status: record[col["status"]]}

		tx.Timestamp, err = parseTimestamp(record[col["timestamp"]])
		if err != nil {
			return nil, models.NewInputError("line %d: %v", line, err)
		}

		if idx, ok := col["amount"]; ok && record[idx] != "" {
			tx.Amount, err = strconv.ParseFloat(record[idx], 64)
			if err != nil {
				return nil, models.NewInputError("line %d: non-numeric amount %q", line, record[idx])
			}
		}

		if idx, ok := col["country"]; ok {
			tx.Country = record[idx]
		}

		if hasLatencyCol && record[latencyIdx] != "" {
			tx.LatencyMs, err = strconv.ParseFloat(record[latencyIdx], 64)
			if err != nil {
				return nil, models.NewInputError("line %d: non-numeric latency_ms %q", line, record[latencyIdx])
			}
			tx.HasLatency = true
		}

		txs = append(txs, tx)
	}
	return txs, nil
}

// LoadCSVFile reads and buckets a transactions CSV file.
func LoadCSVFile(path string, cfg Config) (*models.SeriesSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file: %w", err)
	}
	defer f.Close()

	txs, err := ReadTransactionsCSV(f)
	if err != nil {
		return nil, err
	}
	return FromTransactions(txs, cfg)
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}
