// Package demo generates synthetic transaction data with injected anomaly
// windows, used for local development and end-to-end testing of the
// detection pipeline.
package demo

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/moolen/vigil/internal/loader"
)

// AnomalyKind selects the behavior injected during an anomaly window.
type AnomalyKind string

const (
	// AnomalyFailureSpike raises the global failure probability
	AnomalyFailureSpike AnomalyKind = "failure_spike"
	// AnomalyRevenueDrop scales down transaction amounts
	AnomalyRevenueDrop AnomalyKind = "revenue_drop"
	// AnomalyRegionalBurst concentrates failures in a single country
	AnomalyRegionalBurst AnomalyKind = "regional_burst"
	// AnomalyLatencySpike multiplies transaction latency
	AnomalyLatencySpike AnomalyKind = "latency_spike"
)

// AnomalyWindow injects one anomaly into part of the generated stream.
type AnomalyWindow struct {
	Kind AnomalyKind
	// Offset from the generation start time
	Offset   time.Duration
	Duration time.Duration
	// Country restricts the anomaly to one dimension; only used by
	// regional bursts
	Country string
}

// Config controls the synthetic transaction stream.
type Config struct {
	Start          time.Time
	Duration       time.Duration
	RatePerMinute  int
	Countries      []string
	BaseFailure    float64 // baseline failure probability
	SpikeFailure   float64 // failure probability inside a failure spike
	MeanAmount     float64
	BaseLatencyMs  float64
	LatencyFactor  float64 // latency multiplier inside a latency spike
	RevenueFactor  float64 // amount multiplier inside a revenue drop
	RegionalFactor float64 // failure probability inside a regional burst
	Seed           int64
	Anomalies      []AnomalyWindow
}

// DefaultConfig returns a generator configuration producing a day of
// plausible traffic.
func DefaultConfig() Config {
	return Config{
		Start:          time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Hour),
		Duration:       24 * time.Hour,
		RatePerMinute:  20,
		Countries:      []string{"US", "DE", "GB", "FR", "JP"},
		BaseFailure:    0.02,
		SpikeFailure:   0.35,
		MeanAmount:     50,
		BaseLatencyMs:  120,
		LatencyFactor:  4,
		RevenueFactor:  0.2,
		RegionalFactor: 0.6,
		Seed:           0,
	}
}

// Generate produces a sorted transaction stream according to cfg. A zero
// seed derives one from the clock.
func Generate(cfg Config) []loader.Transaction {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	total := int(cfg.Duration.Minutes()) * cfg.RatePerMinute
	if total <= 0 {
		return nil
	}
	txs := make([]loader.Transaction, 0, total)

	step := cfg.Duration / time.Duration(total)
	for i := 0; i < total; i++ {
		ts := cfg.Start.Add(time.Duration(i) * step)
		country := cfg.Countries[rng.Intn(len(cfg.Countries))]

		failure := cfg.BaseFailure
		amount := cfg.MeanAmount * (0.5 + rng.Float64())
		latency := cfg.BaseLatencyMs * (0.7 + 0.6*rng.Float64())

		for _, a := range cfg.Anomalies {
			if !a.contains(cfg.Start, ts) {
				continue
			}
			switch a.Kind {
			case AnomalyFailureSpike:
				failure = cfg.SpikeFailure
			case AnomalyRevenueDrop:
				amount *= cfg.RevenueFactor
			case AnomalyRegionalBurst:
				if country == a.Country {
					failure = cfg.RegionalFactor
				}
			case AnomalyLatencySpike:
				latency *= cfg.LatencyFactor
			}
		}

		status := "success"
		if rng.Float64() < failure {
			status = "failed"
		}

		txs = append(txs, loader.Transaction{
			Timestamp:  ts,
			Status:     status,
			Amount:     amount,
			Country:    country,
			LatencyMs:  latency,
			HasLatency: true,
		})
	}
	return txs
}

func (a *AnomalyWindow) contains(start, ts time.Time) bool {
	begin := start.Add(a.Offset)
	return !ts.Before(begin) && ts.Before(begin.Add(a.Duration))
}

// WriteCSV writes transactions in the canonical CSV layout the loader reads.
func WriteCSV(w io.Writer, txs []loader.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "status", "amount", "country", "latency_ms"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range txs {
		tx := &txs[i]
		latency := ""
		if tx.HasLatency {
			latency = strconv.FormatFloat(tx.LatencyMs, 'f', 1, 64)
		}
		record := []string{
			tx.Timestamp.UTC().Format(time.RFC3339),
			tx.Status,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.Country,
			latency,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
