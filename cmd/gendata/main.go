package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moolen/vigil/internal/demo"
)

const (
	defaultOutput        = "./testdata/transactions.csv"
	defaultDurationHours = 24
	defaultRate          = 20
)

func main() {
	output := flag.String("output", defaultOutput, "Output CSV file path")
	durationHours := flag.Int("duration-hours", defaultDurationHours, "Hours of data to generate")
	rate := flag.Int("rate", defaultRate, "Transactions per minute")
	countries := flag.String("countries", "US,DE,GB,FR,JP", "Comma-separated country codes")
	seed := flag.Int64("seed", 0, "Random seed (0 = use current time)")
	anomalies := flag.String("anomalies", "failure_spike,revenue_drop,regional_burst,latency_spike",
		"Comma-separated anomaly kinds to inject (empty = clean data)")

	flag.Parse()

	cfg := demo.DefaultConfig()
	cfg.Duration = time.Duration(*durationHours) * time.Hour
	cfg.Start = time.Now().UTC().Add(-cfg.Duration).Truncate(time.Hour)
	cfg.RatePerMinute = *rate
	cfg.Seed = *seed
	if *countries != "" {
		cfg.Countries = strings.Split(*countries, ",")
	}
	cfg.Anomalies = buildAnomalies(*anomalies, cfg)

	fmt.Printf("Generating transaction data with:\n")
	fmt.Printf("  Output: %s\n", *output)
	fmt.Printf("  Duration: %d hours\n", *durationHours)
	fmt.Printf("  Rate: %d/min\n", *rate)
	fmt.Printf("  Countries: %s\n", strings.Join(cfg.Countries, ", "))
	fmt.Printf("  Anomaly windows: %d\n", len(cfg.Anomalies))
	fmt.Printf("  Seed: %d\n", cfg.Seed)
	fmt.Println()

	txs := demo.Generate(cfg)

	if err := os.MkdirAll(filepath.Dir(*output), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := demo.WriteCSV(f, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d transactions to %s\n", len(txs), *output)
}

// buildAnomalies spreads the requested anomaly kinds across the generated
// time range so their windows do not overlap.
func buildAnomalies(spec string, cfg demo.Config) []demo.AnomalyWindow {
	if spec == "" {
		return nil
	}

	kinds := strings.Split(spec, ",")
	windows := make([]demo.AnomalyWindow, 0, len(kinds))
	slot := cfg.Duration / time.Duration(len(kinds)+1)

	for i, raw := range kinds {
		kind := demo.AnomalyKind(strings.TrimSpace(raw))
		w := demo.AnomalyWindow{
			Kind:     kind,
			Offset:   time.Duration(i+1) * slot,
			Duration: time.Hour,
		}
		if kind == demo.AnomalyRegionalBurst {
			w.Country = cfg.Countries[0]
		}
		switch kind {
		case demo.AnomalyFailureSpike, demo.AnomalyRevenueDrop, demo.AnomalyRegionalBurst, demo.AnomalyLatencySpike:
			windows = append(windows, w)
		default:
			fmt.Fprintf(os.Stderr, "Unknown anomaly kind %q, skipping\n", kind)
		}
	}
	return windows
}
