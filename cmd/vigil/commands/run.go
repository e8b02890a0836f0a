package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/moolen/vigil/internal/api"
	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/loader"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/pipeline"
	"github.com/moolen/vigil/internal/store"
)

var (
	runInput           string
	runDetectionConfig string
	runTimeout         time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single detection pass over a CSV file",
	Long: `Run one detection pass over a transactions CSV file and print the
resulting incidents as JSON to stdout. Exits non-zero when the input
cannot be parsed or the pass fails.`,
	Run: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "Path to the transactions CSV file (required)")
	runCmd.Flags().StringVar(&runDetectionConfig, "detection-config", "",
		"Path to the YAML file with detector threshold overrides (empty = built-in defaults)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "Maximum time for the pass")
	_ = runCmd.MarkFlagRequired("input")
}

func runOnce(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("run")

	detectionCfg := config.DefaultDetectionConfig()
	if runDetectionConfig != "" {
		loaded, err := config.LoadDetectionFile(runDetectionConfig)
		if err != nil {
			HandleError(err, "Failed to load detection config")
		}
		detectionCfg = loaded
	}

	set, err := loader.LoadCSVFile(runInput, loader.DefaultConfig())
	if err != nil {
		HandleError(err, "Failed to load transactions")
	}
	logger.Info("Loaded %d series from %s", len(set.Series), runInput)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	incidentStore := store.New()
	p := pipeline.New(incidentStore)

	incidents, err := p.Run(ctx, set, detectionCfg)
	if err != nil {
		HandleError(err, "Detection pass failed")
	}

	logger.Info("Detection pass produced %d incidents", len(incidents))
	if err := api.WriteJSON(os.Stdout, incidents); err != nil {
		HandleError(err, "Failed to write output")
	}
}
