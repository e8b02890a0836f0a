package commands

import (
	"context"
	"fmt"
	"net/http"

	//nolint:gosec // We are using pprof for debugging
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/moolen/vigil/internal/apiserver"
	"github.com/moolen/vigil/internal/config"
	"github.com/moolen/vigil/internal/lifecycle"
	"github.com/moolen/vigil/internal/loader"
	"github.com/moolen/vigil/internal/logging"
	"github.com/moolen/vigil/internal/pipeline"
	"github.com/moolen/vigil/internal/store"
	"github.com/moolen/vigil/internal/tracing"
)

var (
	apiPort             int
	detectionConfigPath string
	dataDir             string
	pprofEnabled        bool
	pprofPort           int
	tracingEnabled      bool
	tracingEndpoint     string
	tracingTLSCAPath    string
	tracingTLSInsecure  bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Vigil server",
	Long: `Start the Vigil server which exposes detection passes and the
incident store over an HTTP API. Detection thresholds are hot-reloaded
from the detection config file when one is configured.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8080, "Port the API server listens on")
	serverCmd.Flags().StringVar(&detectionConfigPath, "detection-config", "",
		"Path to the YAML file with detector threshold overrides (watched for changes; empty = built-in defaults)")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory detection-pass requests may read CSV files from")
	serverCmd.Flags().BoolVar(&pprofEnabled, "pprof-enabled", false, "Enable pprof profiling server (default: false)")
	serverCmd.Flags().IntVar(&pprofPort, "pprof-port", 9999, "Port the pprof server listens on (default: 9999)")
	serverCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing (default: false)")
	serverCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	serverCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	serverCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")
}

func runServer(cmd *cobra.Command, args []string) {
	defaultLevel, _, err := parseLogLevelFlags(logLevelFlags)
	if err != nil {
		HandleError(err, "Invalid log level flags")
	}

	cfg := config.LoadConfig(
		apiPort,
		defaultLevel,
		detectionConfigPath,
		dataDir,
		tracingEnabled,
		tracingEndpoint,
		tracingTLSCAPath,
	)

	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}

	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("server")

	logger.Info("Starting Vigil v%s", Version)
	logger.Debug("Configuration loaded: APIPort=%d DataDir=%s", cfg.APIPort, cfg.DataDir)

	manager := lifecycle.NewManager()

	// Tracing provider first, it has no dependencies.
	tracingCfg := tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: tracingTLSInsecure,
	}
	tracingProvider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}
	if tracingProvider != nil {
		if err := manager.Register(tracingProvider); err != nil {
			HandleError(err, "Tracing registration error")
		}
	}

	if pprofEnabled {
		go func() {
			pprofAddr := fmt.Sprintf(":%d", pprofPort)
			logger.Info("Starting pprof server on %s", pprofAddr)
			if err := http.ListenAndServe(pprofAddr, nil); err != nil { //nolint:gosec // We are using pprof for debugging
				logger.Error("pprof server failed: %v", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	incidentStore := store.New()

	pipelineOpts := []pipeline.Option{pipeline.WithMetrics(metrics)}
	if tracingProvider != nil && tracingProvider.IsEnabled() {
		pipelineOpts = append(pipelineOpts, pipeline.WithTracer(tracingProvider.GetTracer("vigil.pipeline")))
	}
	detectionPipeline := pipeline.New(incidentStore, pipelineOpts...)

	csvLoader := loader.NewCachingLoader(loader.DefaultConfig())

	// Detection config watcher: loads the initial thresholds on Start and
	// pushes every valid change into the pipeline.
	var watcherComponent *detectionWatcherComponent
	if cfg.DetectionConfigPath != "" {
		watcher, err := config.NewDetectionWatcher(
			config.DetectionWatcherConfig{FilePath: cfg.DetectionConfigPath},
			detectionPipeline.SetDetectionConfig,
		)
		if err != nil {
			HandleError(err, "Detection watcher initialization error")
		}
		watcherComponent = &detectionWatcherComponent{watcher: watcher}
		logger.Info("Detection config watcher created for %s", cfg.DetectionConfigPath)
	} else {
		logger.Info("No detection config file configured, using built-in thresholds")
	}

	var readinessChecker apiserver.ReadinessChecker
	if watcherComponent != nil {
		readinessChecker = watcherComponent
	} else {
		readinessChecker = &apiserver.NoOpReadinessChecker{}
	}

	var tracerSource apiserver.TracerSource
	if tracingProvider != nil {
		tracerSource = tracingProvider
	}

	server := apiserver.New(apiserver.Options{
		Port:             cfg.APIPort,
		Pipeline:         detectionPipeline,
		Store:            incidentStore,
		Loader:           csvLoader,
		Registry:         registry,
		ReadinessChecker: readinessChecker,
		TracerSource:     tracerSource,
	})

	if watcherComponent != nil {
		if err := manager.Register(watcherComponent); err != nil {
			HandleError(err, "Watcher registration error")
		}
		if err := manager.Register(server, watcherComponent); err != nil {
			HandleError(err, "API server registration error")
		}
	} else {
		if err := manager.Register(server); err != nil {
			HandleError(err, "API server registration error")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := manager.Start(ctx); err != nil {
		HandleError(err, "Startup error")
	}

	logger.Info("Vigil started, API listening on port %d", cfg.APIPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	logger.Info("Shutdown complete")
}

// detectionWatcherComponent adapts the detection config watcher to the
// lifecycle.Component interface and doubles as the readiness signal: the
// server reports ready once the initial thresholds loaded.
type detectionWatcherComponent struct {
	watcher *config.DetectionWatcher
	ready   atomic.Bool
}

func (c *detectionWatcherComponent) Start(ctx context.Context) error {
	if err := c.watcher.Start(ctx); err != nil {
		return err
	}
	c.ready.Store(true)
	return nil
}

func (c *detectionWatcherComponent) Stop(ctx context.Context) error {
	c.ready.Store(false)
	return c.watcher.Stop()
}

func (c *detectionWatcherComponent) Name() string {
	return "Detection Config Watcher"
}

func (c *detectionWatcherComponent) IsReady() bool {
	return c.ready.Load()
}
