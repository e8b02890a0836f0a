package config

// Config holds all configuration for the application
type Config struct {
	// APIPort is the port the API server listens on
	APIPort int

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string

	// DetectionConfigPath is the path to the YAML file containing detector
	// threshold overrides. Empty means built-in defaults are used.
	DetectionConfigPath string

	// DataDir is the directory detection-pass requests may read CSV files from
	DataDir string

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled
	TracingEnabled bool

	// TracingEndpoint is the OTLP gRPC endpoint for trace export
	TracingEndpoint string

	// TracingTLSCAPath is the path to the CA certificate for TLS verification
	TracingTLSCAPath string
}

// LoadConfig creates a Config with the provided values
func LoadConfig(apiPort int, logLevel, detectionConfigPath, dataDir string, tracingEnabled bool, tracingEndpoint, tracingTLSCAPath string) *Config {
	return &Config{
		APIPort:             apiPort,
		LogLevel:            logLevel,
		DetectionConfigPath: detectionConfigPath,
		DataDir:             dataDir,
		TracingEnabled:      tracingEnabled,
		TracingEndpoint:     tracingEndpoint,
		TracingTLSCAPath:    tracingTLSCAPath,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	if c.DataDir == "" {
		return NewConfigError("DataDir must not be empty")
	}

	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("TracingEndpoint must be set when tracing is enabled")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}
