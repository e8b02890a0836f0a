package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return LoadConfig(8080, "info", "", "./data", false, "", "")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.APIPort = 0 },
			wantErr: "APIPort",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.APIPort = 70000 },
			wantErr: "APIPort",
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: "DataDir",
		},
		{
			name:    "tracing enabled without endpoint",
			mutate:  func(c *Config) { c.TracingEnabled = true },
			wantErr: "TracingEndpoint",
		},
		{
			name: "tracing enabled with endpoint",
			mutate: func(c *Config) {
				c.TracingEnabled = true
				c.TracingEndpoint = "localhost:4317"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsConfigError(t *testing.T) {
	assert.True(t, IsConfigError(NewConfigError("boom")))
	assert.False(t, IsConfigError(errors.New("boom")))
	assert.False(t, IsConfigError(nil))
}
