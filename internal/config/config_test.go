package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadFile tests layering of defaults, file and environment
func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults only",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, "Visiting Employees Tracker.xlsx", cfg.Source.Path)
				assert.False(t, cfg.Source.UsesS3())
				assert.True(t, cfg.Source.LoadOnStart)
				assert.False(t, cfg.Source.KeepLastGood)
				assert.Equal(t, time.Duration(0), cfg.Source.ReloadInterval)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
				assert.True(t, cfg.Security.RateLimit.Enabled)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
source:
  path: /data/tracker.xlsx
  reload_interval: 5m
  keep_last_good: true
logging:
  level: debug
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "/data/tracker.xlsx", cfg.Source.Path)
				assert.Equal(t, 5*time.Minute, cfg.Source.ReloadInterval)
				assert.True(t, cfg.Source.KeepLastGood)
				assert.Equal(t, "debug", cfg.Logging.Level)
				// untouched keys keep their defaults
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "env overrides file",
			file: `
server:
  port: 9090
`,
			env: map[string]string{
				"TRAVELBOARD_SERVER_PORT":              "7070",
				"TRAVELBOARD_SOURCE_S3_BUCKET":         "hr-data",
				"TRAVELBOARD_SOURCE_S3_KEY":            "tracker.xlsx",
				"TRAVELBOARD_SOURCE_S3_PATH_STYLE":     "true",
				"TRAVELBOARD_SECURITY_ALLOWED_ORIGINS": "http://a.example,http://b.example",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.True(t, cfg.Source.UsesS3())
				assert.Equal(t, "hr-data", cfg.Source.S3.Bucket)
				assert.Equal(t, "tracker.xlsx", cfg.Source.S3.Key)
				assert.True(t, cfg.Source.S3.PathStyle)
				assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"TRAVELBOARD_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "bucket without key",
			env:     map[string]string{"TRAVELBOARD_SOURCE_S3_BUCKET": "hr-data"},
			wantErr: true,
		},
		{
			name:    "unknown trace exporter",
			file:    "telemetry:\n  trace_exporter: jaeger\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
		{
			name: "unknown log output falls back to console",
			env:  map[string]string{"TRAVELBOARD_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFile_IgnoresUnprefixedEnv(t *testing.T) {
	t.Setenv("PORT", "1234")
	t.Setenv("HOST", "example.invalid")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "", cfg.Server.Host)
	assert.Equal(t, "Visiting Employees Tracker.xlsx", cfg.Source.Path)
}

func TestLoad_ConfigFileEnv(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 8181\n")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, ":8080", ServerConfig{Port: 8080}.Addr())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Addr())
}
