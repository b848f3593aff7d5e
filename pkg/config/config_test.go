package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	SetDefaults()

	assert.Equal(t, float64(DefaultWindowSize), viper.GetFloat64("window-size"))
	assert.Equal(t, []string{"mean", "var", "std"}, viper.GetStringSlice("stats"))
	assert.Equal(t, "local", viper.GetString("backend"))
	assert.Equal(t, DefaultOutputFile, viper.GetString("output"))
	assert.Equal(t, DefaultServeAddr, viper.GetString("serve.addr"))
	assert.Equal(t, DefaultRedisAddr, viper.GetString("serve.redis-addr"))
	assert.Equal(t, DefaultAnomalyThreshold, viper.GetFloat64("serve.threshold"))
	assert.Equal(t, DefaultQueueSize, viper.GetInt("serve.queue-size"))
}

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, float64(DefaultWindowSize), cfg.WindowSize)
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.False(t, cfg.IncludeHistory)
	assert.Equal(t, []string{"*"}, cfg.Serve.CORSOrigins)
}

func TestPostProcessConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:   "local backend by default",
			config: Config{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, BackendLocal, cfg.Backend)
			},
		},
		{
			name:    "s3 backend requires bucket",
			config:  Config{BackendString: "s3", Input: "samples.txt"},
			wantErr: "bucket is required",
		},
		{
			name:    "s3 backend requires input",
			config:  Config{BackendString: "s3", Bucket: "metrics"},
			wantErr: "input is required",
		},
		{
			name:   "s3 backend with bucket and input",
			config: Config{BackendString: "s3", Bucket: "metrics", Input: "samples.txt"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, BackendS3, cfg.Backend)
			},
		},
		{
			name:    "unknown backend rejected",
			config:  Config{BackendString: "gcs"},
			wantErr: "invalid backend",
		},
		{
			name:    "unknown statistic rejected",
			config:  Config{Stats: []string{"median"}},
			wantErr: "invalid statistic",
		},
		{
			name:   "comma separated stats split",
			config: Config{Stats: []string{"mean, zscore"}},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"mean", "zscore"}, cfg.Stats)
			},
		},
		{
			name:   "non-positive threshold reset to default",
			config: Config{Serve: ServeConfig{AnomalyThreshold: -1}},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, float64(DefaultAnomalyThreshold), cfg.Serve.AnomalyThreshold)
			},
		},
		{
			name:   "non-positive queue size reset to default",
			config: Config{Serve: ServeConfig{QueueSize: 0}},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultQueueSize, cfg.Serve.QueueSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			err := postProcessConfig(&cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, &cfg)
			}
		})
	}
}

func TestBackendText(t *testing.T) {
	var b Backend
	require.NoError(t, b.UnmarshalText([]byte("s3")))
	assert.Equal(t, BackendS3, b)

	text, err := BackendStdin.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "stdin", string(text))

	require.NoError(t, b.UnmarshalText([]byte("bogus")))
	assert.Equal(t, BackendLocal, b)
}

func TestSetupLogging(t *testing.T) {
	logger, err := SetupLogging(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Sync()

	verbose, err := SetupLogging(true)
	require.NoError(t, err)
	require.NotNil(t, verbose)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
