package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Default values
const (
	DefaultWindowSize       = 20
	DefaultOutputFile       = "rollstats_report.json"
	DefaultServeAddr        = ":8080"
	DefaultRedisAddr        = "localhost:6379"
	DefaultAnomalyThreshold = 3.0
	DefaultQueueSize        = 1024
)

// ValidStats lists the statistic names the engine knows how to derive.
var ValidStats = []string{"var", "std", "pop_var", "pop_std", "zscore", "mean", "harmonic_mean"}

// SetDefaults sets default values for the configuration
func SetDefaults() {
	// Rolling window options
	viper.SetDefault("window-size", DefaultWindowSize)
	viper.SetDefault("stats", []string{"mean", "var", "std"})

	// Input options
	viper.SetDefault("backend", "local")
	viper.SetDefault("aws-region", "us-east-1")

	// Output options
	viper.SetDefault("output", DefaultOutputFile)
	viper.SetDefault("include-history", false)

	// Server options
	viper.SetDefault("serve.addr", DefaultServeAddr)
	viper.SetDefault("serve.redis-addr", DefaultRedisAddr)
	viper.SetDefault("serve.redis-db", 0)
	viper.SetDefault("serve.threshold", DefaultAnomalyThreshold)
	viper.SetDefault("serve.queue-size", DefaultQueueSize)
	viper.SetDefault("serve.cors-origins", []string{"*"})
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	SetDefaults()

	// Set config name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.rollstats")
	viper.AddConfigPath("/etc/rollstats/")

	// Enable environment variable support
	viper.SetEnvPrefix("ROLLSTATS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Try to read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is okay, we'll use defaults and CLI flags
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Post-process configuration
	if err := postProcessConfig(&config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	return &config, nil
}

// postProcessConfig performs validation and adjustments to the configuration
func postProcessConfig(config *Config) error {
	// Convert backend string to enum
	switch strings.ToLower(config.BackendString) {
	case "local", "":
		config.Backend = BackendLocal
	case "s3":
		config.Backend = BackendS3
	case "stdin":
		config.Backend = BackendStdin
	default:
		return fmt.Errorf("invalid backend: %s, must be one of: local, s3, stdin", config.BackendString)
	}

	// Ensure the stats list is properly set when given as a comma list
	if len(config.Stats) == 1 && strings.Contains(config.Stats[0], ",") {
		parts := strings.Split(config.Stats[0], ",")
		config.Stats = make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				config.Stats = append(config.Stats, trimmed)
			}
		}
	}

	for _, name := range config.Stats {
		if !contains(ValidStats, name) {
			return fmt.Errorf("invalid statistic: %s, must be one of: %s",
				name, strings.Join(ValidStats, ", "))
		}
	}

	// Validate required fields for certain operations
	if config.Backend == BackendS3 {
		if config.Bucket == "" {
			return fmt.Errorf("bucket is required for the s3 backend")
		}
		if config.Input == "" {
			return fmt.Errorf("input is required for the s3 backend")
		}
	}

	// Validate server settings
	if config.Serve.AnomalyThreshold <= 0 {
		config.Serve.AnomalyThreshold = DefaultAnomalyThreshold
	}
	if config.Serve.QueueSize <= 0 {
		config.Serve.QueueSize = DefaultQueueSize
	}

	return nil
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// SetupLogging configures logging based on the configuration
func SetupLogging(verbose bool) (*zap.Logger, error) {
	var config zap.Config

	if verbose {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Customize output format
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.MessageKey = "message"

	// Reports go to stdout, so logs stay on stderr
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
