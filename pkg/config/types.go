package config

// Backend identifies where input samples are read from.
type Backend int

const (
	BackendLocal Backend = iota
	BackendS3
	BackendStdin
)

// String returns the string representation of Backend
func (b Backend) String() string {
	switch b {
	case BackendLocal:
		return "local"
	case BackendS3:
		return "s3"
	case BackendStdin:
		return "stdin"
	default:
		return "unknown"
	}
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (b *Backend) UnmarshalText(text []byte) error {
	switch string(text) {
	case "local":
		*b = BackendLocal
	case "s3":
		*b = BackendS3
	case "stdin":
		*b = BackendStdin
	default:
		*b = BackendLocal
	}
	return nil
}

// MarshalText implements the encoding.TextMarshaler interface
func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// AWSConfig holds S3 access settings for the s3 backend.
type AWSConfig struct {
	Region   string `mapstructure:"aws-region"`
	Profile  string `mapstructure:"aws-profile"`
	Endpoint string `mapstructure:"aws-endpoint"`
}

// ServeConfig holds settings for the HTTP ingest server.
type ServeConfig struct {
	Addr             string   `mapstructure:"addr"`
	RedisAddr        string   `mapstructure:"redis-addr"`
	RedisPassword    string   `mapstructure:"redis-password"`
	RedisDB          int      `mapstructure:"redis-db"`
	AnomalyThreshold float64  `mapstructure:"threshold"`
	QueueSize        int      `mapstructure:"queue-size"`
	CORSOrigins      []string `mapstructure:"cors-origins"`
}

// Config is the top-level configuration for the toolkit.
type Config struct {
	// Rolling window options
	WindowSize float64  `mapstructure:"window-size"`
	Stats      []string `mapstructure:"stats"`

	// Input options
	Input         string `mapstructure:"input"`
	BackendString string  `mapstructure:"backend"`
	Backend       Backend `mapstructure:"-"`
	Bucket        string    `mapstructure:"bucket"`
	AWS           AWSConfig `mapstructure:",squash"`

	// Output options
	Output         string `mapstructure:"output"`
	IncludeHistory bool   `mapstructure:"include-history"`

	// Server options
	Serve ServeConfig `mapstructure:"serve"`

	// Logging
	Verbose bool `mapstructure:"verbose"`
}
