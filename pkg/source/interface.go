package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rollstats-go/pkg/config"
)

// Source defines the interface for reading sample streams
type Source interface {
	// Read reads all samples from the source in order
	Read(ctx context.Context) ([]float64, error)

	// Close closes any resources used by the source implementation
	Close() error
}

// SourceConfig represents configuration for sample sources
type SourceConfig struct {
	Backend config.Backend `json:"backend"`
	Path    string         `json:"path"`
	Bucket  string         `json:"bucket,omitempty"`

	// AWS SDK specific settings
	AWSRegion   string `json:"aws_region,omitempty"`
	AWSProfile  string `json:"aws_profile,omitempty"`
	AWSEndpoint string `json:"aws_endpoint,omitempty"`
}

// SourceError represents a sample source error
type SourceError struct {
	Operation string
	Path      string
	Backend   config.Backend
	Err       error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	return fmt.Sprintf("source error [%s] during %s operation on %s: %v",
		e.Backend, e.Operation, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new source error
func NewSourceError(operation, path string, backend config.Backend, err error) *SourceError {
	return &SourceError{
		Operation: operation,
		Path:      path,
		Backend:   backend,
		Err:       err,
	}
}

// NewSource creates a sample source based on configuration
func NewSource(sourceConfig *SourceConfig, logger *zap.Logger) (Source, error) {
	if sourceConfig == nil {
		return nil, fmt.Errorf("source config cannot be nil")
	}

	switch sourceConfig.Backend {
	case config.BackendLocal:
		return NewLocalSource(*sourceConfig, logger), nil
	case config.BackendS3:
		return NewS3Source(*sourceConfig, logger)
	case config.BackendStdin:
		return NewStdinSource(logger), nil
	default:
		return nil, fmt.Errorf("unsupported source backend: %s", sourceConfig.Backend)
	}
}
