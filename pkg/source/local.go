package source

import (
	"context"
	"os"

	"go.uber.org/zap"

	"rollstats-go/pkg/config"
)

// LocalSource reads samples from a file on the local filesystem
type LocalSource struct {
	config SourceConfig
	logger *zap.Logger
}

// NewLocalSource creates a new local file source
func NewLocalSource(sourceConfig SourceConfig, logger *zap.Logger) *LocalSource {
	return &LocalSource{
		config: sourceConfig,
		logger: logger,
	}
}

// Read reads all samples from the configured file
func (l *LocalSource) Read(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewSourceError("read", l.config.Path, config.BackendLocal, err)
	}

	l.logger.Debug("Reading local samples", zap.String("path", l.config.Path))

	file, err := os.Open(l.config.Path)
	if err != nil {
		return nil, NewSourceError("read", l.config.Path, config.BackendLocal, err)
	}
	defer file.Close()

	samples, err := ParseSamples(file)
	if err != nil {
		return nil, NewSourceError("parse", l.config.Path, config.BackendLocal, err)
	}

	l.logger.Info("Read local samples",
		zap.String("path", l.config.Path),
		zap.Int("count", len(samples)))

	return samples, nil
}

// Close closes any resources used by the source implementation
func (l *LocalSource) Close() error {
	return nil
}
