package source

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"rollstats-go/pkg/config"
)

// StdinSource reads samples from standard input
type StdinSource struct {
	reader io.Reader
	logger *zap.Logger
}

// NewStdinSource creates a source that reads from standard input
func NewStdinSource(logger *zap.Logger) *StdinSource {
	return &StdinSource{
		reader: os.Stdin,
		logger: logger,
	}
}

// Read reads all samples from standard input until EOF
func (s *StdinSource) Read(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewSourceError("read", "stdin", config.BackendStdin, err)
	}

	samples, err := ParseSamples(s.reader)
	if err != nil {
		return nil, NewSourceError("parse", "stdin", config.BackendStdin, err)
	}

	s.logger.Info("Read samples from stdin", zap.Int("count", len(samples)))

	return samples, nil
}

// Close closes any resources used by the source implementation
func (s *StdinSource) Close() error {
	return nil
}
