package source

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"rollstats-go/pkg/config"
)

// S3Source reads samples from an object in S3 (or an S3-compatible service)
type S3Source struct {
	client *s3.Client
	config SourceConfig
	logger *zap.Logger
}

// NewS3Source creates a new S3 sample source
func NewS3Source(sourceConfig SourceConfig, logger *zap.Logger) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(sourceConfig.AWSRegion),
	}

	if sourceConfig.AWSProfile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(sourceConfig.AWSProfile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, NewSourceError("aws_config", "", config.BackendS3, err)
	}

	// Override endpoint if specified (for S3-compatible services like R2)
	s3Options := []func(*s3.Options){}
	if sourceConfig.AWSEndpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(sourceConfig.AWSEndpoint)
			o.UsePathStyle = true // Required for custom endpoints
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	logger.Info("S3 source initialized",
		zap.String("region", sourceConfig.AWSRegion),
		zap.String("profile", sourceConfig.AWSProfile),
		zap.String("endpoint", sourceConfig.AWSEndpoint))

	return &S3Source{
		client: client,
		config: sourceConfig,
		logger: logger,
	}, nil
}

// Read downloads the configured object and parses its samples
func (s *S3Source) Read(ctx context.Context) ([]float64, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.config.Path),
	}

	s.logger.Debug("Downloading S3 object",
		zap.String("bucket", s.config.Bucket),
		zap.String("key", s.config.Path))

	output, err := s.client.GetObject(ctx, input)
	if err != nil {
		return nil, NewSourceError("read", s.config.Path, config.BackendS3, err)
	}
	defer output.Body.Close()

	samples, err := ParseSamples(output.Body)
	if err != nil {
		return nil, NewSourceError("parse", s.config.Path, config.BackendS3, err)
	}

	s.logger.Info("Read S3 samples",
		zap.String("bucket", s.config.Bucket),
		zap.String("key", s.config.Path),
		zap.Int("count", len(samples)))

	return samples, nil
}

// Close closes any resources used by the source implementation
func (s *S3Source) Close() error {
	s.logger.Debug("Closing S3 source")
	return nil
}
