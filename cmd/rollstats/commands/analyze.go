package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"rollstats-go/pkg/config"
	"rollstats-go/pkg/rollstats"
	"rollstats-go/pkg/source"
	"rollstats-go/pkg/utils"
)

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute rolling statistics over a sample stream",
		Long: `Read numeric samples from a file, S3 object, or stdin, feed them through a
rolling window, and write a JSON report of the requested statistics.`,
		RunE: runAnalyze,
	}

	addAnalyzeFlags(cmd)
	return cmd
}

func addAnalyzeFlags(cmd *cobra.Command) {
	// Window options
	cmd.Flags().Float64("window-size", config.DefaultWindowSize, "Number of samples kept in the rolling window")
	cmd.Flags().StringSlice("stats", []string{"mean", "var", "std"}, "Statistics to derive (var, std, pop_var, pop_std, zscore, mean, harmonic_mean)")

	// Input options
	cmd.Flags().String("input", "", "Sample file path (or object key for the s3 backend)")
	cmd.Flags().String("backend", "local", "Input backend: local, s3, or stdin")
	cmd.Flags().String("bucket", "", "S3 bucket name")
	cmd.Flags().String("aws-region", "us-east-1", "AWS region")
	cmd.Flags().String("aws-profile", "", "AWS shared config profile")
	cmd.Flags().String("aws-endpoint", "", "Custom S3 endpoint (for S3-compatible services)")

	// Output options
	cmd.Flags().String("output", config.DefaultOutputFile, "Report output file ('-' for stdout)")
	cmd.Flags().Bool("include-history", false, "Include the full per-push history of each statistic")

	// Bind flags to viper
	viper.BindPFlags(cmd.Flags())
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Get logger from context
	logger, ok := ctx.Value("logger").(*zap.Logger)
	if !ok || logger == nil {
		return fmt.Errorf("logger not found in context")
	}

	logger.Info("Starting analysis")

	if err := executeAnalysis(ctx, logger); err != nil {
		logger.Error("Analysis failed", zap.Error(err))
		return fmt.Errorf("analysis failed: %w", err)
	}

	logger.Info("Analysis completed successfully")
	return nil
}

// statReport is the per-statistic section of the analysis report.
type statReport struct {
	Current utils.NullableFloat   `json:"current"`
	History []utils.NullableFloat `json:"history,omitempty"`
}

// analysisReport is the JSON document written by the analyze command.
type analysisReport struct {
	RunID       string                `json:"run_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	WindowSize  float64               `json:"window_size"`
	SamplesRead int                   `json:"samples_read"`
	Retained    []utils.NullableFloat `json:"retained"`
	Stats       map[string]statReport `json:"stats"`
}

func executeAnalysis(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Backend == config.BackendLocal && cfg.Input == "" {
		return fmt.Errorf("input is required for the local backend")
	}

	src, err := source.NewSource(&source.SourceConfig{
		Backend:     cfg.Backend,
		Path:        cfg.Input,
		Bucket:      cfg.Bucket,
		AWSRegion:   cfg.AWS.Region,
		AWSProfile:  cfg.AWS.Profile,
		AWSEndpoint: cfg.AWS.Endpoint,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create sample source: %w", err)
	}
	defer src.Close()

	samples, err := src.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read samples: %w", err)
	}

	window := rollstats.New(cfg.WindowSize)
	derived := make(map[string]*rollstats.TrackedValue, len(cfg.Stats))
	for _, name := range cfg.Stats {
		derived[name] = subscribeStat(window, name)
	}

	window.Push(samples...)

	report := buildReport(cfg, window, derived, len(samples))

	if err := writeReport(cfg.Output, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info("Report written",
		zap.String("output", cfg.Output),
		zap.Int("samples", len(samples)),
		zap.Int("retained", window.Len()))

	return nil
}

func subscribeStat(w *rollstats.RollingWindow, name string) *rollstats.TrackedValue {
	switch name {
	case rollstats.StatVariance:
		return w.SubscribeVariance()
	case rollstats.StatStdDev:
		return w.SubscribeStdDev()
	case rollstats.StatPopVariance:
		return w.SubscribePopVariance()
	case rollstats.StatPopStdDev:
		return w.SubscribePopStdDev()
	case rollstats.StatZScore:
		return w.SubscribeZScore()
	case rollstats.StatMean:
		return w.SubscribeMean()
	case rollstats.StatHarmonicMean:
		return w.SubscribeHarmonicMean()
	default:
		// Config validation rejects unknown names before we get here.
		panic(fmt.Sprintf("unknown statistic: %s", name))
	}
}

func buildReport(cfg *config.Config, w *rollstats.RollingWindow, derived map[string]*rollstats.TrackedValue, samplesRead int) analysisReport {
	retained := w.Samples()
	report := analysisReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		WindowSize:  cfg.WindowSize,
		SamplesRead: samplesRead,
		Retained:    toNullable(retained),
		Stats:       make(map[string]statReport, len(derived)),
	}

	for name, tv := range derived {
		entry := statReport{Current: utils.NullableFloat(tv.Current())}
		if cfg.IncludeHistory {
			entry.History = toNullable(tv.History())
		}
		report.Stats[name] = entry
	}

	return report
}

func toNullable(values []float64) []utils.NullableFloat {
	out := make([]utils.NullableFloat, len(values))
	for i, v := range values {
		out[i] = utils.NullableFloat(v)
	}
	return out
}

func writeReport(output string, report analysisReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0644)
}
