package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markscan/markscan/internal/analyzer"
	"github.com/markscan/markscan/internal/config"
	"github.com/markscan/markscan/internal/database"
	"github.com/markscan/markscan/internal/log"
	"github.com/markscan/markscan/internal/model"
	"github.com/markscan/markscan/internal/report"
)

// qualitySidecarExt is the extension of the optional per-image quality
// sidecar file, e.g. chip.png.quality.json next to chip.png.
const qualitySidecarExt = ".quality.json"

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <image> [image...]",
		Short: "Verify the authenticity of component marking images",
		Long: `Verify analyzes photos of electronic component packages.

For each image it runs the configured OCR backends, fuses their readings,
parses the marking into structured fields, resolves the official marking
specification for the extracted part number, and scores six weighted
checks to classify the part as AUTHENTIC, SUSPECT, or COUNTERFEIT.

Image quality is supplied by the caller, not measured: pass a global
quality vector with --quality, or place a per-image sidecar file
<image>.quality.json next to each photo.

Examples:
  # Verify a single image
  markscan verify chip.png

  # Verify several images concurrently
  markscan verify lot/*.png --batch 8

  # Output JSON report to a file
  markscan verify chip.png --json -o report.json

  # Use a custom configuration file and quality vector
  markscan verify chip.png -c myconfig.yaml --quality 0.9,0.85,0.8,0.1

Configuration file (.markscan) example:
  sources: [manufacturer, aggregator]
  cache_ttl: 720h
  weights:
    part_number: 0.30
    manufacturer: 0.20
    date_code: 0.15
    country: 0.10
    print_quality: 0.15
    marking_format: 0.10`,
		Args: cobra.ArbitraryArgs,
		RunE: runVerifyCmd,
	}

	// Analysis behavior flags
	cmd.Flags().DurationP("backend-timeout", "T", config.DefaultBackendTimeout,
		"Timeout for each OCR backend invocation")
	cmd.Flags().DurationP("source-timeout", "t", config.DefaultSourceTimeout,
		"Timeout for each datasheet source query")
	cmd.Flags().StringP("quality", "q", "0.8,0.8,0.8,0.2",
		"Image quality vector as sharpness,contrast,edge-density,noise")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent analyses")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .markscan in current or home directory)")

	// Storage flags
	cmd.Flags().String("db-dir", "",
		"Directory for the specification cache and history database (default: XDG data dir)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runVerifyCmd executes the verify command.
func runVerifyCmd(cmd *cobra.Command, args []string) error {
	cfg, defaultQuality, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential redaction
	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runVerify(ctx, cmd, cfg, defaultQuality, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// It also returns the default quality vector parsed from --quality.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, model.QualityVector, error) {
	cfg := config.NewConfig()
	var quality model.QualityVector

	var err error

	cfg.BackendTimeout, err = cmd.Flags().GetDuration("backend-timeout")
	if err != nil {
		return nil, quality, err
	}

	cfg.SourceTimeout, err = cmd.Flags().GetDuration("source-timeout")
	if err != nil {
		return nil, quality, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, quality, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, quality, err
	}

	// Load overrides from the config file.
	// If the user explicitly specified a path, a missing file is an error.
	// If no path was specified, silently run on defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, quality, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, quality, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, quality, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, quality, err
	}

	if cfg.JSONReport && cfg.MarkdownReport {
		return nil, quality, errors.New("--json and --markdown are mutually exclusive")
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, quality, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, quality, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	qualityFlag, err := cmd.Flags().GetString("quality")
	if err != nil {
		return nil, quality, err
	}
	quality, err = parseQualityFlag(qualityFlag)
	if err != nil {
		return nil, quality, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the images to analyze.
	cfg.Images = args

	return cfg, quality, nil
}

// parseQualityFlag parses "sharpness,contrast,edge-density,noise" into a
// quality vector. Each component must be in [0,1].
func parseQualityFlag(s string) (model.QualityVector, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return model.QualityVector{}, fmt.Errorf("invalid quality vector %q: want four comma-separated values", s)
	}

	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return model.QualityVector{}, fmt.Errorf("invalid quality component %q: %w", part, err)
		}
		if v < 0 || v > 1 {
			return model.QualityVector{}, fmt.Errorf("quality component %q out of range [0,1]", part)
		}
		values[i] = v
	}

	return model.QualityVector{
		Sharpness:   values[0],
		Contrast:    values[1],
		EdgeDensity: values[2],
		Noise:       values[3],
	}, nil
}

// qualityForImage returns the quality vector for one image: the sidecar
// file next to the image when present, the default vector otherwise.
// A malformed sidecar falls back to the default.
func qualityForImage(imageRef string, fallback model.QualityVector) model.QualityVector {
	data, err := os.ReadFile(imageRef + qualitySidecarExt) //nolint:gosec // Path derives from a user-provided image path
	if err != nil {
		return fallback
	}

	var quality model.QualityVector
	if err := json.Unmarshal(data, &quality); err != nil {
		return fallback
	}
	return quality
}

// runVerify executes the analyses.
func runVerify(ctx context.Context, cmd *cobra.Command, cfg *config.Config, defaultQuality model.QualityVector, logger *slog.Logger) error {
	logger.Info("starting verification",
		"images", len(cfg.Images),
		"backends", cfg.Backends,
		"sources", cfg.Sources,
		"batchSize", cfg.BatchSize,
	)

	// The store holds the specification cache and the verification history.
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	client := &http.Client{Timeout: cfg.SourceTimeout}

	a, err := analyzer.New(cfg, store, client, analyzer.WithLogger(logger))
	if err != nil {
		return err
	}
	// History writes are asynchronous; settle them before the store closes.
	defer a.Flush()

	quality := func(imageRef string) model.QualityVector {
		return qualityForImage(imageRef, defaultQuality)
	}

	startTime := time.Now()

	analyses, err := a.AnalyzeBatch(ctx, cfg.Images, quality)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	elapsed := time.Since(startTime)
	logger.Info("verification finished", "images", len(analyses), "elapsed", elapsed.Round(time.Millisecond).String())

	if err := outputReports(cmd, cfg, analyses); err != nil {
		return err
	}

	// Partial failures do not abort the batch but they do fail the command.
	for _, analysis := range analyses {
		if analysis.Result == nil {
			return fmt.Errorf("analysis incomplete for %s", analysis.ImageRef)
		}
	}

	return nil
}

// outputReports writes the analyses in the requested format.
func outputReports(cmd *cobra.Command, cfg *config.Config, analyses []*model.Analysis) error {
	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		output = f
	}

	writer := newReportWriter(cfg, output)

	if len(analyses) == 1 {
		_, err := writer.Write(analyses[0])
		return err
	}
	_, err := writer.WriteBatch(analyses)
	return err
}

// newReportWriter selects the report format from the configuration.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output,
			report.WithPrettyPrint(),
			report.WithVersion(getVersion()),
		)
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
