package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/AnyUserName/covercrop/internal/config"
	"github.com/AnyUserName/covercrop/internal/cropper"
	"github.com/AnyUserName/covercrop/internal/export"
	"github.com/AnyUserName/covercrop/internal/metrics"
	"github.com/AnyUserName/covercrop/internal/pipeline"
	"github.com/AnyUserName/covercrop/internal/store"
	"github.com/AnyUserName/covercrop/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool

	cfg           config.Config
	stats         *metrics.Metrics
	shutdownTrace func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "covercrop",
	Short: "Turn arbitrary pictures into e-reader book covers",
	Long: `covercrop validates a picked image, normalizes it into a bounded working
copy, and exports a cover cropped, rotated and color-adjusted for a target
e-reader resolution, optionally grayscale and dithered for e-ink.

Edits are described by a JSON edit state and can be saved as sessions and
resumed later.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"covercrop %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg = config.Load()

	n, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}
	if n > 0 {
		logVerbose("loaded %d formats from %s", n, cfg.TargetsFile)
	}

	shutdownTrace, err = telemetry.SetupTracing(cmd.Context(), cfg.Trace, logger())
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if cfg.MetricsFile != "" {
		stats = metrics.New()
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if shutdownTrace != nil {
		if err := shutdownTrace(context.Background()); err != nil {
			logVerbose("trace shutdown: %v", err)
		}
	}
	if stats != nil {
		if err := stats.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		logVerbose("metrics written to %s", cfg.MetricsFile)
	}
	return nil
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[covercrop] "+format+"\n", args...)
	}
}

// logger is handed to library packages; nil keeps them silent.
func logger() *log.Logger {
	if !verbose {
		return nil
	}
	return log.New(os.Stderr, "[covercrop] ", log.Lmsgprefix)
}

func pipelineConfig() pipeline.Config {
	return pipeline.Config{
		Validation: cfg.Validation,
		Working:    cfg.Working,
		MaxUpscale: cfg.Export.MaxUpscale,
		Metrics:    stats,
		Logger:     logger(),
	}
}

func cropperConfig(opts export.Options) cropper.Config {
	return cropper.Config{Pipeline: pipelineConfig(), Export: opts}
}

func openStore(ctx context.Context, localDir string) (store.Store, error) {
	switch cfg.Store.Kind {
	case "", "local":
		if localDir == "" {
			localDir = cfg.Store.LocalDir
		}
		logVerbose("store: local %s", localDir)
		return store.NewLocal(localDir)
	case "minio":
		m, err := store.NewMinio(cfg.Store.Minio)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logVerbose("store: minio %s/%s", cfg.Store.Minio.Endpoint, cfg.Store.Minio.Bucket)
		return m, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want local or minio)", cfg.Store.Kind)
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
