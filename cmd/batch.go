package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/AnyUserName/covercrop/internal/export"
	"github.com/AnyUserName/covercrop/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	batchOutDir   string
	batchFormat   string
	batchWorkers  int
	batchMIME     string
	batchQuality  float64
	batchSessions bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Export a neutral cover for every image in a directory",
	Long: `Scans input directory for images, prepares each one and exports it
with the neutral edit state for a cover format. JPEG, PNG and WebP are
accepted by default; gif, bmp and tiff files are scanned but rejected as
unsupported unless COVERCROP_ALLOWED_TYPES lists them. Failures are
reported per file; the command fails only when no image could be exported.

Output filenames are content-addressed: <key>.<w>x<h>.<hash>.ext`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var watchCmd = &cobra.Command{
	Use:   "watch <inbox_dir>",
	Short: "Export a cover for every image dropped into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	for _, c := range []*cobra.Command{batchCmd, watchCmd} {
		c.Flags().StringVarP(&batchOutDir, "out", "o", "", "output directory (default from COVERCROP_OUTPUT_DIR)")
		c.Flags().StringVarP(&batchFormat, "format", "f", "", "cover format id")
		c.Flags().StringVar(&batchMIME, "mime", "", "output MIME type")
		c.Flags().Float64VarP(&batchQuality, "quality", "q", 0, "quality 0-1 (0 = config default)")
		c.Flags().BoolVar(&batchSessions, "sessions", false, "write a session file next to each cover")
	}
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "parallel workers (0 = config default)")
	rootCmd.AddCommand(batchCmd, watchCmd)
}

func batchConfig(cmd *cobra.Command) (pipeline.BatchConfig, error) {
	st, err := openStore(cmd.Context(), batchOutDir)
	if err != nil {
		return pipeline.BatchConfig{}, err
	}
	f := resolveFormat(batchFormat)
	quality := batchQuality
	if quality == 0 {
		quality = cfg.Export.Quality
	}
	mimeType := batchMIME
	if mimeType == "" {
		mimeType = cfg.Export.MIMEType
	}
	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Workers
	}
	logVerbose("format:  %s %s", f.ID, f.Target)
	logVerbose("workers: %d", workers)
	return pipeline.BatchConfig{
		Config:       pipelineConfig(),
		FormatID:     f.ID,
		Target:       f.Target,
		Export:       export.Options{MIMEType: mimeType, Quality: quality},
		Store:        st,
		Workers:      workers,
		SaveSessions: batchSessions,
	}, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	logVerbose("input:   %s", absInput)

	bc, err := batchConfig(cmd)
	if err != nil {
		return err
	}
	rep, err := pipeline.Batch(cmd.Context(), absInput, bc)
	if rep != nil {
		printBatchReport(rep, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	bc, err := batchConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("  Watching %s (Ctrl-C to stop)\n", args[0])
	return pipeline.Watch(ctx, args[0], bc, func(r pipeline.ItemResult) {
		if r.Err != nil {
			fmt.Printf("  ✗ %s: %v\n", r.File.RelPath, r.Err)
			return
		}
		fmt.Printf("  ✓ %s → %s (%s)\n", r.File.RelPath, r.Path, formatBytes(r.Size))
	})
}

func printBatchReport(rep *pipeline.Report, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║            covercrop batch complete              ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	ratio := float64(0)
	if rep.InputBytes > 0 {
		ratio = float64(rep.OutputBytes) / float64(rep.InputBytes) * 100
	}
	fmt.Printf("  Images:      %d\n", len(rep.Items))
	fmt.Printf("  Exported:    %d\n", len(rep.Items)-rep.Failed)
	if rep.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", rep.Failed)
	}
	if rep.Warned > 0 {
		fmt.Printf("  Too small:   %d (upscaled)\n", rep.Warned)
	}
	fmt.Printf("  Input size:  %s\n", formatBytes(rep.InputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(rep.OutputBytes))
	fmt.Printf("  Ratio:       %.1f%% of original\n", ratio)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()

	items := append([]pipeline.ItemResult(nil), rep.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].File.RelPath < items[j].File.RelPath })
	for _, it := range items {
		switch {
		case it.Err != nil:
			fmt.Printf("    ✗ %-40s %v\n", truncKey(it.File.RelPath, 40), it.Err)
		case it.Warning != nil:
			fmt.Printf("    ! %-40s %8s  %s (needs %dx%d)\n", truncKey(it.File.RelPath, 40), formatBytes(it.Size), it.Dims, it.Warning.MinW, it.Warning.MinH)
		default:
			fmt.Printf("    ✓ %-40s %8s  %s\n", truncKey(it.File.RelPath, 40), formatBytes(it.Size), it.Dims)
		}
	}
	fmt.Println()
}
