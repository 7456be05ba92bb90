package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/pipeline"
	"github.com/AnyUserName/covercrop/internal/store"
	"github.com/spf13/cobra"
)

var (
	prepareFormat  string
	prepareOutDir  string
	prepareMaxSide int
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <file>",
	Short: "Validate, normalize and bound an image into a working copy",
	Long: `Runs every stage up to the editable working image: validation, dimension
probing, normalization to an upright JPEG or PNG, and downscaling to the
working bounds. The small-image advisor runs against --format.

The working copy is written as <name>.working.<ext>.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareFormat, "format", "f", "", "cover format id for the size advice")
	prepareCmd.Flags().StringVarP(&prepareOutDir, "out", "o", "", "output directory (default from COVERCROP_OUTPUT_DIR)")
	prepareCmd.Flags().IntVar(&prepareMaxSide, "max-side", 0, "working image longest side (0 = config default)")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	src, err := imagefile.FromPath(args[0])
	if err != nil {
		return err
	}
	pc := pipelineConfig()
	if prepareMaxSide > 0 {
		pc.Working.MaxSide = prepareMaxSide
	}
	f := resolveFormat(prepareFormat)

	prep, err := pipeline.Prepare(ctx, src, &f.Target, pc)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, prepareOutDir)
	if err != nil {
		return err
	}
	stem := strings.TrimSuffix(src.FileName, filepath.Ext(src.FileName))
	name := stem + ".working." + imagefile.ExtFromMIME(prep.Working.MIMEType)
	p, err := st.Write(ctx, name, prep.Working.Data, store.WriteOptions{MIMEType: prep.Working.MIMEType})
	if err != nil {
		return fmt.Errorf("write working image: %w", err)
	}

	fmt.Printf("  Original:  %s  %s  %s\n", prep.OriginalDims, prep.Original.MIMEType, formatBytes(prep.Original.Len()))
	fmt.Printf("  Working:   %s  %s  %s\n", prep.WorkingDims, prep.Working.MIMEType, formatBytes(prep.Working.Len()))
	if w := prep.Warning; w != nil {
		fmt.Printf("  Warning:   too small for %s, needs at least %dx%d\n", f.ID, w.MinW, w.MinH)
	}
	fmt.Printf("  Written:   %s\n", p)
	fmt.Printf("  Time:      %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
