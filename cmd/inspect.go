package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/AnyUserName/covercrop/internal/advisor"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/probe"
	"github.com/AnyUserName/covercrop/internal/target"
	"github.com/AnyUserName/covercrop/internal/validate"
	"github.com/spf13/cobra"
)

var (
	warnFormat string
	warnJSON   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check an image's type, extension and size without decoding it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Print an image's display-oriented dimensions",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

var warnCmd = &cobra.Command{
	Use:   "warn <file>",
	Short: "Report whether an image is too small for a cover format",
	Args:  cobra.ExactArgs(1),
	RunE:  runWarn,
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the known cover formats",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

func init() {
	warnCmd.Flags().StringVarP(&warnFormat, "format", "f", "", "cover format id (default from COVERCROP_FORMAT)")
	warnCmd.Flags().BoolVar(&warnJSON, "json", false, "print the warning parameters as JSON")
	rootCmd.AddCommand(validateCmd, probeCmd, warnCmd, formatsCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	src, err := imagefile.FromPath(args[0])
	if err != nil {
		return err
	}
	res := validate.Basic(src, cfg.Validation)
	if res.Valid {
		fmt.Printf("  ✓ %s: %s, %s\n", src.FileName, src.MIMEType, formatBytes(src.Len()))
		return nil
	}
	fmt.Printf("  ✗ %s: %s (%s)\n", src.FileName, res.Kind, res.Details)
	return res.Err()
}

func runProbe(_ *cobra.Command, args []string) error {
	src, err := imagefile.FromPath(args[0])
	if err != nil {
		return err
	}
	d, ok := probe.GetDimensions(src)
	if !ok {
		return imagefile.Errorf(imagefile.Corrupt, "%s: cannot read image header", src.FileName)
	}
	logVerbose("exif orientation: %d", probe.Orientation(src))
	fmt.Printf("%s\t%s\n", d, src.FileName)
	return nil
}

func runWarn(_ *cobra.Command, args []string) error {
	src, err := imagefile.FromPath(args[0])
	if err != nil {
		return err
	}
	d, ok := probe.GetDimensions(src)
	if !ok {
		return imagefile.Errorf(imagefile.Corrupt, "%s: cannot read image header", src.FileName)
	}
	f := resolveFormat(warnFormat)
	w := advisor.Advise(d, f.Target, cfg.Export.MaxUpscale)

	if warnJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(w)
	}
	if w == nil {
		fmt.Printf("  ✓ %s (%s) is large enough for %s %s\n", src.FileName, d, f.ID, f.Target)
		return nil
	}
	fmt.Printf("  ! %s is %dx%d; %s needs at least %dx%d to avoid upscaling\n",
		src.FileName, w.ImgW, w.ImgH, f.ID, w.MinW, w.MinH)
	return nil
}

func runFormats(_ *cobra.Command, _ []string) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tOUTPUT\tLABEL")
	for _, f := range target.All() {
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%s\n", f.ID, f.Target.Width, f.Target.Height, f.Target.Output, f.Label)
	}
	return tw.Flush()
}

// resolveFormat falls back to the configured default format, then to
// target.DefaultFormatID.
func resolveFormat(id string) target.Format {
	if id == "" {
		id = cfg.Export.FormatID
	}
	f, ok := target.Get(id)
	if !ok {
		logVerbose("unknown format %q, using %s", id, f.ID)
	}
	return f
}
