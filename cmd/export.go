package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AnyUserName/covercrop/internal/cropper"
	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/export"
	"github.com/AnyUserName/covercrop/internal/host"
	"github.com/AnyUserName/covercrop/internal/session"
	"github.com/AnyUserName/covercrop/internal/store"
	"github.com/AnyUserName/covercrop/internal/target"
	"github.com/spf13/cobra"
)

var (
	exportStateFile   string
	exportResume      string
	exportFormat      string
	exportWidth       int
	exportHeight      int
	exportOutput      string
	exportMIME        string
	exportQuality     float64
	exportOutDir      string
	exportName        string
	exportSaveSession bool
	exportShare       bool
	exportReset       bool

	exportScale      float64
	exportTX         float64
	exportTY         float64
	exportRotate     float64
	exportBrightness float64
	exportContrast   float64
	exportSaturation float64
	exportBW         bool
	exportDither     bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Crop, rotate and adjust an image into a cover",
	Long: `Prepares <file> and renders it with an edit state against a cover format
or an explicit --width/--height target.

The edit state starts neutral, is replaced by --state (a JSON edit state)
or --resume (a saved session), and individual flags such as --rotate or
--brightness override single fields on top. --reset drops the loaded state
but keeps a resumed session's format.

Output filenames are content-addressed: <name>.<w>x<h>.<hash>.ext`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportStateFile, "state", "", "JSON edit state file")
	f.StringVar(&exportResume, "resume", "", "saved session file to resume")
	f.StringVarP(&exportFormat, "format", "f", "", "cover format id")
	f.IntVar(&exportWidth, "width", 0, "custom target width (with --height)")
	f.IntVar(&exportHeight, "height", 0, "custom target height (with --width)")
	f.StringVar(&exportOutput, "output", "", "target sizing: target or source")
	f.StringVar(&exportMIME, "mime", "", "output MIME type (default jpeg, png when dithered)")
	f.Float64VarP(&exportQuality, "quality", "q", 0, "quality 0-1 (0 = config default)")
	f.StringVarP(&exportOutDir, "out", "o", "", "output directory (default from COVERCROP_OUTPUT_DIR)")
	f.StringVar(&exportName, "name", "", "output file name stem (default: format id)")
	f.BoolVar(&exportSaveSession, "save-session", true, "write <file>.session.json next to the cover")
	f.BoolVar(&exportShare, "share", false, "print a share request for the written cover")
	f.BoolVar(&exportReset, "reset", false, "start from the neutral state instead of --state or --resume")

	f.Float64Var(&exportScale, "scale", 1, "zoom over the cover-fit crop")
	f.Float64Var(&exportTX, "tx", 0, "horizontal pan in working-image pixels")
	f.Float64Var(&exportTY, "ty", 0, "vertical pan in working-image pixels")
	f.Float64Var(&exportRotate, "rotate", 0, "clockwise rotation in degrees")
	f.Float64Var(&exportBrightness, "brightness", 0, "brightness offset -100..100")
	f.Float64Var(&exportContrast, "contrast", 0, "contrast offset -100..100")
	f.Float64Var(&exportSaturation, "saturation", 0, "saturation offset -100..100")
	f.BoolVar(&exportBW, "bw", false, "grayscale output")
	f.BoolVar(&exportDither, "dither", false, "dither grayscale output for e-ink")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, ok, err := host.PathPicker{Path: args[0]}.Pick(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no file picked")
	}

	quality := exportQuality
	if quality == 0 {
		quality = cfg.Export.Quality
	}
	mimeType := exportMIME
	if mimeType == "" {
		mimeType = cfg.Export.MIMEType
	}
	cc := cropperConfig(export.Options{MIMEType: mimeType, Quality: quality, Name: exportName})

	var s *cropper.Session
	if exportResume != "" {
		rec, err := session.ReadJSON(exportResume)
		if err != nil {
			return err
		}
		logVerbose("resuming %s (format %s, saved %s)", exportResume, rec.FormatID, rec.SavedAt)
		s, err = cropper.Resume(ctx, src, rec, cc)
		if err != nil {
			return err
		}
	} else {
		in, err := exportInput(src.FileName)
		if err != nil {
			return err
		}
		in.Source = src
		s, err = cropper.Open(ctx, in, cc)
		if err != nil {
			return err
		}
	}
	if exportReset {
		s.Reset()
		logVerbose("edit state reset to neutral")
	}
	if err := s.Update(func(st editstate.CoverCropState) editstate.CoverCropState {
		return applyStateFlags(cmd, st)
	}); err != nil {
		return fmt.Errorf("edit state: %w", err)
	}
	if w := s.Warning(); w != nil {
		fmt.Fprintf(os.Stderr, "  ! %s is %dx%d; at least %dx%d is needed\n", src.FileName, w.ImgW, w.ImgH, w.MinW, w.MinH)
	}
	logVerbose("target %s, state %+v", s.Target(), s.State())

	res, err := s.Export(ctx)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, exportOutDir)
	if err != nil {
		return err
	}
	p, err := st.Write(ctx, res.File.FileName, res.File.Data, store.WriteOptions{MIMEType: res.File.MIMEType})
	if err != nil {
		return fmt.Errorf("write cover: %w", err)
	}
	fmt.Printf("  ✓ %s  %s  %s\n", p, res.File.MIMEType, formatBytes(res.File.Len()))

	if exportSaveSession {
		rec := s.Record()
		rec.Export.Path = p
		data, err := rec.Marshal()
		if err != nil {
			return err
		}
		sp, err := st.Write(ctx, session.FileName(src.FileName), data, store.WriteOptions{MIMEType: "application/json"})
		if err != nil {
			return fmt.Errorf("write session: %w", err)
		}
		logVerbose("session saved to %s", sp)
	}

	if exportShare {
		return host.PrintSharer{W: os.Stdout}.Share(ctx, host.ShareRequest{
			Title: "Cover",
			Text:  fmt.Sprintf("%s cover for %s", s.FormatID(), src.FileName),
			Files: []string{p},
		})
	}
	return nil
}

// exportInput resolves the target flags and the --state file.
func exportInput(fileName string) (cropper.Input, error) {
	var in cropper.Input

	if exportWidth > 0 || exportHeight > 0 {
		tg := target.CropTarget{Width: exportWidth, Height: exportHeight, Output: target.OutputTarget}
		if exportOutput != "" {
			tg.Output = target.Output(exportOutput)
		}
		if err := tg.Validate(); err != nil {
			return in, err
		}
		in.FormatID = "custom"
		in.Target = &tg
	} else {
		f := resolveFormat(exportFormat)
		in.FormatID = f.ID
		if exportOutput != "" {
			tg := f.Target
			tg.Output = target.Output(exportOutput)
			in.Target = &tg
		}
	}

	if exportStateFile != "" {
		data, err := os.ReadFile(exportStateFile)
		if err != nil {
			return in, fmt.Errorf("read state: %w", err)
		}
		state := editstate.Neutral()
		if err := json.Unmarshal(data, &state); err != nil {
			return in, fmt.Errorf("parse state: %w", err)
		}
		in.Prior = &state
		logVerbose("state from %s for %s", exportStateFile, fileName)
	}
	return in, nil
}

// applyStateFlags overrides the fields whose flags were set explicitly.
func applyStateFlags(cmd *cobra.Command, st editstate.CoverCropState) editstate.CoverCropState {
	f := cmd.Flags()
	if f.Changed("scale") {
		st = st.WithScale(exportScale)
	}
	if f.Changed("tx") || f.Changed("ty") {
		tx, ty := st.TX, st.TY
		if f.Changed("tx") {
			tx = exportTX
		}
		if f.Changed("ty") {
			ty = exportTY
		}
		st = st.WithTranslation(tx, ty)
	}
	if f.Changed("rotate") {
		st = st.WithRotation(exportRotate)
	}
	if f.Changed("brightness") || f.Changed("contrast") || f.Changed("saturation") {
		b, c, s := st.Brightness, st.Contrast, st.Saturation
		if f.Changed("brightness") {
			b = exportBrightness
		}
		if f.Changed("contrast") {
			c = exportContrast
		}
		if f.Changed("saturation") {
			s = exportSaturation
		}
		st = st.WithAdjustments(b, c, s)
	}
	if f.Changed("bw") || f.Changed("dither") {
		bw, dither := st.BW, st.Dither
		if f.Changed("bw") {
			bw = exportBW
		}
		if f.Changed("dither") {
			dither = exportDither
		}
		st.BW, st.Dither = bw, dither
	}
	return st
}
