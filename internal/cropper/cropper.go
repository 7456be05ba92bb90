// Package cropper holds one interactive cover edit: a prepared working
// image, the current edit state and the active target.
package cropper

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/AnyUserName/covercrop/internal/advisor"
	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/export"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/normalize"
	"github.com/AnyUserName/covercrop/internal/pipeline"
	"github.com/AnyUserName/covercrop/internal/session"
	"github.com/AnyUserName/covercrop/internal/target"
	"github.com/AnyUserName/covercrop/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Input starts an edit.
type Input struct {
	Source imagefile.Source
	// FormatID selects a named format. Unknown ids fall back to
	// target.DefaultFormatID.
	FormatID string
	// Target overrides the format's target when set.
	Target *target.CropTarget
	// Prior resumes an earlier edit.
	Prior *editstate.CoverCropState
}

// Result is a finished edit.
type Result struct {
	File     imagefile.Source
	State    editstate.CoverCropState
	FormatID string
	Target   target.CropTarget
}

// Config controls preparation and export.
type Config struct {
	Pipeline pipeline.Config
	Export   export.Options
	// History bounds the undo stack; 0 means DefaultHistory.
	History int
}

// DefaultHistory is the undo depth when Config.History is 0.
const DefaultHistory = 50

// Session is a single-threaded edit. State changes replace the whole
// state value; older values are kept for Undo.
type Session struct {
	cfg      Config
	formatID string
	target   target.CropTarget
	prepared pipeline.Prepared
	img      image.Image
	state    editstate.CoverCropState
	history  []editstate.CoverCropState
	last     *export.Result
}

// Open prepares in.Source and decodes its working image once.
func Open(ctx context.Context, in Input, cfg Config) (*Session, error) {
	formatID, tg, err := resolveTarget(in)
	if err != nil {
		return nil, err
	}
	state := editstate.Neutral()
	if in.Prior != nil {
		if err := in.Prior.Validate(); err != nil {
			return nil, fmt.Errorf("prior state: %w", err)
		}
		state = in.Prior.Normalized()
	}

	prep, err := pipeline.Prepare(ctx, in.Source, &tg, cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	img, err := normalize.Decode(ctx, prep.Working)
	if err != nil {
		return nil, fmt.Errorf("decode working image: %w", err)
	}
	return &Session{
		cfg:      cfg,
		formatID: formatID,
		target:   tg,
		prepared: prep,
		img:      img,
		state:    state,
	}, nil
}

// Resume opens src with the format, target and state of a saved record.
func Resume(ctx context.Context, src imagefile.Source, rec *session.Record, cfg Config) (*Session, error) {
	if errs := rec.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("session record: %s", errs[0])
	}
	tg := rec.Target
	state := rec.State
	return Open(ctx, Input{Source: src, FormatID: rec.FormatID, Target: &tg, Prior: &state}, cfg)
}

func resolveTarget(in Input) (string, target.CropTarget, error) {
	if in.Target != nil {
		if err := in.Target.Validate(); err != nil {
			return "", target.CropTarget{}, err
		}
		return in.FormatID, *in.Target, nil
	}
	f, _ := target.Get(in.FormatID)
	return f.ID, f.Target, nil
}

// State returns the current edit state.
func (s *Session) State() editstate.CoverCropState { return s.state }

// FormatID returns the active format id, possibly empty for custom targets.
func (s *Session) FormatID() string { return s.formatID }

// Target returns the active target.
func (s *Session) Target() target.CropTarget { return s.target }

// Prepared returns the preparation output, including the working image.
func (s *Session) Prepared() pipeline.Prepared { return s.prepared }

// Warning returns the small-image warning for the active target, if any.
func (s *Session) Warning() *advisor.SmallImageWarnParams { return s.prepared.Warning }

// Apply replaces the current state. An invalid state is rejected and the
// current one kept.
func (s *Session) Apply(next editstate.CoverCropState) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.push(s.state)
	s.state = next.Normalized()
	return nil
}

// Update applies fn to the current state, e.g. s.Update(editstate.CoverCropState.RotateRight).
func (s *Session) Update(fn func(editstate.CoverCropState) editstate.CoverCropState) error {
	return s.Apply(fn(s.state))
}

// Undo restores the previous state. It reports false when there is none.
func (s *Session) Undo() bool {
	if len(s.history) == 0 {
		return false
	}
	s.state = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return true
}

// Reset returns to the neutral state.
func (s *Session) Reset() {
	s.push(s.state)
	s.state = editstate.Neutral()
}

func (s *Session) push(st editstate.CoverCropState) {
	limit := s.cfg.History
	if limit <= 0 {
		limit = DefaultHistory
	}
	s.history = append(s.history, st)
	if len(s.history) > limit {
		s.history = s.history[len(s.history)-limit:]
	}
}

// SetTarget switches to another format. The edit state is kept; the
// small-image warning is recomputed for the new target.
func (s *Session) SetTarget(formatID string, tg *target.CropTarget) error {
	id, t, err := resolveTarget(Input{FormatID: formatID, Target: tg})
	if err != nil {
		return err
	}
	s.formatID, s.target = id, t
	s.prepared.Warning = advisor.Advise(s.prepared.OriginalDims, t, s.cfg.Pipeline.MaxUpscale)
	return nil
}

// Preview returns the crop rectangle the current state selects in the
// rotated working frame, with the translation the exporter would use.
func (s *Session) Preview() (image.Rectangle, editstate.CoverCropState) {
	b := export.Rotate(s.img, s.state).Bounds()
	return export.CropRect(imagefile.Dims{Width: b.Dx(), Height: b.Dy()}, s.state, s.target)
}

// Export renders the current state. On success the session adopts the
// effective state; on failure or cancellation it is left untouched.
func (s *Session) Export(ctx context.Context) (Result, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "export",
		attribute.String("format", s.formatID),
		attribute.String("color_mode", s.state.ColorMode().String()))
	res, err := s.export(ctx)
	telemetry.End(span, err)
	s.cfg.Pipeline.Metrics.ObserveStage("export", start, err)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}

	s.cfg.Pipeline.Metrics.Export(string(s.target.Output), res.State.ColorMode().String(), len(res.File.Data))
	s.last = &res
	s.state = res.State
	return Result{File: res.File, State: res.State, FormatID: s.formatID, Target: s.target}, nil
}

func (s *Session) export(ctx context.Context) (export.Result, error) {
	r, err := export.Render(ctx, s.img, s.state, s.target)
	if err != nil {
		return export.Result{}, err
	}
	opts := s.cfg.Export
	if opts.Name == "" {
		opts.Name = s.formatID
	}
	if opts.Registry == nil {
		opts.Registry = s.cfg.Pipeline.Registry
	}
	file, err := export.Encode(ctx, r, opts)
	if err != nil {
		return export.Result{}, err
	}
	b := r.Image.Bounds()
	return export.Result{
		File:  file,
		State: r.State,
		Crop:  r.Crop,
		Frame: r.Frame,
		Dims:  imagefile.Dims{Width: b.Dx(), Height: b.Dy()},
	}, nil
}

// Record snapshots the session for persistence. Export details are
// included once an export succeeded.
func (s *Session) Record() *session.Record {
	if s.last != nil {
		rec := pipeline.Record(s.formatID, s.target, *s.last, s.prepared)
		rec.State = s.state
		return rec
	}
	rec := pipeline.Record(s.formatID, s.target, export.Result{State: s.state}, s.prepared)
	rec.Export = nil
	return rec
}

// Run is the one-shot form: prepare in.Source and export it with the
// prior state, or the neutral state when there is none.
func Run(ctx context.Context, in Input, cfg Config) (Result, error) {
	s, err := Open(ctx, in, cfg)
	if err != nil {
		return Result{}, err
	}
	return s.Export(ctx)
}
