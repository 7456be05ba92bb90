// Package pipeline chains the stages from a picked file to a working image
// and runs them over whole directories.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AnyUserName/covercrop/internal/advisor"
	"github.com/AnyUserName/covercrop/internal/encoder"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/metrics"
	"github.com/AnyUserName/covercrop/internal/normalize"
	"github.com/AnyUserName/covercrop/internal/probe"
	"github.com/AnyUserName/covercrop/internal/target"
	"github.com/AnyUserName/covercrop/internal/telemetry"
	"github.com/AnyUserName/covercrop/internal/validate"
	"github.com/AnyUserName/covercrop/internal/working"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds the parameters shared by every pipeline run.
type Config struct {
	Validation validate.Options
	Working    working.Options
	// MaxUpscale is the advisor tolerance; 0 means advisor.DefaultMaxUpscale.
	MaxUpscale float64
	Registry   *encoder.Registry
	Metrics    *metrics.Metrics
	// Logger is optional; nil is silent.
	Logger *log.Logger
}

// DefaultConfig uses the package defaults of every stage.
func DefaultConfig() Config {
	return Config{
		Validation: validate.DefaultOptions(),
		Working:    working.DefaultOptions(),
		MaxUpscale: advisor.DefaultMaxUpscale,
	}
}

func (c Config) maxUpscale() float64 {
	if c.MaxUpscale == 0 {
		return advisor.DefaultMaxUpscale
	}
	return c.MaxUpscale
}

func (c Config) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// Prepared is everything known about a picked image once it is ready for
// editing.
type Prepared struct {
	Original     imagefile.Source
	OriginalDims imagefile.Dims
	Working      imagefile.Source
	WorkingDims  imagefile.Dims
	// Warning is set when the original is too small for the target.
	Warning *advisor.SmallImageWarnParams
}

// Prepare validates, probes, normalizes and bounds src. When tg is not nil
// the small-image advisor runs alongside normalization. Every failure is
// recoverable: the caller may simply pick another image.
func Prepare(ctx context.Context, src imagefile.Source, tg *target.CropTarget, cfg Config) (Prepared, error) {
	var out Prepared

	err := cfg.stage(ctx, "validate", func(context.Context) error {
		return validate.Basic(src, cfg.Validation).Err()
	})
	if err != nil {
		return out, err
	}

	err = cfg.stage(ctx, "probe", func(context.Context) error {
		d, ok := probe.GetDimensions(src)
		if !ok {
			return imagefile.Errorf(imagefile.Corrupt, "cannot read image header")
		}
		if err := validate.Dims(d, cfg.Validation).Err(); err != nil {
			return err
		}
		out.OriginalDims = d
		return nil
	})
	if err != nil {
		return out, err
	}

	warnCh := make(chan *advisor.SmallImageWarnParams, 1)
	if tg != nil {
		dims, tgt := out.OriginalDims, *tg
		go func() {
			warnCh <- advisor.Advise(dims, tgt, cfg.maxUpscale())
		}()
	} else {
		warnCh <- nil
	}

	var normalized imagefile.Source
	err = cfg.stage(ctx, "normalize", func(ctx context.Context) error {
		var err error
		normalized, err = normalize.NormalizeFile(ctx, src)
		return err
	})
	if err != nil {
		<-warnCh
		return out, err
	}
	out.Original = normalized

	err = cfg.stage(ctx, "working", func(ctx context.Context) error {
		reg := cfg.Registry
		if reg == nil {
			reg = encoder.Default
		}
		w, err := working.PrepareWith(ctx, normalized, cfg.Working, reg)
		if err != nil {
			return err
		}
		d, ok := probe.GetDimensions(w)
		if !ok {
			return imagefile.Errorf(imagefile.Corrupt, "working image unreadable")
		}
		out.Working, out.WorkingDims = w, d
		return nil
	})
	out.Warning = <-warnCh
	if err != nil {
		return out, err
	}

	if out.Warning != nil {
		cfg.Metrics.SmallImageWarning()
		cfg.logf("small image: %s needs at least %dx%d", out.OriginalDims, out.Warning.MinW, out.Warning.MinH)
	}
	cfg.logf("prepared %s: original %s, working %s (%d bytes)",
		src.FileName, out.OriginalDims, out.WorkingDims, out.Working.Len())
	return out, nil
}

// stage runs fn inside a span and records its duration.
func (c Config) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, name, attribute.String("stage", name))
	err := fn(ctx)
	telemetry.End(span, err)
	c.Metrics.ObserveStage(name, start, err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
