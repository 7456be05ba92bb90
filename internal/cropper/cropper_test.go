package cropper

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"

	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/AnyUserName/covercrop/internal/pipeline"
	"github.com/AnyUserName/covercrop/internal/probe"
	"github.com/AnyUserName/covercrop/internal/target"
)

func jpegSource(t *testing.T, w, h int) imagefile.Source {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 256), G: 140, B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return imagefile.FromBytes(buf.Bytes(), imagefile.MIMEJPEG, "cover.jpg")
}

func testConfig() Config {
	return Config{Pipeline: pipeline.DefaultConfig()}
}

func TestOpenResolvesFormat(t *testing.T) {
	s, err := Open(context.Background(), Input{Source: jpegSource(t, 300, 400), FormatID: "kindle-basic"}, testConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.FormatID() != "kindle-basic" || s.Target().Width != 600 {
		t.Errorf("format: %s %s", s.FormatID(), s.Target())
	}
	if s.State() != editstate.Neutral() {
		t.Errorf("initial state should be neutral: %+v", s.State())
	}
	if s.Warning() == nil {
		t.Error("300x400 should warn against 600x800")
	}

	s, err = Open(context.Background(), Input{Source: jpegSource(t, 300, 400), FormatID: "no-such-format"}, testConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.FormatID() != target.DefaultFormatID {
		t.Errorf("unknown format should fall back, got %s", s.FormatID())
	}
}

func TestOpenRejectsInvalidPrior(t *testing.T) {
	prior := editstate.CoverCropState{Scale: 0}
	_, err := Open(context.Background(), Input{Source: jpegSource(t, 30, 40), Prior: &prior}, testConfig())
	if err == nil {
		t.Fatal("expected an error for a zero-scale prior state")
	}
}

func TestApplyAndUndo(t *testing.T) {
	s, err := Open(context.Background(), Input{Source: jpegSource(t, 90, 120)}, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Update(editstate.CoverCropState.RotateRight); err != nil {
		t.Fatal(err)
	}
	if s.State().Rot != 90 {
		t.Errorf("rot: got %v", s.State().Rot)
	}
	if err := s.Apply(s.State().WithScale(-1)); err == nil {
		t.Error("negative scale must be rejected")
	}
	if s.State().Scale != 1 {
		t.Errorf("rejected state must not replace the current one: %+v", s.State())
	}
	if !s.Undo() {
		t.Fatal("expected one undo step")
	}
	if s.State() != editstate.Neutral() {
		t.Errorf("undo should restore neutral, got %+v", s.State())
	}
	if s.Undo() {
		t.Error("history should be empty")
	}
}

func TestResetIsUndoable(t *testing.T) {
	prior := editstate.Neutral().WithRotation(30).WithScale(1.5)
	prior.BW = true
	s, err := Open(context.Background(), Input{Source: jpegSource(t, 90, 120), FormatID: "kindle-basic", Prior: &prior}, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	s.Reset()
	if s.State() != editstate.Neutral() {
		t.Errorf("reset: got %+v", s.State())
	}
	if s.FormatID() != "kindle-basic" {
		t.Errorf("reset must keep the format, got %q", s.FormatID())
	}
	if !s.Undo() {
		t.Fatal("reset should be undoable")
	}
	if s.State() != prior {
		t.Errorf("undo after reset: got %+v, want %+v", s.State(), prior)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.History = 3
	s, err := Open(context.Background(), Input{Source: jpegSource(t, 30, 40)}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 10; i++ {
		if err := s.Apply(s.State().WithScale(float64(i))); err != nil {
			t.Fatal(err)
		}
	}
	n := 0
	for s.Undo() {
		n++
	}
	if n != 3 {
		t.Errorf("undo steps: got %d, want 3", n)
	}
}

func TestExportAdoptsEffectiveState(t *testing.T) {
	tg := target.CropTarget{Width: 60, Height: 80, Output: target.OutputTarget}
	s, err := Open(context.Background(), Input{Source: jpegSource(t, 300, 400), Target: &tg}, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	// far outside the frame: the exporter clamps the pan
	if err := s.Apply(editstate.Neutral().WithScale(2).WithTranslation(10000, 0)); err != nil {
		t.Fatal(err)
	}
	rect, eff := s.Preview()
	if rect.Dx() != 150 || rect.Dy() != 200 {
		t.Errorf("preview rect: %v", rect)
	}

	res, err := s.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.State.TX != eff.TX || res.State.TX >= 10000 {
		t.Errorf("effective tx: export %v, preview %v", res.State.TX, eff.TX)
	}
	if s.State() != res.State {
		t.Errorf("session should adopt effective state")
	}
	d, ok := probe.GetDimensions(res.File)
	if !ok || d != (imagefile.Dims{Width: 60, Height: 80}) {
		t.Errorf("export dims: %s ok=%v", d, ok)
	}

	rec := s.Record()
	if rec.Export == nil || rec.Export.Width != 60 || rec.State != res.State {
		t.Errorf("record: %+v", rec)
	}
	if rec.Source == nil || rec.Source.Width != 300 || len(rec.Source.Hash) != 16 {
		t.Errorf("record source: %+v", rec.Source)
	}
}

func TestExportCanceledKeepsState(t *testing.T) {
	s, err := Open(context.Background(), Input{Source: jpegSource(t, 30, 40)}, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	want := editstate.Neutral().WithTranslation(3, 4).WithAdjustments(10, 20, 30)
	if err := s.Apply(want); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Export(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if s.State() != want {
		t.Errorf("state changed after failed export: %+v", s.State())
	}
	if s.Record().Export != nil {
		t.Error("no export info before a successful export")
	}
}

func TestResume(t *testing.T) {
	src := jpegSource(t, 120, 160)
	s, err := Open(context.Background(), Input{Source: src, FormatID: "kobo-clara"}, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(editstate.Neutral().WithRotation(-90).WithColorMode(editstate.GrayscaleDither)); err != nil {
		t.Fatal(err)
	}
	rec := s.Record()

	r, err := Resume(context.Background(), src, rec, testConfig())
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if r.FormatID() != "kobo-clara" || r.State() != s.State() {
		t.Errorf("resumed %s %+v", r.FormatID(), r.State())
	}
	if math.Abs(r.State().Rot-270) > 1e-9 {
		t.Errorf("rot: %v", r.State().Rot)
	}
}

func TestRunDitheredDefaultsToPNG(t *testing.T) {
	prior := editstate.Neutral().WithColorMode(editstate.GrayscaleDither)
	res, err := Run(context.Background(), Input{Source: jpegSource(t, 60, 80), FormatID: "original", Prior: &prior}, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.File.MIMEType != imagefile.MIMEPNG {
		t.Errorf("mime: got %s", res.File.MIMEType)
	}
	if res.Target.Output != target.OutputSource {
		t.Errorf("output: %s", res.Target.Output)
	}
}

func TestSetTargetRecomputesWarning(t *testing.T) {
	s, err := Open(context.Background(), Input{Source: jpegSource(t, 300, 400), FormatID: "original"}, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if s.Warning() != nil {
		t.Fatalf("3x4 source target should not warn: %+v", s.Warning())
	}
	if err := s.SetTarget("remarkable", nil); err != nil {
		t.Fatal(err)
	}
	if s.Warning() == nil {
		t.Error("300x400 should warn against remarkable")
	}
}
