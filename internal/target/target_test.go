package target

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCropTargetValidate(t *testing.T) {
	if err := (CropTarget{Width: 600, Height: 800, Output: OutputTarget}).Validate(); err != nil {
		t.Errorf("valid target rejected: %v", err)
	}
	bad := []CropTarget{
		{Width: 0, Height: 800, Output: OutputTarget},
		{Width: 600, Height: -1, Output: OutputSource},
		{Width: 600, Height: 800, Output: "stretch"},
	}
	for _, tg := range bad {
		if err := tg.Validate(); err == nil {
			t.Errorf("%+v should be invalid", tg)
		}
	}
}

func TestGetFallsBack(t *testing.T) {
	f, ok := Get("kindle-basic")
	if !ok || f.Target.Width != 600 || f.Target.Height != 800 {
		t.Errorf("kindle-basic: got %+v ok=%v", f, ok)
	}
	f, ok = Get("no-such-reader")
	if ok || f.ID != DefaultFormatID {
		t.Errorf("fallback: got %+v ok=%v", f, ok)
	}
	for _, f := range All() {
		if err := f.Target.Validate(); err != nil {
			t.Errorf("built-in %s invalid: %v", f.ID, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.yaml")
	content := `formats:
  - id: Boox-Note
    label: Boox Note Air
    target:
      width: 1404
      height: 1872
  - id: square-source
    target: { width: 1, height: 1, output: source }
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Errorf("registered %d formats", n)
	}
	f, ok := Get("boox-note")
	if !ok || f.Target.Output != OutputTarget || f.Label != "Boox Note Air" {
		t.Errorf("boox-note: got %+v ok=%v", f, ok)
	}
	if f, _ := Get("square-source"); f.Target.Output != OutputSource {
		t.Errorf("square-source output: %q", f.Target.Output)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formats.yaml")
	os.WriteFile(path, []byte("formats:\n  - id: broken\n    target: { width: 0, height: 10 }\n"), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for zero width")
	}
}
