package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AnyUserName/covercrop/internal/imagefile"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStage(t *testing.T) {
	m := New()
	m.ObserveStage("normalize", time.Now(), nil)
	m.ObserveStage("normalize", time.Now(), imagefile.CorruptError("decode", errors.New("eof")))
	m.ObserveStage("export", time.Now(), errors.New("disk full"))

	if got := testutil.ToFloat64(m.failures.WithLabelValues("normalize", "Corrupt")); got != 1 {
		t.Errorf("corrupt failures: %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("export", "other")); got != 1 {
		t.Errorf("other failures: %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveStage("x", time.Now(), nil)
	m.Export("target", "color", 10)
	m.SmallImageWarning()
	if err := m.WriteTextfile("/nonexistent/dir/file.prom"); err != nil {
		t.Errorf("nil metrics should not write: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Export("target", "grayscale", 1234)
	m.SmallImageWarning()

	path := filepath.Join(t.TempDir(), "covercrop.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"covercrop_exports_total", "covercrop_export_bytes_total 1234", "covercrop_small_image_warnings_total 1"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
