package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathPicker(t *testing.T) {
	_, ok, err := PathPicker{}.Pick(context.Background())
	if ok || err != nil {
		t.Errorf("empty path should cancel: ok=%v err=%v", ok, err)
	}

	path := filepath.Join(t.TempDir(), "x.jpg")
	os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF}, 0o644)
	src, ok, err := PathPicker{Path: path}.Pick(context.Background())
	if !ok || err != nil || src.FileName != "x.jpg" {
		t.Errorf("pick: %+v %v %v", src, ok, err)
	}
}

func TestPrintSharer(t *testing.T) {
	var buf bytes.Buffer
	err := PrintSharer{W: &buf}.Share(context.Background(), ShareRequest{Title: "Cover ready", Files: []string{"/tmp/a.jpg"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Cover ready") || !strings.Contains(buf.String(), "/tmp/a.jpg") {
		t.Errorf("output: %q", buf.String())
	}
}
