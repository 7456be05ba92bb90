package encoder

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

// cwebpTimeout bounds a single cwebp invocation.
const cwebpTimeout = 2 * time.Minute

// WebPEncoder encodes images to WebP by shelling out to cwebp, which keeps
// the build free of cgo. Go has a WebP decoder but no encoder.
// Install: brew install webp / apt install webp
type WebPEncoder struct {
	once sync.Once
	path string
}

func (e *WebPEncoder) MIMEType() string  { return imagefile.MIMEWebP }
func (e *WebPEncoder) Extension() string { return "webp" }

func (e *WebPEncoder) Available() bool {
	e.once.Do(func() {
		if p, err := exec.LookPath("cwebp"); err == nil {
			e.path = p
		}
	})
	return e.path != ""
}

// Encode stages img as PNG in a private temp dir, runs cwebp on it and
// returns the result. Quality 1-100 maps to cwebp -q.
func (e *WebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("cwebp not found in PATH; install the webp package")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	dir, err := os.MkdirTemp("", "covercrop-webp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.webp")
	if err := writePNG(in, img); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cwebpTimeout)
	defer cancel()
	args := []string{"-q", strconv.Itoa(quality), "-m", "6", "-mt", "-quiet", in, "-o", out}
	if msg, err := exec.CommandContext(ctx, e.path, args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cwebp: %w: %s", err, msg)
	}
	return os.ReadFile(out)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stage png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("stage png: %w", err)
	}
	return f.Close()
}
