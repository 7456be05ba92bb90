//go:build ignore

// gen_fixtures writes sample pictures for a covercrop batch smoke run:
// a landscape photo to crop, a portrait scan that already fits, a picture
// too small for any e-reader format and a broken file.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(filepath.Join(dir, "scans"), 0o755); err != nil {
		panic(err)
	}

	writeJPEG(filepath.Join(dir, "landscape.jpg"), sky(1600, 1200))
	for i := 1; i <= 2; i++ {
		writePNG(filepath.Join(dir, "scans", fmt.Sprintf("page-%d.png", i)), framedTitle(900, 1200, uint8(i*70)))
	}
	writeJPEG(filepath.Join(dir, "thumb.jpg"), sky(200, 150))
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 5 fixtures in %s\n", dir)
}

// sky is a vertical gradient with a dark horizon band, useful to spot
// crop offsets by eye.
func sky(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	horizon := h * 2 / 3
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: uint8(60 + y*120/h), G: uint8(120 + y*100/h), B: 230, A: 255}
			if y >= horizon {
				c = color.NRGBA{R: 40, G: uint8(90 + x*60/w), B: 30, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// framedTitle is a flat page with a white border and a title block.
func framedTitle(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			switch {
			case x < 12 || x >= w-12 || y < 12 || y >= h-12:
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			case y > h/5 && y < h/3 && x > w/6 && x < w*5/6:
				c = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		panic(err)
	}
}
