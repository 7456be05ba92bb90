package probe

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img
}

func TestGetDimensions_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(64, 48), nil); err != nil {
		t.Fatal(err)
	}
	d, ok := GetDimensions(imagefile.FromBytes(buf.Bytes(), "", "a.jpg"))
	if !ok {
		t.Fatal("expected dims")
	}
	if d.Width != 64 || d.Height != 48 {
		t.Errorf("got %s, want 64x48", d)
	}
	if Orientation(imagefile.FromBytes(buf.Bytes(), "", "")) != 0 {
		t.Error("stdlib JPEG carries no EXIF orientation")
	}
}

func TestGetDimensions_LazyPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cover.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, gradient(30, 70)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src, err := imagefile.FromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := GetDimensions(src)
	if !ok || d.Width != 30 || d.Height != 70 {
		t.Errorf("got %s ok=%v, want 30x70", d, ok)
	}
}

func TestGetDimensions_Garbage(t *testing.T) {
	_, ok := GetDimensions(imagefile.FromBytes([]byte("definitely not an image"), imagefile.MIMEJPEG, ""))
	if ok {
		t.Error("expected failure for garbage bytes")
	}
	_, ok = GetDimensions(imagefile.Source{MIMEType: imagefile.MIMEPNG})
	if ok {
		t.Error("expected failure for empty source")
	}
}

// withOrientation splices an APP1 segment carrying a one-entry IFD0 with
// the given orientation right after the JPEG SOI marker.
func withOrientation(jpg []byte, o uint16) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("MM\x00\x2a")
	binary.Write(&tiff, binary.BigEndian, uint32(8))
	binary.Write(&tiff, binary.BigEndian, uint16(1))
	binary.Write(&tiff, binary.BigEndian, [4]uint16{0x0112, 3, 0, 1}) // tag, SHORT, count
	binary.Write(&tiff, binary.BigEndian, [2]uint16{o, 0})
	binary.Write(&tiff, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

// orientedTIFF is an uncompressed 4x2 gray TIFF whose IFD0 says
// orientation 6.
func orientedTIFF() []byte {
	type entry struct {
		tag, typ uint16
		val      uint32
	}
	const dataOff = 8 + 2 + 10*12 + 4
	entries := []entry{
		{256, 3, 4}, {257, 3, 2}, {258, 3, 8}, {259, 3, 1}, {262, 3, 1},
		{273, 4, dataOff}, {274, 3, 6}, {277, 3, 1}, {278, 3, 2}, {279, 4, 8},
	}
	le := binary.LittleEndian
	var buf bytes.Buffer
	buf.WriteString("II\x2a\x00")
	binary.Write(&buf, le, uint32(8))
	binary.Write(&buf, le, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, le, e.tag)
		binary.Write(&buf, le, e.typ)
		binary.Write(&buf, le, uint32(1))
		if e.typ == 3 {
			binary.Write(&buf, le, [2]uint16{uint16(e.val), 0})
		} else {
			binary.Write(&buf, le, e.val)
		}
	}
	binary.Write(&buf, le, uint32(0))
	buf.Write([]byte{0, 64, 128, 255, 255, 128, 64, 0})
	return buf.Bytes()
}

func TestGetDimensions_OrientedJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(40, 20), nil); err != nil {
		t.Fatal(err)
	}
	src := imagefile.FromBytes(withOrientation(buf.Bytes(), 6), imagefile.MIMEJPEG, "phone.jpg")

	if o := Orientation(src); o != 6 {
		t.Fatalf("orientation: got %d, want 6", o)
	}
	d, ok := GetDimensions(src)
	if !ok {
		t.Fatal("expected dims")
	}
	if d.Width != 20 || d.Height != 40 {
		t.Errorf("got %s, want 20x40", d)
	}
}

func TestGetDimensions_OrientedJPEGUpright(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(40, 20), nil); err != nil {
		t.Fatal(err)
	}
	src := imagefile.FromBytes(withOrientation(buf.Bytes(), 3), imagefile.MIMEJPEG, "")
	d, _ := GetDimensions(src)
	if d.Width != 40 || d.Height != 20 {
		t.Errorf("a 180 degree turn keeps the extents, got %s", d)
	}
}

func TestGetDimensions_TIFFOrientationIgnored(t *testing.T) {
	src := imagefile.FromBytes(orientedTIFF(), imagefile.MIMETIFF, "scan.tiff")
	if o := Orientation(src); o != 6 {
		t.Fatalf("orientation: got %d, want 6", o)
	}
	d, ok := GetDimensions(src)
	if !ok {
		t.Fatal("expected dims")
	}
	if d.Width != 4 || d.Height != 2 {
		t.Errorf("got %s, want the stored 4x2", d)
	}
}
