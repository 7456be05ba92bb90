// Package imagefile holds the data model shared by every pipeline stage:
// the image source record, pixel dimensions and the failure taxonomy.
package imagefile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source is one image file as it moves through the pipeline.
// Stages never modify a Source; each produces a new one.
type Source struct {
	// Data is the fully resident file content. It is nil for a lazy source
	// until MaterializeFile reads it.
	Data []byte
	// MIMEType is the declared type, e.g. "image/jpeg".
	MIMEType string
	// FileName is optional and only used for extension checks and naming.
	FileName string
	// Open streams the content of a lazy source.
	Open func() (io.ReadCloser, error)
	// Size is the byte length, known up front for lazy sources.
	Size int64
}

// Len returns the byte length of the source.
func (s Source) Len() int64 {
	if s.Data != nil {
		return int64(len(s.Data))
	}
	return s.Size
}

// Resident reports whether the bytes are already in memory.
func (s Source) Resident() bool { return s.Data != nil }

// Ext returns the lowercase file name extension including the dot.
func (s Source) Ext() string {
	return strings.ToLower(filepath.Ext(s.FileName))
}

// FromBytes wraps an in-memory buffer.
func FromBytes(data []byte, mimeType, fileName string) Source {
	if mimeType == "" {
		mimeType = DetectMIME(data, fileName)
	}
	return Source{Data: data, MIMEType: mimeType, FileName: fileName, Size: int64(len(data))}
}

// FromPath creates a lazy source backed by a file on disk. The MIME type
// is taken from the extension; nothing is read until the source is opened.
func FromPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}
	return Source{
		MIMEType: MIMEFromExt(filepath.Ext(path)),
		FileName: filepath.Base(path),
		Size:     info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Dims is a pixel extent. Valid dims are strictly positive.
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both sides are positive.
func (d Dims) Valid() bool { return d.Width > 0 && d.Height > 0 }

// LongSide returns max(width, height).
func (d Dims) LongSide() int {
	if d.Width > d.Height {
		return d.Width
	}
	return d.Height
}

func (d Dims) String() string { return fmt.Sprintf("%dx%d", d.Width, d.Height) }
