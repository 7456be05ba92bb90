package imagefile

import (
	"bytes"
	"strings"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
	MIMEGIF  = "image/gif"
	MIMEBMP  = "image/bmp"
	MIMETIFF = "image/tiff"
)

// extMIME maps recognized image file extensions to MIME types.
var extMIME = map[string]string{
	".png":  MIMEPNG,
	".jpg":  MIMEJPEG,
	".jpeg": MIMEJPEG,
	".webp": MIMEWebP,
	".gif":  MIMEGIF,
	".bmp":  MIMEBMP,
	".tiff": MIMETIFF,
	".tif":  MIMETIFF,
}

// MIMEFromExt returns the MIME type for an extension (with or without the
// leading dot), or "" when the extension is not an image type.
func MIMEFromExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return extMIME[ext]
}

// IsImageExt reports whether ext is a recognized image extension.
func IsImageExt(ext string) bool { return MIMEFromExt(ext) != "" }

// ExtFromMIME returns the preferred extension for a MIME type, without dot.
func ExtFromMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case MIMEJPEG:
		return "jpg"
	case MIMEPNG:
		return "png"
	case MIMEWebP:
		return "webp"
	case MIMEGIF:
		return "gif"
	case MIMEBMP:
		return "bmp"
	case MIMETIFF:
		return "tiff"
	}
	return "bin"
}

// DetectMIME sniffs the magic bytes and falls back to the file name.
func DetectMIME(data []byte, fileName string) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return MIMEJPEG
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return MIMEPNG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return MIMEGIF
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return MIMEWebP
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return MIMETIFF
	case bytes.HasPrefix(data, []byte("BM")):
		return MIMEBMP
	}
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		return MIMEFromExt(fileName[i:])
	}
	return ""
}
