package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

// ScannedFile is an image file discovered on disk.
type ScannedFile struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input directory.
	RelPath string
	// Key is the relative path without extension, using forward slashes.
	Key      string
	MIMEType string
	Size     int64
}

// ScanImages walks dir and returns every file with an image extension.
// Hidden files and directories are skipped.
func ScanImages(dir string) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if hidden(info.Name()) && path != dir {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		f, ok := scanned(dir, path, info)
		if ok {
			files = append(files, f)
		}
		return nil
	})
	return files, err
}

func scanned(dir, path string, info os.FileInfo) (ScannedFile, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !imagefile.IsImageExt(ext) {
		return ScannedFile{}, false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return ScannedFile{}, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ScannedFile{}, false
	}
	return ScannedFile{
		AbsPath:  abs,
		RelPath:  filepath.ToSlash(rel),
		Key:      filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))),
		MIMEType: imagefile.MIMEFromExt(ext),
		Size:     info.Size(),
	}, true
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
