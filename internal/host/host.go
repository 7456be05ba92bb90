// Package host defines the narrow capabilities the cover pipeline needs
// from its embedding application: picking a file and sharing a result.
package host

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/AnyUserName/covercrop/internal/imagefile"
)

// Picker acquires an image. ok is false when the user canceled.
type Picker interface {
	Pick(ctx context.Context) (src imagefile.Source, ok bool, err error)
}

// ShareRequest mirrors share({title, text, files}).
type ShareRequest struct {
	Title string
	Text  string
	Files []string
}

// Sharer hands finished files to the platform.
type Sharer interface {
	Share(ctx context.Context, req ShareRequest) error
}

// PathPicker picks a fixed path; an empty path counts as cancellation.
type PathPicker struct {
	Path string
}

func (p PathPicker) Pick(ctx context.Context) (imagefile.Source, bool, error) {
	if err := ctx.Err(); err != nil {
		return imagefile.Source{}, false, err
	}
	if strings.TrimSpace(p.Path) == "" {
		return imagefile.Source{}, false, nil
	}
	src, err := imagefile.FromPath(p.Path)
	if err != nil {
		return imagefile.Source{}, false, err
	}
	return src, true, nil
}

// PrintSharer writes the shared file list to W, one per line.
type PrintSharer struct {
	W io.Writer
}

func (s PrintSharer) Share(_ context.Context, req ShareRequest) error {
	if req.Title != "" {
		if _, err := fmt.Fprintf(s.W, "%s\n", req.Title); err != nil {
			return err
		}
	}
	for _, f := range req.Files {
		if _, err := fmt.Fprintf(s.W, "  %s\n", f); err != nil {
			return err
		}
	}
	return nil
}
