package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores files under a root directory.
type Local struct {
	Root string
}

// NewLocal returns a Local store, creating root if needed.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Local{Root: abs}, nil
}

func (l *Local) path(dir, name string) (string, error) {
	p := filepath.Join(l.Root, filepath.FromSlash(dir), filepath.FromSlash(name))
	rel, err := filepath.Rel(l.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes store root", filepath.Join(dir, name))
	}
	return p, nil
}

func (l *Local) Write(ctx context.Context, name string, data []byte, opts WriteOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := l.path(opts.Directory, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	// write-then-rename so readers never see a partial file
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return p, nil
}

func (l *Local) Read(ctx context.Context, name string, opts ReadOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.path(opts.Directory, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
