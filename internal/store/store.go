// Package store implements the file read/write contracts the pipeline
// hands exported covers and sessions to.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the object does not exist.
var ErrNotFound = errors.New("not found")

// WriteOptions mirrors write(path, data, {mimeType, directory}).
type WriteOptions struct {
	MIMEType  string
	Directory string
}

// ReadOptions mirrors read(path, {directory}).
type ReadOptions struct {
	Directory string
}

// Store persists files. Write returns the location it wrote to.
type Store interface {
	Write(ctx context.Context, name string, data []byte, opts WriteOptions) (string, error)
	Read(ctx context.Context, name string, opts ReadOptions) ([]byte, error)
}
