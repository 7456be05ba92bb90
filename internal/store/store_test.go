package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLocal_WriteRead(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	p, err := s.Write(ctx, "cover.jpg", []byte("jpeg bytes"), WriteOptions{MIMEType: "image/jpeg", Directory: "exports"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if p == "" {
		t.Error("write should return its location")
	}
	data, err := s.Read(ctx, "cover.jpg", ReadOptions{Directory: "exports"})
	if err != nil || !bytes.Equal(data, []byte("jpeg bytes")) {
		t.Errorf("read: %q %v", data, err)
	}
}

func TestLocal_NotFound(t *testing.T) {
	s, _ := NewLocal(t.TempDir())
	_, err := s.Read(context.Background(), "missing.png", ReadOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocal_RejectsEscape(t *testing.T) {
	s, _ := NewLocal(t.TempDir())
	if _, err := s.Write(context.Background(), "../../etc/passwd", nil, WriteOptions{}); err == nil {
		t.Error("path traversal must be rejected")
	}
}

func TestObjectKey(t *testing.T) {
	cases := map[[2]string]string{
		{"", "a.jpg"}:         "a.jpg",
		{"covers", "a.jpg"}:   "covers/a.jpg",
		{"/covers/", "a.jpg"}: "covers/a.jpg",
	}
	for in, want := range cases {
		if got := ObjectKey(in[0], in[1]); got != want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestNewMinio_RequiresBucket(t *testing.T) {
	if _, err := NewMinio(MinioConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Error("expected error without bucket")
	}
	m, err := NewMinio(MinioConfig{Endpoint: "localhost:9000", Bucket: "covers"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var _ Store = m
}
