package hasher

import "testing"

func TestContentHash(t *testing.T) {
	data := []byte("cover bytes")
	full := ContentHash(data, 0)
	if len(full) != 16 {
		t.Fatalf("full hash length: %d", len(full))
	}
	if short := ContentHash(data, 8); short != full[:8] {
		t.Errorf("truncated hash %q is not a prefix of %q", short, full)
	}
	if ContentHash([]byte("other"), 0) == full {
		t.Error("different content should hash differently")
	}
}
