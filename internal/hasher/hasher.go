// Package hasher computes short content hashes used in suggested file names
// and in session fingerprints.
package hasher

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the xxHash64 of data as lowercase hex, truncated to
// hexLen characters when 0 < hexLen < 16.
func ContentHash(data []byte, hexLen int) string {
	return truncate(xxhash.Sum64(data), hexLen)
}

func truncate(sum uint64, hexLen int) string {
	full := fmt.Sprintf("%016x", sum)
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
