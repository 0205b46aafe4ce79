// Package checksum hashes file content for dirty tracking and for skipping
// rescans of unchanged files.
package checksum

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the hex-encoded xxhash64 digest of data.
func Sum(data []byte) string {
	return format(xxhash.Sum64(data))
}

// SumString is Sum for string content.
func SumString(s string) string {
	return format(xxhash.Sum64String(s))
}

func format(h uint64) string {
	s := strconv.FormatUint(h, 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
