package hashutil

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ShortLen is the number of hex digits used in file names
const ShortLen = 8

// Checksum returns the 16-digit hex xxhash of content
func Checksum(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// Short returns the checksum prefix used in [hash] and asset names
func Short(content []byte) string {
	return Checksum(content)[:ShortLen]
}
