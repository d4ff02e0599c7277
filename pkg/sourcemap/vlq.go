package sourcemap

import (
	"fmt"
	"strings"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [128]int8

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		base64Values[base64Chars[i]] = int8(i)
	}
}

func encodeVLQ(sb *strings.Builder, value int) {
	var u int
	if value < 0 {
		u = (-value)<<1 | 1
	} else {
		u = value << 1
	}
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		sb.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}

// decodeVLQ reads one value starting at s[i] and returns it with the index
// of the next unread byte.
func decodeVLQ(s string, i int) (int, int, error) {
	result, shift := 0, 0
	for {
		if i >= len(s) {
			return 0, i, fmt.Errorf("truncated VLQ value at offset %d", i)
		}
		c := s[i]
		if c >= 128 || base64Values[c] < 0 {
			return 0, i, fmt.Errorf("invalid VLQ character %q at offset %d", c, i)
		}
		digit := int(base64Values[c])
		i++
		result += (digit & 31) << shift
		shift += 5
		if digit&32 == 0 {
			break
		}
	}
	negative := result&1 == 1
	result >>= 1
	if negative {
		result = -result
	}
	return result, i, nil
}
