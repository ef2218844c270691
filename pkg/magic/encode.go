package magic

import "github.com/praetorian-inc/magus/pkg/types"

// EncodeValue renders an integer as length literal bytes in the given byte
// order. Byte i of the little-endian form is (value >> 8i) & 0xFF; big
// endian reverses the sequence. Values wider than length truncate to the
// low bytes, and length <= 0 yields an empty slice. The encoder never
// fails.
func EncodeValue(value uint64, length int, endian types.Endianness) []byte {
	if length <= 0 {
		return []byte{}
	}

	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = byte(value >> (8 * i))
	}

	if endian == types.BigEndian {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
