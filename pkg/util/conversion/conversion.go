package conversion

import (
	"encoding/binary"
	"fmt"
)

// UInt64ToBinary encodes i as a big-endian bytestring of exactly numBytes
// bytes. It fails if the value does not fit, so callers packing a match-field
// value against its declared bitwidth get an error instead of a silently
// truncated encoding.
func UInt64ToBinary(i uint64, numBytes int) ([]byte, error) {
	if numBytes <= 0 || numBytes > 8 {
		return nil, fmt.Errorf("invalid byte count %d", numBytes)
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, i)
	for _, lead := range b[:8-numBytes] {
		if lead != 0 {
			return nil, fmt.Errorf("value %#x does not fit in %d bytes", i, numBytes)
		}
	}
	return b[8-numBytes:], nil
}

// BinaryCompressedToUint64 decodes a big-endian bytestring of up to 8 bytes.
func BinaryCompressedToUint64(bytes []byte) uint64 {
	buff := make([]byte, 8)
	copy(buff[8-len(bytes):], bytes)
	return binary.BigEndian.Uint64(buff)
}

// ToCanonicalBytestring strips leading zero bytes, per the P4Runtime
// canonical bytestring representation. An all-zero input keeps a single zero
// byte.
func ToCanonicalBytestring(bytes []byte) []byte {
	if len(bytes) == 0 {
		return bytes
	}
	i := 0
	for _, b := range bytes {
		if b != 0 {
			break
		}
		i++
	}
	if i == len(bytes) {
		return bytes[:1]
	}
	return bytes[i:]
}
