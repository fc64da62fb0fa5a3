package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUInt64ToBinary(t *testing.T) {
	testCases := []struct {
		in       uint64
		numBytes int
		out      []byte
		fails    bool
	}{
		{0x02, 1, []byte{'\x02'}, false},
		{0x02, 2, []byte{'\x00', '\x02'}, false},
		{0x3064, 2, []byte{'\x30', '\x64'}, false},
		{0, 1, []byte{'\x00'}, false},
		{0x100, 1, nil, true},
		{0x02, 0, nil, true},
		{0x02, 9, nil, true},
	}

	for _, tc := range testCases {
		out, err := UInt64ToBinary(tc.in, tc.numBytes)
		if tc.fails {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tc.out, out)
	}
}

func TestBinaryCompressedToUint64(t *testing.T) {
	nums := []uint64{0, 2, 64, 1024, 10240}
	for _, n := range nums {
		encoded, err := UInt64ToBinary(n, 8)
		assert.NoError(t, err)
		assert.Equal(t, n, BinaryCompressedToUint64(encoded))
		assert.Equal(t, n, BinaryCompressedToUint64(ToCanonicalBytestring(encoded)))
	}
}

func TestToCanonicalBytestring(t *testing.T) {
	testCases := []struct {
		in  []byte
		out []byte
	}{
		{nil, nil},
		{[]byte{}, []byte{}},
		{[]byte{'\x00'}, []byte{'\x00'}},
		{[]byte{'\x00', '\x00', '\x00'}, []byte{'\x00'}},
		{[]byte{'\xab'}, []byte{'\xab'}},
		{[]byte{'\x00', '\xab'}, []byte{'\xab'}},
		{[]byte{'\xab', '\x00', '\xcd', '\x00'}, []byte{'\xab', '\x00', '\xcd', '\x00'}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.out, ToCanonicalBytestring(tc.in))
	}
}
