package serializer

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func h(t *testing.T, s string) []byte {
	t.Helper()
	buf, err := hex.DecodeString(s)
	require.NoError(t, err)
	return buf
}

func TestSerializeU32(t *testing.T) {
	assert.Equal(t, h(t, "04000000"), SerializeU32(4))
	assert.Equal(t, h(t, "ffffffff"), SerializeU32(0xffffffff))
}

func TestSerializeStruct(t *testing.T) {
	bytes := SerializeStruct([][]byte{{0x11, 0x13}, {0x20, 0x17, 0x09}})
	assert.Equal(t, h(t, "1113201709"), bytes)

	assert.Len(t, SerializeStruct(nil), 0)
}

func TestSerializeFixedVec(t *testing.T) {
	bytes, err := SerializeFixedVec([][]byte{h(t, "1234567890abcdef")})
	require.NoError(t, err)
	assert.Equal(t, h(t, "080000001234567890abcdef"), bytes)

	bytes, err = SerializeFixedVec(nil)
	require.NoError(t, err)
	assert.Equal(t, h(t, "00000000"), bytes)
}

func TestSerializeDynamicVec(t *testing.T) {
	tests := []struct {
		name     string
		items    [][]byte
		expected string
	}{
		{
			name:     "empty",
			items:    nil,
			expected: "04000000",
		},
		{
			name:     "single item",
			items:    [][]byte{h(t, "020000001234")},
			expected: "0e00000008000000020000001234",
		},
		{
			name: "multiple items",
			items: [][]byte{
				h(t, "020000001234"),
				h(t, "00000000"),
				h(t, "020000000567"),
				h(t, "0100000089"),
				h(t, "03000000abcdef"),
			},
			expected: "34000000180000001e00000022000000280000002d000000" +
				"02000000123400000000020000000567010000008903000000abcdef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bytes, err := SerializeDynamicVec(tt.items)
			require.NoError(t, err)
			assert.Equal(t, h(t, tt.expected), bytes)
		})
	}
}
