package serializer

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrEncodingOverflow ...
	ErrEncodingOverflow = errors.New("encoded length exceeds 4-byte header range")
)

// SerializeU32 returns the 4-byte little-endian encoding of the given value.
func SerializeU32(value uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	return buf
}

// SerializeStruct concatenates the given fields verbatim, without any header.
// Structs have a fixed schema, so readers locate fields by position.
func SerializeStruct(fields [][]byte) []byte {
	size := 0
	for _, field := range fields {
		size += len(field)
	}
	out := make([]byte, 0, size)
	for _, field := range fields {
		out = append(out, field...)
	}
	return out
}

// SerializeFixedVec prefixes the concatenation of the given items with a
// 4-byte little-endian header holding the total body length. The header
// itself is excluded from the count.
func SerializeFixedVec(items [][]byte) ([]byte, error) {
	bodySize := 0
	for _, item := range items {
		bodySize += len(item)
	}
	if uint64(bodySize) > math.MaxUint32 {
		return nil, ErrEncodingOverflow
	}

	out := make([]byte, 0, 4+bodySize)
	out = append(out, SerializeU32(uint32(bodySize))...)
	for _, item := range items {
		out = append(out, item...)
	}
	return out, nil
}

// SerializeDynamicVec encodes items of heterogeneous length as a full-size
// word followed by one 4-byte little-endian offset per item and the
// concatenated item bytes. The first offset equals the header length
// 4*(1+count), each subsequent offset adds the previous item's length, and
// the full-size word covers the whole encoding. An empty vector encodes to
// the 4-byte header alone.
//
// Readers seek items through the offset pairs without re-deriving bounds
// from content, so the arithmetic here must be exact.
func SerializeDynamicVec(items [][]byte) ([]byte, error) {
	headerSize := 4 * (1 + len(items))
	bodySize := 0
	for _, item := range items {
		bodySize += len(item)
	}
	fullSize := headerSize + bodySize
	if uint64(fullSize) > math.MaxUint32 {
		return nil, ErrEncodingOverflow
	}

	out := make([]byte, 0, fullSize)
	out = append(out, SerializeU32(uint32(fullSize))...)
	offset := headerSize
	for _, item := range items {
		out = append(out, SerializeU32(uint32(offset))...)
		offset += len(item)
	}
	for _, item := range items {
		out = append(out, item...)
	}
	return out, nil
}
