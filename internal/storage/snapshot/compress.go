package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// Value encodings, stored in the first byte.
const (
	encodingRaw byte = 0
	encodingLZ4 byte = 1
)

const maxValueSize = 64 << 20

var errCorruptValue = errors.New("corrupt snapshot value")

// compress frames data as flag byte, uvarint length, lz4 block. Data that
// lz4 cannot shrink is stored raw.
func compress(data []byte) ([]byte, error) {
	buf := make([]byte, 1+binary.MaxVarintLen64+lz4.CompressBlockBound(len(data)))
	buf[0] = encodingLZ4
	n := 1 + binary.PutUvarint(buf[1:], uint64(len(data)))

	written, err := lz4.CompressBlock(data, buf[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if written == 0 || n+written >= len(data)+1 {
		return encodeRaw(data), nil
	}
	return buf[:n+written], nil
}

func encodeRaw(data []byte) []byte {
	out := make([]byte, 1+len(data))
	out[0] = encodingRaw
	copy(out[1:], data)
	return out
}

func decompress(value []byte) ([]byte, error) {
	if len(value) == 0 {
		return nil, errCorruptValue
	}
	switch value[0] {
	case encodingRaw:
		out := make([]byte, len(value)-1)
		copy(out, value[1:])
		return out, nil
	case encodingLZ4:
		size, n := binary.Uvarint(value[1:])
		if n <= 0 || size > maxValueSize {
			return nil, fmt.Errorf("%w: bad length", errCorruptValue)
		}
		out := make([]byte, size)
		got, err := lz4.UncompressBlock(value[1+n:], out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errCorruptValue, err)
		}
		if uint64(got) != size {
			return nil, fmt.Errorf("%w: got %d bytes, want %d", errCorruptValue, got, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: encoding %d", errCorruptValue, value[0])
	}
}
