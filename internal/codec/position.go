package codec

import (
	"encoding/binary"
	"errors"
)

// ErrMalformedPosition is returned when a hint-index value cannot be parsed
// as three varints.
var ErrMalformedPosition = errors.New("codec: malformed record position")

// Position is the value the index maps every live key to: which data file
// holds the most recent record, the byte offset it starts at, and its total
// encoded size.
type Position struct {
	FileID uint32
	Offset uint64
	Size   uint32
}

// EncodePosition serializes p as three varints (file_id, offset, size), the
// format written as the value half of a hint-index entry.
func EncodePosition(p Position) []byte {
	buf := make([]byte, binary.MaxVarintLen32*2+binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(p.FileID))
	n += binary.PutUvarint(buf[n:], p.Offset)
	n += binary.PutUvarint(buf[n:], uint64(p.Size))
	return buf[:n]
}

// DecodePosition parses a Position out of its three-varint encoding.
func DecodePosition(buf []byte) (Position, error) {
	fileID, n1 := binary.Uvarint(buf)
	if n1 <= 0 {
		return Position{}, ErrMalformedPosition
	}
	buf = buf[n1:]

	offset, n2 := binary.Uvarint(buf)
	if n2 <= 0 {
		return Position{}, ErrMalformedPosition
	}
	buf = buf[n2:]

	size, n3 := binary.Uvarint(buf)
	if n3 <= 0 {
		return Position{}, ErrMalformedPosition
	}

	return Position{FileID: uint32(fileID), Offset: offset, Size: uint32(size)}, nil
}
