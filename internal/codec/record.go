// Package codec encodes and decodes the self-describing, CRC-protected log
// records that data files are built from, and the compact RecordPosition
// triplet the hint file stores alongside each key.
//
// Record layout: [type:1][varint klen][varint vlen][key][value][crc32:4].
// The CRC32 covers every byte before it, including the type and both
// varint-encoded lengths — flipping any bit in type/klen/vlen/key/value
// must be caught on read.
package codec

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/iamNilotpal/lucasdb/pkg/errors"
)

// RecordType distinguishes a live value from a tombstone from a batch
// commit sentinel.
type RecordType byte

const (
	// Normal is an ordinary put.
	Normal RecordType = iota + 1
	// Tombstone marks a key as logically deleted.
	Tombstone
	// TxnCommit is the sentinel record a batch commit appends after all of
	// its pending records, certifying that every record sharing its
	// sequence number was durably written.
	TxnCommit
)

// HeaderHint is the fixed-size window a caller should read before calling
// DecodeHeader: conservative enough (1 byte of type plus two 5-byte
// varints) to hold the header of any record regardless of key/value
// length, matching spec.md's "max 1 + 5 + 5 = 11 bytes".
const HeaderHint = 1 + binary.MaxVarintLen32 + binary.MaxVarintLen32

// crcSize is the trailing little-endian CRC32.
const crcSize = 4

// Record is the in-memory form of one persisted log entry. Key and Value
// are the raw bytes as they appear on disk — callers in internal/engine are
// responsible for prefixing/stripping the sequence number (see
// internal/batch) before/after using this package.
type Record struct {
	Type  RecordType
	Key   []byte
	Value []byte
}

// IsEOFMarker reports whether both lengths are zero, the sentinel spec.md
// §4.2 reserves to mean "end of live records in this file" rather than a
// genuine corruption.
func IsEOFMarker(keyLen, valueLen int) bool {
	return keyLen == 0 && valueLen == 0
}

// EncodedSize returns the number of bytes Encode will produce for a record
// with the given key/value lengths, without allocating.
func EncodedSize(keyLen, valueLen int) int {
	header := 1 + uvarintLen(uint64(keyLen)) + uvarintLen(uint64(valueLen))
	return header + keyLen + valueLen + crcSize
}

// Encode serializes r into a freshly allocated byte slice.
func Encode(r *Record) []byte {
	size := EncodedSize(len(r.Key), len(r.Value))
	buf := make([]byte, size)

	n := 0
	buf[n] = byte(r.Type)
	n++
	n += binary.PutUvarint(buf[n:], uint64(len(r.Key)))
	n += binary.PutUvarint(buf[n:], uint64(len(r.Value)))
	n += copy(buf[n:], r.Key)
	n += copy(buf[n:], r.Value)

	crc := crc32.ChecksumIEEE(buf[:n])
	binary.LittleEndian.PutUint32(buf[n:], crc)

	return buf
}

// Header is the parsed form of a record's fixed-type + two-varint prefix,
// before the key/value/crc bytes that follow it are known to be available.
type Header struct {
	Type      RecordType
	KeyLen    int
	ValueLen  int
	HeaderLen int // bytes consumed by type + both varints
}

// TotalLen is the full on-disk size of the record this header describes.
func (h Header) TotalLen() int {
	return h.HeaderLen + h.KeyLen + h.ValueLen + crcSize
}

// DecodeHeader parses the leading type+varint-lengths prefix out of buf,
// which is expected to be (at most) a HeaderHint-sized window read from the
// front of a record. Returns errors.ErrReadEOF both when buf is too short to
// contain a full header and when the header describes the zero-length
// end-of-file sentinel.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < 1 {
		return Header{}, errors.ErrReadEOF
	}

	recType := RecordType(buf[0])
	rest := buf[1:]

	keyLen, n1 := binary.Uvarint(rest)
	if n1 <= 0 {
		return Header{}, errors.ErrReadEOF
	}
	rest = rest[n1:]

	valueLen, n2 := binary.Uvarint(rest)
	if n2 <= 0 {
		return Header{}, errors.ErrReadEOF
	}

	if IsEOFMarker(int(keyLen), int(valueLen)) {
		return Header{}, errors.ErrReadEOF
	}

	return Header{
		Type:      recType,
		KeyLen:    int(keyLen),
		ValueLen:  int(valueLen),
		HeaderLen: 1 + n1 + n2,
	}, nil
}

// DecodeBody validates and extracts the key/value/CRC that follow a parsed
// Header. buf must contain exactly h.TotalLen() bytes, starting from the
// same offset the header itself started at (i.e. buf[:h.HeaderLen] is the
// header bytes again).
func DecodeBody(h Header, buf []byte) (*Record, error) {
	total := h.TotalLen()
	if len(buf) < total {
		return nil, errors.ErrReadEOF
	}

	key := buf[h.HeaderLen : h.HeaderLen+h.KeyLen]
	value := buf[h.HeaderLen+h.KeyLen : h.HeaderLen+h.KeyLen+h.ValueLen]

	wantCRC := binary.LittleEndian.Uint32(buf[total-crcSize : total])
	gotCRC := crc32.ChecksumIEEE(buf[:total-crcSize])
	if gotCRC != wantCRC {
		return nil, errors.NewInvalidCrcError(string(key), 0)
	}

	return &Record{Type: h.Type, Key: key, Value: value}, nil
}

// Decode is a convenience wrapper over DecodeHeader+DecodeBody for callers
// that already hold the record's full bytes (e.g. a hint-file or merge scan
// that reads a generous fixed-size chunk at a time). It returns the parsed
// record and its total encoded size.
func Decode(buf []byte) (*Record, int, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	rec, err := DecodeBody(h, buf)
	if err != nil {
		return nil, h.TotalLen(), err
	}
	return rec, h.TotalLen(), nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
