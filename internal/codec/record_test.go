package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lucasdb/pkg/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := &Record{Type: Normal, Key: []byte("hello"), Value: []byte("world")}
	buf := Encode(rec)
	require.Equal(t, EncodedSize(len(rec.Key), len(rec.Value)), len(buf))

	got, size, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), size)
	require.Equal(t, rec.Type, got.Type)
	require.Equal(t, rec.Key, got.Key)
	require.Equal(t, rec.Value, got.Value)
}

func TestEncodeDecodeEmptyValue(t *testing.T) {
	rec := &Record{Type: Tombstone, Key: []byte("deleted-key"), Value: nil}
	buf := Encode(rec)

	got, _, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, Tombstone, got.Type)
	require.Equal(t, rec.Key, got.Key)
	require.Empty(t, got.Value)
}

func TestDecodeDetectsCorruption(t *testing.T) {
	rec := &Record{Type: Normal, Key: []byte("k"), Value: []byte("v")}
	buf := Encode(rec)
	buf[len(buf)-1] ^= 0xFF // flip a bit in the trailing CRC

	_, _, err := Decode(buf)
	require.Error(t, err)
}

func TestDecodeHeaderReadEOF(t *testing.T) {
	_, err := DecodeHeader(nil)
	require.ErrorIs(t, err, errors.ErrReadEOF)

	// The zero-length end-of-file marker: type byte + two zero varints.
	marker := []byte{byte(Normal), 0x00, 0x00}
	_, err = DecodeHeader(marker)
	require.ErrorIs(t, err, errors.ErrReadEOF)
}

func TestDecodeBodyShortBufferIsEOF(t *testing.T) {
	rec := &Record{Type: Normal, Key: []byte("k"), Value: []byte("value")}
	buf := Encode(rec)

	h, err := DecodeHeader(buf)
	require.NoError(t, err)

	_, err = DecodeBody(h, buf[:h.HeaderLen+1])
	require.ErrorIs(t, err, errors.ErrReadEOF)
}

func TestLogKeyWithSeqRoundTrip(t *testing.T) {
	key := []byte("users:42")

	for _, seq := range []uint64{0, 1, 1 << 40} {
		logKey := LogKeyWithSeq(seq, key)
		gotSeq, gotKey, err := ParseLogKey(logKey)
		require.NoError(t, err)
		require.Equal(t, seq, gotSeq)
		require.Equal(t, key, gotKey)
	}
}

func TestPositionEncodeDecodeRoundTrip(t *testing.T) {
	pos := Position{FileID: 7, Offset: 123456, Size: 42}
	buf := EncodePosition(pos)

	got, err := DecodePosition(buf)
	require.NoError(t, err)
	require.Equal(t, pos, got)
}
