package codec

import "encoding/binary"

// TxnFinishedKey is the fixed suffix a TxnCommit sentinel's key carries
// after its varint-encoded sequence number.
const TxnFinishedKey = "transaction_finished"

// LogKeyWithSeq is what actually gets written to disk as a record's key:
// the sequence number (0 for non-transactional writes) followed by the raw
// user key. Prefixing every key this way lets replay classify every record
// by sequence without a side table.
func LogKeyWithSeq(seq uint64, key []byte) []byte {
	buf := make([]byte, binary.MaxVarintLen64+len(key))
	n := binary.PutUvarint(buf, seq)
	n += copy(buf[n:], key)
	return buf[:n]
}

// ParseLogKey splits a disk key back into its sequence number and the raw
// user key it was prefixed onto.
func ParseLogKey(logKey []byte) (seq uint64, userKey []byte, err error) {
	seq, n := binary.Uvarint(logKey)
	if n <= 0 {
		return 0, nil, ErrMalformedPosition
	}
	return seq, logKey[n:], nil
}
