package engine

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/pkg/errors"
	"github.com/iamNilotpal/lucasdb/pkg/options"
	"github.com/iamNilotpal/lucasdb/pkg/seginfo"
)

func testConfig(t *testing.T, tweak func(*options.Options)) Config {
	t.Helper()
	opts := options.Options{
		DirPath:       t.TempDir(),
		DataFileSize:  1024 * 1024,
		IndexType:     options.IndexBalancedTree,
		UseMmapOnOpen: true,
		MergeRatio:    0.5,
	}
	if tweak != nil {
		tweak(&opts)
	}
	return Config{Options: opts}
}

func TestOpenPutGetDelete(t *testing.T) {
	e, err := Open(testConfig(t, nil))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Put([]byte("k1"), []byte("v1")))

	v, err := e.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))

	require.NoError(t, e.Delete([]byte("k1")))
	_, err = e.Get([]byte("k1"))
	ee, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeKeyNotFound, ee.Code())

	// Deleting an absent key is a no-op, not an error.
	require.NoError(t, e.Delete([]byte("never-existed")))
}

func TestPutRejectsEmptyKey(t *testing.T) {
	e, err := Open(testConfig(t, nil))
	require.NoError(t, err)
	defer e.Close()

	err = e.Put(nil, []byte("v"))
	ee, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeKeyEmpty, ee.Code())
}

func TestDirLockRejectsSecondOpen(t *testing.T) {
	cfg := testConfig(t, nil)

	e, err := Open(cfg)
	require.NoError(t, err)
	defer e.Close()

	_, err = Open(cfg)
	ee, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeInUse, ee.Code())
}

func TestCloseIsIdempotentAndRejectsFurtherUse(t *testing.T) {
	e, err := Open(testConfig(t, nil))
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	err = e.Put([]byte("k"), []byte("v"))
	ee, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeUseAfterClose, ee.Code())
}

func TestRotationAcrossRestartPreservesData(t *testing.T) {
	cfg := testConfig(t, func(o *options.Options) { o.DataFileSize = 128 })

	e, err := Open(cfg)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		key := []byte{byte('a' + i%26), byte(i)}
		require.NoError(t, e.Put(key, []byte("some-value-long-enough-to-rotate-files")))
	}
	stat, err := e.Stat()
	require.NoError(t, err)
	require.Greater(t, stat.SealedFileCount, 0)
	require.NoError(t, e.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	for i := 0; i < 50; i++ {
		key := []byte{byte('a' + i%26), byte(i)}
		v, err := reopened.Get(key)
		require.NoError(t, err)
		require.Equal(t, "some-value-long-enough-to-rotate-files", string(v))
	}
}

func TestListKeysAndIterator(t *testing.T) {
	e, err := Open(testConfig(t, nil))
	require.NoError(t, err)
	defer e.Close()

	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, e.Put([]byte(k), []byte(k)))
	}

	keys := e.ListKeys()
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, keys)

	it := e.Iterator(options.IteratorOptions{})
	defer it.Close()

	var got []string
	it.Fold(func(key, value []byte) bool {
		got = append(got, string(key))
		return true
	})
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestTornWriteAtActiveTailIsTruncatedNotFatal(t *testing.T) {
	cfg := testConfig(t, nil)

	e, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, e.Sync())
	require.NoError(t, e.Close())

	// Simulate a crash mid-append: append a few garbage bytes to the active
	// file after its last valid record.
	activeID := uint32(0)
	path := activeDataFilePath(t, cfg.Options.DirPath, activeID)
	appendGarbage(t, path)

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))

	// The engine should still accept new writes after truncating the torn tail.
	require.NoError(t, reopened.Put([]byte("k2"), []byte("v2")))
	v, err = reopened.Get([]byte("k2"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(v))
}

func TestReplayDiscardsBatchMissingCommitSentinel(t *testing.T) {
	cfg := testConfig(t, nil)

	e, err := Open(cfg)
	require.NoError(t, err)

	// Write a transactional record directly, bypassing batch.Commit, so no
	// TxnCommit sentinel ever follows it.
	seq := e.NextSequence()
	rec := &codec.Record{Type: codec.Normal, Key: codec.LogKeyWithSeq(seq, []byte("half-written")), Value: []byte("v")}
	_, err = e.AppendRecord(rec)
	require.NoError(t, err)
	require.NoError(t, e.Sync())
	require.NoError(t, e.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Get([]byte("half-written"))
	require.Error(t, err)
}

func TestSequenceCounterDoesNotDriftAcrossRestartWithNoWrites(t *testing.T) {
	cfg := testConfig(t, nil)

	e, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	// A clean close/reopen with nothing transactional in between must not
	// move the first sequence number a batch would be assigned: 1, the
	// same value a brand-new directory would hand out.
	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, uint64(1), reopened.NextSequence())
}

func TestReplayRejectsCommitSentinelWithNoPendingRecords(t *testing.T) {
	cfg := testConfig(t, nil)

	e, err := Open(cfg)
	require.NoError(t, err)

	// A commit sentinel with no records ever buffered for its sequence
	// number cannot correspond to any real batch; it can only mean the log
	// is corrupt.
	seq := e.NextSequence()
	sentinel := &codec.Record{Type: codec.TxnCommit, Key: codec.LogKeyWithSeq(seq, []byte(codec.TxnFinishedKey))}
	_, err = e.AppendRecord(sentinel)
	require.NoError(t, err)
	require.NoError(t, e.Sync())
	require.NoError(t, e.Close())

	_, err = Open(cfg)
	ee, ok := errors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeTxnRecordMissing, ee.Code())
}

func activeDataFilePath(t *testing.T, dirPath string, id uint32) string {
	t.Helper()
	return seginfo.DataFilePath(dirPath, id)
}

func appendGarbage(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	defer f.Close()
	// A type byte followed by a truncated/invalid varint: enough to fail
	// DecodeHeader without happening to decode as a valid zero-length marker.
	_, err = f.Write([]byte{byte(1), 0xFF, 0xFF})
	require.NoError(t, err)
}
