package batch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lucasdb/internal/engine"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

func openTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(engine.Config{
		Options: options.Options{
			DirPath:      t.TempDir(),
			DataFileSize: 1024 * 1024,
			MergeRatio:   0.5,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestBatchCommitIsAtomicallyVisible(t *testing.T) {
	e := openTestEngine(t)

	b := e.NewBatch(options.NewDefaultBatchOptions())
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Commit())

	va, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, "1", string(va))

	vb, err := e.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, "2", string(vb))
}

func TestUncommittedBatchIsInvisible(t *testing.T) {
	e := openTestEngine(t)

	b := e.NewBatch(options.NewDefaultBatchOptions())
	require.NoError(t, b.Put([]byte("never-committed"), []byte("x")))

	_, err := e.Get([]byte("never-committed"))
	require.Error(t, err)
}

func TestBatchCannotBeReusedAfterCommit(t *testing.T) {
	e := openTestEngine(t)

	b := e.NewBatch(options.NewDefaultBatchOptions())
	require.NoError(t, b.Put([]byte("k"), []byte("v")))
	require.NoError(t, b.Commit())

	err := b.Put([]byte("k2"), []byte("v2"))
	require.Error(t, err)

	err = b.Commit()
	require.Error(t, err)
}

func TestBatchTooLargeRejected(t *testing.T) {
	e := openTestEngine(t)

	opts := options.NewDefaultBatchOptions()
	opts.MaxBatchNum = 2

	b := e.NewBatch(opts)
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Put([]byte("c"), []byte("3")))

	err := b.Commit()
	require.Error(t, err)
}

func TestEmptyBatchCommitIsNoop(t *testing.T) {
	e := openTestEngine(t)

	b := e.NewBatch(options.NewDefaultBatchOptions())
	require.NoError(t, b.Commit())
}

func TestBatchDeleteRemovesExistingKey(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Put([]byte("k"), []byte("v")))

	b := e.NewBatch(options.NewDefaultBatchOptions())
	require.NoError(t, b.Delete([]byte("k")))
	require.NoError(t, b.Commit())

	_, err := e.Get([]byte("k"))
	require.Error(t, err)
}

func TestBatchDeleteOfAbsentKeyDropsPendingOpAndWritesNothing(t *testing.T) {
	e := openTestEngine(t)

	b := e.NewBatch(options.NewDefaultBatchOptions())
	require.NoError(t, b.Put([]byte("never-existed"), []byte("v")))
	require.NoError(t, b.Delete([]byte("never-existed")))
	require.NoError(t, b.Commit())

	_, err := e.Get([]byte("never-existed"))
	require.Error(t, err)
}

func TestCommittedBatchSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := engine.Config{Options: options.Options{DirPath: dir, DataFileSize: 1024 * 1024, MergeRatio: 0.5}}

	e, err := engine.Open(cfg)
	require.NoError(t, err)

	b := e.NewBatch(options.NewDefaultBatchOptions())
	require.NoError(t, b.Put([]byte("committed-before-close"), []byte("v")))
	require.NoError(t, b.Commit())
	require.NoError(t, e.Close())

	reopened, err := engine.Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get([]byte("committed-before-close"))
	require.NoError(t, err)
	require.Equal(t, "v", string(v))
}
