package compaction_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lucasdb/internal/engine"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

func openTestEngine(t *testing.T, dataFileSize uint64, mergeRatio float64) *engine.Engine {
	t.Helper()
	e, err := engine.Open(engine.Config{
		Options: options.Options{
			DirPath:      t.TempDir(),
			DataFileSize: dataFileSize,
			MergeRatio:   mergeRatio,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestMergeDropsDeadRecordsAndKeepsLiveOnesReadable(t *testing.T) {
	e := openTestEngine(t, 256, 0.0)

	// Overwrite the same small set of keys many times so most of the written
	// bytes become dead before merge runs.
	for i := 0; i < 80; i++ {
		require.NoError(t, e.Put([]byte("k1"), []byte("value-revision")))
		require.NoError(t, e.Put([]byte("k2"), []byte("value-revision")))
	}
	require.NoError(t, e.Put([]byte("k3"), []byte("final")))
	require.NoError(t, e.Delete([]byte("k2")))

	statBefore, err := e.Stat()
	require.NoError(t, err)
	require.Greater(t, statBefore.SealedFileCount, 0)

	require.NoError(t, e.Merge())

	v1, err := e.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "value-revision", string(v1))

	v3, err := e.Get([]byte("k3"))
	require.NoError(t, err)
	require.Equal(t, "final", string(v3))

	_, err = e.Get([]byte("k2"))
	require.Error(t, err)
}

func TestMergeOutputSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := engine.Config{Options: options.Options{DirPath: dir, DataFileSize: 256, MergeRatio: 0.0}}

	e, err := engine.Open(cfg)
	require.NoError(t, err)

	for i := 0; i < 80; i++ {
		require.NoError(t, e.Put([]byte("k1"), []byte("value-revision")))
	}
	require.NoError(t, e.Put([]byte("k2"), []byte("second-key")))
	require.NoError(t, e.Merge())
	require.NoError(t, e.Close())

	reopened, err := engine.Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	v1, err := reopened.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "value-revision", string(v1))

	v2, err := reopened.Get([]byte("k2"))
	require.NoError(t, err)
	require.Equal(t, "second-key", string(v2))
}

func TestMergeBelowRatioIsRejected(t *testing.T) {
	e := openTestEngine(t, 1024*1024, 0.99)

	require.NoError(t, e.Put([]byte("k1"), []byte("v1")))

	err := e.Merge()
	require.Error(t, err)
}
