package lucasdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/lucasdb/pkg/lucasdb"
	"github.com/iamNilotpal/lucasdb/pkg/logger"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

func openTestDB(t *testing.T) *lucasdb.DB {
	t.Helper()
	db, err := lucasdb.OpenWithLogger("lucasdb-test", logger.Development,
		options.WithDirPath(t.TempDir()),
		options.WithDataFileSize(1024*1024),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDBPutGetDelete(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Put([]byte("key"), []byte("value")))

	v, err := db.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, "value", string(v))

	require.NoError(t, db.Delete([]byte("key")))
	_, err = db.Get([]byte("key"))
	require.Error(t, err)
}

func TestDBBatchAndIterator(t *testing.T) {
	db := openTestDB(t)

	b := db.NewBatch(options.WithMaxBatchNum(100))
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Commit())

	keys := db.ListKeys()
	require.Equal(t, [][]byte{[]byte("a"), []byte("b")}, keys)

	it := db.Iterator(options.NewDefaultIteratorOptions())
	defer it.Close()

	key, value, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, "a", string(key))
	require.Equal(t, "1", string(value))
}

func TestDBStatAndSync(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Sync())

	stat, err := db.Stat()
	require.NoError(t, err)
	require.Equal(t, 1, stat.KeyNum)
}
