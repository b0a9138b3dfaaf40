package options

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsEmptyDirPath(t *testing.T) {
	o := NewDefaultOptions()
	o.DirPath = "  "
	require.Error(t, o.Validate())
}

func TestValidateRejectsZeroFileSize(t *testing.T) {
	o := NewDefaultOptions()
	o.DataFileSize = 0
	require.Error(t, o.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	o := NewDefaultOptions()
	require.NoError(t, o.Validate())
}

func TestWithDataFileSizeRejectsBelowMinimum(t *testing.T) {
	o := NewDefaultOptions()
	original := o.DataFileSize

	WithDataFileSize(1)(&o)
	require.Equal(t, original, o.DataFileSize, "below-minimum size must be ignored")

	WithDataFileSize(MinDataFileSize * 2)(&o)
	require.Equal(t, MinDataFileSize*2, o.DataFileSize)
}

func TestWithMergeRatioIgnoresOutOfRange(t *testing.T) {
	o := NewDefaultOptions()
	original := o.MergeRatio

	WithMergeRatio(-0.1)(&o)
	require.Equal(t, original, o.MergeRatio)

	WithMergeRatio(1.5)(&o)
	require.Equal(t, original, o.MergeRatio)

	WithMergeRatio(0.75)(&o)
	require.Equal(t, 0.75, o.MergeRatio)
}

func TestWithDirPathTrimsAndIgnoresBlank(t *testing.T) {
	o := NewDefaultOptions()
	original := o.DirPath

	WithDirPath("   ")(&o)
	require.Equal(t, original, o.DirPath)

	WithDirPath("  /data/lucasdb  ")(&o)
	require.Equal(t, "/data/lucasdb", o.DirPath)
}

func TestBatchOptionFuncs(t *testing.T) {
	o := NewDefaultBatchOptions()

	WithMaxBatchNum(0)(&o)
	require.Equal(t, DefaultMaxBatchNum, o.MaxBatchNum, "zero must be ignored")

	WithMaxBatchNum(500)(&o)
	require.Equal(t, uint32(500), o.MaxBatchNum)

	WithBatchSyncWrites(false)(&o)
	require.False(t, o.SyncWrites)
}
