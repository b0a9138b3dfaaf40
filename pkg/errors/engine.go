package errors

import stdErrors "errors"

// EngineError is the error type surfaced by the engine's public operations
// (open/put/get/delete/commit/merge/sync/close). It follows the same
// embed-and-extend shape as StorageError so callers can use the same
// errors.As / errors.Is patterns across every layer.
type EngineError struct {
	*baseError

	key      string // the user key involved, when applicable
	dirPath  string // the engine's data directory
	fileID   uint32 // the data file id involved, when applicable
	sequence uint64 // the batch sequence number involved, when applicable
}

// NewEngineError creates a new engine-specific error with the provided context.
func NewEngineError(err error, code ErrorCode, msg string) *EngineError {
	return &EngineError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while preserving the EngineError type.
func (ee *EngineError) WithMessage(msg string) *EngineError {
	ee.baseError.WithMessage(msg)
	return ee
}

// WithCode sets the error code while preserving the EngineError type.
func (ee *EngineError) WithCode(code ErrorCode) *EngineError {
	ee.baseError.WithCode(code)
	return ee
}

// WithDetail adds contextual information while preserving the EngineError type.
func (ee *EngineError) WithDetail(key string, value any) *EngineError {
	ee.baseError.WithDetail(key, value)
	return ee
}

// WithKey records the user key involved in the failed operation.
func (ee *EngineError) WithKey(key string) *EngineError {
	ee.key = key
	return ee
}

// WithDirPath records the engine's data directory.
func (ee *EngineError) WithDirPath(path string) *EngineError {
	ee.dirPath = path
	return ee
}

// WithFileID records the data file id involved in the failed operation.
func (ee *EngineError) WithFileID(id uint32) *EngineError {
	ee.fileID = id
	return ee
}

// WithSequence records the batch sequence number involved in the failed operation.
func (ee *EngineError) WithSequence(seq uint64) *EngineError {
	ee.sequence = seq
	return ee
}

// Key returns the user key involved in the failed operation.
func (ee *EngineError) Key() string { return ee.key }

// DirPath returns the engine's data directory.
func (ee *EngineError) DirPath() string { return ee.dirPath }

// FileID returns the data file id involved in the failed operation.
func (ee *EngineError) FileID() uint32 { return ee.fileID }

// Sequence returns the batch sequence number involved in the failed operation.
func (ee *EngineError) Sequence() uint64 { return ee.sequence }

// Sentinel constructors for the error kinds named in the engine's error policy.

func NewKeyEmptyError() *EngineError {
	return NewEngineError(nil, ErrorCodeKeyEmpty, "key must not be empty")
}

func NewKeyNotFoundEngineError(key string) *EngineError {
	return NewEngineError(nil, ErrorCodeKeyNotFound, "key not found").WithKey(key)
}

func NewInUseError(dirPath string) *EngineError {
	return NewEngineError(nil, ErrorCodeInUse, "directory already locked by another engine instance").
		WithDirPath(dirPath)
}

func NewDirEmptyPathError() *EngineError {
	return NewEngineError(nil, ErrorCodeDirEmptyPath, "dir_path must not be empty")
}

func NewFileSizeTooSmallError() *EngineError {
	return NewEngineError(nil, ErrorCodeFileSizeTooSmall, "data_file_size must be positive")
}

func NewCorruptError(cause error, detail string) *EngineError {
	return NewEngineError(cause, ErrorCodeCorrupt, "corrupt on-disk state: "+detail)
}

// ErrReadEOF is a sentinel value, not a constructor, because it is compared
// with errors.Is on the hot replay/merge path rather than inspected for context.
var ErrReadEOF = NewEngineError(nil, ErrorCodeReadEof, "end of data file reached")

func NewInvalidCrcError(key string, fileID uint32) *EngineError {
	return NewEngineError(nil, ErrorCodeInvalidCrc, "checksum mismatch reading record").
		WithKey(key).WithFileID(fileID)
}

func NewBatchTooLargeError(size, max int) *EngineError {
	return NewEngineError(nil, ErrorCodeBatchTooLarge, "batch exceeds max_batch_num").
		WithDetail("size", size).WithDetail("max", max)
}

func NewTxnRecordMissingError(seq uint64) *EngineError {
	return NewEngineError(nil, ErrorCodeTxnRecordMissing, "commit sentinel observed with no pending records").
		WithSequence(seq)
}

func NewMergeInProgressError() *EngineError {
	return NewEngineError(nil, ErrorCodeMergeInProgress, "a merge is already in progress")
}

func NewRatioUnreachedError(ratio, threshold float64) *EngineError {
	return NewEngineError(nil, ErrorCodeRatioUnreached, "reclaimable ratio below merge_ratio").
		WithDetail("ratio", ratio).WithDetail("threshold", threshold)
}

func NewNoSpaceError(need, available uint64) *EngineError {
	return NewEngineError(nil, ErrorCodeNoSpace, "insufficient disk space to merge").
		WithDetail("need", need).WithDetail("available", available)
}

func NewUseAfterCloseError() *EngineError {
	return NewEngineError(nil, ErrorCodeUseAfterClose, "operation attempted after engine was closed")
}

// IsEngineError determines if an error is (or wraps) an *EngineError.
func IsEngineError(err error) bool {
	var ee *EngineError
	return stdErrors.As(err, &ee)
}

// AsEngineError extracts an *EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	if stdErrors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
