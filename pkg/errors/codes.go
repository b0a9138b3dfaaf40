package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing segment files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on segment file management and data persistence.
const (
	// ErrorCodeSegmentCorrupted indicates that a segment file's data has been
	// damaged or is in an inconsistent state.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the header
	// portion of a segment file. Headers contain critical metadata about the
	// segment's structure, so header read failures prevent access to the
	// entire segment and all data it contains.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading the actual data
	// content from segment files after successfully reading the header. This
	// represents a more localized failure compared to header problems, as the
	// segment structure is intact but specific data regions are inaccessible.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"
)

// Engine error codes. These map directly onto the error kinds the storage engine
// reports; each code's comment says where it is returned.
const (
	// ErrorCodeKeyEmpty is returned by Put when the caller supplies a zero-length key.
	ErrorCodeKeyEmpty ErrorCode = "KEY_EMPTY"

	// ErrorCodeKeyNotFound is returned by Get when a key has no live entry, including
	// the case where the most recent record for the key is a tombstone.
	ErrorCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrorCodeInUse is returned by Open when the directory's exclusive lock is
	// already held by another engine instance.
	ErrorCodeInUse ErrorCode = "DIRECTORY_IN_USE"

	// ErrorCodeDirEmptyPath is returned by Open when the configured directory is empty.
	ErrorCodeDirEmptyPath ErrorCode = "DIR_EMPTY_PATH"

	// ErrorCodeFileSizeTooSmall is returned by Open when data_file_size is not positive.
	ErrorCodeFileSizeTooSmall ErrorCode = "FILE_SIZE_TOO_SMALL"

	// ErrorCodeCorrupt is returned when a data file name or on-disk varint cannot be parsed.
	ErrorCodeCorrupt ErrorCode = "CORRUPT"

	// ErrorCodeReadEof signals the end of a data file's live records during replay or
	// merge. It is handled internally and never surfaced to a caller.
	ErrorCodeReadEof ErrorCode = "READ_EOF"

	// ErrorCodeInvalidCrc is returned when a record's trailing CRC32 does not match
	// the bytes that precede it.
	ErrorCodeInvalidCrc ErrorCode = "INVALID_CRC"

	// ErrorCodeBatchTooLarge is returned by Commit when the batch exceeds max_batch_num.
	ErrorCodeBatchTooLarge ErrorCode = "BATCH_TOO_LARGE"

	// ErrorCodeTxnRecordMissing is returned during replay when a TxnCommit sentinel is
	// observed for a sequence number with no buffered records.
	ErrorCodeTxnRecordMissing ErrorCode = "TXN_RECORD_MISSING"

	// ErrorCodeMergeInProgress is returned by Merge when another merge already holds
	// the merge lock.
	ErrorCodeMergeInProgress ErrorCode = "MERGE_IN_PROGRESS"

	// ErrorCodeRatioUnreached is returned by Merge when reclaimable/total is below
	// the configured merge_ratio.
	ErrorCodeRatioUnreached ErrorCode = "MERGE_RATIO_UNREACHED"

	// ErrorCodeNoSpace is returned by Merge when the target filesystem lacks room
	// for a clean snapshot of the reclaimable data.
	ErrorCodeNoSpace ErrorCode = "MERGE_NO_SPACE"

	// ErrorCodeUseAfterClose is returned by Put, Get, Delete and Merge once Close
	// has been called, and by a Batch's Put, Delete and Commit once that batch
	// has been committed.
	ErrorCodeUseAfterClose ErrorCode = "USE_AFTER_CLOSE"
)
