// Package batch implements atomic, multi-key transactions on top of an
// engine's append-only log: every record a batch writes shares one
// monotonic sequence number, and a trailing commit sentinel certifies that
// the whole group was durably written before any of it becomes visible to
// replay.
package batch

import (
	"github.com/iamNilotpal/lucasdb/internal/codec"
	"github.com/iamNilotpal/lucasdb/pkg/errors"
	"github.com/iamNilotpal/lucasdb/pkg/options"
)

// Host is the slice of engine behavior a Batch needs: allocate a sequence
// number, append records, apply committed writes to the index, and
// serialize against other batches committing concurrently.
type Host interface {
	NextSequence() uint64
	AppendRecord(rec *codec.Record) (codec.Position, error)
	IndexGet(key []byte) (codec.Position, bool)
	IndexPut(key []byte, pos codec.Position)
	IndexDelete(key []byte)
	Sync() error
	CommitLock()
	CommitUnlock()
}

type pendingOp struct {
	tombstone bool
	value     []byte
}

// Batch buffers a set of puts and deletes for atomic commit. A Batch is not
// safe for concurrent use by multiple goroutines.
type Batch struct {
	host    Host
	opts    options.BatchOptions
	pending map[string]pendingOp
	done    bool
}

// New constructs a Batch against host using opts.
func New(host Host, opts options.BatchOptions) *Batch {
	return &Batch{host: host, opts: opts, pending: make(map[string]pendingOp)}
}

// Put buffers a key/value write. Later calls for the same key overwrite
// earlier ones; nothing is durable until Commit succeeds.
func (b *Batch) Put(key, value []byte) error {
	if b.done {
		return errors.NewUseAfterCloseError()
	}
	if len(key) == 0 {
		return errors.NewKeyEmptyError()
	}
	b.pending[string(key)] = pendingOp{value: append([]byte(nil), value...)}
	return nil
}

// Delete buffers a tombstone write for key. If key has no live entry in the
// index, any pending op already buffered for it is dropped and nothing is
// written on Commit.
func (b *Batch) Delete(key []byte) error {
	if b.done {
		return errors.NewUseAfterCloseError()
	}
	if len(key) == 0 {
		return errors.NewKeyEmptyError()
	}
	if _, ok := b.host.IndexGet(key); !ok {
		delete(b.pending, string(key))
		return nil
	}
	b.pending[string(key)] = pendingOp{tombstone: true}
	return nil
}

// Commit durably appends every buffered write under one sequence number,
// followed by a commit sentinel, then applies the writes to the index.
// Commit is a no-op if nothing was buffered, and a Batch cannot be reused
// after Commit returns.
func (b *Batch) Commit() error {
	if b.done {
		return errors.NewUseAfterCloseError()
	}
	b.done = true

	if len(b.pending) == 0 {
		return nil
	}
	if uint32(len(b.pending)) > b.opts.MaxBatchNum {
		return errors.NewBatchTooLargeError(len(b.pending), int(b.opts.MaxBatchNum))
	}

	b.host.CommitLock()
	defer b.host.CommitUnlock()

	seq := b.host.NextSequence()

	type applied struct {
		key       []byte
		tombstone bool
		pos       codec.Position
	}
	results := make([]applied, 0, len(b.pending))

	for key, op := range b.pending {
		rec := &codec.Record{Key: codec.LogKeyWithSeq(seq, []byte(key))}
		if op.tombstone {
			rec.Type = codec.Tombstone
		} else {
			rec.Type = codec.Normal
			rec.Value = op.value
		}

		pos, err := b.host.AppendRecord(rec)
		if err != nil {
			return err
		}
		results = append(results, applied{key: []byte(key), tombstone: op.tombstone, pos: pos})
	}

	sentinel := &codec.Record{Type: codec.TxnCommit, Key: codec.LogKeyWithSeq(seq, []byte(codec.TxnFinishedKey))}
	if _, err := b.host.AppendRecord(sentinel); err != nil {
		return err
	}

	if b.opts.SyncWrites {
		if err := b.host.Sync(); err != nil {
			return err
		}
	}

	for _, a := range results {
		if a.tombstone {
			b.host.IndexDelete(a.key)
		} else {
			b.host.IndexPut(a.key, a.pos)
		}
	}

	return nil
}
