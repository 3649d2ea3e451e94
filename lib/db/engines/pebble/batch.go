package pebble

import (
	"sync/atomic"

	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/cockroachdb/pebble"
)

type batch struct {
	batch *pebble.Batch
	done  atomic.Bool
}

func (e *engine) NewBatch() db.Batch {
	return &batch{
		batch: e.db.NewBatch(),
	}
}

func (b *batch) Put(key, value []byte) error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	return b.batch.Set(key, value, nil)
}

func (b *batch) Len() int {
	return int(b.batch.Count())
}

// Commit applies all writes of the batch atomically with a synced WAL write.
func (b *batch) Commit() error {
	if b.done.Load() {
		return db.ErrBatchDone
	}
	if err := b.batch.Commit(pebble.Sync); err != nil {
		return err
	}
	b.done.Store(true)
	return b.batch.Close()
}

func (b *batch) Close() error {
	if !b.done.CompareAndSwap(false, true) {
		return nil
	}
	return b.batch.Close()
}
