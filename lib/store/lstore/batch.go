package lstore

import (
	"time"

	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/ValentinKolb/kvds/lib/store"
)

// UpdateBatch writes all rows in one atomic engine batch.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) UpdateBatch(rows map[string][]byte) error {
	entries := make([]store.Entry, 0, len(rows))
	for k, v := range rows {
		entries = append(entries, store.Entry{Key: []byte(k), Value: v})
	}
	return s.ApplyBatch(entries)
}

// ApplyBatch writes all entries in one atomic engine batch. For duplicate keys the last
// entry wins. An empty batch does nothing.
//
// The batch holds a lease of the iteration pool while it is built and committed.
// A failed commit leaves the engine unchanged, it is alerted and returned as IOFailure.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) ApplyBatch(entries []store.Entry) error {
	permit := s.guard.AcquireDataPermit()
	defer permit.Release()

	if err := s.checkOpen("batch"); err != nil {
		return err
	}
	s.touch()

	if len(entries) == 0 {
		return nil
	}
	defer s.metrics.batch.UpdateSince(time.Now())
	s.metrics.batchSize.Update(int64(len(entries)))

	lease := s.pool.Acquire(s.budget)
	defer lease.Release()

	log.Trace().Str("name", s.Name()).Int("entries", len(entries)).Msg("batch")

	if err := writeBatch(s.engine, entries); err != nil {
		return s.engineFailure("batch commit", err)
	}
	return nil
}

// writeBatch stages every entry in a single engine batch and commits it once
func writeBatch(engine db.Engine, entries []store.Entry) error {
	batch := engine.NewBatch()
	defer batch.Close()

	for _, e := range entries {
		if err := batch.Put(e.Key, e.Value); err != nil {
			return err
		}
	}
	return batch.Commit()
}
