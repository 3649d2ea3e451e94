package lstore

import (
	"time"

	"github.com/ValentinKolb/kvds/lib/store"
)

// Keys returns all keys of the store as seen by one point in time view of the engine.
//
// The enumeration holds a lease of the iteration pool until the cursor is closed. If the
// cursor fails, no partial result is returned: the failure is alerted and returned as
// IOFailure.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) Keys() (store.KeySet, error) {
	permit := s.guard.AcquireDataPermit()
	defer permit.Release()

	if err := s.checkOpen("keys"); err != nil {
		return nil, err
	}
	defer s.metrics.keys.UpdateSince(time.Now())
	s.touch()

	lease := s.pool.Acquire(s.budget)
	defer lease.Release()

	cursor, err := s.engine.NewCursor()
	if err != nil {
		return nil, s.ioFailure("opening cursor", err)
	}
	defer func() {
		if err := cursor.Close(); err != nil {
			log.Warn().Err(err).Str("name", s.Name()).Msg("closing cursor failed")
		}
	}()

	keys := store.KeySet{}
	for cursor.Next() {
		keys.Add(cursor.Key())
	}
	if err := cursor.Err(); err != nil {
		return nil, s.ioFailure("iterating keys", err)
	}

	log.Trace().Str("name", s.Name()).Int("keys", keys.Len()).Msg("keys")
	return keys, nil
}
