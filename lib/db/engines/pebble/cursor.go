package pebble

import (
	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/cockroachdb/pebble"
)

type cursor struct {
	iter    *pebble.Iterator
	started bool
	key     []byte
}

// NewCursor returns a cursor over a consistent view of all keys in ascending order.
func (e *engine) NewCursor() (db.Cursor, error) {
	iter, err := e.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	return &cursor{iter: iter}, nil
}

func (c *cursor) Next() bool {
	var ok bool
	if !c.started {
		c.started = true
		ok = c.iter.First()
	} else {
		ok = c.iter.Next()
	}
	if !ok || !c.iter.Valid() {
		c.key = nil
		return false
	}

	// the iterator reuses its buffer on Next
	k := c.iter.Key()
	c.key = make([]byte, len(k))
	copy(c.key, k)
	return true
}

func (c *cursor) Key() []byte {
	return c.key
}

func (c *cursor) Err() error {
	return c.iter.Error()
}

func (c *cursor) Close() error {
	return c.iter.Close()
}
