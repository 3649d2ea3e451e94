package bolt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/kvds/lib/db"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	// fileName is the name of the bbolt file inside the database directory
	fileName = "data.db"

	// lockTimeout bounds the wait for the file lock held by another process
	lockTimeout = time.Second
)

var bucketName = []byte("kv")

// --------------------------------------------------------------------------
// Provider
// --------------------------------------------------------------------------

// Provider opens and destroys bbolt engines.
type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Implementation() db.Implementation {
	return db.ImplBolt
}

// Open opens (or creates) the bbolt database in the directory path.
//
// Only ParanoidChecks of db.Options has an effect: it runs bbolt's page consistency
// check right after opening. bbolt has no block size, cache or compression settings.
func (p *Provider) Open(path string, opts *db.Options) (db.Engine, error) {
	if opts == nil {
		opts = db.DefaultOptions()
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating bolt db directory %s: %w", path, err)
	}

	bdb, err := bolt.Open(filepath.Join(path, fileName), 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("creating bucket: %w", err), bdb.Close())
	}

	if opts.ParanoidChecks {
		err = bdb.View(func(tx *bolt.Tx) error {
			var errs []error
			for cErr := range tx.Check() {
				errs = append(errs, cErr)
			}
			return errors.Join(errs...)
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("consistency check of %s failed: %w", path, err), bdb.Close())
		}
	}

	return &engine{db: bdb}, nil
}

// Destroy removes the directory path including the bbolt file.
func (p *Provider) Destroy(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing bolt db at %s: %w", path, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

type engine struct {
	db *bolt.DB
}

// Get looks the key up with a cursor, bbolt's Bucket.Get cannot tell a missing
// key from an empty value.
func (e *engine) Get(key []byte) ([]byte, error) {
	var val []byte
	err := e.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(bucketName).Cursor().Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			return db.ErrNotFound
		}
		val = make([]byte, len(v))
		copy(val, v)
		return nil
	})
	return val, err
}

func (e *engine) Put(key, value []byte) error {
	return mapError(e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	}))
}

func (e *engine) Delete(key []byte) error {
	return mapError(e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	}))
}

func (e *engine) Close() error {
	if e.db == nil {
		return db.ErrClosed
	}
	err := e.db.Close()
	e.db = nil
	return err
}

// mapError translates bbolt key validation errors into db.ErrInvalidKey
func mapError(err error) error {
	if errors.Is(err, berrors.ErrKeyRequired) || errors.Is(err, berrors.ErrKeyTooLarge) || errors.Is(err, berrors.ErrValueTooLarge) {
		return fmt.Errorf("%w: %v", db.ErrInvalidKey, err)
	}
	return err
}

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

type entry struct {
	key, value []byte
}

// batch buffers writes and applies them in a single read-write transaction
type batch struct {
	db      *bolt.DB
	entries []entry
	done    bool
}

func (e *engine) NewBatch() db.Batch {
	return &batch{db: e.db}
}

func (b *batch) Put(key, value []byte) error {
	if b.done {
		return db.ErrBatchDone
	}
	b.entries = append(b.entries, entry{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

func (b *batch) Len() int {
	return len(b.entries)
}

func (b *batch) Commit() error {
	if b.done {
		return db.ErrBatchDone
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, e := range b.entries {
			if err := bucket.Put(e.key, e.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	b.done = true
	b.entries = nil
	return nil
}

func (b *batch) Close() error {
	b.done = true
	b.entries = nil
	return nil
}

// --------------------------------------------------------------------------
// Cursor
// --------------------------------------------------------------------------

// cursor holds a read-only transaction open until Close
type cursor struct {
	tx      *bolt.Tx
	c       *bolt.Cursor
	started bool
	key     []byte
}

func (e *engine) NewCursor() (db.Cursor, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &cursor{tx: tx, c: tx.Bucket(bucketName).Cursor()}, nil
}

func (c *cursor) Next() bool {
	var k []byte
	if !c.started {
		c.started = true
		k, _ = c.c.First()
	} else {
		k, _ = c.c.Next()
	}
	if k == nil {
		c.key = nil
		return false
	}
	// k is only valid for the life of the transaction
	c.key = append([]byte(nil), k...)
	return true
}

func (c *cursor) Key() []byte {
	return c.key
}

func (c *cursor) Err() error {
	return nil
}

func (c *cursor) Close() error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Rollback()
	c.tx = nil
	return err
}
