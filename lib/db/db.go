package db

import "errors"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplPebble Implementation = "pebble"
	ImplBolt   Implementation = "bolt"
)

// Engine tuning defaults. The values are fixed for every store opened by kvds.
const (
	DefaultBlockSize       = 10 * 1024 * 1024
	DefaultWriteBufferSize = 10 * 1024 * 1024
	DefaultMaxOpenFiles    = 128
	DefaultCacheSize       = 8 * 1024 * 1024
)

var (
	// ErrNotFound is returned by Engine.Get if the key does not exist.
	ErrNotFound = errors.New("db: key not found")
	// ErrBatchDone is returned when a batch is used after Commit or Close.
	ErrBatchDone = errors.New("db: batch already committed or closed")
	// ErrInvalidKey is returned when the engine cannot store the given key (e.g. an empty key).
	ErrInvalidKey = errors.New("db: invalid key")
	// ErrClosed is returned when an engine is used after Close.
	ErrClosed = errors.New("db: engine is closed")
)

// Options holds the tuning an engine is opened with.
// Engines map each field to their closest native setting and ignore the ones they have no
// equivalent for.
type Options struct {
	Compression     bool // Block compression (disabled for kvds stores)
	ParanoidChecks  bool // Verify the integrity of the on-disk state when opening
	VerifyChecksums bool // Verify checksums of data read from disk
	BlockSize       int  // Size of a data block in bytes
	WriteBufferSize int  // Size of the in-memory write buffer in bytes
	MaxOpenFiles    int  // Maximum number of files the engine keeps open
	CacheSize       int  // Size of the block cache in bytes
}

// DefaultOptions returns the fixed tuning every kvds store is opened with.
func DefaultOptions() *Options {
	return &Options{
		Compression:     false,
		ParanoidChecks:  true,
		VerifyChecksums: true,
		BlockSize:       DefaultBlockSize,
		WriteBufferSize: DefaultWriteBufferSize,
		MaxOpenFiles:    DefaultMaxOpenFiles,
		CacheSize:       DefaultCacheSize,
	}
}

// --------------------------------------------------------------------------
// Engine Interfaces
// --------------------------------------------------------------------------

// Provider opens and destroys engines of one implementation.
type Provider interface {
	// Implementation returns the identifier of the engine implementation.
	Implementation() Implementation

	// Open opens (and creates if missing) the engine located at the directory path.
	Open(path string, opts *Options) (Engine, error)

	// Destroy irreversibly removes all data the engine persisted at path.
	// Destroying a path that does not exist is not an error.
	Destroy(path string) error
}

// Engine is an open handle to an embedded, ordered key-value engine.
//
// Implementations must be safe for concurrent Get, Put, Delete, NewBatch and NewCursor calls.
// Close is not safe to call concurrently with any other method; callers are responsible for
// serializing it (see the lockmgr package).
type Engine interface {
	// Get returns a copy of the value stored for key or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Put stores value under key, overwriting any previous value.
	Put(key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// NewBatch returns an empty batch bound to this engine.
	NewBatch() Batch

	// NewCursor returns a cursor over all keys in a point-in-time view of the engine.
	NewCursor() (Cursor, error)

	// Close releases the handle.
	Close() error
}

// Batch groups writes that are applied atomically by a single Commit.
// If the same key is written more than once the last write wins.
type Batch interface {
	Put(key, value []byte) error
	Len() int
	Commit() error
	Close() error
}

// Cursor iterates over the keys of a point-in-time view of an engine in ascending order.
// A cursor is not positioned until the first call to Next and must always be closed.
type Cursor interface {
	// Next moves to the next key and reports whether one exists.
	Next() bool
	// Key returns a copy of the current key.
	Key() []byte
	// Err returns the first error the cursor encountered.
	Err() error
	Close() error
}
