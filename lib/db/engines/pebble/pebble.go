package pebble

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// numLevels is the number of LSM levels pebble maintains
const numLevels = 7

var log = common.CreateLogger("engine")

// --------------------------------------------------------------------------
// Provider
// --------------------------------------------------------------------------

// Provider opens and destroys pebble engines.
// FS selects the filesystem; nil means the operating system filesystem (vfs.Default).
type Provider struct {
	FS vfs.FS
}

// NewProvider returns a Provider on the operating system filesystem.
func NewProvider() *Provider {
	return &Provider{}
}

// NewMemProvider returns a Provider on a fresh in-memory filesystem. Intended for tests.
func NewMemProvider() *Provider {
	return &Provider{FS: vfs.NewMem()}
}

func (p *Provider) fs() vfs.FS {
	if p.FS == nil {
		return vfs.Default
	}
	return p.FS
}

func (p *Provider) Implementation() db.Implementation {
	return db.ImplPebble
}

// Open opens the pebble database in the directory path, creating it if needed.
//
// Option mapping:
//   - Compression: pebble.NoCompression on every level unless enabled
//   - BlockSize: LevelOptions.BlockSize on every level
//   - WriteBufferSize: MemTableSize
//   - MaxOpenFiles, CacheSize: MaxOpenFiles, Cache
//   - VerifyChecksums: sstables are validated after ingestion (block checksums are always checked by pebble)
//   - ParanoidChecks: the LSM is checked for consistency (CheckLevels) right after opening
func (p *Provider) Open(path string, opts *db.Options) (db.Engine, error) {
	if opts == nil {
		opts = db.DefaultOptions()
	}

	cache := pebble.NewCache(int64(opts.CacheSize))
	defer cache.Unref()

	pOpts := &pebble.Options{
		FS:           p.fs(),
		Cache:        cache,
		MaxOpenFiles: opts.MaxOpenFiles,
		MemTableSize: uint64(opts.WriteBufferSize),
		Logger:       engineLogger{},
		Levels:       make([]pebble.LevelOptions, numLevels),
	}
	for i := range pOpts.Levels {
		pOpts.Levels[i].BlockSize = opts.BlockSize
		if !opts.Compression {
			pOpts.Levels[i].Compression = pebble.NoCompression
		}
	}
	pOpts.Experimental.ValidateOnIngest = opts.VerifyChecksums
	pOpts.EnsureDefaults()

	pdb, err := pebble.Open(path, pOpts)
	if err != nil {
		return nil, fmt.Errorf("opening pebble db at %s: %w", path, err)
	}

	if opts.ParanoidChecks {
		if err := pdb.CheckLevels(nil); err != nil {
			return nil, errors.Join(fmt.Errorf("consistency check of %s failed: %w", path, err), pdb.Close())
		}
	}

	return &engine{db: pdb}, nil
}

// Destroy removes the directory path with all pebble files in it.
func (p *Provider) Destroy(path string) error {
	if err := p.fs().RemoveAll(path); err != nil {
		return fmt.Errorf("removing pebble db at %s: %w", path, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

type engine struct {
	db *pebble.DB
}

// Get returns a copy of the value, pebble only lends the slice until the closer is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (e *engine) Get(key []byte) ([]byte, error) {
	value, closer, err := e.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Put writes the value with a synced WAL write.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (e *engine) Put(key, value []byte) error {
	return e.db.Set(key, value, pebble.Sync)
}

// Delete writes a tombstone for key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (e *engine) Delete(key []byte) error {
	return e.db.Delete(key, pebble.Sync)
}

// Close closes the pebble database.
//
// Thread-safety: This method is NOT thread-safe.
func (e *engine) Close() error {
	if e.db == nil {
		return db.ErrClosed
	}
	err := e.db.Close()
	e.db = nil
	return err
}
