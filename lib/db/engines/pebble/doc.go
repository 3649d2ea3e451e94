// Package pebble implements the db.Engine interface on top of CockroachDB's Pebble, an
// LSM-tree key-value store in the spirit of LevelDB/RocksDB.
//
// Every database is a directory containing the pebble WAL, sstables and manifest. All
// writes (single puts, deletes and batch commits) are synced to the WAL before they return.
//
// Key Features:
//
//   - db.Options are mapped onto pebble.Options (per level block size and compression,
//     memtable size, open file limit and block cache).
//   - Paranoid checks run pebble's LSM consistency check right after opening.
//   - Batches use pebble.Batch and are committed atomically.
//   - Cursors iterate an implicit snapshot of the database.
//   - Provider.FS allows running on an in-memory filesystem (vfs.NewMem) in tests.
//
// Pebble's own log output is forwarded to the "engine" component logger.
package pebble
