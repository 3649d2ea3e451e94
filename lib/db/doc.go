// Package db defines the contract between kvds and the embedded storage engines it drives.
//
// The package focuses on:
//   - A small Engine interface covering point reads, writes and deletes
//   - Atomic batches through the Batch interface (one Commit per batch)
//   - Point-in-time key enumeration through the Cursor interface
//   - A Provider per implementation that opens and destroys engines by path
//
// Key Components:
//
//   - Engine: An open handle. Implementations guarantee that concurrent Get, Put, Delete,
//     NewBatch and NewCursor calls are safe. Close is NOT safe to run concurrently with
//     anything else; serializing it is the job of the caller (lib/lockmgr and lib/store/lstore).
//
//   - Batch: Collects any number of writes and applies them atomically with exactly one
//     Commit. Either all writes become visible or none do.
//
//   - Cursor: Iterates keys in ascending order over a consistent view established when the
//     cursor is created. Cursors hold engine resources and must always be closed.
//
//   - Options: The tuning an engine is opened with. DefaultOptions returns the fixed tuning
//     used by every kvds store: no compression, paranoid checks, checksum verification,
//     10 MiB blocks, a 10 MiB write buffer, 128 open files and an 8 MiB cache.
//
//   - Implementation identifiers: ImplPebble and ImplBolt.
//
// Related Packages:
//
// The engines/pebble package provides the default engine on top of cockroachdb/pebble,
// an LSM tree. The engines/bolt package provides an alternative on top of go.etcd.io/bbolt,
// a B+ tree stored in a single file. The engines package resolves an Implementation to its
// Provider.
//
// The testing package (github.com/ValentinKolb/kvds/lib/db/testing) provides a conformance
// suite (RunEngineTests) and benchmarks (RunEngineBenchmarks) every engine is checked with.
package db
