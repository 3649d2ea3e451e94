// Package bolt implements the db.Engine interface on top of bbolt, an embedded B+ tree
// key-value store.
//
// A database is a directory holding a single bbolt file (data.db) with one bucket. Every
// write is its own transaction, batches are buffered in memory and applied in one
// read-write transaction on Commit. Cursors keep a read-only transaction open until they
// are closed.
package bolt
