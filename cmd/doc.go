// Package cmd implements the command-line interface for the kvds key-value store.
// Every command opens its own local store, so no server is involved.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations (put, get, del, keys, batch) and the perf benchmark
//   - db: Commands that manage a store directory (destroy, stats)
//   - shell: An interactive readline shell
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All store flags can also be set as environment variables with the prefix KVDS_
// (e.g. KVDS_DB_DIR), either exported or in a .env / .env.local file.
//
// See kvds -help for a list of all commands.
package cmd
