// Package testing provides standardised tests and benchmarks for
// engine implementations that satisfy the db.Engine interface.
//
// The package contains:
//   - testing: A conformance suite for the engine contract (copy semantics, empty values,
//     atomic batches, ordered cursors, reopen, destroy, concurrent access)
//   - benchmark: Performance tests for measuring throughput of common engine operations
//
// Example usage:
//
//	// Creating a factory returning a provider and a fresh path
//	factory := func(tb testing.TB) (db.Provider, string) {
//		return NewProvider(), filepath.Join(tb.TempDir(), "db")
//	}
//
//	// Running the standard test suite
//	dbtest.RunEngineTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	dbtest.RunEngineBenchmarks(b, "MyEngine", factory)
package testing
