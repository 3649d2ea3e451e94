// Package lstore implements a local, persistent key-value store based on the store.IStore
// interface. A Store owns one embedded engine instance (pebble or bbolt, see
// lib/db/engines) in the directory <base dir>/<name> and makes it safe for any number of
// concurrent callers.
//
// Key Features:
//   - Explicit lifecycle: Uninitialized -> Open -> Closed, Closed is terminal
//   - Data operations (Get, Put, Delete, Keys, UpdateBatch, ApplyBatch) run concurrently
//   - Lifecycle operations (Init, Close, SetName, DestroyDB) run exclusively
//   - Atomic batches: one engine batch, one commit
//   - Bounded enumeration memory through a process wide IterationPool
//   - Fatal events are reported to an Alerter
//
// Implementation Details:
//
//   - Lifecycle Guard: Every operation first takes a permit from a lockmgr.PermitGuard.
//     Data operations take a shared data permit, lifecycle operations the exclusive
//     lifecycle permit. The engine handle is only touched while a permit is held, so a
//     Close can never pull the engine away from a running Get. IsAlive, Name and
//     LastUsed read atomics and never block.
//
//   - Location Registry: Only one store of the process may have a directory open. Init
//     claims the resolved directory in a process wide xsync.MapOf and Close releases it.
//     DestroyDB refuses to erase a claimed directory and holds a claim of its own while
//     erasing, so no store can open the directory halfway through.
//
//   - Iteration Pool: Keys and batches lease a fixed budget from an IterationPool (a
//     weighted semaphore) for as long as they hold an engine cursor or batch. The lease is
//     released with defer on every path. Budgets larger than the pool are clamped, so a
//     lease is always granted eventually.
//
//   - Errors: All errors are *store.Error values. InvalidState and InvalidArgument are
//     returned right away. IOFailure (open, close, destroy, iteration, batch commit and
//     engine read/write failures) is reported to the Alerter with the category "kvds"
//     and returned, except for Close and DestroyDB which only report it. There are no
//     retries.
//
// Thread Safety:
//
//	All methods of Store are thread-safe. Permits are not reentrant, which is why the
//	methods of a Store never call each other.
//
// Usage Example:
//
//	cfg := common.DefaultStoreConfig()
//	cfg.DBDir = "/data"
//
//	s, err := lstore.NewStore("chain", cfg)
//	if err != nil {
//	    // unknown engine
//	}
//	if err := s.Init(); err != nil {
//	    // handle error
//	}
//	defer s.Close()
//
//	_, err = s.Put([]byte("A"), []byte("1"))
//	err = s.UpdateBatch(map[string][]byte{"A": []byte("3"), "C": []byte("4")})
//	keys, err := s.Keys()
//
// Metrics:
//
//	Every store reports into a go-metrics registry (Metrics): timers per data operation,
//	a batch size histogram, an IOFailure counter, the alert counter of the default
//	LogAlerter and the permit wait timers of the guard. The iteration pool reports its
//	leased bytes and lease count into its own registry.
package lstore
