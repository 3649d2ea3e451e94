// Package store provides the interface and the error system of a guarded key-value store.
// It sits on top of the lower level db.Engine implementations and defines what callers of
// a store can rely on: an explicit lifecycle, thread-safe data operations, atomic batches
// and point in time key enumeration.
//
// Key Components:
//
//   - IStore Interface: The operations of a store. Lifecycle operations (Init, SetName,
//     Close, DestroyDB) and data operations (Get, Put, Delete, Keys, UpdateBatch,
//     ApplyBatch). Keys and values are byte slices.
//
//   - Error System: Every error returned by a store is an *Error carrying a RetCode:
//     RetCInvalidState (operation not allowed in the current lifecycle state),
//     RetCInvalidArgument (missing or malformed argument, e.g. no name before Init) and
//     RetCIOFailure (the engine failed). The engine error is kept as the cause. The
//     sentinels ErrInvalidState, ErrInvalidArgument and ErrIOFailure match any *Error of
//     the same code with errors.Is.
//
//   - KeySet and Entry: The result type of Keys and the element type of ApplyBatch.
//
// Implementations:
//
//	- Local Store (lstore): One embedded engine per named store on the local disk,
//	  guarded by a lockmgr.PermitGuard.
//	  Available in the "github.com/ValentinKolb/kvds/lib/store/lstore" package.
//
// Example:
//
//	if _, err := s.Put(key, value); errors.Is(err, store.ErrInvalidState) {
//	    // the store is not open
//	}
package store
