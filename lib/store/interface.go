package store

import (
	"fmt"
	"sort"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface of a guarded key-value store.
//
// A store is created Uninitialized, becomes Open with Init and Closed with Close. Closed is
// terminal. Data operations (Get, Put, Delete, Keys, UpdateBatch, ApplyBatch) are only
// allowed while the store is Open, otherwise they fail with an *Error of code
// RetCInvalidState. All errors returned are of type *Error.
type IStore interface {
	// Init opens the engine at <base dir>/<name>.
	Init() error
	// IsAlive reports whether the store is Open. It never blocks.
	IsAlive() bool
	// SetName sets the name of the store. Only allowed before Init.
	SetName(name string) error
	// Name returns the name of the store.
	Name() string
	// Get returns the value for a key. The boolean indicates whether the key was found.
	Get(key []byte) (value []byte, found bool, err error)
	// Put stores the value under key and returns the value that was written.
	Put(key, value []byte) ([]byte, error)
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key []byte) error
	// Keys returns a point in time snapshot of all keys.
	Keys() (KeySet, error)
	// UpdateBatch writes all rows atomically: either all of them become visible or none.
	UpdateBatch(rows map[string][]byte) error
	// ApplyBatch writes all entries atomically, a later entry for the same key wins.
	ApplyBatch(entries []Entry) error
	// Close closes the engine. Closing a store that is not Open does nothing.
	Close() error
	// DestroyDB erases all data persisted at path.
	DestroyDB(path string) error
	// LastUsed returns the time of the last Init or data operation.
	LastUsed() time.Time
}

// Entry is a single key-value pair of a batch
type Entry struct {
	Key   []byte
	Value []byte
}

// --------------------------------------------------------------------------
// Key Set
// --------------------------------------------------------------------------

// KeySet is an unordered set of keys as returned by IStore.Keys.
type KeySet map[string]struct{}

// Add inserts a copy of key
func (s KeySet) Add(key []byte) {
	s[string(key)] = struct{}{}
}

// Has reports whether key is in the set
func (s KeySet) Has(key []byte) bool {
	_, ok := s[string(key)]
	return ok
}

// Len returns the number of keys
func (s KeySet) Len() int {
	return len(s)
}

// Sorted returns all keys in ascending byte order
func (s KeySet) Sorted() [][]byte {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([][]byte, len(keys))
	for i, k := range keys {
		result[i] = []byte(k)
	}
	return result
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and optionally the error that caused it.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The cause (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("KVStoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrInvalidState) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new KVStoreError with the given code and message that wraps err.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// Sentinels for errors.Is
var (
	ErrInvalidState    = NewError(RetCInvalidState, "invalid state")
	ErrInvalidArgument = NewError(RetCInvalidArgument, "invalid argument")
	ErrIOFailure       = NewError(RetCIOFailure, "io failure")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Command executed successfully.
	RetCInvalidState                   // 1: Operation not allowed in the current lifecycle state.
	RetCInvalidArgument                // 2: A required argument is missing or malformed.
	RetCIOFailure                      // 3: The engine failed to open, read, write, enumerate, close or destroy.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInvalidState:
		return "InvalidState"
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCIOFailure:
		return "IOFailure"
	default:
		return "Unknown"
	}
}
