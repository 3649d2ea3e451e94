package testing

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EngineFactory returns a provider and a fresh database path for one test.
// Opening the path twice with the same provider must reach the same data.
type EngineFactory func(tb testing.TB) (db.Provider, string)

// RunEngineTests runs a comprehensive test suite for a db.Engine implementation.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, open(t, factory))
		})

		t.Run("EmptyValue", func(t *testing.T) {
			testEmptyValue(t, open(t, factory))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, open(t, factory))
		})

		t.Run("Batch", func(t *testing.T) {
			testBatch(t, open(t, factory))
		})

		t.Run("BatchDiscard", func(t *testing.T) {
			testBatchDiscard(t, open(t, factory))
		})

		t.Run("CursorOrder", func(t *testing.T) {
			testCursorOrder(t, open(t, factory))
		})

		t.Run("Reopen", func(t *testing.T) {
			testReopen(t, factory)
		})

		t.Run("Destroy", func(t *testing.T) {
			testDestroy(t, factory)
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, factory)
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, open(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// open creates a fresh engine which is closed when the test ends
func open(tb testing.TB, factory EngineFactory) db.Engine {
	tb.Helper()
	provider, path := factory(tb)
	engine, err := provider.Open(path, db.DefaultOptions())
	require.NoError(tb, err)
	tb.Cleanup(func() {
		_ = engine.Close()
	})
	return engine
}

// collectKeys drains a new cursor of the engine
func collectKeys(tb testing.TB, engine db.Engine) []string {
	tb.Helper()
	cursor, err := engine.NewCursor()
	require.NoError(tb, err)
	defer cursor.Close()

	var keys []string
	for cursor.Next() {
		keys = append(keys, string(cursor.Key()))
	}
	require.NoError(tb, cursor.Err())
	return keys
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, engine db.Engine) {
	require.NoError(t, engine.Put([]byte("test-key"), []byte("test-value1")))

	value, err := engine.Get([]byte("test-key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("test-value1"), value)

	// overwrite
	require.NoError(t, engine.Put([]byte("test-key"), []byte("test-value2")))
	value, err = engine.Get([]byte("test-key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("test-value2"), value)

	_, err = engine.Get([]byte("nonexistent-key"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	// returned values are copies
	value[0] = 'X'
	original, err := engine.Get([]byte("test-key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("test-value2"), original, "Get should return a copy, not a reference to the stored value")
}

func testEmptyValue(t *testing.T, engine db.Engine) {
	require.NoError(t, engine.Put([]byte("empty"), []byte{}))

	value, err := engine.Get([]byte("empty"))
	require.NoError(t, err, "an empty value must be distinguishable from a missing key")
	assert.Empty(t, value)
}

func testDelete(t *testing.T, engine db.Engine) {
	require.NoError(t, engine.Put([]byte("delete-me"), []byte("value")))
	require.NoError(t, engine.Delete([]byte("delete-me")))

	_, err := engine.Get([]byte("delete-me"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, engine.Delete([]byte("never-written")))
}

func testBatch(t *testing.T, engine db.Engine) {
	require.NoError(t, engine.Put([]byte("a"), []byte("old")))

	batch := engine.NewBatch()
	defer batch.Close()

	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	require.NoError(t, batch.Put([]byte("c"), []byte("3")))
	assert.Equal(t, 3, batch.Len())

	// nothing is visible before the commit
	value, err := engine.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), value)
	_, err = engine.Get([]byte("b"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, batch.Commit())

	for k, v := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		value, err := engine.Get([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, []byte(v), value)
	}

	// a committed batch is done
	assert.ErrorIs(t, batch.Commit(), db.ErrBatchDone)
	assert.ErrorIs(t, batch.Put([]byte("d"), []byte("4")), db.ErrBatchDone)
}

func testBatchDiscard(t *testing.T, engine db.Engine) {
	batch := engine.NewBatch()
	require.NoError(t, batch.Put([]byte("discarded"), []byte("value")))
	require.NoError(t, batch.Close())

	_, err := engine.Get([]byte("discarded"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	// closing twice is fine
	assert.NoError(t, batch.Close())
}

func testCursorOrder(t *testing.T, engine db.Engine) {
	assert.Empty(t, collectKeys(t, engine))

	var expected []string
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%03d", (i*37)%100)
		require.NoError(t, engine.Put([]byte(key), []byte("v")))
		expected = append(expected, key)
	}
	sort.Strings(expected)

	assert.Equal(t, expected, collectKeys(t, engine))

	require.NoError(t, engine.Delete([]byte("key-050")))
	assert.NotContains(t, collectKeys(t, engine), "key-050")
}

func testReopen(t *testing.T, factory EngineFactory) {
	provider, path := factory(t)

	engine, err := provider.Open(path, db.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, engine.Put([]byte("persistent"), []byte("value")))
	require.NoError(t, engine.Close())

	engine, err = provider.Open(path, db.DefaultOptions())
	require.NoError(t, err)
	defer engine.Close()

	value, err := engine.Get([]byte("persistent"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func testDestroy(t *testing.T, factory EngineFactory) {
	provider, path := factory(t)

	engine, err := provider.Open(path, db.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, engine.Put([]byte("gone"), []byte("value")))
	require.NoError(t, engine.Close())

	require.NoError(t, provider.Destroy(path))

	// a reopened database starts empty
	engine, err = provider.Open(path, db.DefaultOptions())
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Get([]byte("gone"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testClose(t *testing.T, factory EngineFactory) {
	provider, path := factory(t)

	engine, err := provider.Open(path, db.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, engine.Close())
	assert.ErrorIs(t, engine.Close(), db.ErrClosed)
}

func testConcurrent(t *testing.T, engine db.Engine) {
	const (
		numWorkers = 8
		numKeys    = 200
	)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	errs := make(chan error, numWorkers*numKeys)

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < numKeys; i++ {
				key := []byte(fmt.Sprintf("worker-%d-key-%d", workerId, i))
				if err := engine.Put(key, key); err != nil {
					errs <- err
					continue
				}
				value, err := engine.Get(key)
				if err != nil {
					errs <- err
					continue
				}
				if string(value) != string(key) {
					errs <- fmt.Errorf("value mismatch for %s: %s", key, value)
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, collectKeys(t, engine), numWorkers*numKeys)
}
