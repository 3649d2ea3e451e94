package bolt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/kvds/lib/db"
	dbtesting "github.com/ValentinKolb/kvds/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempEngine(t *testing.T) db.Engine {
	t.Helper()
	engine, err := NewProvider().Open(filepath.Join(t.TempDir(), "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func Test(t *testing.T) {
	dbtesting.RunEngineTests(t, "BoltDB", func(tb testing.TB) (db.Provider, string) {
		return NewProvider(), filepath.Join(tb.TempDir(), "db")
	})
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "db")

	engine, err := NewProvider().Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, engine.Close())

	// File should exist
	_, err = os.Stat(filepath.Join(path, fileName))
	assert.NoError(t, err)
}

func TestEmptyKeyIsInvalid(t *testing.T) {
	engine := tempEngine(t)

	assert.ErrorIs(t, engine.Put([]byte{}, []byte("v")), db.ErrInvalidKey)

	batch := engine.NewBatch()
	defer batch.Close()
	require.NoError(t, batch.Put([]byte("ok"), []byte("v")))
	require.NoError(t, batch.Put([]byte{}, []byte("v")))
	assert.ErrorIs(t, batch.Commit(), db.ErrInvalidKey)

	// the failed batch left nothing behind
	_, err := engine.Get([]byte("ok"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDestroyMissingDirectory(t *testing.T) {
	assert.NoError(t, NewProvider().Destroy(filepath.Join(t.TempDir(), "missing")))
}

func Benchmark(b *testing.B) {
	dbtesting.RunEngineBenchmarks(b, "BoltDB", func(tb testing.TB) (db.Provider, string) {
		return NewProvider(), filepath.Join(tb.TempDir(), "db")
	})
}
