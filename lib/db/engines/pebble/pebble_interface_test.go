package pebble

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/kvds/lib/db"
	dbtesting "github.com/ValentinKolb/kvds/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	dbtesting.RunEngineTests(t, "PebbleDB", func(tb testing.TB) (db.Provider, string) {
		return NewProvider(), filepath.Join(tb.TempDir(), "db")
	})

	dbtesting.RunEngineTests(t, "PebbleDB(mem)", func(tb testing.TB) (db.Provider, string) {
		return NewMemProvider(), "db"
	})
}

func TestOpenWithoutParanoidChecks(t *testing.T) {
	opts := db.DefaultOptions()
	opts.ParanoidChecks = false
	opts.Compression = true

	engine, err := NewMemProvider().Open("db", opts)
	require.NoError(t, err)
	defer engine.Close()

	require.NoError(t, engine.Put([]byte("k"), []byte("v")))
	value, err := engine.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestImplementation(t *testing.T) {
	assert.Equal(t, db.ImplPebble, NewProvider().Implementation())
}

func Benchmark(b *testing.B) {
	dbtesting.RunEngineBenchmarks(b, "PebbleDB", func(tb testing.TB) (db.Provider, string) {
		return NewProvider(), filepath.Join(tb.TempDir(), "db")
	})
}
