package engines

import (
	"testing"

	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, impl := range []db.Implementation{db.ImplPebble, db.ImplBolt} {
		provider, err := Lookup(impl)
		require.NoError(t, err)
		assert.Equal(t, impl, provider.Implementation())
	}

	_, err := Lookup("rocksdb")
	assert.Error(t, err)
}
