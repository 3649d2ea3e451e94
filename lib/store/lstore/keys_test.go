package lstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/ValentinKolb/kvds/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestKeys(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, _ := openTestStore(t, "test", testConfig(t, impl))

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Zero(t, keys.Len())

			for i := 0; i < 50; i++ {
				_, err := s.Put([]byte(fmt.Sprintf("key-%02d", i)), []byte("v"))
				require.NoError(t, err)
			}
			require.NoError(t, s.Delete([]byte("key-07")))

			keys, err = s.Keys()
			require.NoError(t, err)
			assert.Equal(t, 49, keys.Len())
			assert.True(t, keys.Has([]byte("key-00")))
			assert.False(t, keys.Has([]byte("key-07")))
			assert.EqualValues(t, 0, s.IterationPool().InUse())
		})
	}
}

func TestKeysIterationFailure(t *testing.T) {
	f := &faults{}
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))
	_, err := s.Put([]byte("key"), []byte("value"))
	require.NoError(t, err)

	f.cursorErr = errors.New("checksum mismatch")
	keys, err := s.Keys()
	assert.ErrorIs(t, err, store.ErrIOFailure)
	assert.Nil(t, keys, "no partial result on failure")

	alerts := alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCategory, alerts[0].category)
	assert.Contains(t, alerts[0].message, "checksum mismatch")
	assert.EqualValues(t, 0, s.IterationPool().InUse())
}

func TestKeysShareSmallPool(t *testing.T) {
	cfg := testConfig(t, db.ImplPebble)
	cfg.IterationBudget = common.DefaultIterationBudget

	// room for a single lease, enumerations have to take turns
	pool := NewIterationPool(common.DefaultIterationBudget, nil)
	s, _ := openTestStore(t, "test", cfg, WithIterationPool(pool))
	_, err := s.Put([]byte("key"), []byte("value"))
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			keys, err := s.Keys()
			if err != nil {
				return err
			}
			if keys.Len() != 1 {
				return fmt.Errorf("expected 1 key, got %d", keys.Len())
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 0, pool.InUse())
}
