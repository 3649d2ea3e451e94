package lstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/ValentinKolb/kvds/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestUpdateBatch(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, _ := openTestStore(t, "test", testConfig(t, impl))

			rows := map[string][]byte{}
			for i := 0; i < 100; i++ {
				rows[fmt.Sprintf("row-%03d", i)] = []byte(fmt.Sprintf("value-%d", i))
			}
			require.NoError(t, s.UpdateBatch(rows))

			for k, v := range rows {
				value, found, err := s.Get([]byte(k))
				require.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, v, value)
			}
			assert.EqualValues(t, 1, s.metrics.batch.Count())
			assert.EqualValues(t, 0, s.IterationPool().InUse())
		})
	}
}

func TestApplyBatchLastEntryWins(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, _ := openTestStore(t, "test", testConfig(t, impl))

			require.NoError(t, s.ApplyBatch([]store.Entry{
				{Key: []byte("k"), Value: []byte("first")},
				{Key: []byte("other"), Value: []byte("x")},
				{Key: []byte("k"), Value: []byte("last")},
			}))

			value, found, err := s.Get([]byte("k"))
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []byte("last"), value)
		})
	}
}

func TestEmptyBatchIsNoop(t *testing.T) {
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplPebble))

	require.NoError(t, s.UpdateBatch(nil))
	require.NoError(t, s.ApplyBatch([]store.Entry{}))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Zero(t, keys.Len())
	assert.EqualValues(t, 0, s.metrics.batch.Count())
	assert.Empty(t, alerter.all())
}

func TestBatchCommitFailure(t *testing.T) {
	f := &faults{}
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))

	f.commitErr = errors.New("wal write failed")
	err := s.UpdateBatch(map[string][]byte{"A": []byte("1"), "B": []byte("2")})
	assert.ErrorIs(t, err, store.ErrIOFailure)
	assert.ErrorIs(t, err, f.commitErr)

	alerts := alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCategory, alerts[0].category)

	// nothing was applied and the lease is back
	f.commitErr = nil
	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Zero(t, keys.Len())
	assert.EqualValues(t, 0, s.IterationPool().InUse())
	assert.True(t, s.IsAlive())
}

func TestBatchInvalidKey(t *testing.T) {
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplBolt))

	err := s.ApplyBatch([]store.Entry{
		{Key: []byte("ok"), Value: []byte("1")},
		{Key: []byte{}, Value: []byte("2")},
	})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	assert.Empty(t, alerter.all())

	_, found, err := s.Get([]byte("ok"))
	require.NoError(t, err)
	assert.False(t, found)
}

// A concurrent enumeration sees both keys of a batch or neither.
func TestBatchIsAtomicWithRespectToKeys(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, _ := openTestStore(t, "test", testConfig(t, impl))

			const numBatches = 100
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var g errgroup.Group
			g.Go(func() error {
				defer cancel()
				for i := 0; i < numBatches; i++ {
					err := s.UpdateBatch(map[string][]byte{
						fmt.Sprintf("A-%03d", i): []byte("1"),
						fmt.Sprintf("B-%03d", i): []byte("2"),
					})
					if err != nil {
						return err
					}
				}
				return nil
			})

			for r := 0; r < 4; r++ {
				g.Go(func() error {
					for ctx.Err() == nil {
						keys, err := s.Keys()
						if err != nil {
							return err
						}
						for i := 0; i < numBatches; i++ {
							hasA := keys.Has([]byte(fmt.Sprintf("A-%03d", i)))
							hasB := keys.Has([]byte(fmt.Sprintf("B-%03d", i)))
							if hasA != hasB {
								return fmt.Errorf("batch %d observed half applied (A=%t, B=%t)", i, hasA, hasB)
							}
						}
					}
					return nil
				})
			}

			require.NoError(t, g.Wait())

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Equal(t, 2*numBatches, keys.Len())
		})
	}
}
