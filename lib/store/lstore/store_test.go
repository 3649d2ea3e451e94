package lstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/ValentinKolb/kvds/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPutGet(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, _ := openTestStore(t, "test", testConfig(t, impl))

			written, err := s.Put([]byte("key"), []byte("value1"))
			require.NoError(t, err)
			assert.Equal(t, []byte("value1"), written)

			value, found, err := s.Get([]byte("key"))
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []byte("value1"), value)

			_, err = s.Put([]byte("key"), []byte("value2"))
			require.NoError(t, err)
			value, found, err = s.Get([]byte("key"))
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []byte("value2"), value)

			value, found, err = s.Get([]byte("missing"))
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, value)
		})
	}
}

func TestDeleteThenGet(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, _ := openTestStore(t, "test", testConfig(t, impl))

			_, err := s.Put([]byte("present"), []byte("value"))
			require.NoError(t, err)

			for _, key := range []string{"present", "absent"} {
				require.NoError(t, s.Delete([]byte(key)))
				_, found, err := s.Get([]byte(key))
				require.NoError(t, err)
				assert.False(t, found, "key %s should be absent after delete", key)
			}
		})
	}
}

func TestDoubleInit(t *testing.T) {
	s, _ := openTestStore(t, "test", testConfig(t, db.ImplPebble))
	_, err := s.Put([]byte("key"), []byte("value"))
	require.NoError(t, err)

	err = s.Init()
	assert.ErrorIs(t, err, store.ErrInvalidState)

	// the store is unaffected
	assert.True(t, s.IsAlive())
	value, found, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), value)
}

func TestDoubleClose(t *testing.T) {
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplPebble))

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, s.IsAlive())
	assert.Empty(t, alerter.all())
}

func TestCloseUninitialized(t *testing.T) {
	s, _ := newTestStore(t, "test", testConfig(t, db.ImplPebble))

	assert.NoError(t, s.Close())
	assert.Equal(t, StateUninitialized, s.State())
}

func TestDataOperationsRequireOpenStore(t *testing.T) {
	operations := map[string]func(s *Store) error{
		"Get": func(s *Store) error {
			_, _, err := s.Get([]byte("k"))
			return err
		},
		"Put": func(s *Store) error {
			_, err := s.Put([]byte("k"), []byte("v"))
			return err
		},
		"Delete": func(s *Store) error {
			return s.Delete([]byte("k"))
		},
		"Keys": func(s *Store) error {
			_, err := s.Keys()
			return err
		},
		"UpdateBatch": func(s *Store) error {
			return s.UpdateBatch(map[string][]byte{"k": []byte("v")})
		},
		"ApplyBatch(empty)": func(s *Store) error {
			return s.ApplyBatch(nil)
		},
	}

	for name, op := range operations {
		t.Run(name, func(t *testing.T) {
			uninitialized, _ := newTestStore(t, "test", testConfig(t, db.ImplPebble))
			assert.ErrorIs(t, op(uninitialized), store.ErrInvalidState, "uninitialized")

			closed, _ := openTestStore(t, "test", testConfig(t, db.ImplPebble))
			require.NoError(t, closed.Close())
			assert.ErrorIs(t, op(closed), store.ErrInvalidState, "closed")
		})
	}
}

func TestInitWithoutName(t *testing.T) {
	s, _ := newTestStore(t, "", testConfig(t, db.ImplPebble))

	assert.ErrorIs(t, s.Init(), store.ErrInvalidArgument)
	assert.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.SetName("named-later"))
	assert.Equal(t, "named-later", s.Name())
	require.NoError(t, s.Init())
	assert.True(t, s.IsAlive())
}

func TestSetName(t *testing.T) {
	s, _ := newTestStore(t, "", testConfig(t, db.ImplPebble))

	for _, invalid := range []string{"", "  ", ".", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, s.SetName(invalid), store.ErrInvalidArgument, "name %q", invalid)
	}

	require.NoError(t, s.SetName("chain"))
	require.NoError(t, s.Init())
	assert.ErrorIs(t, s.SetName("other"), store.ErrInvalidState)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.SetName("other"), store.ErrInvalidState)
	assert.Equal(t, "chain", s.Name())
}

func TestClosedIsTerminal(t *testing.T) {
	s, _ := openTestStore(t, "test", testConfig(t, db.ImplPebble))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Init(), store.ErrInvalidState)
	assert.Equal(t, StateClosed, s.State())
}

func TestChainDirectory(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			cfg := testConfig(t, impl)
			cfg.DBDir = filepath.Join(cfg.DBDir, "data")

			s, _ := openTestStore(t, "chain", cfg)

			expected := filepath.Join(cfg.DBDir, "chain")
			assert.Equal(t, expected, s.Path())
			info, err := os.Stat(expected)
			require.NoError(t, err)
			assert.True(t, info.IsDir())

			assert.ErrorIs(t, s.Init(), store.ErrInvalidState)
		})
	}
}

func TestRelativeBaseDir(t *testing.T) {
	workDir := t.TempDir()
	cfg := testConfig(t, db.ImplPebble)
	cfg.DBDir = "database"

	s, _ := openTestStore(t, "chain", cfg, WithWorkDir(workDir))

	expected := filepath.Join(workDir, "database", "chain")
	assert.Equal(t, expected, s.Path())
	_, err := os.Stat(expected)
	assert.NoError(t, err)
}

func TestEndToEndScenario(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, alerter := openTestStore(t, "test", testConfig(t, impl))

			_, err := s.Put([]byte("A"), []byte("1"))
			require.NoError(t, err)
			_, err = s.Put([]byte("B"), []byte("2"))
			require.NoError(t, err)
			require.NoError(t, s.UpdateBatch(map[string][]byte{"A": []byte("3"), "C": []byte("4")}))

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Equal(t, [][]byte{[]byte("A"), []byte("B"), []byte("C")}, keys.Sorted())

			for k, v := range map[string]string{"A": "3", "B": "2", "C": "4"} {
				value, found, err := s.Get([]byte(k))
				require.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, []byte(v), value, "value of %s", k)
			}
			assert.Empty(t, alerter.all())
		})
	}
}

func TestConcurrentDisjointPuts(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			s, _ := openTestStore(t, "test", testConfig(t, impl))

			const (
				numWorkers = 16
				numKeys    = 25
			)

			var g errgroup.Group
			for w := 0; w < numWorkers; w++ {
				g.Go(func() error {
					for i := 0; i < numKeys; i++ {
						key := fmt.Sprintf("worker-%d-key-%d", w, i)
						if _, err := s.Put([]byte(key), []byte(key)); err != nil {
							return err
						}
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			for w := 0; w < numWorkers; w++ {
				for i := 0; i < numKeys; i++ {
					key := fmt.Sprintf("worker-%d-key-%d", w, i)
					value, found, err := s.Get([]byte(key))
					require.NoError(t, err)
					require.True(t, found, "lost update for %s", key)
					assert.Equal(t, []byte(key), value)
				}
			}
		})
	}
}

func TestOneStorePerLocation(t *testing.T) {
	cfg := testConfig(t, db.ImplPebble)

	first, _ := openTestStore(t, "shared", cfg)
	second, _ := newTestStore(t, "shared", cfg)

	assert.ErrorIs(t, second.Init(), store.ErrInvalidState)
	assert.Equal(t, StateUninitialized, second.State())
	assert.Contains(t, OpenLocations(), first.Path())

	require.NoError(t, first.Close())
	assert.NotContains(t, OpenLocations(), first.Path())

	require.NoError(t, second.Init())
	assert.True(t, second.IsAlive())
}

func TestDestroyDB(t *testing.T) {
	for _, impl := range engineImpls {
		t.Run(string(impl), func(t *testing.T) {
			cfg := testConfig(t, impl)

			s, alerter := openTestStore(t, "doomed", cfg)
			_, err := s.Put([]byte("key"), []byte("value"))
			require.NoError(t, err)
			path := s.Path()
			require.NoError(t, s.Close())

			require.NoError(t, s.DestroyDB(path))
			_, err = os.Stat(path)
			assert.True(t, errors.Is(err, os.ErrNotExist), "directory should be gone")
			assert.Empty(t, alerter.all())

			// a new store at the same location starts empty
			reopened, _ := openTestStore(t, "doomed", cfg)
			_, found, err := reopened.Get([]byte("key"))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestDestroyOpenLocationIsRefused(t *testing.T) {
	s, _ := openTestStore(t, "test", testConfig(t, db.ImplPebble))
	_, err := s.Put([]byte("key"), []byte("value"))
	require.NoError(t, err)

	assert.ErrorIs(t, s.DestroyDB(s.Path()), store.ErrInvalidState)

	// also through a different store
	other, _ := newTestStore(t, "other", testConfig(t, db.ImplPebble))
	assert.ErrorIs(t, other.DestroyDB(s.Path()), store.ErrInvalidState)

	value, found, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), value)
}

func TestInitDuringDestroyIsRefused(t *testing.T) {
	cfg := testConfig(t, db.ImplPebble)
	path := filepath.Join(cfg.DBDir, "victim")

	f := &faults{
		destroyEntered: make(chan struct{}),
		destroyRelease: make(chan struct{}),
	}
	destroyer, _ := newTestStore(t, "destroyer", cfg, WithProvider(newFaultyProvider(f)))
	victim, _ := newTestStore(t, "victim", cfg)

	destroyDone := make(chan error, 1)
	go func() {
		destroyDone <- destroyer.DestroyDB(path)
	}()

	// the erase has started, the directory must not be opened now
	<-f.destroyEntered
	assert.ErrorIs(t, victim.Init(), store.ErrInvalidState)
	assert.False(t, victim.IsAlive())
	assert.Contains(t, OpenLocations(), path)

	close(f.destroyRelease)
	require.NoError(t, <-destroyDone)
	assert.NotContains(t, OpenLocations(), path)

	// once the erase is done the directory can be opened again
	require.NoError(t, victim.Init())
	_, err := victim.Put([]byte("key"), []byte("value"))
	require.NoError(t, err)
}

func TestDestroyDBRequiresPath(t *testing.T) {
	s, _ := newTestStore(t, "test", testConfig(t, db.ImplPebble))
	assert.ErrorIs(t, s.DestroyDB(" "), store.ErrInvalidArgument)
}

func TestDestroyFailureIsAlertedNotReturned(t *testing.T) {
	f := &faults{destroyErr: errors.New("permission denied")}
	s, alerter := newTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))

	assert.NoError(t, s.DestroyDB(filepath.Join(t.TempDir(), "whatever")))

	alerts := alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCategory, alerts[0].category)
	assert.Contains(t, alerts[0].message, "permission denied")
}

func TestOpenFailure(t *testing.T) {
	f := &faults{openErr: errors.New("disk full")}
	s, alerter := newTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))

	err := s.Init()
	assert.ErrorIs(t, err, store.ErrIOFailure)
	assert.ErrorIs(t, err, f.openErr)
	assert.Equal(t, StateUninitialized, s.State())

	alerts := alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCategory, alerts[0].category)
	assert.Contains(t, alerts[0].message, "disk full")

	// the location was not kept
	f.openErr = nil
	require.NoError(t, s.Init())
	assert.True(t, s.IsAlive())
}

func TestCloseFailure(t *testing.T) {
	f := &faults{}
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))
	path := s.Path()

	f.closeErr = errors.New("sync failed")
	assert.NoError(t, s.Close())

	// the failure is alerted and the store is closed anyway
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, s.IsAlive())
	assert.NotContains(t, OpenLocations(), path)
	alerts := alerter.all()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCategory, alerts[0].category)
	assert.Contains(t, alerts[0].message, "sync failed")
	assert.Equal(t, int64(1), s.metrics.ioFailures.Count())

	assert.NoError(t, s.Close())
}

func TestGetFailure(t *testing.T) {
	f := &faults{}
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))

	f.getErr = errors.New("corrupted block")
	_, found, err := s.Get([]byte("key"))
	assert.ErrorIs(t, err, store.ErrIOFailure)
	assert.False(t, found)
	assert.Len(t, alerter.all(), 1)
	assert.EqualValues(t, 1, s.metrics.ioFailures.Count())
}

func TestEmptyKeyRejectedByEngine(t *testing.T) {
	s, alerter := openTestStore(t, "test", testConfig(t, db.ImplBolt))

	_, err := s.Put([]byte{}, []byte("value"))
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	assert.Empty(t, alerter.all())
}

func TestUnknownEngine(t *testing.T) {
	cfg := common.DefaultStoreConfig()
	cfg.Engine = "rocksdb"

	_, err := NewStore("test", cfg)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestLastUsed(t *testing.T) {
	s, _ := newTestStore(t, "test", testConfig(t, db.ImplPebble))
	assert.True(t, s.LastUsed().IsZero())

	require.NoError(t, s.Init())
	afterInit := s.LastUsed()
	assert.False(t, afterInit.IsZero())

	time.Sleep(5 * time.Millisecond)
	_, _, err := s.Get([]byte("key"))
	require.NoError(t, err)
	assert.True(t, s.LastUsed().After(afterInit))
}

func TestFailedInitCountsAsUse(t *testing.T) {
	f := &faults{openErr: errors.New("disk full")}
	s, _ := newTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))

	assert.ErrorIs(t, s.Init(), store.ErrIOFailure)
	assert.False(t, s.LastUsed().IsZero())
}

func TestCloseWaitsForDataOperations(t *testing.T) {
	f := &faults{
		getEntered: make(chan struct{}),
		getRelease: make(chan struct{}),
	}
	s, _ := openTestStore(t, "test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))

	getDone := make(chan error, 1)
	go func() {
		_, _, err := s.Get([]byte("key"))
		getDone <- err
	}()
	<-f.getEntered

	closeDone := make(chan error, 1)
	go func() {
		closeDone <- s.Close()
	}()

	select {
	case <-closeDone:
		t.Fatal("Close returned while a Get was running")
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, s.IsAlive())

	close(f.getRelease)
	require.NoError(t, <-getDone)
	require.NoError(t, <-closeDone)
	assert.Equal(t, StateClosed, s.State())
}

func TestMetrics(t *testing.T) {
	s, _ := openTestStore(t, "test", testConfig(t, db.ImplPebble))

	_, err := s.Put([]byte("a"), []byte("1"))
	require.NoError(t, err)
	_, _, err = s.Get([]byte("a"))
	require.NoError(t, err)
	_, err = s.Keys()
	require.NoError(t, err)

	assert.EqualValues(t, 1, s.metrics.put.Count())
	assert.EqualValues(t, 1, s.metrics.get.Count())
	assert.EqualValues(t, 1, s.metrics.keys.Count())
	assert.NotNil(t, s.Metrics().Get(MetricGet))
}
