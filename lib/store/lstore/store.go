package lstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/ValentinKolb/kvds/lib/db/engines"
	"github.com/ValentinKolb/kvds/lib/lockmgr"
	"github.com/ValentinKolb/kvds/lib/store"
	"github.com/rcrowley/go-metrics"
)

var log = common.CreateLogger("store")

// State is the lifecycle state of a store
type State int32

const (
	StateUninitialized State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Store is a named key-value store backed by one embedded engine.
//
// The engine handle is owned by the store while it is Open and only used under a permit
// of the store's guard: data operations hold a data permit, Init, Close, SetName and
// DestroyDB hold the lifecycle permit.
type Store struct {
	name atomic.Pointer[string]
	path atomic.Pointer[string]

	config     common.StoreConfig
	workDir    string
	provider   db.Provider
	engineOpts *db.Options
	guard      lockmgr.IPermitGuard
	pool       *IterationPool
	budget     int64
	alerter    Alerter
	registry   metrics.Registry
	metrics    *storeMetrics

	state    atomic.Int32
	engine   db.Engine
	lastUsed atomic.Int64
}

var _ store.IStore = (*Store)(nil)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Option configures a Store created by NewStore
type Option func(*Store)

// WithProvider sets the engine provider, overriding the engine of the configuration
func WithProvider(provider db.Provider) Option {
	return func(s *Store) { s.provider = provider }
}

// WithAlerter sets the receiver of fatal events (default: a LogAlerter)
func WithAlerter(alerter Alerter) Option {
	return func(s *Store) { s.alerter = alerter }
}

// WithIterationPool sets the pool enumerations and batches lease from
// (default: DefaultIterationPool)
func WithIterationPool(pool *IterationPool) Option {
	return func(s *Store) { s.pool = pool }
}

// WithMetrics sets the registry the store reports into (default: a private registry)
func WithMetrics(registry metrics.Registry) Option {
	return func(s *Store) { s.registry = registry }
}

// WithWorkDir sets the directory a relative base directory is resolved against
// (default: the working directory of the process at Init)
func WithWorkDir(dir string) Option {
	return func(s *Store) { s.workDir = dir }
}

// WithEngineOptions overrides the engine tuning (default: db.DefaultOptions)
func WithEngineOptions(opts *db.Options) Option {
	return func(s *Store) { s.engineOpts = opts }
}

// --------------------------------------------------------------------------
// Constructor
// --------------------------------------------------------------------------

// NewStore creates an Uninitialized store. The name may be empty and set later with
// SetName, it must be set before Init.
// An error is only returned if the engine of the configuration is unknown.
func NewStore(name string, cfg common.StoreConfig, opts ...Option) (*Store, error) {
	s := &Store{
		config:     cfg,
		budget:     cfg.IterationBudget,
		engineOpts: db.DefaultOptions(),
	}
	s.name.Store(&name)
	s.state.Store(int32(StateUninitialized))

	for _, opt := range opts {
		opt(s)
	}

	if s.provider == nil {
		provider, err := engines.Lookup(cfg.Engine)
		if err != nil {
			return nil, store.WrapError(store.RetCInvalidArgument, "unknown engine", err)
		}
		s.provider = provider
	}
	if s.config.DBDir == "" {
		s.config.DBDir = common.DefaultDBDir
	}
	if s.registry == nil {
		s.registry = metrics.NewRegistry()
	}
	if s.alerter == nil {
		s.alerter = NewLogAlerter(s.registry)
	}
	if s.pool == nil {
		s.pool = DefaultIterationPool()
	}
	if s.budget <= 0 {
		s.budget = common.DefaultIterationBudget
	}

	s.guard = lockmgr.NewPermitGuard(s.registry)
	s.metrics = newStoreMetrics(s.registry)
	return s, nil
}

// --------------------------------------------------------------------------
// Accessors (no permit needed)
// --------------------------------------------------------------------------

// IsAlive reports whether the store is Open.
//
// Thread-safety: This method is thread-safe and never blocks.
func (s *Store) IsAlive() bool {
	return s.State() == StateOpen
}

// State returns the current lifecycle state
func (s *Store) State() State {
	return State(s.state.Load())
}

func (s *Store) Name() string {
	return *s.name.Load()
}

// Path returns the directory of the engine. It is empty until the first successful Init.
func (s *Store) Path() string {
	if p := s.path.Load(); p != nil {
		return *p
	}
	return ""
}

// LastUsed returns the time of the last Init or data operation (zero if never used)
func (s *Store) LastUsed() time.Time {
	n := s.lastUsed.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Metrics returns the registry with the store, alert and permit metrics
func (s *Store) Metrics() metrics.Registry {
	return s.registry
}

// IterationPool returns the pool the store leases from
func (s *Store) IterationPool() *IterationPool {
	return s.pool
}

// --------------------------------------------------------------------------
// Lifecycle operations (lifecycle permit)
// --------------------------------------------------------------------------

// SetName sets the name of the store. The name is a single path element and can only be
// changed while the store is Uninitialized.
func (s *Store) SetName(name string) error {
	permit := s.guard.AcquireLifecyclePermit()
	defer permit.Release()

	if state := s.State(); state != StateUninitialized {
		return store.NewError(store.RetCInvalidState, fmt.Sprintf("cannot rename a store that is %s", state))
	}
	if err := validateName(name); err != nil {
		return err
	}

	s.name.Store(&name)
	return nil
}

// Init opens the engine in <base dir>/<name> with the fixed engine tuning.
//
// Fails with InvalidState if the store is Open or Closed or another store of this process
// has the directory open, with InvalidArgument if the name is missing and with IOFailure
// (alerted) if the engine cannot be opened.
func (s *Store) Init() error {
	permit := s.guard.AcquireLifecyclePermit()
	defer permit.Release()

	s.touch()

	switch s.State() {
	case StateOpen:
		return store.NewError(store.RetCInvalidState, "store is already open")
	case StateClosed:
		return store.NewError(store.RetCInvalidState, "store is closed")
	}

	name := s.Name()
	if err := validateName(name); err != nil {
		return err
	}

	workDir, err := s.resolveWorkDir()
	if err != nil {
		return s.ioFailure("resolving working directory", err)
	}
	path := filepath.Clean(s.config.ResolveDir(workDir, name))

	if !claimLocation(path, s) {
		return store.NewError(store.RetCInvalidState, fmt.Sprintf("database %s is already open in this process", path))
	}

	log.Debug().Str("name", name).Str("path", path).Str("engine", string(s.provider.Implementation())).Msg("opening database")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		releaseLocation(path, s)
		return s.ioFailure(fmt.Sprintf("creating parent directory of %s", path), err)
	}

	engine, err := s.provider.Open(path, s.engineOpts)
	if err != nil {
		releaseLocation(path, s)
		return s.ioFailure(fmt.Sprintf("opening database %s", path), err)
	}

	s.engine = engine
	s.path.Store(&path)
	s.state.Store(int32(StateOpen))

	log.Debug().Str("name", name).Msg("database opened")
	return nil
}

// Close closes the engine. Closing a store that is not Open does nothing.
//
// The store becomes Closed and gives up its directory even if the engine fails to close.
// Such a failure is alerted and logged, Close still returns nil.
func (s *Store) Close() error {
	permit := s.guard.AcquireLifecyclePermit()
	defer permit.Release()

	if s.State() != StateOpen {
		return nil
	}

	path := s.Path()
	err := s.engine.Close()

	s.engine = nil
	s.state.Store(int32(StateClosed))
	releaseLocation(path, s)

	if err != nil {
		_ = s.ioFailure(fmt.Sprintf("closing database %s", path), err)
		log.Warn().Str("name", s.Name()).Err(err).Msg("database closed with errors")
		return nil
	}

	log.Debug().Str("name", s.Name()).Msg("database closed")
	return nil
}

// DestroyDB erases everything persisted at path. A relative path is resolved like the
// base directory.
//
// Destroying a directory a store of this process has open fails with InvalidState and
// erases nothing. While the erase runs, Init of any store on path fails with InvalidState.
// Engine failures are alerted but not returned.
func (s *Store) DestroyDB(path string) error {
	permit := s.guard.AcquireLifecyclePermit()
	defer permit.Release()

	if strings.TrimSpace(path) == "" {
		return store.NewError(store.RetCInvalidArgument, "path must not be empty")
	}

	if !filepath.IsAbs(path) {
		workDir, err := s.resolveWorkDir()
		if err != nil {
			_ = s.ioFailure("resolving working directory", err)
			return nil
		}
		path = filepath.Join(workDir, path)
	}
	path = filepath.Clean(path)

	// the claim keeps other stores from opening path until the erase is done
	if (s.State() == StateOpen && s.Path() == path) || !claimLocation(path, s) {
		return store.NewError(store.RetCInvalidState, fmt.Sprintf("cannot destroy %s while it is open", path))
	}
	defer releaseLocation(path, s)

	log.Debug().Str("path", path).Msg("destroying database")

	if err := s.provider.Destroy(path); err != nil {
		_ = s.ioFailure(fmt.Sprintf("destroying database %s", path), err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Data operations (data permit)
// --------------------------------------------------------------------------

// Get returns the value stored under key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	permit := s.guard.AcquireDataPermit()
	defer permit.Release()

	if err := s.checkOpen("get"); err != nil {
		return nil, false, err
	}
	defer s.metrics.get.UpdateSince(time.Now())
	s.touch()

	value, err := s.engine.Get(key)
	if errors.Is(err, db.ErrNotFound) {
		log.Trace().Str("name", s.Name()).Hex("key", key).Msg("get: not found")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.engineFailure("get", err)
	}

	log.Trace().Str("name", s.Name()).Hex("key", key).Int("size", len(value)).Msg("get")
	return value, true, nil
}

// Put stores value under key and returns value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) Put(key, value []byte) ([]byte, error) {
	permit := s.guard.AcquireDataPermit()
	defer permit.Release()

	if err := s.checkOpen("put"); err != nil {
		return nil, err
	}
	defer s.metrics.put.UpdateSince(time.Now())
	s.touch()

	log.Trace().Str("name", s.Name()).Hex("key", key).Int("size", len(value)).Msg("put")

	if err := s.engine.Put(key, value); err != nil {
		return nil, s.engineFailure("put", err)
	}
	return value, nil
}

// Delete removes key. A missing key is not an error.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Store) Delete(key []byte) error {
	permit := s.guard.AcquireDataPermit()
	defer permit.Release()

	if err := s.checkOpen("delete"); err != nil {
		return err
	}
	defer s.metrics.delete.UpdateSince(time.Now())
	s.touch()

	log.Trace().Str("name", s.Name()).Hex("key", key).Msg("delete")

	if err := s.engine.Delete(key); err != nil {
		return s.engineFailure("delete", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// checkOpen must be called with a permit held
func (s *Store) checkOpen(op string) error {
	if state := s.State(); state != StateOpen {
		return store.NewError(store.RetCInvalidState, fmt.Sprintf("%s on a store that is %s", op, state))
	}
	return nil
}

func (s *Store) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Store) resolveWorkDir() (string, error) {
	if s.workDir != "" {
		return s.workDir, nil
	}
	return os.Getwd()
}

// ioFailure alerts and wraps err as IOFailure
func (s *Store) ioFailure(msg string, err error) error {
	s.metrics.ioFailures.Inc(1)
	s.alerter.Alert(AlertCategory, fmt.Sprintf("%s [%s]: %v", msg, s.Name(), err))
	return store.WrapError(store.RetCIOFailure, msg, err)
}

// engineFailure maps an engine error of a data operation
func (s *Store) engineFailure(op string, err error) error {
	if errors.Is(err, db.ErrInvalidKey) {
		return store.WrapError(store.RetCInvalidArgument, op+": key rejected by engine", err)
	}
	return s.ioFailure(op+" failed", err)
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return store.NewError(store.RetCInvalidArgument, "name must be set")
	case name == "." || name == ".." || strings.ContainsAny(name, `/\`):
		return store.NewError(store.RetCInvalidArgument, fmt.Sprintf("name %q must be a single path element", name))
	}
	return nil
}
