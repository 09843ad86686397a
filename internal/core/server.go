package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/ravenembed/internal/fileutil"
	"github.com/giantswarm/ravenembed/internal/lazy"
	"github.com/giantswarm/ravenembed/internal/process"
	"github.com/giantswarm/ravenembed/internal/provider"
	"github.com/giantswarm/ravenembed/internal/ravenserver"
)

// Server owns one RavenDB server process and the document stores opened
// against it. It is safe for concurrent use by multiple goroutines.
//
// Synchronization strategy:
//   - slot is the single-flight server computation. It is installed once
//     by Start under mu and never replaced.
//   - stores maps database names to single-flight store computations.
//     Entries are removed when their store is closed or fails to open.
//   - closed is set once by Close. Operations check it before doing work;
//     a store that finishes opening after Close closes itself.
type Server struct {
	cfg ServerConfig
	id  string
	log *slog.Logger

	mu   sync.Mutex
	slot *lazy.Value[*ravenserver.Process]

	stores *lazy.Map[string, *trackedStore]
	closed atomic.Bool
}

// NewServer creates a Server with the provided configuration. This performs
// no I/O operations. Call Start before any other method.
//
// Panics if cfg.Validate() reports any errors. Invalid configuration is a
// programmer error that should be caught at construction time.
func NewServer(cfg ServerConfig) *Server {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("ravenembed: %v", err))
	}
	id := uuid.NewString()
	return &Server{
		cfg:    cfg,
		id:     id,
		log:    Logger().With("server", id),
		stores: lazy.NewMap[string, *trackedStore](),
	}
}

// ID returns the unique identifier of this Server, used in its log records.
func (s *Server) ID() string {
	return s.id
}

// Start provides the server files, launches the server and waits until it
// announces its address. Only the first call does any work; later calls
// return ErrAlreadyStarted whether or not the first one succeeded.
//
// If ctx ends first, Start returns ctx.Err() and the startup carries on in
// the background; URL waits for its outcome.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.slot != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	slot := lazy.New(s.run)
	s.slot = slot
	// Launched under mu: a Close that sees the slot must also see it started,
	// or it would not wait for the process it has to stop.
	slot.Start(ctx)
	s.mu.Unlock()

	_, err := slot.Get(ctx)
	return err
}

// run is the server computation behind the slot installed by Start.
func (s *Server) run(ctx context.Context) (*ravenserver.Process, error) {
	started := time.Now()

	if err := s.provide(ctx); err != nil {
		s.cfg.Metrics.observeStart(started, err)
		return nil, err
	}

	proc, err := ravenserver.Start(ctx, s.cfg.processConfig(s.log))
	s.cfg.Metrics.observeStart(started, err)
	if err != nil {
		return nil, err
	}

	s.log.Info("server started",
		slog.String("url", proc.URL()),
		slog.Int("pid", proc.Pid()),
		slog.Duration("elapsed", time.Since(started)))
	return proc, nil
}

// provide materializes the server files into the server directory while
// holding the directory lock, so servers in other processes sharing the
// directory do not clear or overwrite it concurrently.
func (s *Server) provide(ctx context.Context) error {
	dir := s.cfg.ServerDir

	fl, err := provider.Lock(ctx, dir)
	if err != nil {
		return ErrProvideFailed.Errorf("%w", err)
	}
	defer provider.Unlock(s.log, fl)

	if s.cfg.ClearServerDir {
		if err := fileutil.RemoveDir(dir); err != nil {
			s.log.Debug("failed to spawn server files", "error", err)
			return ErrProvideFailed.Errorf("%w", err)
		}
	}
	if s.cfg.Provider == nil {
		return nil
	}
	if err := s.cfg.Provider.Provide(ctx, dir); err != nil {
		s.log.Debug("failed to spawn server files", "error", err)
		return ErrProvideFailed.Errorf("%w", err)
	}
	return nil
}

// serverSlot returns the slot installed by Start, or an error when there is
// none or the Server is closed.
func (s *Server) serverSlot() (*lazy.Value[*ravenserver.Process], error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot == nil {
		return nil, ErrNotStarted
	}
	return s.slot, nil
}

// URL returns the address the server announced, waiting for an in-flight
// Start to finish. It returns the startup error if Start failed.
func (s *Server) URL(ctx context.Context) (string, error) {
	slot, err := s.serverSlot()
	if err != nil {
		return "", err
	}
	proc, err := slot.Get(ctx)
	if err != nil {
		return "", err
	}
	return proc.URL(), nil
}

// DocumentStore returns the store for the named database, creating the
// database if needed.
//
//nolint:ireturn // Returns the DocumentStore interface produced by the ClientFactory.
func (s *Server) DocumentStore(ctx context.Context, database string) (DocumentStore, error) {
	return s.DocumentStoreWithOptions(ctx, DatabaseOptions{Name: database})
}

// DocumentStoreWithOptions returns the store for opts.Name. Concurrent
// callers asking for the same database share one store, opened once. A
// failure is returned to every waiting caller and forgotten, so a later
// call tries again.
//
//nolint:ireturn // Returns the DocumentStore interface produced by the ClientFactory.
func (s *Server) DocumentStoreWithOptions(ctx context.Context, opts DatabaseOptions) (DocumentStore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	name := opts.Name
	s.log.Debug("creating document store", "database", name)

	store, slot, err := s.stores.Get(ctx, name, func(ctx context.Context) (*trackedStore, error) {
		return s.openStore(ctx, opts)
	})
	if err != nil {
		if slot.State() == lazy.StateFailed {
			s.stores.DeleteSlot(name, slot)
		}
		return nil, err
	}
	return store, nil
}

// openStore is the store computation behind a per-database slot.
func (s *Server) openStore(ctx context.Context, opts DatabaseOptions) (*trackedStore, error) {
	name := opts.Name

	url, err := s.URL(ctx)
	if err != nil {
		return nil, err
	}

	inner, err := s.cfg.ClientFactory.NewDocumentStore(ctx, ClientRequest{
		URL:         url,
		Database:    name,
		Security:    s.cfg.Security,
		Conventions: opts.Conventions,
	})
	if err != nil {
		s.cfg.Metrics.observeStoreInit(err)
		return nil, ErrDatabaseInit.Errorf("open document store for %q: %w", name, err)
	}

	if !opts.SkipCreatingDatabase {
		if err := s.createDatabase(ctx, inner, name); err != nil {
			s.cfg.Metrics.observeStoreInit(err)
			if closeErr := inner.Close(); closeErr != nil {
				s.log.Debug("failed to close document store", "database", name, "error", closeErr)
			}
			return nil, err
		}
	}

	store := &trackedStore{DocumentStore: inner}
	store.onClose = func() {
		s.forget(name, store)
		s.cfg.Metrics.observeStoreClose()
	}
	s.cfg.Metrics.observeStoreInit(nil)

	if s.closed.Load() {
		if err := store.Close(); err != nil {
			s.log.Debug("failed to close document store", "database", name, "error", err)
		}
		return nil, ErrClosed
	}
	return store, nil
}

// createDatabase creates the database, treating "already exists" as
// success.
func (s *Server) createDatabase(ctx context.Context, store DocumentStore, name string) error {
	err := store.CreateDatabase(ctx)
	if err == nil {
		return nil
	}
	if isAlreadyExists(err) {
		s.log.Debug("database already exists", "database", name)
		return nil
	}
	return ErrDatabaseInit.Errorf("create database %q: %w", name, err)
}

// forget removes the slot holding store, if it is still installed.
func (s *Server) forget(name string, store *trackedStore) {
	slot, ok := s.stores.Load(name)
	if !ok {
		return
	}
	if got, ready, err := slot.Peek(); ready && err == nil && got == store {
		s.stores.DeleteSlot(name, slot)
	}
}

// Close closes every open document store and shuts the server down. It
// waits for an in-flight Start to finish first. Close does no work when
// Start was never called or failed, and on every call after the first.
//
// Close is terminal even when nothing was started: Start, URL and
// DocumentStore return ErrClosed afterwards.
//
// Errors from closing the stores are joined and returned. Server shutdown
// errors are logged at debug level only.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed.Swap(true) {
		s.mu.Unlock()
		return nil
	}
	slot := s.slot
	s.mu.Unlock()

	if slot == nil {
		return nil
	}
	_ = slot.Wait(context.Background())
	proc, ok, err := slot.Peek()
	if !ok || err != nil {
		return nil
	}

	storeErr := s.closeStores()
	s.shutdown(proc)
	return storeErr
}

// closeStores closes every store that was requested, in parallel, and
// clears the map.
func (s *Server) closeStores() error {
	type entry struct {
		name string
		slot *lazy.Value[*trackedStore]
	}
	var entries []entry
	s.stores.Range(func(name string, slot *lazy.Value[*trackedStore]) bool {
		entries = append(entries, entry{name: name, slot: slot})
		return true
	})

	errs := make([]error, len(entries))
	var g errgroup.Group
	for idx, e := range entries {
		g.Go(func() error {
			_ = e.slot.Wait(context.Background())
			store, ok, err := e.slot.Peek()
			if !ok || err != nil {
				return nil
			}
			if err := store.Close(); err != nil {
				errs[idx] = fmt.Errorf("close document store %q: %w", e.name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.stores.Clear()
	return errors.Join(errs...)
}

// shutdown stops the server process. Failures are logged, never returned.
func (s *Server) shutdown(proc *ravenserver.Process) {
	mode, err := process.Shutdown(&proc, s.cfg.ShutdownTimeout)
	if err != nil {
		s.log.Debug("failed to shut down server", "error", err)
	}
	s.cfg.Metrics.observeShutdown(mode.String())
	s.log.Info("server stopped", slog.String("mode", mode.String()))
}
