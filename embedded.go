package ravenembed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/ravenembed/internal/core"
)

// Compile-time interface satisfaction check.
var _ Server = (*serverWrapper)(nil)

// serverWrapper wraps core.Server to implement the Server interface.
//
// The core.Server is stored as a named (unexported) field rather than
// embedded so callers cannot reach internal methods through a type
// assertion.
type serverWrapper struct {
	srv *core.Server
}

// Start wraps core.Server.Start.
func (w *serverWrapper) Start(ctx context.Context) error {
	return w.srv.Start(ctx)
}

// URL wraps core.Server.URL.
func (w *serverWrapper) URL(ctx context.Context) (string, error) {
	return w.srv.URL(ctx)
}

// DocumentStore wraps core.Server.DocumentStore.
//
//nolint:ireturn // Returns DocumentStore interface by design (pluggable ClientFactory).
func (w *serverWrapper) DocumentStore(ctx context.Context, database string) (DocumentStore, error) {
	return w.srv.DocumentStore(ctx, database)
}

// DocumentStoreWithOptions wraps core.Server.DocumentStoreWithOptions.
//
//nolint:ireturn // Returns DocumentStore interface by design (pluggable ClientFactory).
func (w *serverWrapper) DocumentStoreWithOptions(ctx context.Context, opts DatabaseOptions) (DocumentStore, error) {
	return w.srv.DocumentStoreWithOptions(ctx, opts)
}

// Close wraps core.Server.Close.
func (w *serverWrapper) Close() error {
	return w.srv.Close()
}

// baseDir is the directory the default server, data and logs locations are
// relative to. It falls back to the system temp directory when the working
// directory cannot be determined.
func baseDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return os.TempDir()
}

// defaultServerConfig returns a serverConfig populated with all default
// values. Both NewServer and test helpers use this to avoid duplicating the
// default field assignments.
func defaultServerConfig() serverConfig {
	base := baseDir()
	return serverConfig{ServerConfig: core.ServerConfig{
		ServerDir:        filepath.Join(base, DefaultServerDirName),
		DataDir:          filepath.Join(base, DefaultDataDirName),
		LogsDir:          filepath.Join(base, DefaultDataDirName, DefaultLogsDirName),
		DotNetPath:       DefaultDotNetPath,
		FrameworkVersion: DefaultFrameworkVersion,
		AcceptEULA:       DefaultAcceptEULA,
		StartupTimeout:   DefaultStartupTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
		ExitHook:         DefaultExitHook,
		ClientFactory:    HTTPClientFactory{},
	}}
}

// NewServer returns a Server configured by opts. This performs no I/O
// operations; call Start before any other method.
//
// Each call returns an independent Server. Servers sharing a server
// directory serialize providing their files through a lock file next to it.
//
// Panics if any option receives an invalid value, if the resulting
// configuration is invalid, or if the metrics cannot be registered. See
// individual With* functions for constraints.
//
//nolint:ireturn // Returns Server interface by design for testability (mockable).
func NewServer(opts ...ServerOption) Server {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	coreCfg, err := cfg.toCoreConfig()
	if err != nil {
		panic(fmt.Sprintf("ravenembed: %v", err))
	}
	return &serverWrapper{srv: core.NewServer(coreCfg)}
}
