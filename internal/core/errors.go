package core

import (
	"github.com/giantswarm/ravenembed/internal/fxversion"
	"github.com/giantswarm/ravenembed/internal/provider"
	"github.com/giantswarm/ravenembed/internal/ravenserver"
	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// Lifecycle errors.
const (
	// ErrAlreadyStarted is returned by Start when a start was already
	// requested on this Server, whatever its outcome.
	ErrAlreadyStarted = sentinel.Error("the server was already started")

	// ErrNotStarted is returned by URL and DocumentStore before Start.
	ErrNotStarted = sentinel.Error("server not started; call Start before using the server")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = sentinel.Error("server is closed")
)

// ErrProvideFailed is returned when the server files could not be
// materialized into the server directory.
const ErrProvideFailed = sentinel.Error("failed to spawn server files")

// ErrInvalidDatabaseName is returned for an empty or whitespace-only
// database name.
const ErrInvalidDatabaseName = sentinel.Error("database name cannot be empty or whitespace")

// ErrDatabaseInit is returned when a document store could not be opened or
// its database could not be created.
const ErrDatabaseInit = sentinel.Error("database initialization failed")

// Errors re-exported from the lower layers so the public API imports only
// from core.
const (
	ErrInvalidConfig         = ravenserver.ErrInvalidConfig
	ErrStartupFailed         = ravenserver.ErrStartupFailed
	ErrServerNotFound        = ravenserver.ErrServerNotFound
	ErrInvalidVersion        = fxversion.ErrInvalidVersion
	ErrNoMatchingRuntime     = fxversion.ErrNoMatchingRuntime
	ErrRuntimeDiscovery      = fxversion.ErrRuntimeDiscovery
	ErrInvalidServerLocation = provider.ErrInvalidServerLocation
)
