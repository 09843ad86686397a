package ravenembed

import "github.com/giantswarm/ravenembed/internal/core"

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrAlreadyStarted is returned by Start when Start was already called
	// on the Server.
	ErrAlreadyStarted = core.ErrAlreadyStarted

	// ErrNotStarted is returned by URL and DocumentStore before Start.
	ErrNotStarted = core.ErrNotStarted

	// ErrClosed is returned by every Server method after Close.
	ErrClosed = core.ErrClosed

	// ErrInvalidConfig is returned when the server or security configuration
	// is incomplete or contradictory.
	ErrInvalidConfig = core.ErrInvalidConfig

	// ErrInvalidDatabaseName is returned for an empty or whitespace-only
	// database name.
	ErrInvalidDatabaseName = core.ErrInvalidDatabaseName

	// ErrInvalidVersion is returned for a malformed runtime version
	// specification.
	ErrInvalidVersion = core.ErrInvalidVersion

	// ErrRuntimeDiscovery is returned when "dotnet --info" cannot be run.
	ErrRuntimeDiscovery = core.ErrRuntimeDiscovery

	// ErrInvalidServerLocation is returned by ExternalServerProvider for a
	// path that is neither a zip file nor a directory holding the server.
	ErrInvalidServerLocation = core.ErrInvalidServerLocation

	// ErrProvideFailed is returned by Start when the server files could not
	// be provided.
	ErrProvideFailed = core.ErrProvideFailed

	// ErrServerNotFound is returned by Start when the provided files do not
	// contain the server.
	ErrServerNotFound = core.ErrServerNotFound

	// ErrStartupFailed is returned by Start when the server exited or did
	// not announce its address in time. The error message carries the
	// server's output.
	ErrStartupFailed = core.ErrStartupFailed

	// ErrNoMatchingRuntime is returned by Start when no installed runtime
	// satisfies the framework version.
	ErrNoMatchingRuntime = core.ErrNoMatchingRuntime

	// ErrDatabaseInit is returned by DocumentStore when the store could not
	// be opened or the database could not be created.
	ErrDatabaseInit = core.ErrDatabaseInit
)
