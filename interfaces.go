package ravenembed

import (
	"context"

	"github.com/giantswarm/ravenembed/internal/core"
)

// Server supervises one RavenDB server process.
//
// Callers must follow this lifecycle ordering:
//
//	NewServer → Start → URL/DocumentStore (repeatable) → Close
//
// Close is safe to call at any point, including before Start.
type Server interface {
	// Start provides the server files, launches the server and waits until
	// it announces its address. Only the first call does any work; later
	// calls return ErrAlreadyStarted, whether or not the first succeeded.
	// Returns ErrClosed after Close.
	//
	// If ctx ends before the server is up, Start returns ctx.Err() and the
	// startup continues in the background.
	Start(ctx context.Context) error

	// URL returns the address the server announced. It waits for a Start
	// still in progress and returns its error if it failed.
	// Returns ErrNotStarted if Start has not been called.
	URL(ctx context.Context) (string, error)

	// DocumentStore returns the store for the named database, creating the
	// database on the server unless it already exists.
	DocumentStore(ctx context.Context, database string) (DocumentStore, error)

	// DocumentStoreWithOptions is DocumentStore with per-database options.
	// Concurrent callers for the same database share a single store. Closing
	// the store forgets it; the next call opens a new one.
	DocumentStoreWithOptions(ctx context.Context, opts DatabaseOptions) (DocumentStore, error)

	// Close closes every document store and shuts the server down. Safe to
	// call more than once. Errors closing the stores are returned; server
	// shutdown failures are only logged. Close is terminal even before
	// Start: later calls to Start return ErrClosed.
	Close() error
}

// DocumentStore is an initialized client handle bound to one database.
type DocumentStore = core.DocumentStore

// ClientFactory opens initialized document stores for a Server.
type ClientFactory = core.ClientFactory

// ClientRequest describes the store a ClientFactory must open.
type ClientRequest = core.ClientRequest

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc = core.ClientFactoryFunc

// HTTPClientFactory is the default ClientFactory. It talks to the server's
// HTTP API, using the client certificate and CA bundle of the security
// configuration when one is set.
type HTTPClientFactory = core.HTTPClientFactory

// DatabaseOptions describes the database behind a document store.
type DatabaseOptions = core.DatabaseOptions

// SecurityConfig enables TLS. Exactly one of CertificatePath and
// CertificateExec must be set.
type SecurityConfig = core.SecurityConfig
