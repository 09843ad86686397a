package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/giantswarm/ravenembed/internal/docstore"
)

// DocumentStore is an initialized client handle bound to one database.
type DocumentStore interface {
	// Database returns the name of the database the store is bound to.
	Database() string
	// URL returns the server address the store talks to.
	URL() string
	// CreateDatabase asks the server to create the database.
	CreateDatabase(ctx context.Context) error
	// Close releases the store. It is safe to call more than once.
	Close() error
}

// ClientRequest describes the store a ClientFactory must open.
type ClientRequest struct {
	URL         string
	Database    string
	Security    *SecurityConfig
	Conventions any
}

// ClientFactory opens initialized document stores.
type ClientFactory interface {
	NewDocumentStore(ctx context.Context, req ClientRequest) (DocumentStore, error)
}

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc func(ctx context.Context, req ClientRequest) (DocumentStore, error)

// NewDocumentStore calls f.
//
//nolint:ireturn // ClientFactory returns the DocumentStore interface.
func (f ClientFactoryFunc) NewDocumentStore(ctx context.Context, req ClientRequest) (DocumentStore, error) {
	return f(ctx, req)
}

// HTTPClientFactory opens docstore.Store handles over the server's HTTP API.
type HTTPClientFactory struct{}

var _ ClientFactory = HTTPClientFactory{}

// NewDocumentStore opens and initializes a docstore.Store.
//
//nolint:ireturn // ClientFactory returns the DocumentStore interface.
func (HTTPClientFactory) NewDocumentStore(ctx context.Context, req ClientRequest) (DocumentStore, error) {
	cfg := docstore.Config{
		URL:         req.URL,
		Database:    req.Database,
		Conventions: req.Conventions,
	}
	if req.Security != nil {
		cfg.ClientCertificatePath = req.Security.ClientCertificatePath
		cfg.CACertificatePath = req.Security.CACertificatePath
	}
	store, err := docstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// isAlreadyExists reports whether a create-database failure means the
// database is already there.
func isAlreadyExists(err error) bool {
	if errors.Is(err, docstore.ErrDatabaseExists) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// trackedStore is the DocumentStore handed to callers. Closing it removes
// its entry from the Server so the next request opens a fresh store.
type trackedStore struct {
	DocumentStore

	once     sync.Once
	closeErr error
	onClose  func()
}

func (s *trackedStore) Close() error {
	s.once.Do(func() {
		s.closeErr = s.DocumentStore.Close()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}
