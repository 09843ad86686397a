//go:build integration

package ravenembed_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/giantswarm/ravenembed"
	"github.com/giantswarm/ravenembed/tests/internal/testutil"
)

// TestURLServesRequests verifies that the announced address answers HTTP.
func TestURLServesRequests(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	url, err := sharedServer.URL(ctx)
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if !strings.HasPrefix(url, "http://127.0.0.1:") {
		t.Errorf("URL() = %q, want a loopback http address", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/build/version", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /build/version: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /build/version status = %d, want 200", resp.StatusCode)
	}
}

// TestStartTwice verifies that the shared server rejects a second Start.
func TestStartTwice(t *testing.T) {
	t.Parallel()

	if err := sharedServer.Start(context.Background()); !errors.Is(err, ravenembed.ErrAlreadyStarted) {
		t.Fatalf("Start() error = %v, want ErrAlreadyStarted", err)
	}
}

// TestDocumentStoreConcurrent verifies that concurrent callers asking for
// the same database share one store.
func TestDocumentStoreConcurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	name := testutil.UniqueName("concurrent")

	const callers = 8
	stores := make([]ravenembed.DocumentStore, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Go(func() {
			stores[i], errs[i] = sharedServer.DocumentStore(ctx, name)
		})
	}
	wg.Wait()

	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: DocumentStore() error = %v", i, errs[i])
		}
		if stores[i] != stores[0] {
			t.Errorf("caller %d got a different store", i)
		}
	}
	if got := stores[0].Database(); got != name {
		t.Errorf("Database() = %q, want %q", got, name)
	}
}

// TestDocumentStoreReopenAfterClose verifies that closing a store makes the
// next call open a fresh one for the existing database.
func TestDocumentStoreReopenAfterClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	name := testutil.UniqueName("reopen")

	first, err := sharedServer.DocumentStore(ctx, name)
	if err != nil {
		t.Fatalf("DocumentStore() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := sharedServer.DocumentStore(ctx, name)
	if err != nil {
		t.Fatalf("DocumentStore() after close error = %v", err)
	}
	if second == first {
		t.Error("DocumentStore() returned the closed store")
	}
}

// TestSkipCreatingDatabase verifies that a store can be opened without
// creating its database.
func TestSkipCreatingDatabase(t *testing.T) {
	t.Parallel()

	st, err := sharedServer.DocumentStoreWithOptions(context.Background(), ravenembed.DatabaseOptions{
		Name:                 testutil.UniqueName("skip"),
		SkipCreatingDatabase: true,
	})
	if err != nil {
		t.Fatalf("DocumentStoreWithOptions() error = %v", err)
	}
	if st == nil {
		t.Fatal("DocumentStoreWithOptions() returned nil store")
	}
}

// TestOwnServerLifecycle starts and closes a second server to verify the
// full lifecycle, including a clean shutdown.
func TestOwnServerLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv, err := newServer(t.TempDir(), ravenembed.WithClearServerDir(true))
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	if err := srv.Start(ctx); err != nil {
		_ = srv.Close()
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := srv.DocumentStore(ctx, testutil.UniqueName("own")); err != nil {
		t.Errorf("DocumentStore() error = %v", err)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := srv.URL(ctx); !errors.Is(err, ravenembed.ErrClosed) {
		t.Errorf("URL() after Close error = %v, want ErrClosed", err)
	}
}
