package docstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrDatabaseExists is returned by CreateDatabase when the server already
// hosts the database.
const ErrDatabaseExists = sentinel.Error("database already exists")

// ErrRequestFailed is returned when the server answers with an unexpected
// status.
const ErrRequestFailed = sentinel.Error("request failed")

// ErrClosed is returned by operations on a closed Store.
const ErrClosed = sentinel.Error("document store is closed")

// DefaultRequestTimeout bounds a single request when Config.RequestTimeout
// is zero.
const DefaultRequestTimeout = 30 * time.Second

const maxErrorBody = 4096

// Config configures a Store.
type Config struct {
	URL      string
	Database string

	// ClientCertificatePath is a PEM file holding both the client
	// certificate and its key.
	ClientCertificatePath string
	// CACertificatePath is a PEM bundle that replaces the system roots.
	CACertificatePath string

	// Conventions is opaque client configuration carried with the store.
	Conventions any

	RequestTimeout time.Duration

	// HTTPClient overrides the client built from the certificate settings.
	HTTPClient *http.Client
}

// BuildInfo is the server's answer to /build/version.
type BuildInfo struct {
	BuildVersion   int    `json:"BuildVersion"`
	ProductVersion string `json:"ProductVersion"`
	CommitHash     string `json:"CommitHash"`
	FullVersion    string `json:"FullVersion"`
}

// Store is a handle to one database on one server. It is safe for
// concurrent use.
type Store struct {
	cfg     Config
	base    *url.URL
	client  *http.Client
	closed  atomic.Bool
	build   atomic.Pointer[BuildInfo]
	onClose []func()
}

// New builds a Store without contacting the server.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, errors.New("database name must not be empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", cfg.URL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must be http or https", cfg.URL)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		tlsCfg, err := tlsConfig(cfg)
		if err != nil {
			return nil, err
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsCfg
		client = &http.Client{Transport: transport}
	}

	return &Store{cfg: cfg, base: base, client: client}, nil
}

// Open builds a Store and initializes it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func tlsConfig(cfg Config) (*tls.Config, error) {
	if cfg.ClientCertificatePath == "" && cfg.CACertificatePath == "" {
		return nil, nil
	}
	tc := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.ClientCertificatePath != "" {
		pair, err := tls.LoadX509KeyPair(cfg.ClientCertificatePath, cfg.ClientCertificatePath)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tc.Certificates = []tls.Certificate{pair}
	}
	if cfg.CACertificatePath != "" {
		pemData, err := os.ReadFile(cfg.CACertificatePath) //nolint:gosec // G304: path is caller configuration
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACertificatePath)
		}
		tc.RootCAs = pool
	}
	return tc, nil
}

// Initialize checks that the server answers and records its build info.
func (s *Store) Initialize(ctx context.Context) error {
	var info BuildInfo
	if err := s.do(ctx, http.MethodGet, "/build/version", nil, nil, &info); err != nil {
		return fmt.Errorf("initialize document store for %s: %w", s.cfg.Database, err)
	}
	s.build.Store(&info)
	return nil
}

type databaseRecord struct {
	DatabaseName string            `json:"DatabaseName"`
	Settings     map[string]string `json:"Settings"`
	Disabled     bool              `json:"Disabled"`
}

// CreateDatabase creates the store's database with a replication factor of
// one. It returns an error wrapping ErrDatabaseExists when the database is
// already there.
func (s *Store) CreateDatabase(ctx context.Context) error {
	q := url.Values{}
	q.Set("name", s.cfg.Database)
	q.Set("replicationFactor", "1")

	body, err := json.Marshal(databaseRecord{DatabaseName: s.cfg.Database, Settings: map[string]string{}})
	if err != nil {
		return fmt.Errorf("encode database record: %w", err)
	}
	if err := s.do(ctx, http.MethodPut, "/admin/databases", q, body, nil); err != nil {
		return fmt.Errorf("create database %s: %w", s.cfg.Database, err)
	}
	return nil
}

func (s *Store) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	if s.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(msg))
	if resp.StatusCode == http.StatusConflict || strings.Contains(strings.ToLower(text), "already exists") {
		return fmt.Errorf("%w: %s", ErrDatabaseExists, text)
	}
	return ErrRequestFailed.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, text)
}

// AfterClose registers f to run once when the store is closed. It must be
// called before the store is shared.
func (s *Store) AfterClose(f func()) {
	s.onClose = append(s.onClose, f)
}

// Close releases idle connections and runs the AfterClose callbacks. It is
// idempotent.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.client.CloseIdleConnections()
	for _, f := range s.onClose {
		f()
	}
	return nil
}

// Database returns the database the store is bound to.
func (s *Store) Database() string { return s.cfg.Database }

// URL returns the server URL.
func (s *Store) URL() string { return s.base.String() }

// Conventions returns the opaque client configuration.
func (s *Store) Conventions() any { return s.cfg.Conventions }

// BuildInfo returns what the server reported during Initialize, or nil.
func (s *Store) BuildInfo() *BuildInfo { return s.build.Load() }
