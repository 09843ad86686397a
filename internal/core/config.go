package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/giantswarm/ravenembed/internal/provider"
	"github.com/giantswarm/ravenembed/internal/ravenserver"
)

// SecurityConfig enables TLS on the server and on the document stores.
type SecurityConfig = ravenserver.SecurityConfig

// ServerConfig holds configuration for a Server. All fields are immutable
// after NewServer.
type ServerConfig struct {
	// ServerDir is the directory the Provider materializes the server files
	// into and the server is started from.
	ServerDir string

	// ClearServerDir removes ServerDir before the Provider runs. It requires
	// a Provider, otherwise there would be nothing left to start.
	ClearServerDir bool

	// Provider materializes the server files. Nil means ServerDir already
	// holds them.
	Provider provider.Provider

	DataDir          string
	LogsDir          string
	DotNetPath       string
	FrameworkVersion string
	ServerURL        string
	AcceptEULA       bool
	ExtraArgs        []string

	// StartupTimeout bounds the wait for the server to announce its address.
	StartupTimeout time.Duration

	// ShutdownTimeout bounds the graceful phase of the server shutdown. The
	// server is killed when it has not exited by then.
	ShutdownTimeout time.Duration

	// PollInterval is the sleep between polls of the server output. Zero
	// uses the process package default.
	PollInterval time.Duration

	Security *SecurityConfig

	// ClientFactory opens the document stores handed out by the Server.
	ClientFactory ClientFactory

	// Metrics records server and store lifecycle events. Nil disables
	// metrics.
	Metrics *Metrics

	// ExitHook stops the server when this process receives SIGINT or
	// SIGTERM.
	ExitHook bool
}

// Validate checks all ServerConfig invariants and returns an error describing
// every violation found. Every error matches ErrInvalidConfig.
func (c ServerConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ServerDir) == "" {
		errs = append(errs, errors.New("server directory must not be empty"))
	}
	if c.ClearServerDir && c.Provider == nil {
		errs = append(errs, errors.New("clearing the server directory requires a provider"))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data directory must not be empty"))
	}
	if strings.TrimSpace(c.LogsDir) == "" {
		errs = append(errs, errors.New("logs directory must not be empty"))
	}
	if strings.TrimSpace(c.DotNetPath) == "" {
		errs = append(errs, errors.New("dotnet path must not be empty"))
	}
	if c.StartupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("startup timeout must be greater than 0, got %s", c.StartupTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be greater than 0, got %s", c.ShutdownTimeout))
	}
	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("poll interval must not be negative, got %s", c.PollInterval))
	}
	if c.ClientFactory == nil {
		errs = append(errs, errors.New("client factory must not be nil"))
	}
	if c.Security != nil {
		if err := c.Security.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return ErrInvalidConfig.Errorf("%w", errors.Join(errs...))
}

// processConfig returns the configuration of one server run.
func (c ServerConfig) processConfig(log *slog.Logger) ravenserver.Config {
	return ravenserver.Config{
		ServerDir:        c.ServerDir,
		DataDir:          c.DataDir,
		LogsDir:          c.LogsDir,
		DotNetPath:       c.DotNetPath,
		FrameworkVersion: c.FrameworkVersion,
		ServerURL:        c.ServerURL,
		AcceptEULA:       c.AcceptEULA,
		ExtraArgs:        c.ExtraArgs,
		StartupTimeout:   c.StartupTimeout,
		ShutdownTimeout:  c.ShutdownTimeout,
		PollInterval:     c.PollInterval,
		Security:         c.Security,
		ExitHook:         c.ExitHook,
		Logger:           log,
	}
}

// DatabaseOptions describes the database behind a document store.
type DatabaseOptions struct {
	Name string

	// SkipCreatingDatabase opens the store without asking the server to
	// create the database.
	SkipCreatingDatabase bool

	// Conventions is forwarded to the ClientFactory untouched.
	Conventions any
}

// Validate checks the database name.
func (o DatabaseOptions) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrInvalidDatabaseName
	}
	return nil
}
