package ravenserver

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrInvalidConfig is returned when a Config or SecurityConfig is missing a
// required field or combines fields that are mutually exclusive.
const ErrInvalidConfig = sentinel.Error("invalid configuration")

// SecurityConfig enables TLS on the server. Exactly one of CertificatePath
// and CertificateExec must be set.
type SecurityConfig struct {
	// CertificatePath is the server's PFX certificate.
	CertificatePath     string
	CertificatePassword string

	// CertificateExec is a command that prints the server certificate.
	CertificateExec     string
	CertificateExecArgs string

	// ClientCertificatePath is a PEM file holding the client certificate and
	// key. Its fingerprint is registered as a well-known admin certificate.
	ClientCertificatePath string
	// CACertificatePath is a PEM bundle used by clients to verify the server.
	CACertificatePath string
}

// Validate checks the certificate source invariant.
func (s *SecurityConfig) Validate() error {
	hasPath := strings.TrimSpace(s.CertificatePath) != ""
	hasExec := strings.TrimSpace(s.CertificateExec) != ""
	switch {
	case hasPath && hasExec:
		return ErrInvalidConfig.Errorf("security: certificate path and certificate exec are mutually exclusive")
	case !hasPath && !hasExec:
		return ErrInvalidConfig.Errorf("security: one of certificate path or certificate exec must be set")
	}
	return nil
}

// Config describes one server run. It is not modified by Start.
type Config struct {
	ServerDir        string // Directory holding the server files
	DataDir          string // --DataDir
	LogsDir          string // --Logs.Path
	DotNetPath       string // Runtime host executable
	FrameworkVersion string // Runtime version specification; empty lets the host decide
	ServerURL        string // Empty selects an ephemeral loopback port
	AcceptEULA       bool
	ExtraArgs        []string

	StartupTimeout  time.Duration
	ShutdownTimeout time.Duration
	// PollInterval is the sleep between polls of the server output.
	// Zero uses process.DefaultPollInterval.
	PollInterval time.Duration

	Security *SecurityConfig

	// ExitHook registers the process for cleanup on SIGINT/SIGTERM.
	ExitHook bool

	// ParentPID is passed as --Embedded.ParentProcessId. Zero uses the
	// current process ID.
	ParentPID int

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Validate checks that all required fields are set. All problems are
// reported together.
func (c Config) Validate() error {
	var errs []error

	required := []struct {
		name  string
		value string
	}{
		{"server directory", c.ServerDir},
		{"data directory", c.DataDir},
		{"logs directory", c.LogsDir},
		{"dotnet path", c.DotNetPath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, ErrInvalidConfig.Errorf("%s must not be empty", r.name))
		}
	}

	if c.StartupTimeout <= 0 {
		errs = append(errs, ErrInvalidConfig.Errorf("startup timeout must be positive, got %s", c.StartupTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, ErrInvalidConfig.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}

	if c.Security != nil {
		if err := c.Security.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
