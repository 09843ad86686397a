package ravenembed

import (
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/giantswarm/ravenembed/internal/fxversion"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("ravenembed: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("ravenembed: %s must not be empty", name))
	}
}

// requireNonNil panics if v is nil with a descriptive message.
func requireNonNil(name string, v any) {
	if v == nil {
		panic(fmt.Sprintf("ravenembed: %s must not be nil", name))
	}
}

// ServerOption configures a Server during construction via NewServer.
// Each With* function returns a ServerOption that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations, malformed versions). Option values are typically constants, so
// an invalid value is a programmer error; the pattern mirrors
// [regexp.MustCompile].
type ServerOption func(*serverConfig)

// WithServerDir sets the directory the server files are provided into and
// the server is started from.
//
// Default: "RavenDBServer" under the working directory.
//
// Panics if dir is empty.
func WithServerDir(dir string) ServerOption {
	requireNonEmpty("server directory", dir)
	return func(c *serverConfig) {
		c.ServerDir = dir
	}
}

// WithClearServerDir removes the server directory before the provider
// runs, so no files of a previous server version survive. It requires
// WithProvider.
func WithClearServerDir(enabled bool) ServerOption {
	return func(c *serverConfig) {
		c.ClearServerDir = enabled
	}
}

// WithProvider sets the provider that materializes the server files.
// Without a provider the server directory must already hold them.
// Panics if p is nil.
func WithProvider(p Provider) ServerOption {
	requireNonNil("provider", p)
	return func(c *serverConfig) {
		c.Provider = p
	}
}

// WithDataDir sets the directory holding the server's databases.
//
// Default: "RavenDB" under the working directory.
//
// Panics if dir is empty.
func WithDataDir(dir string) ServerOption {
	requireNonEmpty("data directory", dir)
	return func(c *serverConfig) {
		c.DataDir = dir
	}
}

// WithLogsDir sets the directory holding the server's logs.
//
// Default: "RavenDB/Logs" under the working directory.
//
// Panics if dir is empty.
func WithLogsDir(dir string) ServerOption {
	requireNonEmpty("logs directory", dir)
	return func(c *serverConfig) {
		c.LogsDir = dir
	}
}

// WithDotNetPath sets the .NET runtime host executable.
// Panics if path is empty.
func WithDotNetPath(path string) ServerOption {
	requireNonEmpty("dotnet path", path)
	return func(c *serverConfig) {
		c.DotNetPath = path
	}
}

// WithFrameworkVersion sets the .NET runtime version the server runs on.
// A specification with wildcards ("8.0.x") or an at-least patch ("7.0.15+")
// is resolved against the installed runtimes at Start; any other value is
// passed to the runtime host as is. An empty spec lets the host choose.
//
// Default: "7.0.15+".
//
// Panics if spec needs matching and cannot be parsed.
func WithFrameworkVersion(spec string) ServerOption {
	if fxversion.NeedsMatch(spec) {
		if _, err := fxversion.Parse(spec); err != nil {
			panic(fmt.Sprintf("ravenembed: %v", err))
		}
	}
	return func(c *serverConfig) {
		c.FrameworkVersion = spec
	}
}

// WithServerURL sets the address the server binds to.
//
// Default: a random loopback port, over https when WithSecurity is set.
//
// Panics if url is empty.
func WithServerURL(url string) ServerOption {
	requireNonEmpty("server URL", url)
	return func(c *serverConfig) {
		c.ServerURL = url
	}
}

// WithAcceptEULA sets whether the server license agreement is accepted on
// startup.
//
// Default: true.
func WithAcceptEULA(accept bool) ServerOption {
	return func(c *serverConfig) {
		c.AcceptEULA = accept
	}
}

// WithStartupTimeout sets the maximum time the server has to announce its
// address after it was launched. Providing the server files is not
// included.
//
// Default: 1 minute.
//
// Panics if d <= 0.
func WithStartupTimeout(d time.Duration) ServerOption {
	requirePositive("startup timeout", d)
	return func(c *serverConfig) {
		c.StartupTimeout = d
	}
}

// WithShutdownTimeout sets the time the server has to exit after the
// shutdown command before it is killed.
//
// Default: 30 seconds.
//
// Panics if d <= 0.
func WithShutdownTimeout(d time.Duration) ServerOption {
	requirePositive("shutdown timeout", d)
	return func(c *serverConfig) {
		c.ShutdownTimeout = d
	}
}

// WithCommandLineArgs appends extra arguments to the server command line.
// They are placed before the generated arguments.
func WithCommandLineArgs(args ...string) ServerOption {
	args = slices.Clone(args)
	return func(c *serverConfig) {
		c.ExtraArgs = append(slices.Clone(c.ExtraArgs), args...)
	}
}

// WithSecurity enables TLS on the server. The client certificate, when set,
// is registered as a well-known admin certificate and used by the default
// client factory together with the CA bundle.
//
// Panics unless exactly one of CertificatePath and CertificateExec is set.
func WithSecurity(sec SecurityConfig) ServerOption {
	if err := sec.Validate(); err != nil {
		panic(fmt.Sprintf("ravenembed: %v", err))
	}
	return func(c *serverConfig) {
		c.Security = &sec
	}
}

// WithClientFactory replaces the factory that opens document stores.
//
// Default: HTTPClientFactory.
//
// Panics if f is nil.
func WithClientFactory(f ClientFactory) ServerOption {
	requireNonNil("client factory", f)
	return func(c *serverConfig) {
		c.ClientFactory = f
	}
}

// WithMetricsRegisterer registers the server's Prometheus metrics on reg
// when the Server is created. Metrics are disabled by default.
// Panics if reg is nil.
func WithMetricsRegisterer(reg prometheus.Registerer) ServerOption {
	requireNonNil("metrics registerer", reg)
	return func(c *serverConfig) {
		c.metricsRegisterer = reg
	}
}

// WithExitHook stops the server when this process receives SIGINT or
// SIGTERM, then lets the signal terminate the process as usual. Disable it
// when the caller handles those signals itself and calls Close.
//
// Default: true.
func WithExitHook(enabled bool) ServerOption {
	return func(c *serverConfig) {
		c.ExitHook = enabled
	}
}
