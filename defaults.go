package ravenembed

import "time"

// Default configuration values for NewServer.
// These constants are exported so callers can reference the defaults
// when building custom configurations relative to them (e.g.,
// 2 * DefaultStartupTimeout).
const (
	// DefaultFrameworkVersion is the .NET runtime the server runs on. The
	// trailing "+" accepts any patch release at or above 15.
	DefaultFrameworkVersion = "7.0.15+"

	// DefaultDotNetPath is the runtime host located in PATH.
	DefaultDotNetPath = "dotnet"

	// DefaultServerDirName is the directory under the working directory the
	// server files are provided into.
	DefaultServerDirName = "RavenDBServer"

	// DefaultDataDirName is the directory under the working directory that
	// holds the server's databases.
	DefaultDataDirName = "RavenDB"

	// DefaultLogsDirName is the directory under the data directory that
	// holds the server's logs.
	DefaultLogsDirName = "Logs"

	// DefaultAcceptEULA accepts the server license agreement on startup.
	DefaultAcceptEULA = true

	// DefaultStartupTimeout is the maximum time the server has to announce
	// its address.
	DefaultStartupTimeout = time.Minute

	// DefaultShutdownTimeout is the time the server has to exit after the
	// shutdown command before it is killed.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultExitHook stops the server when the embedding process is
	// interrupted or terminated.
	DefaultExitHook = true
)
