package ravenembed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConfigSnapshot holds a copy of serverConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	ServerDir         string
	ClearServerDir    bool
	Provider          Provider
	DataDir           string
	LogsDir           string
	DotNetPath        string
	FrameworkVersion  string
	ServerURL         string
	AcceptEULA        bool
	ExtraArgs         []string
	StartupTimeout    time.Duration
	ShutdownTimeout   time.Duration
	Security          *SecurityConfig
	ClientFactory     ClientFactory
	MetricsRegisterer prometheus.Registerer
	ExitHook          bool
}

// BaseDirForTesting exposes the directory the default locations are
// relative to.
func BaseDirForTesting() string { return baseDir() }

// ApplyOptionsForTesting creates a default serverConfig, applies the given
// options, and returns a ConfigSnapshot of the result.
func ApplyOptionsForTesting(opts ...ServerOption) ConfigSnapshot {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		ServerDir:         cfg.ServerDir,
		ClearServerDir:    cfg.ClearServerDir,
		Provider:          cfg.Provider,
		DataDir:           cfg.DataDir,
		LogsDir:           cfg.LogsDir,
		DotNetPath:        cfg.DotNetPath,
		FrameworkVersion:  cfg.FrameworkVersion,
		ServerURL:         cfg.ServerURL,
		AcceptEULA:        cfg.AcceptEULA,
		ExtraArgs:         cfg.ExtraArgs,
		StartupTimeout:    cfg.StartupTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
		Security:          cfg.Security,
		ClientFactory:     cfg.ClientFactory,
		MetricsRegisterer: cfg.metricsRegisterer,
		ExitHook:          cfg.ExitHook,
	}
}
