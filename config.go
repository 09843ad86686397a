package ravenembed

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/giantswarm/ravenembed/internal/core"
)

// serverConfig holds configuration for a Server. This unexported type wraps
// core.ServerConfig via embedding, keeping internal/core types out of the
// public API signature while avoiding field-by-field duplication.
type serverConfig struct {
	core.ServerConfig

	// metricsRegisterer receives the server metrics. Nil disables them.
	metricsRegisterer prometheus.Registerer
}

// toCoreConfig returns the embedded core.ServerConfig with the metrics
// created and registered.
func (c serverConfig) toCoreConfig() (core.ServerConfig, error) {
	cfg := c.ServerConfig
	if c.metricsRegisterer != nil {
		m, err := core.NewMetrics(c.metricsRegisterer)
		if err != nil {
			return core.ServerConfig{}, err
		}
		cfg.Metrics = m
	}
	return cfg, nil
}
