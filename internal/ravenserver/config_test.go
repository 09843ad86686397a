package ravenserver

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ServerDir:       "/srv/raven",
		DataDir:         "/var/lib/raven",
		LogsDir:         "/var/log/raven",
		DotNetPath:      "dotnet",
		StartupTimeout:  time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate   func(*Config)
		wantMsgs []string
	}{
		"valid": {
			mutate: func(*Config) {},
		},
		"valid with certificate path": {
			mutate: func(c *Config) { c.Security = &SecurityConfig{CertificatePath: "server.pfx"} },
		},
		"valid with certificate exec": {
			mutate: func(c *Config) { c.Security = &SecurityConfig{CertificateExec: "get-cert.sh"} },
		},
		"missing server directory": {
			mutate:   func(c *Config) { c.ServerDir = "" },
			wantMsgs: []string{"server directory must not be empty"},
		},
		"whitespace data directory": {
			mutate:   func(c *Config) { c.DataDir = "  " },
			wantMsgs: []string{"data directory must not be empty"},
		},
		"all paths missing": {
			mutate: func(c *Config) { *c = Config{StartupTimeout: time.Second, ShutdownTimeout: time.Second} },
			wantMsgs: []string{
				"server directory must not be empty",
				"data directory must not be empty",
				"logs directory must not be empty",
				"dotnet path must not be empty",
			},
		},
		"zero timeouts": {
			mutate: func(c *Config) {
				c.StartupTimeout = 0
				c.ShutdownTimeout = -time.Second
			},
			wantMsgs: []string{"startup timeout must be positive", "shutdown timeout must be positive"},
		},
		"both certificate sources": {
			mutate: func(c *Config) {
				c.Security = &SecurityConfig{CertificatePath: "server.pfx", CertificateExec: "get-cert.sh"}
			},
			wantMsgs: []string{"mutually exclusive"},
		},
		"no certificate source": {
			mutate:   func(c *Config) { c.Security = &SecurityConfig{ClientCertificatePath: "client.pem"} },
			wantMsgs: []string{"one of certificate path or certificate exec must be set"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()

			if len(tc.wantMsgs) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			for _, msg := range tc.wantMsgs {
				if !strings.Contains(err.Error(), msg) {
					t.Errorf("error %q does not mention %q", err.Error(), msg)
				}
			}
		})
	}
}
