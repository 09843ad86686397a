package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giantswarm/ravenembed"
	"github.com/giantswarm/ravenembed/internal/fxversion"
)

// ServeCmd starts a server and keeps it running until SIGINT or SIGTERM.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an embedded RavenDB server",
	Long: `Start a RavenDB server from the configured server files and keep it
running until the process receives SIGINT or SIGTERM. The databases listed
with --databases are created once the server is up.`,
	RunE: runServe,
}

func init() {
	flags := ServeCmd.Flags()

	key := "server-dir"
	flags.String(key, "", "Directory the server is started from (default \"RavenDBServer\" under the working directory)")

	key = "server-location"
	flags.String(key, "", "A server zip file or a directory holding Raven.Server.dll, provided into --server-dir before startup")

	key = "clear-server-dir"
	flags.Bool(key, false, "Remove --server-dir before providing the server files (requires --server-location)")

	key = "data-dir"
	flags.String(key, "", "Directory holding the databases (default \"RavenDB\" under the working directory)")

	key = "logs-dir"
	flags.String(key, "", "Directory holding the server logs (default \"RavenDB/Logs\" under the working directory)")

	key = "framework-version"
	flags.String(key, ravenembed.DefaultFrameworkVersion, "The .NET runtime version; wildcards (8.0.x) and at-least patches (7.0.15+) are matched against the installed runtimes")

	key = "server-url"
	flags.String(key, "", "Address the server binds to (default a random loopback port)")

	key = "accept-eula"
	flags.Bool(key, ravenembed.DefaultAcceptEULA, "Accept the server license agreement")

	key = "startup-timeout"
	flags.Duration(key, ravenembed.DefaultStartupTimeout, "Maximum time the server has to announce its address")

	key = "shutdown-timeout"
	flags.Duration(key, ravenembed.DefaultShutdownTimeout, "Time the server has to exit after the shutdown command before it is killed")

	key = "server-args"
	flags.StringSlice(key, nil, "Extra arguments passed to the server")

	key = "databases"
	flags.StringSlice(key, nil, "Comma-separated list of databases to create after startup")

	key = "metrics-addr"
	flags.String(key, "", "Address to serve Prometheus metrics on (e.g. :9090); empty disables the endpoint")
}

// serverOptions converts the configuration in v into server options. Values
// the options would panic on are reported as errors instead.
func serverOptions(v *viper.Viper) ([]ravenembed.ServerOption, error) {
	var opts []ravenembed.ServerOption

	for key, opt := range map[string]func(string) ravenembed.ServerOption{
		"server-dir":  ravenembed.WithServerDir,
		"data-dir":    ravenembed.WithDataDir,
		"logs-dir":    ravenembed.WithLogsDir,
		"dotnet-path": ravenembed.WithDotNetPath,
		"server-url":  ravenembed.WithServerURL,
	} {
		if s := v.GetString(key); s != "" {
			opts = append(opts, opt(s))
		}
	}

	fx := v.GetString("framework-version")
	if fxversion.NeedsMatch(fx) {
		if _, err := fxversion.Parse(fx); err != nil {
			return nil, err
		}
	}
	opts = append(opts, ravenembed.WithFrameworkVersion(fx))

	if loc := v.GetString("server-location"); loc != "" {
		p, err := ravenembed.ExternalServerProvider(loc)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ravenembed.WithProvider(p))
	}
	if v.GetBool("clear-server-dir") {
		if v.GetString("server-location") == "" {
			return nil, fmt.Errorf("%w: --clear-server-dir requires --server-location", ravenembed.ErrInvalidConfig)
		}
		opts = append(opts, ravenembed.WithClearServerDir(true))
	}

	for key, opt := range map[string]func(time.Duration) ravenembed.ServerOption{
		"startup-timeout":  ravenembed.WithStartupTimeout,
		"shutdown-timeout": ravenembed.WithShutdownTimeout,
	} {
		d := v.GetDuration(key)
		if d <= 0 {
			return nil, fmt.Errorf("%w: --%s must be greater than 0, got %v", ravenembed.ErrInvalidConfig, key, d)
		}
		opts = append(opts, opt(d))
	}

	opts = append(opts,
		ravenembed.WithAcceptEULA(v.GetBool("accept-eula")),
		// runServe traps the signals and calls Close.
		ravenembed.WithExitHook(false),
	)
	if args := v.GetStringSlice("server-args"); len(args) > 0 {
		opts = append(opts, ravenembed.WithCommandLineArgs(args...))
	}
	return opts, nil
}

// databaseNames returns the trimmed, non-empty, de-duplicated names in v's
// databases list.
func databaseNames(v *viper.Viper) []string {
	var names []string
	seen := make(map[string]bool)
	for _, raw := range v.GetStringSlice("databases") {
		// Environment variables arrive unsplit.
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()

	opts, err := serverOptions(v)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts = append(opts, ravenembed.WithMetricsRegisterer(reg))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := v.GetString("metrics-addr"); addr != "" {
		shutdown := serveMetrics(addr, reg)
		defer shutdown()
	}

	srv := ravenembed.NewServer(opts...)
	if err := startServer(ctx, srv, databaseNames(v), cmd.OutOrStdout()); err != nil {
		return errors.Join(err, srv.Close())
	}

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "shutting down")
	return srv.Close()
}

// startServer starts srv, prints its address and creates the databases.
func startServer(ctx context.Context, srv ravenembed.Server, databases []string, out io.Writer) error {
	if err := srv.Start(ctx); err != nil {
		return err
	}
	url, err := srv.URL(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "RavenDB server available on %s\n", url)

	for _, name := range databases {
		if _, err := srv.DocumentStore(ctx, name); err != nil {
			return err
		}
		fmt.Fprintf(out, "database %s ready\n", name)
	}
	return nil
}

// serveMetrics serves reg on addr under /metrics and returns a function
// shutting the listener down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metricsServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log := logger
	log.Info("serving metrics", "addr", addr)
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Debug("failed to shut down metrics server", "error", err)
		}
	}
}
