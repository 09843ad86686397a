// Package cmd implements the ravenembed command line: it runs an embedded
// RavenDB server in the foreground and inspects the installed .NET runtimes.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giantswarm/ravenembed"
)

// Version is the version of the ravenembed command.
const Version = "0.1.0"

// logger is the command's logger, replaced by setupLogging.
var logger = slog.Default()

var (
	// RootCmd represents the base command when called without any subcommands.
	RootCmd = &cobra.Command{
		Use:   "ravenembed",
		Short: "Run an embedded RavenDB server",
		Long: fmt.Sprintf(`ravenembed (v%s)

Runs a RavenDB server as a child process, the way the ravenembed library
does inside a program. Every flag can also be set through an environment
variable named RAVENEMBED_<FLAG> (e.g. RAVENEMBED_DATA_DIR=/var/lib/raven).
Variables in .env and .env.local are loaded first.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ravenembed",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ravenembed v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(RuntimesCmd)
	RootCmd.AddCommand(versionCmd)

	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", "Level at which logs are written to stderr (debug, info, warn, error)")

	key = "dotnet-path"
	RootCmd.PersistentFlags().String(key, ravenembed.DefaultDotNetPath, "The .NET runtime host executable")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig loads the env files and makes viper read matching environment
// variables.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("ravenembed")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// setupLogging binds the command's flags to viper and installs a text
// logger on stderr at the configured level.
func setupLogging(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level, err := parseLogLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler).With("component", "ravenembed")
	ravenembed.SetLogger(logger)
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", s)
	}
	return level, nil
}
