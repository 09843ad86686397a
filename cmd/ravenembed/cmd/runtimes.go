package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giantswarm/ravenembed/internal/fxversion"
)

// RuntimesCmd lists the installed .NET runtimes, or resolves a version
// specification against them.
var RuntimesCmd = &cobra.Command{
	Use:   "runtimes [version]",
	Short: "List the installed .NET runtimes",
	Long: `List the .NET runtimes reported by the runtime host. With a version
argument such as 8.0.x or 7.0.15+, print the runtime the server would run on
instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuntimes,
}

func runRuntimes(cmd *cobra.Command, args []string) error {
	dotnet := viper.GetString("dotnet-path")
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		resolved, err := fxversion.Resolve(cmd.Context(), dotnet, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resolved)
		return nil
	}

	installed, err := fxversion.Discover(cmd.Context(), dotnet)
	if err != nil {
		return err
	}
	for _, v := range installed {
		fmt.Fprintln(out, v)
	}
	return nil
}
