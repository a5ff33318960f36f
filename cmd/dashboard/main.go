// Command dashboard builds the storm wind-rose and histogram dashboard as
// Vega-Lite specifications, either once to files or continuously behind an
// HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Build the storm wind-rose dashboard",
		Long: "Build the storm wind-rose dashboard.\n" +
			"\n" +
			"Inputs and service settings are read from the environment\n" +
			"(ROSE_CSV, HIST_CSV, PANELS_FILE, HTTP_ADDR, KAFKA_*).",
		SilenceUsage: true,
	}
	cmd.AddCommand(newGenerateCmd(), newServeCmd())
	return cmd
}
