// Package cmd wires the data plane's components together behind a cobra
// CLI, the way the upstream tool structures its subcommands: a root
// command carrying persistent flags, with "serve" as the long-running
// entry point.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/uofuseismo/urts-core/urtslog"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:           "urts-core",
	Short:         "Urban Real-Time Seismic data plane.",
	Long:          "Runs the packet cache, picker pipeline, and associator service of the real-time seismic data plane.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command, printing any returned error to stderr and
// exiting non-zero.
func Execute() {
	if _, err := rootCmd.ExecuteC(); err != nil {
		urtslog.Stderr.Errorf("%s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "If set, outputs detailed information for debugging.")
	viper.BindPFlag(urtslog.DebugKey, rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(serveCmd)
}
