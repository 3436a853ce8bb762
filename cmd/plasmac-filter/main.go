package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

type globalFlags struct {
	configPath  string
	verbose     int
	logFile     string
	pierceOnly  bool
	reportFile  string
	format      string
	metricsFile string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "plasmac-filter <file>",
		Short: "Prepare a plasma G-code program for the motion controller",
		Long: `Filter a plasma G-code program and write the result to stdout.

Small holes get a velocity reduction and an optional overburn, inline
material definitions are written to the material file, and the program
is checked against the material table. Problems are reported on stderr.`,
		Args:          cobra.ExactArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var path *string
			if flags.logFile != "" {
				path = &flags.logFile
			}
			commonlog.Configure(flags.verbose, path)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, &flags, args[0])
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "TOML configuration file (default $PLASMAC_FILTER_CONFIG)")
	pf.CountVarP(&flags.verbose, "verbose", "v", "increase log verbosity")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.BoolVar(&flags.pierceOnly, "pierce-only", false, "emit pierces only")
	pf.StringVar(&flags.reportFile, "report", "", "write the diagnostics report to this file")
	pf.StringVar(&flags.format, "format", "", "report format: text, json or yaml")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format")

	rootCmd.AddCommand(newCheckCmd(&flags))
	rootCmd.AddCommand(newMaterialsCmd(&flags))
	rootCmd.AddCommand(newLSPCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
