// =============================================================================
// GAEB LV Tools - Root Command
// =============================================================================
//
// Defines the root command for the Cobra CLI.
//
// COMMAND STRUCTURE:
//   gaeblv
//   ├── ingest     (read a GAEB/CSV/XLSX file, build the document, store/export)
//   ├── reconcile  (merge a priced issue into the quantity document)
//   └── version
//
// The root command loads the YAML configuration and initializes logging for
// every subcommand; database credentials come from the environment.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/config"
)

// cfgFile holds the path to the configuration file, overridable via --config.
var cfgFile string

// verbose forces debug logging regardless of the configured level.
var verbose bool

// cfg is the loaded configuration, available to all subcommands.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gaeblv",
	Short: "GAEB LV Tools - ingest, store and reconcile bills of quantities",

	Long: `gaeblv works with GAEB DA XML tender documents (X83/X84) and the flat
CSV/XLSX exports many takeoff tools produce instead.

It builds a normalized document tree from any of these sources, persists it
to the import database, exports it back out, and reconciles prices from a
priced issue (X84) into an unpriced bill of quantities (X83).

Example Usage:
  gaeblv ingest angebot.x84 --store              # Parse and persist a priced LV
  gaeblv ingest mengen.csv --out lv.xlsx         # Convert a CSV export to a workbook
  gaeblv reconcile --quantity lv.x83 --priced angebot.x84 --out merged.x84`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == defaultConfigFile {
			// The default config file is optional.
			if _, err := os.Stat(path); err != nil {
				path = ""
			}
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if verbose {
			loaded.LogLevel = "debug"
		}
		config.InitLogging(loaded)
		cfg = loaded
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

const defaultConfigFile = "config.yaml"

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
