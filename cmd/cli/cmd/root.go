// Package cmd provides the CLI commands for storformat.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storformat/core/ui"
	"storformat/internal/config"
	"storformat/internal/logging"
)

// version is set at build time with -ldflags "-X storformat/cmd/cli/cmd.version=..."
var version = "0.1.0"

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storformat",
	Short: "Live price and preview configurator for large-format print products",
	Long: `storformat prices and previews banners, meshes, foils and cut letters from the
shop's runtime catalog.

It can price a selection, render the live preview as SVG, follow a host product
page in a headless browser, publish catalogs to the shared store and serve the
HTTP API.

Examples:
  storformat price --width 200 --height 100 --variant pvc --finishing rings
  storformat render --width 300 --height 80 --variant cut-letters --foil "SALG" --out preview.svg
  storformat watch https://shop.example/produkt/banner
  storformat catalog publish catalog.json
  storformat serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.NewWriter(os.Stderr, noColor).Error("%v", err)
	}
	logging.Sync()
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (json, yaml or hcl)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.LoadEnv(".env")
	if verbose {
		cfg.Logging.Level = "debug"
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "storformat version %s\n", version)
	},
}
