package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"mspro-labs/grid-scout/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "grid-scout",
	Short: "Collect electric utility, population and generation data by state",
	Long: `grid-scout scrapes electricity provider listings state by state, builds
per-state population and generation info from public datasets, and merges
them into region documents.

Infrastructure settings come from the environment (or a .env file):
  DB_PATH, CONFIG_PATH, OUTPUT_DIR, DATASETS_DIR
Site selectors, delays and regions come from the YAML file at CONFIG_PATH.`,
}

// Execute runs the command line. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads both config layers or exits.
func loadConfig() (config.AppConfig, *config.SiteConfig) {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	siteCfg, err := config.LoadSiteConfig(appCfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load site config: %v", err)
	}
	return appCfg, siteCfg
}

var printer = message.NewPrinter(language.English)

// formatCount renders a figure with thousands separators.
func formatCount(v float64) string {
	return printer.Sprintf("%.0f", v)
}
