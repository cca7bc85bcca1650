package cmd

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/export"
	"mspro-labs/grid-scout/internal/merge"
)

var mergeRegion string

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge census info, water and electrical providers for a region",
	Long: `Combines all-states-info.json (from "census"), the water provider list in
DATASETS_DIR and the per-state provider files (from "scrape") into
<OUTPUT_DIR>/<region>-utility-info.json.`,
	Run: func(cmd *cobra.Command, args []string) {
		runMerge()
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeRegion, "region", "region-5", "region from the config file")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge() {
	appCfg, siteCfg := loadConfig()
	states, err := siteCfg.RegionStates(mergeRegion)
	if err != nil {
		log.Fatalf("%v", err)
	}

	all, err := merge.LoadAllStates(config.Resolve(appCfg.OutputDir, siteCfg.Datasets.AllStatesFile))
	if err != nil {
		log.Fatalf("%v (run census first)", err)
	}

	water, err := merge.LoadWater(config.Resolve(appCfg.DatasetsDir, siteCfg.Datasets.WaterProviders))
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("No water provider list, continuing without one")
	} else if err != nil {
		log.Fatalf("%v", err)
	}

	region, err := merge.Build(states, all, water, appCfg.OutputDir)
	if err != nil {
		log.Fatalf("Merge failed: %v", err)
	}

	out := filepath.Join(appCfg.OutputDir, merge.FileName(mergeRegion))
	if err := export.WriteJSON(out, region, export.IndentData); err != nil {
		log.Fatalf("Failed to write %s: %v", out, err)
	}
	log.Printf("SUCCESS: merged %d states.", len(region))
}
