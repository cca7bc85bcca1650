package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"mspro-labs/grid-scout/internal/census"
	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/export"
)

var (
	censusPopulation string
	censusGeneration string
)

var censusCmd = &cobra.Command{
	Use:   "census",
	Short: "Build all-states-info.json from the population and generation datasets",
	Long: `Reads the Census Bureau sub-county estimates (sub-est2021_all.csv) and the
EIA annual generation workbook (annual_generation_state.xlsx, saved from the
published .xls) from DATASETS_DIR and writes population and energy production
per state to OUTPUT_DIR.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCensus()
	},
}

func init() {
	censusCmd.Flags().StringVar(&censusPopulation, "population", "", "population CSV, overrides the config file")
	censusCmd.Flags().StringVar(&censusGeneration, "generation", "", "generation workbook, overrides the config file")
	rootCmd.AddCommand(censusCmd)
}

func runCensus() {
	appCfg, siteCfg := loadConfig()
	ds := siteCfg.Datasets

	popPath := config.Resolve(appCfg.DatasetsDir, ds.PopulationCSV)
	if censusPopulation != "" {
		popPath = censusPopulation
	}
	genPath := config.Resolve(appCfg.DatasetsDir, ds.GenerationXLSX)
	if censusGeneration != "" {
		genPath = censusGeneration
	}

	log.Printf("Reading population estimates from %s", popPath)
	pop, err := census.ReadPopulationFile(popPath)
	if err != nil {
		log.Fatalf("Population: %v", err)
	}

	log.Printf("Reading generation %d-%d from %s", ds.FirstYear, ds.LastYear, genPath)
	gen, err := census.ReadGenerationFile(genPath, ds.FirstYear, ds.LastYear)
	if err != nil {
		log.Fatalf("Generation: %v", err)
	}

	states := census.BuildStates(pop, gen, ds.FirstYear, ds.LastYear)
	out := config.Resolve(appCfg.OutputDir, ds.AllStatesFile)
	if err := export.WriteJSON(out, states, export.IndentData); err != nil {
		log.Fatalf("Failed to write %s: %v", out, err)
	}
	log.Printf("SUCCESS: wrote %d states.", len(states))
}
