package cmd

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/db"
	"mspro-labs/grid-scout/internal/export"
	"mspro-labs/grid-scout/internal/models"
	"mspro-labs/grid-scout/internal/scraper"
)

var (
	scrapeRegion   string
	scrapeStates   []string
	scrapeEngine   string
	scrapeFailFast bool
	scrapeNoDB     bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the electricity providers of a region",
	Long: `Walks every provider of each state in the region, writes
<OUTPUT_DIR>/<ST>-energy-utility-info.json per state and upserts the providers
into the local database.

Examples:
  grid-scout scrape --region region-5
  grid-scout scrape --states OH,IN --engine static`,
	Run: func(cmd *cobra.Command, args []string) {
		runScrape()
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeRegion, "region", "region-5", `region from the config file, or "all"`)
	scrapeCmd.Flags().StringSliceVar(&scrapeStates, "states", nil, "state abbreviations, overrides --region")
	scrapeCmd.Flags().StringVar(&scrapeEngine, "engine", "", "rod or static, overrides the config file")
	scrapeCmd.Flags().BoolVar(&scrapeFailFast, "fail-fast", false, "stop at the first state that fails")
	scrapeCmd.Flags().BoolVar(&scrapeNoDB, "no-db", false, "only write JSON artifacts")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape() {
	// 1. Load Config
	appCfg, siteCfg := loadConfig()
	if scrapeEngine != "" {
		siteCfg.Engine = scrapeEngine
		if err := siteCfg.Validate(); err != nil {
			log.Fatalf("Invalid --engine: %v", err)
		}
	}
	region, states := scrapeTargets(siteCfg)
	log.Printf("Scraping %d states (%s) with the %s engine", len(states), strings.Join(states, ", "), siteCfg.Engine)

	// 2. Connect to DB
	save := scraper.SaveFunc(export.StateWriter(appCfg.OutputDir))
	var (
		database *sql.DB
		runID    int64
	)
	if !scrapeNoDB {
		var err error
		database, err = db.Connect(appCfg.DBPath)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		defer database.Close()

		if runID, err = db.StartRun(database, region, states); err != nil {
			log.Fatalf("%v", err)
		}
		save = saveToDB(database, save)
	}

	// 3. Run Scraper (Ctrl-C stops between steps)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	failed, err := scraper.Run(ctx, siteCfg, states, save, scrapeFailFast)

	// 4. Record the run
	if database != nil {
		if ferr := db.FinishRun(database, runID, failed); ferr != nil {
			log.Printf("Warning: %v", ferr)
		}
	}
	if err != nil {
		log.Fatalf("Scraping failed: %v", err)
	}
	log.Printf("SUCCESS: scraped %d states.", len(states))
}

// scrapeTargets resolves --states or --region into a run label and states.
func scrapeTargets(siteCfg *config.SiteConfig) (string, []string) {
	if len(scrapeStates) == 0 {
		states, err := siteCfg.RegionStates(scrapeRegion)
		if err != nil {
			log.Fatalf("%v", err)
		}
		return scrapeRegion, states
	}

	states := make([]string, 0, len(scrapeStates))
	for _, s := range scrapeStates {
		abbr := strings.ToUpper(strings.TrimSpace(s))
		if _, ok := config.StateName(abbr); !ok {
			log.Fatalf("Unknown state %q", s)
		}
		states = append(states, abbr)
	}
	return "custom", states
}

// saveToDB upserts each state after writing its artifact.
func saveToDB(database *sql.DB, next scraper.SaveFunc) scraper.SaveFunc {
	return func(sp *models.StateProviders) error {
		if err := next(sp); err != nil {
			return err
		}
		count, err := db.SaveProviders(database, sp)
		if err != nil {
			return err
		}
		log.Printf("Upserted %d %s providers.", count, sp.State)
		return nil
	}
}
