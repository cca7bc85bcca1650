package cmd

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/db"
)

var (
	reportState string
	reportRuns  int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print what the local database holds",
	Long: `Without flags, prints one line per scraped state.
Examples:
  grid-scout report
  grid-scout report --state OH
  grid-scout report --runs 10`,
	Run: func(cmd *cobra.Command, args []string) {
		runReport()
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportState, "state", "", "list the providers of one state")
	reportCmd.Flags().IntVar(&reportRuns, "runs", 0, "list the most recent scrape runs")
	rootCmd.AddCommand(reportCmd)
}

func runReport() {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	switch {
	case reportRuns > 0:
		err = printRuns(database, reportRuns)
	case reportState != "":
		err = printProviders(database, strings.ToUpper(reportState))
	default:
		err = printStates(database)
	}
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}
}

func newTable(title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

func printStates(database *sql.DB) error {
	summaries, err := db.StateSummaries(database)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No providers stored yet. Run scrape first.")
		return nil
	}

	t := newTable("Scraped states", table.Row{"State", "Providers", "Customers", "Last scraped"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	var providers int
	var customers float64
	for _, s := range summaries {
		t.AppendRow(table.Row{s.State, s.Providers, formatCount(s.Customers), s.LastScraped.Format("2006-01-02 15:04")})
		providers += s.Providers
		customers += s.Customers
	}
	t.AppendFooter(table.Row{"Total", providers, formatCount(customers), ""})
	t.Render()
	return nil
}

func printProviders(database *sql.DB, state string) error {
	providers, err := db.GetStateProviders(database, state)
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		fmt.Printf("No active providers stored for %s.\n", state)
		return nil
	}

	t := newTable(state+" electricity providers", table.Row{"#", "Company", "Type", "Customers", "Cities", "Website"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, WidthMax: 40},
	})
	for i, p := range providers {
		t.AppendRow(table.Row{i + 1, p.Company, p.CompanyType, formatCount(p.TotalCustomers), len(p.CitiesServed), p.Website})
	}
	t.Render()
	return nil
}

func printRuns(database *sql.DB, limit int) error {
	runs, err := db.ListRuns(database, limit)
	if err != nil {
		return err
	}
	t := newTable("Scrape runs", table.Row{"ID", "Region", "States", "Failed", "Started", "Finished"})
	for _, r := range runs {
		finished := "running or interrupted"
		if r.FinishedAt.Valid {
			finished = r.FinishedAt.Time.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{r.ID, r.Region, strings.Join(r.States, ","), strings.Join(r.Failed, ","),
			r.StartedAt.Format("2006-01-02 15:04"), finished})
	}
	t.Render()
	return nil
}
