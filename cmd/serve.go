package cmd

import (
	"database/sql"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/db"
	"mspro-labs/grid-scout/internal/web"
)

// Helpers for templates
var funcMap = template.FuncMap{
	"count": formatCount,
	"join":  strings.Join,
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Browse the stored providers in a web UI",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServer() {
	// 1. Setup
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	database, err := db.Connect(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer database.Close()

	// 2. Pre-build templates
	pages, err := web.ParsePages(funcMap)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// 3. Start server
	log.Printf("Web UI started at http://localhost%s", serveAddr)
	server := &http.Server{
		Addr:         serveAddr,
		Handler:      newMux(database, pages),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

func newMux(database *sql.DB, pages *web.Pages) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		states, err := db.StateSummaries(database)
		if err != nil {
			log.Printf("DB error: %v", err)
			http.Error(w, "Failed to load states", http.StatusInternalServerError)
			return
		}
		runs, err := db.ListRuns(database, 10)
		if err != nil {
			log.Printf("DB error: %v", err)
			http.Error(w, "Failed to load runs", http.StatusInternalServerError)
			return
		}

		data := struct {
			States []db.StateSummary
			Runs   []db.Run
		}{states, runs}
		if err := pages.Home.ExecuteTemplate(w, "base.html", data); err != nil {
			log.Printf("Template error: %v", err)
		}
	})

	mux.HandleFunc("GET /state/{abbr}", func(w http.ResponseWriter, r *http.Request) {
		abbr := strings.ToUpper(r.PathValue("abbr"))
		name, ok := config.StateName(abbr)
		if !ok {
			http.NotFound(w, r)
			return
		}
		providers, err := db.GetStateProviders(database, abbr)
		if err != nil {
			log.Printf("DB error: %v", err)
			http.Error(w, "Failed to load providers", http.StatusInternalServerError)
			return
		}

		data := struct {
			Abbr      string
			Name      string
			Providers []db.Provider
		}{abbr, name, providers}
		if err := pages.State.ExecuteTemplate(w, "base.html", data); err != nil {
			log.Printf("Template error: %v", err)
		}
	})

	return mux
}
