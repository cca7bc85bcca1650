package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for side-effects only

	"mspro-labs/grid-scout/internal/models"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// sqliteTime is the text layout of CURRENT_TIMESTAMP.
const sqliteTime = "2006-01-02 15:04:05"

// Connect opens a connection to the SQLite database and ensures the schema exists.
// It automatically applies recommended settings for concurrency (WAL mode).
func Connect(dbPath string) (*sql.DB, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	// Use robust connection settings to prevent "database locked" errors
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// createSchema is private as it's only called by Connect.
func createSchema(db *sql.DB) error {
	providerTable := `
	CREATE TABLE IF NOT EXISTS provider (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  state TEXT NOT NULL,
	  url TEXT NOT NULL,
	  company TEXT NOT NULL,
	  company_type TEXT,
	  website TEXT,
	  total_customers REAL,
	  service_types TEXT,   -- JSON array
	  stats TEXT,           -- JSON object
	  cities_served TEXT,   -- JSON array
	  counties_served TEXT, -- JSON array, NULL without a county table
	  states_served TEXT,   -- JSON array
	  first_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  last_scraped_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  is_active INTEGER DEFAULT 1,
	  UNIQUE (state, url)
	);
	CREATE INDEX IF NOT EXISTS idx_provider_state ON provider(state, is_active);
	`
	if _, err := db.Exec(providerTable); err != nil {
		return err
	}

	// One row per scrape command invocation
	runTable := `
	CREATE TABLE IF NOT EXISTS scrape_run (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  region TEXT NOT NULL,
	  states TEXT NOT NULL,
	  failed TEXT,
	  started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	  finished_at TIMESTAMP
	);
	`
	if _, err := db.Exec(runTable); err != nil {
		return err
	}

	return nil
}

// SaveProviders replaces a state's active provider set. Providers not in sp
// stay in the table but are marked inactive; the rest are upserted and marked
// active. It all happens in one transaction.
func SaveProviders(db *sql.DB, sp *models.StateProviders) (int64, error) {
	upsertSQL := `
	INSERT INTO provider (
	  state, url, company, company_type, website, total_customers,
	  service_types, stats, cities_served, counties_served, states_served,
	  last_scraped_at, is_active
	) VALUES (
	  ?, ?, ?, ?, ?, ?,
	  ?, ?, ?, ?, ?,
	  CURRENT_TIMESTAMP, 1
	) ON CONFLICT(state, url) DO UPDATE SET
	  company = excluded.company,
	  company_type = excluded.company_type,
	  website = excluded.website,
	  total_customers = excluded.total_customers,
	  service_types = excluded.service_types,
	  stats = excluded.stats,
	  cities_served = excluded.cities_served,
	  counties_served = excluded.counties_served,
	  states_served = excluded.states_served,
	  last_scraped_at = CURRENT_TIMESTAMP,
	  is_active = 1;
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE provider SET is_active = 0 WHERE state = ? AND is_active = 1;`, sp.State); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to mark %s providers as inactive: %w", sp.State, err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	var totalAffected int64
	for _, p := range sp.ElectricalProviders {
		args, err := providerArgs(sp.State, p)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to encode %s: %w", p.URL, err)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to upsert %s: %w", p.URL, err)
		}
		rows, _ := res.RowsAffected()
		totalAffected += rows
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return totalAffected, nil
}

func providerArgs(state string, p models.ProviderInfo) ([]any, error) {
	services, err := json.Marshal(nonNil(p.ServiceTypes))
	if err != nil {
		return nil, err
	}
	stats, err := json.Marshal(p.Stats)
	if err != nil {
		return nil, err
	}
	cities, err := json.Marshal(nonNil(p.CitiesServed))
	if err != nil {
		return nil, err
	}
	var counties sql.NullString
	if p.CountiesServed != nil {
		b, err := json.Marshal(p.CountiesServed)
		if err != nil {
			return nil, err
		}
		counties = sql.NullString{String: string(b), Valid: true}
	}
	states, err := json.Marshal(nonNil(p.StatesServed))
	if err != nil {
		return nil, err
	}

	return []any{
		state,
		p.URL,
		p.Company,
		sql.NullString{String: p.CompanyType, Valid: p.CompanyType != ""},
		sql.NullString{String: p.Website, Valid: p.Website != ""},
		p.TotalCustomers,
		string(services),
		string(stats),
		string(cities),
		counties,
		string(states),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Provider is a stored provider as the report and web UI show it.
type Provider struct {
	State          string
	URL            string
	Company        string
	CompanyType    string
	Website        string
	TotalCustomers float64
	ServiceTypes   []string
	Stats          map[string]float64
	CitiesServed   []string
	LastScrapedAt  time.Time
}

// GetStateProviders returns a state's active providers, most customers first.
func GetStateProviders(db *sql.DB, state string) ([]Provider, error) {
	rows, err := db.Query(`
		SELECT state, url, company, company_type, website, total_customers,
		       service_types, stats, cities_served, last_scraped_at
		FROM provider
		WHERE state = ? AND is_active = 1
		ORDER BY total_customers DESC, company
	`, strings.ToUpper(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var (
			p                       Provider
			companyType, website    sql.NullString
			services, stats, cities sql.NullString
		)
		if err := rows.Scan(&p.State, &p.URL, &p.Company, &companyType, &website, &p.TotalCustomers,
			&services, &stats, &cities, &p.LastScrapedAt); err != nil {
			return nil, err
		}
		p.CompanyType, p.Website = companyType.String, website.String
		if err := decodeJSON(services, &p.ServiceTypes); err != nil {
			return nil, fmt.Errorf("%s service types: %w", p.URL, err)
		}
		if err := decodeJSON(stats, &p.Stats); err != nil {
			return nil, fmt.Errorf("%s stats: %w", p.URL, err)
		}
		if err := decodeJSON(cities, &p.CitiesServed); err != nil {
			return nil, fmt.Errorf("%s cities: %w", p.URL, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func decodeJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

// StateSummary aggregates a state's active providers.
type StateSummary struct {
	State       string
	Providers   int
	Customers   float64
	LastScraped time.Time
}

// StateSummaries returns one summary per state with active providers,
// ordered by state.
func StateSummaries(db *sql.DB) ([]StateSummary, error) {
	rows, err := db.Query(`
		SELECT state, COUNT(*), COALESCE(SUM(total_customers), 0), MAX(last_scraped_at)
		FROM provider
		WHERE is_active = 1
		GROUP BY state
		ORDER BY state
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateSummary
	for rows.Next() {
		var (
			s    StateSummary
			last sql.NullString
		)
		if err := rows.Scan(&s.State, &s.Providers, &s.Customers, &last); err != nil {
			return nil, err
		}
		if last.Valid {
			s.LastScraped = parseTime(last.String)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// parseTime reads an aggregate timestamp, which the driver hands back as text.
func parseTime(s string) time.Time {
	for _, layout := range []string{sqliteTime, time.RFC3339Nano, "2006-01-02 15:04:05Z07:00", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// --- Run history ---

// Run is one recorded scrape invocation.
type Run struct {
	ID         int64
	Region     string
	States     []string
	Failed     []string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// StartRun records the beginning of a scrape and returns its id.
func StartRun(db *sql.DB, region string, states []string) (int64, error) {
	res, err := db.Exec("INSERT INTO scrape_run (region, states) VALUES (?, ?)", region, strings.Join(states, ","))
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stamps a run as finished with the states that failed.
func FinishRun(db *sql.DB, id int64, failed []string) error {
	_, err := db.Exec("UPDATE scrape_run SET failed = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?",
		strings.Join(failed, ","), id)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", id, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, region, states, COALESCE(failed, ''), started_at, finished_at
		FROM scrape_run
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r              Run
			states, failed string
		)
		if err := rows.Scan(&r.ID, &r.Region, &states, &failed, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.States, r.Failed = splitList(states), splitList(failed)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
