package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mspro-labs/grid-scout/internal/models"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Connect(MemoryPath)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ohio(providers ...models.ProviderInfo) *models.StateProviders {
	return &models.StateProviders{State: "OH", ElectricalProviders: providers}
}

var (
	aep = models.ProviderInfo{
		URL:            "https://findenergy.com/providers/aep-ohio/",
		Company:        "AEP Ohio",
		CompanyType:    "Investor Owned",
		Website:        "https://aepohio.com/",
		ServiceTypes:   []string{"Residential", "Commercial"},
		Stats:          map[string]float64{"Residential-Customers": 1300000},
		TotalCustomers: 1300000,
		CitiesServed:   []string{"Columbus"},
		StatesServed:   []models.Record{{NameKey: "state", Name: "Ohio", ValueKey: "customers", Value: 1300000}},
	}
	coop = models.ProviderInfo{
		URL:            "https://findenergy.com/providers/small-coop/",
		Company:        "Small Co-op",
		Stats:          map[string]float64{},
		TotalCustomers: 75,
	}
)

func TestSaveProviders(t *testing.T) {
	db := memoryDB(t)

	n, err := SaveProviders(db, ohio(coop, aep))
	if err != nil {
		t.Fatalf("SaveProviders: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 affected rows, got %d", n)
	}

	got, err := GetStateProviders(db, "oh")
	if err != nil {
		t.Fatalf("GetStateProviders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(got))
	}
	first := got[0]
	if first.LastScrapedAt.IsZero() {
		t.Error("expected a scrape timestamp")
	}
	want := Provider{
		State:          "OH",
		URL:            aep.URL,
		Company:        "AEP Ohio",
		CompanyType:    "Investor Owned",
		Website:        "https://aepohio.com/",
		TotalCustomers: 1300000,
		ServiceTypes:   []string{"Residential", "Commercial"},
		Stats:          map[string]float64{"Residential-Customers": 1300000},
		CitiesServed:   []string{"Columbus"},
		LastScrapedAt:  first.LastScrapedAt,
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("provider mismatch (-want +got):\n%s", diff)
	}
	if got[1].Website != "" || got[1].CompanyType != "" {
		t.Errorf("empty optional fields should read back empty, got %+v", got[1])
	}
}

func TestSaveProvidersMarksMissingInactive(t *testing.T) {
	db := memoryDB(t)

	if _, err := SaveProviders(db, ohio(aep, coop)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	updated := aep
	updated.TotalCustomers = 1400000
	if _, err := SaveProviders(db, ohio(updated)); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := GetStateProviders(db, "OH")
	if err != nil {
		t.Fatalf("GetStateProviders: %v", err)
	}
	if len(got) != 1 || got[0].TotalCustomers != 1400000 {
		t.Fatalf("expected only the updated AEP row, got %+v", got)
	}

	var total, active int
	if err := db.QueryRow("SELECT COUNT(*), SUM(is_active) FROM provider").Scan(&total, &active); err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 || active != 1 {
		t.Errorf("expected 2 rows with 1 active, got %d and %d", total, active)
	}
}

func TestStateSummaries(t *testing.T) {
	db := memoryDB(t)
	if _, err := SaveProviders(db, ohio(aep, coop)); err != nil {
		t.Fatalf("SaveProviders: %v", err)
	}
	in := &models.StateProviders{State: "IN", ElectricalProviders: []models.ProviderInfo{coop}}
	if _, err := SaveProviders(db, in); err != nil {
		t.Fatalf("SaveProviders: %v", err)
	}

	got, err := StateSummaries(db)
	if err != nil {
		t.Fatalf("StateSummaries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 states, got %d", len(got))
	}
	if got[0].State != "IN" || got[1].State != "OH" {
		t.Errorf("expected IN then OH, got %s then %s", got[0].State, got[1].State)
	}
	if got[1].Providers != 2 || got[1].Customers != 1300075 {
		t.Errorf("unexpected OH summary: %+v", got[1])
	}
	if got[1].LastScraped.IsZero() {
		t.Error("expected a last scraped time")
	}
}

func TestRuns(t *testing.T) {
	db := memoryDB(t)

	id, err := StartRun(db, "region-5", []string{"OH", "IN"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := FinishRun(db, id, []string{"IN"}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if _, err := StartRun(db, "region-2", []string{"NY"}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	runs, err := ListRuns(db, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Region != "region-2" || runs[0].FinishedAt.Valid {
		t.Errorf("expected the unfinished region-2 run first, got %+v", runs[0])
	}
	if diff := cmp.Diff([]string{"IN"}, runs[1].Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
	if !runs[1].FinishedAt.Valid {
		t.Error("expected region-5 run to be finished")
	}
}

func TestConnectCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local-data", "providers.db")
	db, err := Connect(path)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	db.Close()
}

func TestConnectRejectsDirectory(t *testing.T) {
	if _, err := Connect(t.TempDir()); err == nil {
		t.Error("expected an error when the database path is a directory")
	}
}
