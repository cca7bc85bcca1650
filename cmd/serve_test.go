package cmd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mspro-labs/grid-scout/internal/db"
	"mspro-labs/grid-scout/internal/models"
	"mspro-labs/grid-scout/internal/web"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.Connect(db.MemoryPath)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	sp := &models.StateProviders{State: "OH", ElectricalProviders: []models.ProviderInfo{{
		URL:            "https://findenergy.com/providers/aep-ohio/",
		Company:        "AEP Ohio",
		CompanyType:    "Investor Owned",
		Website:        "https://aepohio.com/",
		ServiceTypes:   []string{"Residential", "Commercial"},
		Stats:          map[string]float64{"Residential-Customers": 1300000},
		TotalCustomers: 1300000,
		CitiesServed:   []string{"Columbus", "Dayton"},
	}}}
	if _, err := db.SaveProviders(database, sp); err != nil {
		t.Fatalf("SaveProviders: %v", err)
	}

	pages, err := web.ParsePages(funcMap)
	if err != nil {
		t.Fatalf("ParsePages: %v", err)
	}
	srv := httptest.NewServer(newMux(database, pages))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestServeHome(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	for _, want := range []string{`href="/state/OH"`, "1,300,000"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page is missing %q", want)
		}
	}
}

func TestServeState(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv.URL+"/state/oh")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	for _, want := range []string{"Ohio electricity providers", `href="https://aepohio.com/"`, "AEP Ohio", "Residential, Commercial"} {
		if !strings.Contains(body, want) {
			t.Errorf("state page is missing %q", want)
		}
	}

	_, body = get(t, srv.URL+"/state/IN")
	if !strings.Contains(body, "No active providers stored for IN.") {
		t.Errorf("expected the empty state message, got:\n%s", body)
	}
}

func TestServeNotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/state/XX", "/missing"} {
		if status, _ := get(t, srv.URL+path); status != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, status)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := formatCount(1234567.4); got != "1,234,567" {
		t.Errorf("formatCount: got %q", got)
	}
}
