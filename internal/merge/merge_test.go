package merge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mspro-labs/grid-scout/internal/export"
	"mspro-labs/grid-scout/internal/models"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "OH-energy-utility-info.json"),
		`{"electrical-providers": [{"company": "AEP Ohio", "Total-Customers": 1500}]}`)

	all := map[string]models.StateInfo{
		"OH": {Population: models.StatePopulation{Total: models.Population{Estimate2021: 11780017}}},
		"IN": {},
		"TX": {},
	}
	water := []WaterProvider{
		{"State": "Ohio", "Name": "Small Water", "Population-served": 100.0},
		{"State": "Texas", "Name": "Out of region", "Population-served": 9e6},
		{"State": "Ohio", "Name": "Columbus Water", "Population-served": 900000.0},
		{"State": "Ohio", "Name": "Unknown size"},
	}

	got, err := Build([]string{"OH", "IN", "MI"}, all, water, dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := got["MI"]; ok {
		t.Error("MI is not in the all-states file and must be left out")
	}
	if _, ok := got["TX"]; ok {
		t.Error("TX is outside the region")
	}

	var names []any
	for _, w := range got["OH"].WaterProviders {
		names = append(names, w["Name"])
	}
	if diff := cmp.Diff([]any{"Columbus Water", "Small Water", "Unknown size"}, names); diff != "" {
		t.Errorf("water order mismatch (-want +got):\n%s", diff)
	}
	if len(got["IN"].WaterProviders) != 0 || got["IN"].ElectricalProviders == nil {
		t.Errorf("IN should have empty lists, got %+v", got["IN"])
	}
	if len(got["OH"].ElectricalProviders) != 1 {
		t.Fatalf("expected OH providers from its artifact, got %d", len(got["OH"].ElectricalProviders))
	}

	// round trip through the writer to check the document shape
	out := filepath.Join(dir, FileName("region-5"))
	if err := export.WriteJSON(out, got, export.IndentData); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var doc map[string]map[string]json.RawMessage
	if err := export.ReadJSON(out, &doc); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	for _, key := range []string{"population", "energy-production", "water-providers", "electrical-providers"} {
		if _, ok := doc["OH"][key]; !ok {
			t.Errorf("region document lacks %q", key)
		}
	}
}

func TestBuildBadArtifact(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "OH-energy-utility-info.json"), `{"electrical-providers": `)

	all := map[string]models.StateInfo{"OH": {}}
	if _, err := Build([]string{"OH"}, all, nil, dir); err == nil {
		t.Error("expected an error for a truncated artifact")
	}
}

func TestLoadWater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water.json")
	writeFile(t, path, `[{"State": "Ohio", "Population-served": 12}]`)

	water, err := LoadWater(path)
	if err != nil {
		t.Fatalf("LoadWater: %v", err)
	}
	if len(water) != 1 || water[0].State() != "Ohio" || water[0].PopulationServed() != 12 {
		t.Errorf("unexpected water list: %v", water)
	}
}
