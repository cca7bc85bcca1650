// Package merge combines the census info, a water provider list and the
// scraped electrical providers of a region's states into one document.
package merge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/export"
	"mspro-labs/grid-scout/internal/models"
)

var logger = log.New(os.Stdout, "MERGE: ", log.LstdFlags|log.Lshortfile)

// Keys read from water provider records.
const (
	waterStateKey      = "State"
	waterPopulationKey = "Population-served"
)

// WaterProvider is a record of the water provider list, kept as published.
type WaterProvider map[string]any

// State is the full state name the record belongs to.
func (w WaterProvider) State() string {
	s, _ := w[waterStateKey].(string)
	return s
}

// PopulationServed is zero when the record has no numeric figure.
func (w WaterProvider) PopulationServed() float64 {
	switch v := w[waterPopulationKey].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// RegionState is one state of a region document.
type RegionState struct {
	models.StateInfo
	WaterProviders      []WaterProvider   `json:"water-providers"`
	ElectricalProviders []json.RawMessage `json:"electrical-providers"`
}

// FileName is the region document's file name.
func FileName(region string) string {
	return region + "-utility-info.json"
}

// Build merges the region's states. States absent from allStates are left
// out. A state without a provider artifact in providersDir keeps an empty
// provider list.
func Build(states []string, allStates map[string]models.StateInfo, water []WaterProvider, providersDir string) (map[string]*RegionState, error) {
	out := make(map[string]*RegionState, len(states))
	for _, abbr := range states {
		info, ok := allStates[abbr]
		if !ok {
			logger.Printf("%s is not in the all-states file, leaving it out", abbr)
			continue
		}
		out[abbr] = &RegionState{
			StateInfo:           info,
			WaterProviders:      []WaterProvider{},
			ElectricalProviders: []json.RawMessage{},
		}
	}

	for _, w := range water {
		abbr, ok := config.StateAbbr(w.State())
		if !ok {
			continue
		}
		if rs, ok := out[abbr]; ok {
			rs.WaterProviders = append(rs.WaterProviders, w)
		}
	}

	for abbr, rs := range out {
		sort.SliceStable(rs.WaterProviders, func(i, j int) bool {
			return rs.WaterProviders[i].PopulationServed() > rs.WaterProviders[j].PopulationServed()
		})

		var sp struct {
			ElectricalProviders []json.RawMessage `json:"electrical-providers"`
		}
		err := export.ReadJSON(export.StatePath(providersDir, abbr), &sp)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Printf("No provider file for %s, run scrape first", abbr)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s providers: %w", abbr, err)
		}
		if sp.ElectricalProviders != nil {
			rs.ElectricalProviders = sp.ElectricalProviders
		}
	}
	return out, nil
}

// LoadWater reads the water provider list.
func LoadWater(path string) ([]WaterProvider, error) {
	var water []WaterProvider
	if err := export.ReadJSON(path, &water); err != nil {
		return nil, fmt.Errorf("water providers: %w", err)
	}
	return water, nil
}

// LoadAllStates reads the document written by the census command.
func LoadAllStates(path string) (map[string]models.StateInfo, error) {
	var all map[string]models.StateInfo
	if err := export.ReadJSON(path, &all); err != nil {
		return nil, fmt.Errorf("all-states info: %w", err)
	}
	return all, nil
}
