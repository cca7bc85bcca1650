package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Record is one row of a coverage table. The key names are chosen by the
// caller so the same shape serves counties (county/population) and states
// (state/customers). Records are comparable, which is what de-duplication
// relies on.
type Record struct {
	NameKey  string
	Name     string
	ValueKey string
	Value    int64
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		r.NameKey:  r.Name,
		r.ValueKey: r.Value,
	})
}

// SortRecords orders records by ascending value, keeping input order on ties.
func SortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Value < recs[j].Value
	})
}

// ProviderInfo holds everything scraped from one provider's detail page.
type ProviderInfo struct {
	URL          string
	Company      string
	CompanyType  string
	Website      string // empty when the page lists none
	ServiceTypes []string

	// Stats holds the statistic groups keyed as they are published, e.g.
	// "Residential-Customers", "Industrial-($)", "Net-Generation-MWh".
	Stats          map[string]float64
	TotalCustomers float64

	CitiesServed   []string
	CountiesServed []Record // nil when the page has no county table
	StatesServed   []Record
}

// TotalCustomersKey is the JSON key of ProviderInfo.TotalCustomers. Stats
// must not use it.
const TotalCustomersKey = "Total-Customers"

// Reserved JSON keys of a provider object.
const (
	keyCompany        = "company"
	keyCompanyType    = "company-type"
	keyWebsite        = "website"
	keyServiceTypes   = "service-types"
	keyCities         = "cities-served"
	keyCounties       = "counties-served"
	keyStates         = "states-served"
)

// MarshalJSON flattens Stats into the provider object.
func (p ProviderInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Stats)+8)
	for k, v := range p.Stats {
		out[k] = v
	}
	out[keyCompany] = p.Company
	out[keyCompanyType] = p.CompanyType
	if p.Website != "" {
		out[keyWebsite] = p.Website
	}
	out[keyServiceTypes] = nonNil(p.ServiceTypes)
	out[TotalCustomersKey] = p.TotalCustomers
	out[keyCities] = nonNil(p.CitiesServed)
	if p.CountiesServed != nil {
		out[keyCounties] = p.CountiesServed
	}
	out[keyStates] = nonNil(p.StatesServed)
	return json.Marshal(out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// StateProviders is the per-state artifact.
type StateProviders struct {
	State               string         `json:"-"`
	ElectricalProviders []ProviderInfo `json:"electrical-providers"`
}

// SortByCustomers orders providers by descending Total-Customers.
func SortByCustomers(providers []ProviderInfo) {
	sort.SliceStable(providers, func(i, j int) bool {
		return providers[i].TotalCustomers > providers[j].TotalCustomers
	})
}

// Population holds the two census estimates the datasets carry.
type Population struct {
	Estimate2020 int64 `json:"estimate-2020"`
	Estimate2021 int64 `json:"estimate-2021"`
}

// CountyPopulation is a county with its estimates.
type CountyPopulation struct {
	County string `json:"county"`
	Population
}

// CityPopulation is an incorporated place with its estimates.
type CityPopulation struct {
	Name string `json:"name"`
	Population
}

// StatePopulation groups the statewide, county and city figures.
type StatePopulation struct {
	Total    Population         `json:"total"`
	Counties []CountyPopulation `json:"counties"`
	Cities   []CityPopulation   `json:"cities"`
}

// EnergyProduction maps year -> energy source -> generation in MWh.
type EnergyProduction struct {
	Annual map[int]map[string]float64 `json:"annual"`
}

// StateInfo is one entry of the all-states dataset.
type StateInfo struct {
	Population       StatePopulation  `json:"population"`
	EnergyProduction EnergyProduction `json:"energy-production"`
}

// StateFileName is the artifact name for a state's providers.
func StateFileName(abbr string) string {
	return fmt.Sprintf("%s-energy-utility-info.json", abbr)
}
