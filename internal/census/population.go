// Package census turns the Census Bureau population estimates and the EIA
// annual generation workbook into per-state info.
package census

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"mspro-labs/grid-scout/internal/models"
)

var logger = log.New(os.Stdout, "CENSUS: ", log.LstdFlags|log.Lshortfile)

// ErrMissingColumn is returned when an input lacks a column it must have.
var ErrMissingColumn = errors.New("missing column")

// Summary levels of the sub-county estimates file.
const (
	sumLevelState  = 40
	sumLevelCounty = 50
	sumLevelCity   = 162
)

const (
	colSumLevel  = "SUMLEV"
	colStateName = "STNAME"
	colName      = "NAME"
	colEst2020   = "POPESTIMATE2020"
	colEst2021   = "POPESTIMATE2021"
)

// ReadPopulationFile reads the estimates CSV at path.
func ReadPopulationFile(path string) (map[string]*models.StatePopulation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open population file: %w", err)
	}
	defer f.Close()
	return ReadPopulation(f)
}

// ReadPopulation reads the ISO-8859-1 estimates CSV and groups it by full
// state name. Counties and cities are ordered by their latest estimate,
// largest first. Rows of other summary levels are ignored.
func ReadPopulation(r io.Reader) (map[string]*models.StatePopulation, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read population header: %w", err)
	}
	cols, err := columnIndex(header, colSumLevel, colStateName, colName, colEst2020, colEst2021)
	if err != nil {
		return nil, fmt.Errorf("population file: %w", err)
	}

	out := make(map[string]*models.StatePopulation)
	get := func(name string) *models.StatePopulation {
		sp, ok := out[name]
		if !ok {
			sp = &models.StatePopulation{Counties: []models.CountyPopulation{}, Cities: []models.CityPopulation{}}
			out[name] = sp
		}
		return sp
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("population line %d: %w", line, err)
		}

		level, err := strconv.Atoi(strings.TrimSpace(rec[cols[colSumLevel]]))
		if err != nil {
			return nil, fmt.Errorf("population line %d: SUMLEV %q: %w", line, rec[cols[colSumLevel]], err)
		}
		if level != sumLevelState && level != sumLevelCounty && level != sumLevelCity {
			continue
		}

		pop, err := readEstimates(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("population line %d: %w", line, err)
		}
		name := rec[cols[colName]]

		switch level {
		case sumLevelState:
			get(name).Total = pop
		case sumLevelCounty:
			sp := get(rec[cols[colStateName]])
			sp.Counties = append(sp.Counties, models.CountyPopulation{County: name, Population: pop})
		case sumLevelCity:
			sp := get(rec[cols[colStateName]])
			sp.Cities = append(sp.Cities, models.CityPopulation{Name: name, Population: pop})
		}
	}

	for _, sp := range out {
		sort.SliceStable(sp.Counties, func(i, j int) bool {
			return sp.Counties[i].Estimate2021 > sp.Counties[j].Estimate2021
		})
		sort.SliceStable(sp.Cities, func(i, j int) bool {
			return sp.Cities[i].Estimate2021 > sp.Cities[j].Estimate2021
		})
	}
	return out, nil
}

func readEstimates(rec []string, cols map[string]int) (models.Population, error) {
	var p models.Population
	var err error
	if p.Estimate2020, err = parseCount(rec[cols[colEst2020]]); err != nil {
		return p, fmt.Errorf("%s: %w", colEst2020, err)
	}
	if p.Estimate2021, err = parseCount(rec[cols[colEst2021]]); err != nil {
		return p, fmt.Errorf("%s: %w", colEst2021, err)
	}
	return p, nil
}

func parseCount(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
}

// columnIndex maps each wanted header name to its position.
func columnIndex(header []string, want ...string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	out := make(map[string]int, len(want))
	for _, w := range want {
		i, ok := pos[w]
		if !ok {
			return nil, fmt.Errorf("%q: %w", w, ErrMissingColumn)
		}
		out[w] = i
	}
	return out, nil
}
