package census

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TotalIndustry is the producer type whose rows are kept: the sum over every
// kind of producer.
const TotalIndustry = "Total Electric Power Industry"

const (
	colYear       = "YEAR"
	colState      = "STATE"
	colProducer   = "TYPE OF PRODUCER"
	colSource     = "ENERGY SOURCE"
	colGeneration = "GENERATION (Megawatthours)"

	// The workbook has a title row above the header.
	generationHeaderRow = 1
)

// Generation maps state abbreviation -> year -> energy source -> MWh.
type Generation map[string]map[int]map[string]float64

// ReadGenerationFile reads the workbook at path.
func ReadGenerationFile(path string, firstYear, lastYear int) (Generation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open generation workbook: %w", err)
	}
	defer f.Close()
	return readGeneration(f, firstYear, lastYear)
}

// ReadGeneration reads the annual generation workbook from r, keeping total
// industry rows for years in [firstYear, lastYear].
func ReadGeneration(r io.Reader, firstYear, lastYear int) (Generation, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open generation workbook: %w", err)
	}
	defer f.Close()
	return readGeneration(f, firstYear, lastYear)
}

func readGeneration(f *excelize.File, firstYear, lastYear int) (Generation, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("generation workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) <= generationHeaderRow {
		return nil, fmt.Errorf("generation workbook: no header on row %d", generationHeaderRow+1)
	}

	cols, err := columnIndex(rows[generationHeaderRow], colYear, colState, colProducer, colSource, colGeneration)
	if err != nil {
		return nil, fmt.Errorf("generation workbook: %w", err)
	}

	out := make(Generation)
	for i, row := range rows[generationHeaderRow+1:] {
		line := i + generationHeaderRow + 2
		if strings.TrimSpace(cell(row, cols[colProducer])) != TotalIndustry {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(cell(row, cols[colYear])))
		if err != nil {
			return nil, fmt.Errorf("generation row %d: year %q: %w", line, cell(row, cols[colYear]), err)
		}
		if year < firstYear || year > lastYear {
			continue
		}
		mwh, err := strconv.ParseFloat(strings.TrimSpace(cell(row, cols[colGeneration])), 64)
		if err != nil {
			return nil, fmt.Errorf("generation row %d: generation %q: %w", line, cell(row, cols[colGeneration]), err)
		}

		state := strings.TrimSpace(cell(row, cols[colState]))
		years, ok := out[state]
		if !ok {
			years = make(map[int]map[string]float64)
			out[state] = years
		}
		sources, ok := years[year]
		if !ok {
			sources = make(map[string]float64)
			years[year] = sources
		}
		sources[strings.TrimSpace(cell(row, cols[colSource]))] = mwh
	}
	return out, nil
}

// cell tolerates the short rows GetRows returns when trailing cells are empty.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
