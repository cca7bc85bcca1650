// Package sheet converts a worksheet into JSON records, one object per row
// keyed by the header row.
package sheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet converted when none is named.
const DefaultSheet = "Sheet1"

// ErrNoSheet is returned when the workbook has no sheet of the requested name.
var ErrNoSheet = errors.New("sheet not found")

// Row is one record. Keys keep the column order of the header.
type Row struct {
	keys   []string
	values []any
}

// Get returns the value of a column, nil when the cell was empty.
func (r Row) Get(key string) (any, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ConvertFile reads the named sheet of the workbook at path.
func ConvertFile(path, sheet string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return convert(f, sheet)
}

// Convert reads the named sheet of the workbook in r. Numeric cells become
// numbers, empty cells null and everything else a string. Blank rows are
// skipped.
func Convert(r io.Reader, sheet string) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return convert(f, sheet)
}

func convert(f *excelize.File, sheet string) ([]Row, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%q (have %s): %w", sheet, strings.Join(f.GetSheetList(), ", "), ErrNoSheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []Row{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	out := make([]Row, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		if blank(raw) {
			continue
		}
		r := Row{keys: header, values: make([]any, len(header))}
		for i := range header {
			if i < len(raw) {
				r.values[i] = value(raw[i])
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func value(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
