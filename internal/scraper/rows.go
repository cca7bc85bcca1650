package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mspro-labs/grid-scout/internal/models"
	"mspro-labs/grid-scout/internal/page"
)

var (
	// ErrNotNumeric means a column that always holds numbers did not. It
	// points at a layout mismatch, so it is never retried.
	ErrNotNumeric = errors.New("cell is not numeric")
	// ErrShortRow means a row had fewer cells than the reader needs.
	ErrShortRow = errors.New("row has too few cells")
)

// RecordReader turns coverage-table rows into Records. The first cell is the
// name and the second a thousands-separated integer.
type RecordReader struct {
	Cells    string // cell selector within a row
	Link     string // anchor selector within the first cell, link mode only
	NameKey  string
	ValueKey string
	// LinkMode names a row "<anchor text>, <REGION>", where REGION comes
	// from the anchor's address.
	LinkMode bool
}

// Read implements RowReader.
func (r RecordReader) Read(rows []page.Element) ([]models.Record, error) {
	out := make([]models.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := r.record(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r RecordReader) record(row page.Element) (models.Record, error) {
	cells, err := row.FindAll(r.Cells)
	if err != nil {
		return models.Record{}, err
	}
	if len(cells) < 2 {
		return models.Record{}, fmt.Errorf("%d cells: %w", len(cells), ErrShortRow)
	}

	name, err := r.name(cells[0])
	if err != nil {
		return models.Record{}, err
	}

	raw, err := cells[1].Text()
	if err != nil {
		return models.Record{}, err
	}
	value, err := parseInt(raw)
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{NameKey: r.NameKey, Name: name, ValueKey: r.ValueKey, Value: value}, nil
}

func (r RecordReader) name(cell page.Element) (string, error) {
	if !r.LinkMode {
		return cell.Text()
	}
	link, err := cell.Find(r.Link)
	if err != nil {
		return "", fmt.Errorf("name link: %w", err)
	}
	text, err := link.Text()
	if err != nil {
		return "", err
	}
	href, ok, err := link.Attribute("href")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("name link %q has no href", text)
	}
	code, err := regionCode(href)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, %s", text, code), nil
}

// regionCode returns the path segment before the last one, upper-cased:
// ".../oh/franklin-county/" gives "OH".
func regionCode(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 || segs[len(segs)-2] == "" {
		return "", fmt.Errorf("no region in link %q", href)
	}
	return strings.ToUpper(segs[len(segs)-2]), nil
}

// LinkReader reads the address of the first anchor in each row.
type LinkReader struct {
	Link string
}

// Read implements RowReader.
func (r LinkReader) Read(rows []page.Element) ([]string, error) {
	out := make([]string, 0, len(rows))
	for i, row := range rows {
		link, err := row.Find(r.Link)
		if err != nil {
			return nil, fmt.Errorf("row %d link: %w", i+1, err)
		}
		href, ok, err := link.Attribute("href")
		if err != nil {
			return nil, fmt.Errorf("row %d href: %w", i+1, err)
		}
		if !ok || href == "" {
			return nil, fmt.Errorf("row %d: link has no href", i+1)
		}
		out = append(out, href)
	}
	return out, nil
}

func parseInt(s string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	return n, nil
}

// ParseCount reads a footer label such as "1,204 results" as 1204.
func ParseCount(label string) (int, error) {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty count label: %w", ErrNotNumeric)
	}
	n, err := parseInt(fields[0])
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
