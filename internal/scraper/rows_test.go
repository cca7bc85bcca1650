package scraper

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mspro-labs/grid-scout/internal/models"
	"mspro-labs/grid-scout/internal/page"
)

func linkRow(text, href, value string) page.Element {
	link := &fakeEl{text: text, attrs: map[string]string{"href": href}}
	first := &fakeEl{text: text, children: map[string][]page.Element{linkSel: {link}}}
	return &fakeEl{children: map[string][]page.Element{cellSel: {first, cell(value)}}}
}

func TestRecordReaderLinkMode(t *testing.T) {
	r := RecordReader{Cells: cellSel, Link: linkSel, NameKey: "county", ValueKey: "population", LinkMode: true}
	got, err := r.Read([]page.Element{
		linkRow("Franklin County", "https://findenergy.com/oh/franklin-county/", "1,323,807"),
		linkRow("Lake County", "/in/lake-county/", "498,700"),
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []models.Record{
		{NameKey: "county", Name: "Franklin County, OH", ValueKey: "population", Value: 1323807},
		{NameKey: "county", Name: "Lake County, IN", ValueKey: "population", Value: 498700},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordReaderPlain(t *testing.T) {
	r := RecordReader{Cells: cellSel, NameKey: "state", ValueKey: "customers"}
	got, err := r.Read([]page.Element{row("Ohio|12,004"), row(" Indiana |7")})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []models.Record{
		{NameKey: "state", Name: "Ohio", ValueKey: "customers", Value: 12004},
		{NameKey: "state", Name: " Indiana ", ValueKey: "customers", Value: 7},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordReaderErrors(t *testing.T) {
	r := RecordReader{Cells: cellSel, NameKey: "state", ValueKey: "customers"}

	if _, err := r.Read([]page.Element{row("Ohio|about 40")}); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("expected ErrNotNumeric, got %v", err)
	}

	short := &fakeEl{children: map[string][]page.Element{cellSel: {cell("Ohio")}}}
	if _, err := r.Read([]page.Element{short}); !errors.Is(err, ErrShortRow) {
		t.Errorf("expected ErrShortRow, got %v", err)
	}

	lr := RecordReader{Cells: cellSel, Link: linkSel, NameKey: "county", ValueKey: "population", LinkMode: true}
	if _, err := lr.Read([]page.Element{row("Franklin|10")}); !errors.Is(err, page.ErrNotFound) {
		t.Errorf("expected missing link to surface ErrNotFound, got %v", err)
	}
}

func TestRegionCode(t *testing.T) {
	tests := []struct {
		href    string
		want    string
		wantErr bool
	}{
		{href: "https://findenergy.com/oh/franklin-county/", want: "OH"},
		{href: "/mi/wayne-county", want: "MI"},
		{href: "https://findenergy.com/providers/x/wi/dane/", want: "WI"},
		{href: "https://findenergy.com/providers/oh/detail", want: "OH"},
		{href: "/franklin-county/", wantErr: true},
		{href: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := regionCode(tt.href)
		if (err != nil) != tt.wantErr {
			t.Errorf("regionCode(%q) error = %v, wantErr %v", tt.href, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("regionCode(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestLinkReader(t *testing.T) {
	rows := []page.Element{
		linkRow("A", "https://findenergy.com/providers/a/", "1"),
		linkRow("B", "https://findenergy.com/providers/b/", "2"),
	}
	got, err := LinkReader{Link: linkSel}.Read(rows)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"https://findenergy.com/providers/a/", "https://findenergy.com/providers/b/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}

	if _, err := (LinkReader{Link: linkSel}).Read([]page.Element{linkRow("C", "", "3")}); err == nil {
		t.Error("expected an error for an empty href")
	}
}

func TestParseCount(t *testing.T) {
	tests := map[string]int{
		"57 results":       57,
		"1,204 providers":  1204,
		"  3 ":             3,
		"0 counties found": 0,
	}
	for label, want := range tests {
		got, err := ParseCount(label)
		if err != nil {
			t.Errorf("ParseCount(%q): %v", label, err)
			continue
		}
		if got != want {
			t.Errorf("ParseCount(%q) = %d, want %d", label, got, want)
		}
	}

	for _, bad := range []string{"", "many results"} {
		if _, err := ParseCount(bad); !errors.Is(err, ErrNotNumeric) {
			t.Errorf("ParseCount(%q) expected ErrNotNumeric, got %v", bad, err)
		}
	}
}
