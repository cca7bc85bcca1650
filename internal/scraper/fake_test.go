package scraper

import (
	"context"
	"strings"
	"time"

	"mspro-labs/grid-scout/internal/page"
)

// fakeEl is an in-memory page.Element. Children are looked up by exact
// selector string.
type fakeEl struct {
	text     string
	attrs    map[string]string
	children map[string][]page.Element
	// dynamic overrides children when it reports ok.
	dynamic func(selector string) ([]page.Element, bool)
	// wait overrides WaitClickable.
	wait  func(selector string) (page.Element, error)
	click func() error

	scrolls int
}

func (e *fakeEl) all(selector string) []page.Element {
	if e.dynamic != nil {
		if els, ok := e.dynamic(selector); ok {
			return els
		}
	}
	return e.children[selector]
}

func (e *fakeEl) Find(selector string) (page.Element, error) {
	els := e.all(selector)
	if len(els) == 0 {
		return nil, page.ErrNotFound
	}
	return els[0], nil
}

func (e *fakeEl) FindAll(selector string) ([]page.Element, error) {
	return e.all(selector), nil
}

func (e *fakeEl) WaitClickable(selector string, _ time.Duration) (page.Element, error) {
	if e.wait != nil {
		return e.wait(selector)
	}
	return e.Find(selector)
}

func (e *fakeEl) Text() (string, error) { return e.text, nil }

func (e *fakeEl) Attribute(name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeEl) ScrollIntoView() error {
	e.scrolls++
	return nil
}

func (e *fakeEl) Click() error {
	if e.click != nil {
		return e.click()
	}
	return nil
}

const (
	rowSel   = "tr"
	cellSel  = "td"
	linkSel  = "a"
	listSel  = "ul.pagination"
	nextSel  = "li.next"
	settleIn = 6 * time.Second
	renderIn = 7 * time.Second
)

func cell(text string) *fakeEl { return &fakeEl{text: text} }

// row builds a two-cell row from "name|value".
func row(line string) page.Element {
	name, value, _ := strings.Cut(line, "|")
	return &fakeEl{children: map[string][]page.Element{
		cellSel: {cell(name), cell(value)},
	}}
}

// fakeSite is a paginated table. Reading page k may be scripted to deliver
// another page's rows once, the way a slow repaint does.
type fakeSite struct {
	pages [][]string
	cur   int
	stale map[int]int
	// stuck keeps the next control clickable but makes clicks do nothing.
	stuck bool

	reads  int
	clicks int
	finds  int
}

func (s *fakeSite) section() *fakeEl {
	next := &fakeEl{click: func() error {
		s.clicks++
		if !s.stuck {
			s.cur++
		}
		return nil
	}}
	list := &fakeEl{wait: func(selector string) (page.Element, error) {
		if selector != nextSel || (!s.stuck && s.cur >= len(s.pages)-1) {
			return nil, page.ErrNotFound
		}
		return next, nil
	}}
	return &fakeEl{dynamic: func(selector string) ([]page.Element, bool) {
		switch selector {
		case rowSel:
			s.reads++
			k := s.cur
			if v, ok := s.stale[k]; ok {
				delete(s.stale, k)
				k = v
			}
			rows := make([]page.Element, 0, len(s.pages[k]))
			for _, line := range s.pages[k] {
				rows = append(rows, row(line))
			}
			return rows, true
		case listSel:
			s.finds++
			if len(s.pages) < 2 && !s.stuck {
				return nil, true
			}
			return []page.Element{list}, true
		}
		return nil, false
	}}
}

// sleepLog records requested pauses instead of sleeping.
type sleepLog struct {
	got []time.Duration
}

func (l *sleepLog) sleep(_ context.Context, d time.Duration) error {
	l.got = append(l.got, d)
	return nil
}

func newTestTable(section page.Scope, sl *sleepLog) *Table[recordKey] {
	reader := RecordReader{Cells: cellSel, NameKey: "state", ValueKey: "customers"}
	return &Table[recordKey]{
		Name:    "test",
		Section: section,
		Rows:    rowSel,
		Read: func(rows []page.Element) ([]recordKey, error) {
			recs, err := reader.Read(rows)
			if err != nil {
				return nil, err
			}
			out := make([]recordKey, len(recs))
			for i, r := range recs {
				out[i] = recordKey{r.Name, r.Value}
			}
			return out, nil
		},
		Render: renderIn,
		sleep:  sl.sleep,
		Pager: &Pager{
			Section:    section,
			Pagination: listSel,
			NextPage:   nextSel,
			Wait:       time.Second,
			Settle:     settleIn,
			Render:     renderIn,
			sleep:      sl.sleep,
		},
	}
}

// recordKey keeps test expectations short.
type recordKey struct {
	Name  string
	Value int64
}
