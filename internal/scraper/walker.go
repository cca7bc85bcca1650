package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/models"
	"mspro-labs/grid-scout/internal/page"
)

// ErrSectionMissing means a section every provider page must have was absent.
var ErrSectionMissing = errors.New("required section missing")

// Walker drives one document through a state's provider listing and each
// provider's detail page.
type Walker struct {
	doc page.Document
	cfg *config.SiteConfig

	sleep func(context.Context, time.Duration) error
}

// NewWalker returns a Walker over doc. The document is used sequentially and
// must not be shared.
func NewWalker(doc page.Document, cfg *config.SiteConfig) *Walker {
	return &Walker{doc: doc, cfg: cfg}
}

// State scrapes every provider listed for a state. Any provider failure
// aborts the state so partial figures never reach the aggregates.
func (w *Walker) State(ctx context.Context, abbr string) (*models.StateProviders, error) {
	logger.Printf("Scraping %s", abbr)
	links, err := w.ListProviders(ctx, w.cfg.StateURL(abbr))
	if err != nil {
		return nil, fmt.Errorf("%s provider list: %w", abbr, err)
	}

	providers := make([]models.ProviderInfo, 0, len(links))
	for i, link := range links {
		logger.Printf("%s provider %d/%d: %s", abbr, i+1, len(links), link)
		p, err := w.Provider(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("%s provider %s: %w", abbr, link, err)
		}
		providers = append(providers, *p)
	}

	models.SortByCustomers(providers)
	return &models.StateProviders{State: abbr, ElectricalProviders: providers}, nil
}

// ListProviders returns the distinct provider page addresses listed on a
// state's page.
func (w *Walker) ListProviders(ctx context.Context, stateURL string) ([]string, error) {
	if err := w.doc.Navigate(ctx, stateURL); err != nil {
		return nil, err
	}
	section, err := w.doc.Find(w.cfg.Selectors.ProviderList)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", w.cfg.Selectors.ProviderList, sectionErr(err))
	}
	n, err := w.footerCount(section)
	if err != nil {
		return nil, err
	}
	logger.Printf("Number of providers: %d", n)

	t := newTable(w, "providers", section, LinkReader{Link: w.cfg.Selectors.Table.Link}.Read)
	t.Dups = SkipDuplicates
	return t.Scrape(ctx, n)
}

// Provider scrapes one provider's detail page.
func (w *Walker) Provider(ctx context.Context, url string) (*models.ProviderInfo, error) {
	if err := w.doc.Navigate(ctx, url); err != nil {
		return nil, err
	}
	sel := w.cfg.Selectors.Provider
	info := &models.ProviderInfo{URL: url, Stats: map[string]float64{}}

	company, err := page.Text(w.doc, sel.Title)
	if err != nil {
		return nil, fmt.Errorf("company name: %w", sectionErr(err))
	}
	info.Company = company
	logger.Printf("Scraping %s", company)

	columns, err := w.doc.FindAll(sel.OverviewColumns)
	if err != nil {
		return nil, err
	}
	if err := w.overview(info, columns); err != nil {
		return nil, err
	}
	if info.ServiceTypes, err = texts(w.doc, sel.ServiceTypes); err != nil {
		return nil, fmt.Errorf("service types: %w", err)
	}
	if err := w.statistics(info); err != nil {
		return nil, err
	}
	if info.CitiesServed, err = w.cities(columns); err != nil {
		return nil, fmt.Errorf("cities: %w", err)
	}

	counties, ok, err := w.coverage(ctx, sel.Counties, "counties", RecordReader{
		Cells: w.cfg.Selectors.Table.Cells, Link: w.cfg.Selectors.Table.Link,
		NameKey: "county", ValueKey: "population", LinkMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("counties: %w", err)
	}
	if ok {
		models.SortRecords(counties)
		info.CountiesServed = counties
	}

	states, ok, err := w.coverage(ctx, sel.States, "states", RecordReader{
		Cells: w.cfg.Selectors.Table.Cells, NameKey: "state", ValueKey: "customers",
	})
	if err != nil {
		return nil, fmt.Errorf("states: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("states %s: %w", sel.States, ErrSectionMissing)
	}
	models.SortRecords(states)
	info.StatesServed = states

	return info, nil
}

// overview reads the company type and the optional website from the first
// overview column.
func (w *Walker) overview(info *models.ProviderInfo, columns []page.Element) error {
	if len(columns) == 0 {
		return nil
	}
	sel := w.cfg.Selectors.Provider

	spans, err := columns[0].FindAll(sel.TypeSpans)
	if err != nil {
		return err
	}
	if len(spans) > 1 {
		if info.CompanyType, err = spans[1].Text(); err != nil {
			return fmt.Errorf("company type: %w", err)
		}
	}

	lists, err := columns[0].FindAll(sel.InfoLists)
	if err != nil {
		return err
	}
	if len(lists) < 2 {
		return nil
	}
	link, ok, err := page.Lookup(lists[1], sel.WebsiteLink)
	if err != nil || !ok {
		return err
	}
	if href, ok, err := link.Attribute("href"); err != nil {
		return fmt.Errorf("website: %w", err)
	} else if ok {
		info.Website = href
	}
	return nil
}

// statistics reads the statistic groups present on the page, matched by
// title.
func (w *Walker) statistics(info *models.ProviderInfo) error {
	sel := w.cfg.Selectors.Provider
	groups, err := w.doc.FindAll(sel.FactGroups)
	if err != nil {
		return err
	}
	for _, g := range groups {
		titleEl, ok, err := page.Lookup(g, sel.FactTitle)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		title, err := titleEl.Text()
		if err != nil {
			return err
		}

		switch strings.TrimSpace(title) {
		case sel.CustomersTitle:
			facts, err := readFacts(g, sel)
			if err != nil {
				return fmt.Errorf("customers: %w", err)
			}
			stats, total, err := customersGroup(facts)
			if err != nil {
				return fmt.Errorf("customers: %w", err)
			}
			mergeStats(info.Stats, stats)
			info.TotalCustomers = total
		case sel.ProductionTitle:
			facts, err := readFacts(g, sel)
			if err != nil {
				return fmt.Errorf("production: %w", err)
			}
			stats, err := productionGroup(facts)
			if err != nil {
				return fmt.Errorf("production: %w", err)
			}
			mergeStats(info.Stats, stats)
		}
	}
	return nil
}

// cities reads the served-city list, falling back to the older layout that
// nests it in the second overview column.
func (w *Walker) cities(columns []page.Element) ([]string, error) {
	sel := w.cfg.Selectors.Provider
	items, err := w.doc.FindAll(sel.Cities)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && len(columns) > 1 && sel.CitiesFallback != "" {
		if items, err = columns[1].FindAll(sel.CitiesFallback); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		logger.Printf("No served cities found")
	}

	cities := make([]string, 0, len(items))
	for _, item := range items {
		src := item
		if link, ok, err := page.Lookup(item, sel.CityLink); err != nil {
			return nil, err
		} else if ok {
			src = link
		}
		name, err := src.Text()
		if err != nil {
			return nil, err
		}
		cities = append(cities, name)
	}
	return cities, nil
}

// coverage scrapes one coverage table. ok is false when the section is not
// on the page.
func (w *Walker) coverage(ctx context.Context, selector, name string, r RecordReader) ([]models.Record, bool, error) {
	section, ok, err := page.Lookup(w.doc, selector)
	if err != nil || !ok {
		return nil, false, err
	}
	n, err := w.footerCount(section)
	if err != nil {
		return nil, true, err
	}
	logger.Printf("Scraping %d %s", n, name)

	recs, err := newTable(w, name, section, r.Read).Scrape(ctx, n)
	if err != nil {
		return nil, true, err
	}
	return recs, true, nil
}

func (w *Walker) footerCount(section page.Scope) (int, error) {
	label, err := page.Text(section, w.cfg.Selectors.Table.Footer)
	if err != nil {
		return 0, fmt.Errorf("row count: %w", err)
	}
	return ParseCount(label)
}

func newTable[T comparable](w *Walker, name string, section page.Element, read RowReader[T]) *Table[T] {
	ts, timing := w.cfg.Selectors.Table, w.cfg.Timing
	return &Table[T]{
		Name:     name,
		Section:  section,
		Rows:     ts.Rows,
		Read:     read,
		Render:   timing.RenderDelay,
		MaxReads: w.cfg.MaxAttempts,
		sleep:    w.sleep,
		Pager: &Pager{
			Section:    section,
			Pagination: ts.Pagination,
			NextPage:   ts.NextPage,
			Wait:       timing.PagerWait,
			Settle:     timing.SettleDelay,
			Render:     timing.RenderDelay,
			sleep:      w.sleep,
		},
	}
}

func texts(s page.Scope, selector string) ([]string, error) {
	els, err := s.FindAll(selector)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func mergeStats(dst, src map[string]float64) {
	for k, v := range src {
		dst[k] = v
	}
}

// sectionErr marks an absent element as a missing required section.
func sectionErr(err error) error {
	if errors.Is(err, page.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrSectionMissing, err)
	}
	return err
}
