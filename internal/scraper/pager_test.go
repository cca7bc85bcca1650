package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mspro-labs/grid-scout/internal/page"
)

func newTestPager(section page.Scope, sl *sleepLog) *Pager {
	return &Pager{
		Section:    section,
		Pagination: listSel,
		NextPage:   nextSel,
		Wait:       time.Second,
		Settle:     settleIn,
		Render:     renderIn,
		sleep:      sl.sleep,
	}
}

func TestPagerNoPagination(t *testing.T) {
	site := &fakeSite{pages: [][]string{{"Ohio|1"}}}
	p := newTestPager(site.section(), &sleepLog{})

	ok, err := p.Next(t.Context())
	if err != nil || ok {
		t.Fatalf("Next = %v, %v; want false, nil", ok, err)
	}
	if !p.Exhausted() {
		t.Error("expected pager to be exhausted")
	}

	ok, err = p.Next(t.Context())
	if err != nil || ok {
		t.Fatalf("second Next = %v, %v; want false, nil", ok, err)
	}
	if site.finds != 1 {
		t.Errorf("expected no lookups once exhausted, got %d", site.finds)
	}
}

func TestPagerLastPage(t *testing.T) {
	site := &fakeSite{pages: [][]string{{"Ohio|1"}, {"Iowa|2"}}}
	sl := &sleepLog{}
	p := newTestPager(site.section(), sl)

	ok, err := p.Next(t.Context())
	if err != nil || !ok {
		t.Fatalf("Next = %v, %v; want true, nil", ok, err)
	}
	if site.clicks != 1 {
		t.Errorf("expected one click, got %d", site.clicks)
	}
	if diff := cmp.Diff([]time.Duration{settleIn, renderIn}, sl.got); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}

	ok, err = p.Next(t.Context())
	if err != nil || ok {
		t.Fatalf("Next on last page = %v, %v; want false, nil", ok, err)
	}
	if site.clicks != 1 {
		t.Errorf("expected no click on the last page, got %d", site.clicks)
	}
}

func TestPagerScrollsBeforeClick(t *testing.T) {
	var order []string
	next := &fakeEl{click: func() error {
		order = append(order, "click")
		return nil
	}}
	list := &fakeEl{children: map[string][]page.Element{nextSel: {next}}}
	section := &fakeEl{children: map[string][]page.Element{listSel: {list}}}
	sl := &sleepLog{}
	p := newTestPager(section, sl)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		order = append(order, d.String())
		return nil
	}

	if _, err := p.Next(t.Context()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.scrolls != 1 {
		t.Errorf("expected one scroll, got %d", next.scrolls)
	}
	want := []string{settleIn.String(), "click", renderIn.String()}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPagerWaitError(t *testing.T) {
	boom := errors.New("connection reset")
	list := &fakeEl{wait: func(string) (page.Element, error) { return nil, boom }}
	section := &fakeEl{children: map[string][]page.Element{listSel: {list}}}
	p := newTestPager(section, &sleepLog{})

	if _, err := p.Next(t.Context()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}
	if p.Exhausted() {
		t.Error("a failed wait must not end pagination")
	}
}

func TestPagerCanceledDuringSettle(t *testing.T) {
	list := &fakeEl{children: map[string][]page.Element{nextSel: {&fakeEl{}}}}
	section := &fakeEl{children: map[string][]page.Element{listSel: {list}}}
	p := &Pager{Section: section, Pagination: listSel, NextPage: nextSel, Settle: time.Hour}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := p.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
