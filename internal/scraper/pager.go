package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mspro-labs/grid-scout/internal/page"
)

// Pager advances a client-rendered paginator. The paginator drops its
// controls from the DOM as the list moves, so a control that cannot be found
// is the normal end of data, not a failure.
type Pager struct {
	Section    page.Scope
	Pagination string        // the control list, looked up without waiting
	NextPage   string        // the control after the active one, inside Pagination
	Wait       time.Duration // bounded wait for NextPage to become clickable
	Settle     time.Duration // after scrolling, before the click
	Render     time.Duration // after the click, before the next read

	exhausted bool
	sleep     func(context.Context, time.Duration) error
}

// Next clicks through to the following page. It reports false once there are
// no more pages; after that it never touches the page again.
func (p *Pager) Next(ctx context.Context) (bool, error) {
	if p.exhausted {
		return false, nil
	}

	list, ok, err := page.Lookup(p.Section, p.Pagination)
	if err != nil {
		return false, fmt.Errorf("find pagination: %w", err)
	}
	if !ok {
		p.exhausted = true
		return false, nil
	}

	next, err := list.WaitClickable(p.NextPage, p.Wait)
	if errors.Is(err, page.ErrNotFound) {
		p.exhausted = true
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("wait for next page control: %w", err)
	}

	if err := next.ScrollIntoView(); err != nil {
		return false, fmt.Errorf("scroll to next page control: %w", err)
	}
	if err := p.pause(ctx, p.Settle); err != nil {
		return false, err
	}
	if err := next.Click(); err != nil {
		return false, fmt.Errorf("click next page: %w", err)
	}
	if err := p.pause(ctx, p.Render); err != nil {
		return false, err
	}
	return true, nil
}

// Exhausted reports whether the last page has been reached.
func (p *Pager) Exhausted() bool { return p.exhausted }

func (p *Pager) pause(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
