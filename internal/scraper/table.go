package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mspro-labs/grid-scout/internal/page"
)

// ErrGaveUp is returned, together with the rows collected so far, when a
// table used up its read budget before reaching its target.
var ErrGaveUp = errors.New("gave up before the table was complete")

// RowReader turns the rows of one page into values.
type RowReader[T comparable] func(rows []page.Element) ([]T, error)

// DupMode decides what a row that was already collected means.
type DupMode int

const (
	// RetryRepeats treats a seen row as stale content: the rest of the page
	// is dropped and the same page is read again without clicking.
	RetryRepeats DupMode = iota
	// SkipDuplicates treats the table as a set: seen rows are dropped and
	// paging carries on.
	SkipDuplicates
)

// Table walks one paginated table until it holds target unique rows or runs
// out of pages.
type Table[T comparable] struct {
	Name    string // for logs
	Section page.Scope
	Rows    string // row selector inside Section
	Read    RowReader[T]
	Pager   *Pager
	Dups    DupMode
	// Render is how long to wait before re-reading a repeated page.
	Render time.Duration
	// MaxReads caps page reads; zero or less means no cap.
	MaxReads int

	sleep func(context.Context, time.Duration) error
}

// Scrape collects up to target rows. Running out of pages is not an error:
// whatever was collected is final even when short of target.
func (t *Table[T]) Scrape(ctx context.Context, target int) ([]T, error) {
	collected := make([]T, 0, max(target, 0))
	if target <= 0 {
		return collected, nil
	}
	seen := make(map[T]struct{}, target)

	currentPage := 1
	for reads := 1; ; reads++ {
		if t.MaxReads > 0 && reads > t.MaxReads {
			return collected, fmt.Errorf("%s: %d of %d rows after %d reads: %w",
				t.Name, len(collected), target, t.MaxReads, ErrGaveUp)
		}

		rows, err := t.Section.FindAll(t.Rows)
		if err != nil {
			return collected, fmt.Errorf("%s page %d rows: %w", t.Name, currentPage, err)
		}
		vals, err := t.Read(rows)
		if err != nil {
			return collected, fmt.Errorf("%s page %d: %w", t.Name, currentPage, err)
		}

		added, repeat := 0, len(vals) == 0
		for _, v := range vals {
			if _, dup := seen[v]; dup {
				if t.Dups == RetryRepeats {
					repeat = true
					break
				}
				continue
			}
			seen[v] = struct{}{}
			collected = append(collected, v)
			added++
			if len(collected) == target {
				break
			}
		}
		logger.Printf("%s: page %d gave %d new rows (%d/%d)", t.Name, currentPage, added, len(collected), target)

		if len(collected) >= target {
			return collected, nil
		}

		if repeat {
			logger.Printf("%s: page %d looks stale, reading it again", t.Name, currentPage)
			if err := t.pause(ctx, t.Render); err != nil {
				return collected, err
			}
			continue
		}

		currentPage++
		advanced, err := t.Pager.Next(ctx)
		if err != nil {
			return collected, fmt.Errorf("%s: %w", t.Name, err)
		}
		if !advanced {
			if len(collected) < target {
				logger.Printf("%s: no more pages, keeping %d of %d rows", t.Name, len(collected), target)
			}
			return collected, nil
		}
	}
}

func (t *Table[T]) pause(ctx context.Context, d time.Duration) error {
	if t.sleep != nil {
		return t.sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}
