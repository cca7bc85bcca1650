package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/models"
	"mspro-labs/grid-scout/internal/page"
)

var logger = log.New(os.Stdout, "SCRAPER: ", log.LstdFlags|log.Lshortfile)

// SaveFunc receives each state as soon as it is complete.
type SaveFunc func(*models.StateProviders) error

// Run orchestrates the entire scraping process: open the engine, walk each
// state, hand it to save. A failed state is logged and skipped unless
// failFast is set. failed lists the skipped states; when it is not empty err
// summarises them.
func Run(ctx context.Context, cfg *config.SiteConfig, states []string, save SaveFunc, failFast bool) (failed []string, err error) {
	doc, closeDoc, err := OpenDocument(cfg)
	if err != nil {
		return nil, err
	}
	defer closeDoc()

	w := NewWalker(doc, cfg)
	for _, abbr := range states {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		info, err := w.State(ctx, abbr)
		if err == nil {
			err = save(info)
		}
		if err != nil {
			if failFast || ctx.Err() != nil {
				return append(failed, abbr), err
			}
			logger.Printf("Skipping %s: %v", abbr, err)
			failed = append(failed, abbr)
			continue
		}
		logger.Printf("Finished %s with %d providers", abbr, len(info.ElectricalProviders))
	}

	if len(failed) > 0 {
		return failed, fmt.Errorf("%d of %d states failed: %s", len(failed), len(states), strings.Join(failed, ", "))
	}
	return nil, nil
}

// OpenDocument starts the configured engine. The returned func releases it.
func OpenDocument(cfg *config.SiteConfig) (page.Document, func(), error) {
	if cfg.Engine == "static" {
		logger.Println("Using static engine: only the first page of each table is visible")
		client := resty.New().
			SetTimeout(cfg.Timing.HTTPTimeout).
			SetHeader("User-Agent", cfg.UserAgent)
		return page.NewStaticDocument(client), func() {}, nil
	}

	logger.Println("Launching headless browser...")
	browser, err := page.Launch(page.LaunchOptions{
		Headless:   !cfg.Browser.Headful,
		NoSandbox:  !cfg.Browser.Sandbox,
		Bin:        cfg.Browser.Bin,
		NavTimeout: cfg.Timing.NavTimeout,
		Stable:     cfg.Timing.Stable,
	})
	if err != nil {
		return nil, nil, err
	}
	doc, err := browser.NewDocument()
	if err != nil {
		browser.Close()
		return nil, nil, err
	}
	return doc, func() {
		if err := browser.Close(); err != nil {
			logger.Printf("Closing browser: %v", err)
		}
	}, nil
}
