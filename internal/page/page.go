// Package page is the narrow capability the scraper uses to read and drive a
// rendered document. All selectors are CSS selectors.
package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a selector matches nothing, or nothing
// clickable appeared within a bounded wait.
var ErrNotFound = errors.New("element not found")

// Scope is anything selectors can be evaluated against: a whole document or
// a single element.
type Scope interface {
	// Find returns the first match, or ErrNotFound. It does not wait.
	Find(selector string) (Element, error)
	// FindAll returns every match. No match is an empty slice, not an error.
	FindAll(selector string) ([]Element, error)
	// WaitClickable waits up to timeout for a match that can take a click.
	WaitClickable(selector string, timeout time.Duration) (Element, error)
}

// Element is a handle to one node of a rendered document.
type Element interface {
	Scope
	Text() (string, error)
	// Attribute reports the named attribute. Links are resolved to absolute
	// addresses. ok is false when the attribute is absent.
	Attribute(name string) (value string, ok bool, err error)
	ScrollIntoView() error
	Click() error
}

// Document is a navigable page.
type Document interface {
	Scope
	Navigate(ctx context.Context, url string) error
}

// Lookup is Find with absence as a normal outcome: ok is false when nothing
// matched, and err is reserved for real failures.
func Lookup(s Scope, selector string) (Element, bool, error) {
	el, err := s.Find(selector)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return el, true, nil
}

// Text returns the trimmed text of the first match of selector.
func Text(s Scope, selector string) (string, error) {
	el, err := s.Find(selector)
	if err != nil {
		return "", fmt.Errorf("%s: %w", selector, err)
	}
	txt, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return strings.TrimSpace(txt), nil
}
