package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// ErrStatic is returned when something tries to interact with a static
// document.
var ErrStatic = errors.New("static document cannot be interacted with")

// StaticDocument serves server-rendered HTML without running scripts. Only
// the first page of a paginated table is ever visible: nothing is clickable,
// so WaitClickable always reports ErrNotFound.
type StaticDocument struct {
	client *resty.Client
	doc    *goquery.Document
	base   *url.URL
}

// NewStaticDocument fetches pages with client.
func NewStaticDocument(client *resty.Client) *StaticDocument {
	return &StaticDocument{client: client}
}

// NewStaticDocumentFromString parses html as if it had been served at rawURL.
func NewStaticDocumentFromString(rawURL, html string) (*StaticDocument, error) {
	d := &StaticDocument{}
	if err := d.Load(rawURL, strings.NewReader(html)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *StaticDocument) Navigate(ctx context.Context, rawURL string) error {
	if d.client == nil {
		return fmt.Errorf("navigate %s: no http client", rawURL)
	}
	res, err := d.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if res.IsError() {
		return fmt.Errorf("fetch %s: unexpected status %d", rawURL, res.StatusCode())
	}
	return d.Load(rawURL, bytes.NewReader(res.Body()))
}

// Load replaces the current document.
func (d *StaticDocument) Load(rawURL string, r io.Reader) error {
	base, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}
	d.doc, d.base = doc, base
	return nil
}

func (d *StaticDocument) root() (*staticElement, error) {
	if d.doc == nil {
		return nil, errors.New("no document loaded")
	}
	return &staticElement{sel: d.doc.Selection, base: d.base}, nil
}

func (d *StaticDocument) Find(selector string) (Element, error) {
	r, err := d.root()
	if err != nil {
		return nil, err
	}
	return r.Find(selector)
}

func (d *StaticDocument) FindAll(selector string) ([]Element, error) {
	r, err := d.root()
	if err != nil {
		return nil, err
	}
	return r.FindAll(selector)
}

func (d *StaticDocument) WaitClickable(string, time.Duration) (Element, error) {
	return nil, ErrNotFound
}

type staticElement struct {
	sel  *goquery.Selection
	base *url.URL
}

func (e *staticElement) Find(selector string) (Element, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, ErrNotFound
	}
	return &staticElement{sel: found, base: e.base}, nil
}

func (e *staticElement) FindAll(selector string) ([]Element, error) {
	var out []Element
	e.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &staticElement{sel: s, base: e.base})
	})
	return out, nil
}

func (e *staticElement) WaitClickable(string, time.Duration) (Element, error) {
	return nil, ErrNotFound
}

// Text collapses runs of whitespace the way a browser renders them.
func (e *staticElement) Text() (string, error) {
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e *staticElement) Attribute(name string) (string, bool, error) {
	val, ok := e.sel.Attr(name)
	if !ok {
		return "", false, nil
	}
	if (name == "href" || name == "src") && e.base != nil {
		ref, err := url.Parse(strings.TrimSpace(val))
		if err != nil {
			return "", false, fmt.Errorf("parse %s %q: %w", name, val, err)
		}
		return e.base.ResolveReference(ref).String(), true, nil
	}
	return val, true, nil
}

func (e *staticElement) ScrollIntoView() error { return nil }

func (e *staticElement) Click() error { return ErrStatic }
