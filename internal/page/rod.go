package page

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

var logger = log.New(os.Stdout, "BROWSER: ", log.LstdFlags|log.Lshortfile)

// LaunchOptions controls the headless browser.
type LaunchOptions struct {
	Headless   bool
	NoSandbox  bool
	Bin        string        // optional path to a chromium binary
	NavTimeout time.Duration // per navigation, including load
	Stable     time.Duration // how long the DOM must stay quiet after load
}

// Browser owns one launched browser process.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     LaunchOptions
}

// Launch starts a browser and connects to it.
func Launch(opts LaunchOptions) (*Browser, error) {
	l := launcher.New().Headless(opts.Headless).NoSandbox(opts.NoSandbox)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return &Browser{browser: b, launcher: l, opts: opts}, nil
}

// NewDocument opens a stealth tab.
func (b *Browser) NewDocument() (Document, error) {
	p, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return &rodDocument{page: p, opts: b.opts}, nil
}

// Close shuts the browser down and removes its profile directory.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodDocument struct {
	page *rod.Page
	opts LaunchOptions
}

func (d *rodDocument) Navigate(ctx context.Context, url string) error {
	logger.Printf("Navigating to %s", url)
	p := d.page.Context(ctx).Timeout(d.opts.NavTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	if err := p.WaitStable(d.opts.Stable); err != nil {
		return fmt.Errorf("wait stable %s: %w", url, err)
	}
	return nil
}

func (d *rodDocument) Find(selector string) (Element, error) {
	has, el, err := d.page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNotFound
	}
	return &rodElement{el: el}, nil
}

func (d *rodDocument) FindAll(selector string) ([]Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(els), nil
}

func (d *rodDocument) WaitClickable(selector string, timeout time.Duration) (Element, error) {
	ctx, cancel := context.WithTimeout(d.page.GetContext(), timeout)
	defer cancel()

	el, err := d.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, mapWaitErr(err)
	}
	return waitInteractable(ctx, el, d.page.GetContext())
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Find(selector string) (Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNotFound
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) FindAll(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(els), nil
}

func (e *rodElement) WaitClickable(selector string, timeout time.Duration) (Element, error) {
	ctx, cancel := context.WithTimeout(e.el.GetContext(), timeout)
	defer cancel()

	el, err := e.el.Context(ctx).Element(selector)
	if err != nil {
		return nil, mapWaitErr(err)
	}
	return waitInteractable(ctx, el, e.el.GetContext())
}

func (e *rodElement) Text() (string, error) {
	txt, err := e.el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(txt), nil
}

// Attribute prefers the DOM property so links come back absolute, and falls
// back to the raw attribute.
func (e *rodElement) Attribute(name string) (string, bool, error) {
	prop, err := e.el.Property(name)
	if err == nil && !prop.Nil() && prop.Str() != "" {
		return prop.Str(), true, nil
	}
	attr, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if attr == nil {
		return "", false, nil
	}
	return *attr, true, nil
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

// waitInteractable blocks until el can take a click, then detaches it from
// the wait deadline.
func waitInteractable(ctx context.Context, el *rod.Element, parent context.Context) (Element, error) {
	if _, err := el.Context(ctx).WaitInteractable(); err != nil {
		return nil, mapWaitErr(err)
	}
	return &rodElement{el: el.Context(parent)}, nil
}

func mapWaitErr(err error) error {
	var nf *rod.ElementNotFoundError
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &nf) {
		return ErrNotFound
	}
	return err
}

func wrapAll(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}
