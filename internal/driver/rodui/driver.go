// Package rodui implements the deterministic driver variant: every action
// resolves a logical element name to an ordered list of selector candidates
// and polls them within a bounded window. No reasoning backend is involved;
// if the DOM drifted past what the selector artifact covers, actions fail
// with ElementNotFound and the orchestrator decides whether to switch
// providers.
package rodui

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"autopress/internal/driver"
	"autopress/internal/driver/session"
	"autopress/internal/logging"
	"autopress/internal/resolver"
)

// Config holds the deterministic driver's settings.
type Config struct {
	Session      session.Config
	PollWindow   time.Duration // total budget per logical element
	PollInterval time.Duration // delay between candidate passes
}

func (c Config) pollWindow() time.Duration {
	if c.PollWindow <= 0 {
		return 10 * time.Second
	}
	return c.PollWindow
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return 250 * time.Millisecond
	}
	return c.PollInterval
}

// Driver is the deterministic selector-based variant.
type Driver struct {
	cfg       Config
	artifacts *resolver.Snapshot
	sess      *session.Session
	baseURL   string
}

var _ driver.Driver = (*Driver)(nil)

// New creates an uninitialized deterministic driver. The resolver snapshot
// is fixed for the driver's lifetime.
func New(cfg Config, artifacts *resolver.Snapshot) *Driver {
	return &Driver{cfg: cfg, artifacts: artifacts}
}

// Kind identifies the variant.
func (d *Driver) Kind() driver.Kind { return driver.KindDeterministic }

// Init starts the browser session against the base URL. When cookies are
// supplied (provider switch), they are restored before any navigation so the
// session resumes authenticated.
func (d *Driver) Init(ctx context.Context, baseURL string, cookies []driver.Cookie) error {
	d.baseURL = baseURL
	d.sess = session.New(d.cfg.Session)
	if err := d.sess.Start(ctx, ""); err != nil {
		return &driver.InitError{Kind: d.Kind(), Err: err}
	}
	if err := d.sess.SetCookies(ctx, cookies); err != nil {
		_ = d.sess.Close()
		return &driver.InitError{Kind: d.Kind(), Err: fmt.Errorf("restore cookies: %w", err)}
	}
	if err := d.sess.Navigate(ctx, baseURL); err != nil {
		_ = d.sess.Close()
		return &driver.InitError{Kind: d.Kind(), Err: err}
	}
	logging.Browser("deterministic driver initialized against %s (%d inherited cookies)", baseURL, len(cookies))
	return nil
}

// Close tears down the browser session.
func (d *Driver) Close(ctx context.Context) error {
	if d.sess == nil {
		return nil
	}
	err := d.sess.Close()
	d.sess = nil
	return err
}

// Screenshot captures a full-page image.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.sess.Screenshot(ctx)
}

// Cookies snapshots the session cookie jar.
func (d *Driver) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	return d.sess.Cookies(ctx)
}

// Navigate drives the page to an absolute URL.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.sess.Navigate(ctx, url)
}

// OpenNewPost clicks through to the new-post screen.
func (d *Driver) OpenNewPost(ctx context.Context) error {
	if err := d.click(ctx, "menu_new_post"); err != nil {
		return err
	}
	return d.WaitFor(ctx, "editor_title")
}

// element resolves a logical name to a live element, trying each selector
// candidate in order within the polling window. A missing artifact entry is
// a configuration error and returns immediately; candidates that simply do
// not match yet are retried until the window closes.
func (d *Driver) element(ctx context.Context, name string) (*rod.Element, error) {
	cands, err := d.artifacts.Selectors(name)
	if err != nil {
		return nil, err
	}
	page, err := d.sess.Page()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(d.cfg.pollWindow())
	probe := page.Context(ctx).Sleeper(rod.NotFoundSleeper)
	for {
		for _, sel := range cands {
			el, err := probe.Element(sel)
			if err == nil && el != nil {
				return el, nil
			}
		}
		if time.Now().After(deadline) {
			logging.BrowserDebug("element %s not found after %v", name, d.cfg.pollWindow())
			return nil, &driver.ElementNotFoundError{Element: name, Tried: cands}
		}
		select {
		case <-ctx.Done():
			return nil, &driver.TimeoutError{Op: "resolve " + name, Err: ctx.Err()}
		case <-time.After(d.cfg.pollInterval()):
		}
	}
}

func (d *Driver) click(ctx context.Context, name string) error {
	el, err := d.element(ctx, name)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		return &driver.StaleElementError{Op: "scroll to " + name, Err: err}
	}
	// The page may have re-rendered between resolve and interact; surface
	// that as stale so the phase loop re-resolves on retry.
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &driver.StaleElementError{Op: "click " + name, Err: err}
	}
	return nil
}

func (d *Driver) fill(ctx context.Context, name, value string) error {
	el, err := d.element(ctx, name)
	if err != nil {
		return err
	}
	// Replace, not append: the field may carry a draft value.
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(value); err != nil {
		return &driver.StaleElementError{Op: "fill " + name, Err: err}
	}
	return nil
}

// Fill types a value into a logical input or text area.
func (d *Driver) Fill(ctx context.Context, field, value string) error {
	logging.BrowserDebug("fill %s (%d chars)", field, len(value))
	return d.fill(ctx, field, value)
}

// Click clicks a logical control.
func (d *Driver) Click(ctx context.Context, control string) error {
	logging.BrowserDebug("click %s", control)
	return d.click(ctx, control)
}

// WaitFor blocks until a logical element (success message, dashboard marker)
// is present or the polling window closes.
func (d *Driver) WaitFor(ctx context.Context, element string) error {
	_, err := d.element(ctx, element)
	return err
}

// CleanContent strips residual markup entities from the plain-text editor
// body in place.
func (d *Driver) CleanContent(ctx context.Context) error {
	el, err := d.element(ctx, "editor_content")
	if err != nil {
		return err
	}
	_, err = el.Eval(`() => {
		this.value = this.value
			.replace(/\u00a0/g, ' ')
			.replace(/&nbsp;/g, ' ')
			.replace(/<p>(\s|&nbsp;)*<\/p>/g, '')
			.replace(/[\u200b\ufeff]/g, '');
	}`)
	if err != nil {
		return &driver.TimeoutError{Op: "clean content", Err: err}
	}
	return nil
}
