// Package session owns the rod browser lifecycle shared by both driver
// variants: launching or attaching to Chrome, viewport setup, navigation,
// cookie snapshot/restore and full-page screenshots. Each publish task gets
// its own Session; nothing here is shared across tasks.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"autopress/internal/driver"
	"autopress/internal/logging"
)

// Config holds browser configuration for one session.
type Config struct {
	DebuggerURL    string // attach to an existing Chrome instead of launching
	Binary         string
	LaunchFlags    []string
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration
}

func (c Config) viewportWidth() int {
	if c.ViewportWidth <= 0 {
		return 1920
	}
	return c.ViewportWidth
}

func (c Config) viewportHeight() int {
	if c.ViewportHeight <= 0 {
		return 1080
	}
	return c.ViewportHeight
}

func (c Config) navTimeout() time.Duration {
	if c.NavTimeout <= 0 {
		return 30 * time.Second
	}
	return c.NavTimeout
}

// Session is one live browser page. Operations are invoked sequentially by
// the owning driver; Session does no locking of its own.
type Session struct {
	cfg      Config
	browser  *rod.Browser
	page     *rod.Page
	launched bool // we own the browser process
}

// New creates an unstarted session.
func New(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// Start connects to an existing Chrome or launches a new one, opens a page
// at the given URL and applies the viewport.
func (s *Session) Start(ctx context.Context, url string) error {
	if s.browser != nil {
		return nil
	}

	controlURL := s.cfg.DebuggerURL
	if controlURL == "" {
		launch := launcher.New().Headless(s.cfg.Headless)
		if s.cfg.Binary != "" {
			launch = launch.Bin(s.cfg.Binary)
		}
		for _, rawFlag := range s.cfg.LaunchFlags {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		u, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
		s.launched = true
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	s.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		s.browser = nil
		return fmt.Errorf("create page: %w", err)
	}
	s.page = page

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.viewportWidth(),
		Height:            s.cfg.viewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		logging.BrowserWarn("failed to set viewport: %v", err)
	}

	if url != "" {
		if err := s.Navigate(ctx, url); err != nil {
			return err
		}
	}
	logging.Browser("session started (viewport %dx%d)", s.cfg.viewportWidth(), s.cfg.viewportHeight())
	return nil
}

// Close tears down the page and, if we launched it, the browser.
func (s *Session) Close() error {
	var err error
	if s.page != nil {
		err = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		if s.launched {
			if cerr := s.browser.Close(); err == nil {
				err = cerr
			}
		}
		s.browser = nil
	}
	return err
}

// Page returns the underlying rod page.
func (s *Session) Page() (*rod.Page, error) {
	if s.page == nil {
		return nil, errors.New("session not started")
	}
	return s.page, nil
}

// Navigate drives the page to a URL and waits for load within the timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	page, err := s.Page()
	if err != nil {
		return err
	}
	p := page.Context(ctx).Timeout(s.cfg.navTimeout())
	if err := p.Navigate(url); err != nil {
		return &driver.TimeoutError{Op: "navigate " + url, Err: err}
	}
	if err := p.WaitLoad(); err != nil {
		return &driver.TimeoutError{Op: "wait load " + url, Err: err}
	}
	return nil
}

// Screenshot captures a full-page screenshot.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := s.Page()
	if err != nil {
		return nil, err
	}
	return page.Context(ctx).Screenshot(true, nil)
}

// Cookies snapshots the page's cookie jar.
func (s *Session) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	page, err := s.Page()
	if err != nil {
		return nil, err
	}
	res, err := proto.NetworkGetCookies{}.Call(page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	cookies := make([]driver.Cookie, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		cookies = append(cookies, driver.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return cookies, nil
}

// SetCookies restores a previously captured cookie set, letting a fresh
// session inherit an authenticated login.
func (s *Session) SetCookies(ctx context.Context, cookies []driver.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	page, err := s.Page()
	if err != nil {
		return err
	}
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  proto.TimeSinceEpoch(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return page.Context(ctx).SetCookies(params)
}

// ClickAt clicks at viewport coordinates. Used by the vision driver, whose
// backend reasons in pixels rather than selectors.
func (s *Session) ClickAt(ctx context.Context, x, y float64) error {
	page, err := s.Page()
	if err != nil {
		return err
	}
	p := page.Context(ctx)
	if err := p.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return err
	}
	return p.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// DragFrom presses at (x1,y1), moves to (x2,y2) in steps and releases. Used
// for coordinate-level crop-handle interaction.
func (s *Session) DragFrom(ctx context.Context, x1, y1, x2, y2 float64) error {
	page, err := s.Page()
	if err != nil {
		return err
	}
	m := page.Context(ctx).Mouse
	if err := m.MoveTo(proto.Point{X: x1, Y: y1}); err != nil {
		return err
	}
	if err := m.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	if err := m.MoveLinear(proto.Point{X: x2, Y: y2}, 8); err != nil {
		return err
	}
	return m.Up(proto.InputMouseButtonLeft, 1)
}

// TypeText inserts text at the current focus.
func (s *Session) TypeText(ctx context.Context, text string) error {
	page, err := s.Page()
	if err != nil {
		return err
	}
	return page.Context(ctx).InsertText(text)
}

// PressKey presses a named key at the current focus.
func (s *Session) PressKey(ctx context.Context, name string) error {
	page, err := s.Page()
	if err != nil {
		return err
	}
	key, ok := keyByName(name)
	if !ok {
		return fmt.Errorf("unknown key: %s", name)
	}
	return page.Context(ctx).Keyboard.Press(key)
}

// Scroll scrolls the page by the given offsets.
func (s *Session) Scroll(ctx context.Context, dx, dy float64) error {
	page, err := s.Page()
	if err != nil {
		return err
	}
	return page.Context(ctx).Mouse.Scroll(dx, dy, 4)
}

func keyByName(name string) (input.Key, bool) {
	switch strings.ToLower(name) {
	case "enter", "return":
		return input.Enter, true
	case "tab":
		return input.Tab, true
	case "escape", "esc":
		return input.Escape, true
	case "backspace":
		return input.Backspace, true
	case "delete":
		return input.Delete, true
	case "arrowdown", "down":
		return input.ArrowDown, true
	case "arrowup", "up":
		return input.ArrowUp, true
	default:
		return 0, false
	}
}
