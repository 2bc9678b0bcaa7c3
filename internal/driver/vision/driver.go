// Package vision implements the instruction-driven driver variant. Each
// capability operation renders a parameterized natural-language instruction
// from the resolver's template artifact, captures the current screen and asks
// a reasoning backend for primitive actions, which the driver replays on its
// own browser session until the backend signals completion. It shares no
// selectors with the deterministic variant, which is what lets it take over
// when the DOM has drifted past the selector artifact.
package vision

import (
	"context"
	"fmt"
	"time"

	"autopress/internal/driver"
	"autopress/internal/driver/session"
	"autopress/internal/logging"
	"autopress/internal/resolver"
)

// Screen is the surface the driver replays actions on. *session.Session
// satisfies it; tests substitute a scripted fake.
type Screen interface {
	Start(ctx context.Context, url string) error
	Close() error
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Cookies(ctx context.Context) ([]driver.Cookie, error)
	SetCookies(ctx context.Context, cookies []driver.Cookie) error
	ClickAt(ctx context.Context, x, y float64) error
	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, name string) error
	Scroll(ctx context.Context, dx, dy float64) error
}

// Config holds the vision driver's settings.
type Config struct {
	Session  session.Config
	MaxSteps int // backend round-trips per instruction
}

func (c Config) maxSteps() int {
	if c.MaxSteps <= 0 {
		return 12
	}
	return c.MaxSteps
}

// Driver is the instruction-driven variant.
type Driver struct {
	cfg       Config
	artifacts *resolver.Snapshot
	backend   Backend
	screen    Screen
	newScreen func() Screen
	baseURL   string
}

var _ driver.Driver = (*Driver)(nil)

// New creates an uninitialized vision driver.
func New(cfg Config, artifacts *resolver.Snapshot, backend Backend) *Driver {
	return &Driver{
		cfg:       cfg,
		artifacts: artifacts,
		backend:   backend,
		newScreen: func() Screen { return session.New(cfg.Session) },
	}
}

// NewWithScreen creates a vision driver over a custom screen. Used by tests.
func NewWithScreen(cfg Config, artifacts *resolver.Snapshot, backend Backend, newScreen func() Screen) *Driver {
	return &Driver{cfg: cfg, artifacts: artifacts, backend: backend, newScreen: newScreen}
}

// Kind identifies the variant.
func (d *Driver) Kind() driver.Kind { return driver.KindVision }

// Init starts the browser session and restores inherited cookies before the
// first navigation, so a provider switch resumes the authenticated session
// without repeating login.
func (d *Driver) Init(ctx context.Context, baseURL string, cookies []driver.Cookie) error {
	d.baseURL = baseURL
	d.screen = d.newScreen()
	if err := d.screen.Start(ctx, ""); err != nil {
		return &driver.InitError{Kind: d.Kind(), Err: err}
	}
	if err := d.screen.SetCookies(ctx, cookies); err != nil {
		_ = d.screen.Close()
		return &driver.InitError{Kind: d.Kind(), Err: fmt.Errorf("restore cookies: %w", err)}
	}
	if err := d.screen.Navigate(ctx, baseURL); err != nil {
		_ = d.screen.Close()
		return &driver.InitError{Kind: d.Kind(), Err: err}
	}
	logging.Vision("vision driver initialized against %s (%d inherited cookies)", baseURL, len(cookies))
	return nil
}

// Close tears down the browser session.
func (d *Driver) Close(ctx context.Context) error {
	if d.screen == nil {
		return nil
	}
	err := d.screen.Close()
	d.screen = nil
	return err
}

// Screenshot captures a full-page image.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.screen.Screenshot(ctx)
}

// Cookies snapshots the session cookie jar.
func (d *Driver) Cookies(ctx context.Context) ([]driver.Cookie, error) {
	return d.screen.Cookies(ctx)
}

// Navigate goes straight to a URL; no backend round-trip needed.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.screen.Navigate(ctx, url)
}

// run renders the instruction template and loops backend plans until done, a
// fail verdict, or the step budget is spent.
func (d *Driver) run(ctx context.Context, action string, params map[string]string) (string, error) {
	instruction, err := d.artifacts.Instruction(action, params)
	if err != nil {
		return "", err
	}
	logging.VisionDebug("instruction %s", action)

	for step := 0; step < d.cfg.maxSteps(); step++ {
		shot, err := d.screen.Screenshot(ctx)
		if err != nil {
			return "", &driver.TimeoutError{Op: "screenshot for " + action, Err: err}
		}
		actions, err := d.backend.Plan(ctx, instruction, shot)
		if err != nil {
			return "", &driver.InstructionError{Action: action, Detail: err.Error()}
		}
		for _, a := range actions {
			switch a.Type {
			case "click":
				err = d.screen.ClickAt(ctx, a.X, a.Y)
			case "type":
				err = d.screen.TypeText(ctx, a.Text)
			case "press":
				err = d.screen.PressKey(ctx, a.Key)
			case "scroll":
				err = d.screen.Scroll(ctx, a.DX, a.DY)
			case "done":
				return a.Value, nil
			case "fail":
				return "", &driver.InstructionError{Action: action, Detail: a.Detail}
			default:
				return "", &driver.InstructionError{Action: action, Detail: "unknown action type " + a.Type}
			}
			if err != nil {
				return "", &driver.InstructionError{Action: action, Detail: err.Error()}
			}
		}
	}
	return "", &driver.InstructionError{Action: action, Detail: fmt.Sprintf("step budget (%d) exhausted", d.cfg.maxSteps())}
}

func (d *Driver) exec(ctx context.Context, action string, params map[string]string) error {
	_, err := d.run(ctx, action, params)
	return err
}

// OpenNewPost asks the backend to reach the new-post screen.
func (d *Driver) OpenNewPost(ctx context.Context) error {
	return d.exec(ctx, "open_new_post", nil)
}

// Fill types a value into a named field.
func (d *Driver) Fill(ctx context.Context, field, value string) error {
	return d.exec(ctx, "fill_field", map[string]string{"field": field, "value": value})
}

// Click clicks a named control.
func (d *Driver) Click(ctx context.Context, control string) error {
	return d.exec(ctx, "click_control", map[string]string{"control": control})
}

// WaitFor confirms a named element or message is on screen.
func (d *Driver) WaitFor(ctx context.Context, element string) error {
	return d.exec(ctx, "wait_for", map[string]string{"element": element})
}

// CleanContent strips residual entities from the editor body.
func (d *Driver) CleanContent(ctx context.Context) error {
	return d.exec(ctx, "clean_content", nil)
}

// OpenMediaLibrary opens the add-media modal.
func (d *Driver) OpenMediaLibrary(ctx context.Context) error {
	return d.exec(ctx, "open_media_library", nil)
}

// UploadFile pushes a local file into the library. Vision backends cannot
// operate the OS file picker, so the upload goes through the page's file
// input directly and the backend only confirms the library shows it.
func (d *Driver) UploadFile(ctx context.Context, path string) error {
	sess, ok := d.screen.(*session.Session)
	if !ok {
		return d.exec(ctx, "upload_file", map[string]string{"path": path})
	}
	page, err := sess.Page()
	if err != nil {
		return &driver.InstructionError{Action: "upload_file", Detail: err.Error()}
	}
	el, err := page.Context(ctx).Element(`input[type="file"]`)
	if err != nil {
		return &driver.InstructionError{Action: "upload_file", Detail: "no file input on screen"}
	}
	if err := el.SetFiles([]string{path}); err != nil {
		return &driver.InstructionError{Action: "upload_file", Detail: err.Error()}
	}
	return nil
}

// WaitUploadComplete confirms the upload finished.
func (d *Driver) WaitUploadComplete(ctx context.Context) error {
	return d.exec(ctx, "wait_upload_complete", nil)
}

// SetImageFields fills the attachment's descriptive fields.
func (d *Driver) SetImageFields(ctx context.Context, fields driver.ImageFields) error {
	return d.exec(ctx, "set_image_fields", map[string]string{
		"alt_text":    fields.AltText,
		"title":       fields.Title,
		"caption":     fields.Caption,
		"description": fields.Description,
	})
}

// SetDisplaySettings configures the inline display options.
func (d *Driver) SetDisplaySettings(ctx context.Context, settings driver.DisplaySettings) error {
	return d.exec(ctx, "set_display_settings", map[string]string{
		"alignment":   settings.Alignment,
		"link_target": settings.LinkTarget,
		"size":        settings.Size,
	})
}

// InsertIntoPost inserts the selection into the body.
func (d *Driver) InsertIntoPost(ctx context.Context) error {
	return d.exec(ctx, "insert_into_post", nil)
}

// CloseMediaLibrary dismisses the modal.
func (d *Driver) CloseMediaLibrary(ctx context.Context) error {
	return d.exec(ctx, "close_media_library", nil)
}

// SetFeaturedImage marks the selection featured.
func (d *Driver) SetFeaturedImage(ctx context.Context) error {
	return d.exec(ctx, "set_featured_image", nil)
}

// EnterCropMode opens the crop tool.
func (d *Driver) EnterCropMode(ctx context.Context) error {
	return d.exec(ctx, "enter_crop_mode", nil)
}

// CropTo crops to a named target size.
func (d *Driver) CropTo(ctx context.Context, sizeName string) error {
	return d.exec(ctx, "crop_to_size", map[string]string{"size": sizeName})
}

// SaveCrop persists the crop.
func (d *Driver) SaveCrop(ctx context.Context) error {
	return d.exec(ctx, "save_crop", nil)
}

// ConfirmSelection confirms the featured-image choice.
func (d *Driver) ConfirmSelection(ctx context.Context) error {
	return d.exec(ctx, "confirm_selection", nil)
}

// AddTag adds one tag.
func (d *Driver) AddTag(ctx context.Context, tag string) error {
	return d.exec(ctx, "add_tag", map[string]string{"tag": tag})
}

// SelectCategory checks one category.
func (d *Driver) SelectCategory(ctx context.Context, category string) error {
	return d.exec(ctx, "select_category", map[string]string{"category": category})
}

// FillSEO populates the SEO-plugin fields.
func (d *Driver) FillSEO(ctx context.Context, seo driver.SEOFields) error {
	return d.exec(ctx, "fill_seo", map[string]string{
		"title":        seo.Title,
		"description":  seo.Description,
		"focus_phrase": seo.FocusPhrase,
	})
}

// SchedulePost sets a future publish timestamp.
func (d *Driver) SchedulePost(ctx context.Context, at time.Time) error {
	return d.exec(ctx, "schedule_post", map[string]string{
		"timestamp": at.Format("2006-01-02 15:04"),
	})
}

// PublishedURL reads the live URL off the confirmation screen.
func (d *Driver) PublishedURL(ctx context.Context) (string, error) {
	value, err := d.run(ctx, "read_live_url", nil)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", &driver.InstructionError{Action: "read_live_url", Detail: "backend returned no URL"}
	}
	return value, nil
}
