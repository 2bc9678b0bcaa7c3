package rodui

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"autopress/internal/driver"
)

// AddTag types one tag into the tag box and commits it.
func (d *Driver) AddTag(ctx context.Context, tag string) error {
	if err := d.fill(ctx, "tag_input", tag); err != nil {
		return err
	}
	return d.click(ctx, "tag_add_button")
}

// SelectCategory checks a category by its visible label. The artifact's
// candidates may use the {label} placeholder for label-driven selectors.
func (d *Driver) SelectCategory(ctx context.Context, category string) error {
	cands, err := d.artifacts.Selectors("category_checkbox")
	if err != nil {
		return err
	}
	page, err := d.sess.Page()
	if err != nil {
		return err
	}
	probe := page.Context(ctx).Sleeper(rod.NotFoundSleeper)
	for _, sel := range cands {
		sel = strings.ReplaceAll(sel, "{label}", category)
		el, err := probe.Element(sel)
		if err == nil && el != nil {
			if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
				return &driver.StaleElementError{Op: "select category " + category, Err: err}
			}
			return nil
		}
	}
	return &driver.ElementNotFoundError{Element: "category_checkbox:" + category, Tried: cands}
}

// FillSEO populates the SEO-plugin field set in one pass.
func (d *Driver) FillSEO(ctx context.Context, seo driver.SEOFields) error {
	pairs := []struct{ element, value string }{
		{"seo_title", seo.Title},
		{"seo_description", seo.Description},
		{"seo_focus_phrase", seo.FocusPhrase},
	}
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		if err := d.fill(ctx, p.element, p.value); err != nil {
			return err
		}
	}
	return nil
}

// SchedulePost sets a future publish timestamp in the publish box.
func (d *Driver) SchedulePost(ctx context.Context, at time.Time) error {
	if err := d.click(ctx, "schedule_edit_link"); err != nil {
		return err
	}
	pairs := []struct{ element, value string }{
		{"schedule_month", at.Format("01")},
		{"schedule_day", at.Format("02")},
		{"schedule_year", at.Format("2006")},
		{"schedule_hour", at.Format("15")},
		{"schedule_minute", at.Format("04")},
	}
	for _, p := range pairs {
		if err := d.fill(ctx, p.element, p.value); err != nil {
			return err
		}
	}
	return d.click(ctx, "schedule_ok_button")
}

// PublishedURL reads the live URL off the post-publish confirmation.
func (d *Driver) PublishedURL(ctx context.Context) (string, error) {
	el, err := d.element(ctx, "view_post_link")
	if err != nil {
		return "", err
	}
	href, err := el.Attribute("href")
	if err != nil || href == nil || *href == "" {
		return "", &driver.ElementNotFoundError{Element: "view_post_link[href]", Tried: []string{"href"}}
	}
	return *href, nil
}
