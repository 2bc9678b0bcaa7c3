package orchestrator

import (
	"context"
	"strings"

	"autopress/internal/content"
	"autopress/internal/driver"
	"autopress/internal/logging"
)

// phaseLogin authenticates against the admin entry and captures the session
// cookies. This is the sole point the task's cookie jar is populated; a later
// provider switch replays exactly this set instead of re-running login.
func (p *Publisher) phaseLogin(ctx context.Context, d driver.Driver, pctx *PublishingContext) error {
	req := pctx.Request
	if err := d.Navigate(ctx, req.BaseURL); err != nil {
		return err
	}
	if err := d.Fill(ctx, "login_username", req.Username); err != nil {
		return err
	}
	if err := d.Fill(ctx, "login_password", req.Password); err != nil {
		return err
	}
	if err := d.Click(ctx, "login_button"); err != nil {
		return err
	}
	if err := d.WaitFor(ctx, "dashboard"); err != nil {
		return err
	}
	cookies, err := d.Cookies(ctx)
	if err != nil {
		return &driver.TimeoutError{Op: "capture session cookies", Err: err}
	}
	pctx.SetCookies(cookies)
	logging.OrchestratorDebug("[%s] login complete, %d cookies captured", pctx.TaskID, len(cookies))
	return nil
}

// phaseFillContent opens a new post, fills title and body in plain-text mode
// and saves a draft. The body is cleaned offline before it ever reaches the
// editor; CleanContent then strips whatever entities the editor re-inserted.
func (p *Publisher) phaseFillContent(ctx context.Context, d driver.Driver, pctx *PublishingContext) error {
	req := pctx.Request
	if err := d.OpenNewPost(ctx); err != nil {
		return err
	}
	if err := d.Fill(ctx, "editor_title", req.Article.Title); err != nil {
		return err
	}
	if err := d.Click(ctx, "content_mode_text"); err != nil {
		return err
	}
	body, err := content.CleanBody(req.Article.Body)
	if err != nil {
		logging.OrchestratorWarn("[%s] body cleanup failed, using raw body: %v", pctx.TaskID, err)
		body = req.Article.Body
	}
	if err := d.Fill(ctx, "editor_content", body); err != nil {
		return err
	}
	if err := d.CleanContent(ctx); err != nil {
		return err
	}
	if req.Article.Excerpt != "" {
		if err := d.Fill(ctx, "editor_excerpt", req.Article.Excerpt); err != nil {
			return err
		}
	}
	if err := d.Click(ctx, "save_draft_button"); err != nil {
		return err
	}
	return d.WaitFor(ctx, "draft_saved")
}

// phaseProcessImages uploads every asset in request order through the shared
// media-library modal, one at a time. The first featured-flagged asset goes
// through the featured sub-flow; everything else is inserted inline.
func (p *Publisher) phaseProcessImages(ctx context.Context, d driver.Driver, pctx *PublishingContext) error {
	req := pctx.Request
	featured := req.featuredIndex()

	for i, asset := range req.Images {
		if err := p.processAsset(ctx, d, pctx, asset, i == featured); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) processAsset(ctx context.Context, d driver.Driver, pctx *PublishingContext, asset ImageAsset, isFeatured bool) error {
	if err := d.OpenMediaLibrary(ctx); err != nil {
		return err
	}
	if err := d.UploadFile(ctx, asset.Path); err != nil {
		return err
	}
	if err := d.WaitUploadComplete(ctx); err != nil {
		return err
	}
	if err := d.SetImageFields(ctx, imageFields(asset)); err != nil {
		return err
	}

	if isFeatured {
		logging.OrchestratorDebug("[%s] featured asset %s", pctx.TaskID, asset.Path)
		if err := d.SetFeaturedImage(ctx); err != nil {
			return err
		}
		for _, size := range p.cfg.CropSizes {
			if err := d.EnterCropMode(ctx); err != nil {
				return err
			}
			if err := d.CropTo(ctx, size); err != nil {
				return err
			}
			if err := d.SaveCrop(ctx); err != nil {
				return err
			}
		}
		if err := d.ConfirmSelection(ctx); err != nil {
			return err
		}
	} else {
		if err := d.SetDisplaySettings(ctx, displaySettings(asset)); err != nil {
			return err
		}
		if err := d.InsertIntoPost(ctx); err != nil {
			return err
		}
	}
	return d.CloseMediaLibrary(ctx)
}

func imageFields(asset ImageAsset) driver.ImageFields {
	desc := asset.Attribution
	if len(asset.Keywords) > 0 {
		kw := strings.Join(asset.Keywords, ", ")
		if desc == "" {
			desc = kw
		} else {
			desc += " | " + kw
		}
	}
	return driver.ImageFields{
		AltText:     asset.AltText,
		Title:       asset.Title,
		Caption:     asset.Caption,
		Description: desc,
	}
}

func displaySettings(asset ImageAsset) driver.DisplaySettings {
	s := driver.DisplaySettings{
		Alignment:  asset.Alignment,
		LinkTarget: asset.LinkTarget,
		Size:       asset.Size,
	}
	if s.Alignment == "" {
		s.Alignment = "Center"
	}
	if s.LinkTarget == "" {
		s.LinkTarget = "None"
	}
	if s.Size == "" {
		s.Size = "Full Size"
	}
	return s
}

// phaseSetMetadata applies taxonomy and the SEO field set.
func (p *Publisher) phaseSetMetadata(ctx context.Context, d driver.Driver, pctx *PublishingContext) error {
	req := pctx.Request
	for _, tag := range req.Metadata.Tags {
		if err := d.AddTag(ctx, tag); err != nil {
			return err
		}
	}
	for _, cat := range req.Metadata.Categories {
		if err := d.SelectCategory(ctx, cat); err != nil {
			return err
		}
	}
	return d.FillSEO(ctx, pctx.Request.Article.SEO)
}

// phasePublish publishes now or schedules for later, then reads the live URL
// into the context.
func (p *Publisher) phasePublish(ctx context.Context, d driver.Driver, pctx *PublishingContext) error {
	req := pctx.Request
	if req.Metadata.PublishAt.IsZero() {
		if err := d.Click(ctx, "publish_button"); err != nil {
			return err
		}
		if err := d.WaitFor(ctx, "publish_confirmation"); err != nil {
			return err
		}
	} else {
		if err := d.SchedulePost(ctx, req.Metadata.PublishAt); err != nil {
			return err
		}
		if err := d.Click(ctx, "publish_button"); err != nil {
			return err
		}
		if err := d.WaitFor(ctx, "schedule_confirmation"); err != nil {
			return err
		}
	}
	url, err := d.PublishedURL(ctx)
	if err != nil {
		return err
	}
	pctx.PublishedURL = url
	return nil
}
