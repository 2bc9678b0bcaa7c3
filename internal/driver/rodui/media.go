package rodui

import (
	"context"
	"errors"
	"fmt"
	"os"

	"autopress/internal/driver"
	"autopress/internal/logging"
)

// OpenMediaLibrary opens the add-media modal.
func (d *Driver) OpenMediaLibrary(ctx context.Context) error {
	if err := d.click(ctx, "add_media_button"); err != nil {
		return err
	}
	return d.WaitFor(ctx, "media_modal")
}

// UploadFile pushes a local file into the media library's file input.
func (d *Driver) UploadFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("upload source missing: %w", err)
	}
	el, err := d.element(ctx, "media_file_input")
	if err != nil {
		return err
	}
	logging.BrowserDebug("uploading %s", path)
	if err := el.SetFiles([]string{path}); err != nil {
		return &driver.TimeoutError{Op: "set upload file", Err: err}
	}
	return nil
}

// WaitUploadComplete blocks until the library marks the upload finished.
func (d *Driver) WaitUploadComplete(ctx context.Context) error {
	return d.WaitFor(ctx, "media_upload_done")
}

// SetImageFields fills the per-image descriptive fields in the attachment
// details pane.
func (d *Driver) SetImageFields(ctx context.Context, fields driver.ImageFields) error {
	pairs := []struct{ element, value string }{
		{"media_alt_text", fields.AltText},
		{"media_title", fields.Title},
		{"media_caption", fields.Caption},
		{"media_description", fields.Description},
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

// SetDisplaySettings configures alignment, link target and render size for
// an inline insertion.
func (d *Driver) SetDisplaySettings(ctx context.Context, settings driver.DisplaySettings) error {
	pairs := []struct{ element, value string }{
		{"media_alignment", settings.Alignment},
		{"media_link_target", settings.LinkTarget},
		{"media_size", settings.Size},
	}
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		el, err := d.element(ctx, p.element)
		if err != nil {
			return err
		}
		if err := el.Select([]string{p.value}, true, "text"); err != nil {
			return &driver.TimeoutError{Op: "select " + p.element, Err: err}
		}
	}
	return nil
}

// InsertIntoPost inserts the current selection into the body.
func (d *Driver) InsertIntoPost(ctx context.Context) error {
	return d.click(ctx, "media_insert_button")
}

// CloseMediaLibrary dismisses the modal. The library is a single shared
// surface; the orchestrator closes it before the next asset begins.
func (d *Driver) CloseMediaLibrary(ctx context.Context) error {
	return d.click(ctx, "media_close_button")
}

// SetFeaturedImage marks the current selection as the post's featured image.
func (d *Driver) SetFeaturedImage(ctx context.Context) error {
	return d.click(ctx, "media_set_featured")
}

// EnterCropMode opens the image editor's crop tool for the selection.
func (d *Driver) EnterCropMode(ctx context.Context) error {
	if err := d.click(ctx, "image_edit_button"); err != nil {
		return err
	}
	return d.click(ctx, "crop_button")
}

// CropTo crops the image to a named target size. Preferred path is a preset
// button published by the theme ("crop_size_<name>"); when the preset is not
// on screen the crop falls back to a coordinate-level drag across the full
// crop region, which the named size's preset then snaps on save.
func (d *Driver) CropTo(ctx context.Context, sizeName string) error {
	presetErr := d.click(ctx, "crop_size_"+sizeName)
	if presetErr == nil {
		return nil
	}
	var notFound *driver.ElementNotFoundError
	if !errors.As(presetErr, &notFound) {
		return presetErr
	}

	logging.BrowserDebug("crop preset %s absent, dragging crop region", sizeName)
	region, err := d.element(ctx, "crop_region")
	if err != nil {
		return err
	}
	shape, err := region.Shape()
	if err != nil {
		return &driver.TimeoutError{Op: "crop region shape", Err: err}
	}
	box := shape.Box()
	return d.sess.DragFrom(ctx,
		box.X+2, box.Y+2,
		box.X+box.Width-2, box.Y+box.Height-2)
}

// SaveCrop persists the crop.
func (d *Driver) SaveCrop(ctx context.Context) error {
	if err := d.click(ctx, "crop_save_button"); err != nil {
		return err
	}
	return d.WaitFor(ctx, "image_edit_saved")
}

// ConfirmSelection confirms the featured-image choice and closes the frame.
func (d *Driver) ConfirmSelection(ctx context.Context) error {
	return d.click(ctx, "media_confirm_button")
}
