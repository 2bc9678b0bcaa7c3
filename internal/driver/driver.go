// Package driver defines the capability surface both automation variants
// implement. The orchestrator only ever talks to this interface; which
// variant is behind it (selector-based or instruction-driven) is a runtime
// decision made by the retry/fallback policy.
package driver

import (
	"context"
	"time"
)

// Kind identifies a driver variant.
type Kind string

const (
	KindDeterministic Kind = "deterministic"
	KindVision        Kind = "vision"
)

// Cookie is a browser cookie captured from one session and restorable into
// another. It is the unit of session continuity across a provider switch.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // seconds since epoch, -1 for session
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
}

// ImageFields are the descriptive fields set on an uploaded attachment.
type ImageFields struct {
	AltText     string
	Title       string
	Caption     string
	Description string
}

// DisplaySettings configure how an inline image renders in the post body.
type DisplaySettings struct {
	Alignment  string
	LinkTarget string
	Size       string
}

// SEOFields are the SEO-plugin fields filled during the metadata phase.
type SEOFields struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	FocusPhrase string `yaml:"focus_phrase" json:"focus_phrase"`
}

// Driver is the capability surface of one automation variant. All blocking
// operations take a context; recoverable failures surface as
// ElementNotFoundError, InstructionError or TimeoutError so the orchestrator
// can retry or switch providers, while InitError is terminal.
type Driver interface {
	// Lifecycle. Init starts a fresh browser session against the CMS base
	// URL; cookies, when present, are restored before the first navigation.
	Init(ctx context.Context, baseURL string, cookies []Cookie) error
	Close(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
	Cookies(ctx context.Context) ([]Cookie, error)

	// Navigation and generic interaction.
	Navigate(ctx context.Context, url string) error
	OpenNewPost(ctx context.Context) error
	Fill(ctx context.Context, field, value string) error
	Click(ctx context.Context, control string) error
	WaitFor(ctx context.Context, element string) error
	CleanContent(ctx context.Context) error

	// Media library flow.
	OpenMediaLibrary(ctx context.Context) error
	UploadFile(ctx context.Context, path string) error
	WaitUploadComplete(ctx context.Context) error
	SetImageFields(ctx context.Context, fields ImageFields) error
	SetDisplaySettings(ctx context.Context, settings DisplaySettings) error
	InsertIntoPost(ctx context.Context) error
	CloseMediaLibrary(ctx context.Context) error

	// Featured image and cropping.
	SetFeaturedImage(ctx context.Context) error
	EnterCropMode(ctx context.Context) error
	CropTo(ctx context.Context, sizeName string) error
	SaveCrop(ctx context.Context) error
	ConfirmSelection(ctx context.Context) error

	// Taxonomy and SEO.
	AddTag(ctx context.Context, tag string) error
	SelectCategory(ctx context.Context, category string) error
	FillSEO(ctx context.Context, seo SEOFields) error

	// Publishing.
	SchedulePost(ctx context.Context, at time.Time) error
	PublishedURL(ctx context.Context) (string, error)

	Kind() Kind
}
