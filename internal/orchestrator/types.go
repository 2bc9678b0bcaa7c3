// Package orchestrator owns the five-phase publish state machine: login,
// fill-content, process-images, set-metadata, publish. It runs phases
// strictly in order on the active driver, retries recoverable failures in
// place, and switches to the fallback driver once the primary's retry budget
// is spent.
package orchestrator

import (
	"fmt"
	"time"

	"autopress/internal/audit"
	"autopress/internal/driver"
)

// Article is the prepared editorial payload. Validation, sanitization and
// SEO-text generation happen upstream; the orchestrator publishes what it is
// given.
type Article struct {
	Title   string           `yaml:"title" json:"title"`
	Body    string           `yaml:"body" json:"body"` // HTML
	Excerpt string           `yaml:"excerpt" json:"excerpt"`
	SEO     driver.SEOFields `yaml:"seo" json:"seo"`
}

// ImageAsset is one image to attach. At most one asset acts as featured; when
// several carry the flag only the first flagged one does, the rest are
// treated as inline.
type ImageAsset struct {
	Path        string   `yaml:"path" json:"path"`
	AltText     string   `yaml:"alt_text" json:"alt_text"`
	Title       string   `yaml:"title" json:"title"`
	Caption     string   `yaml:"caption" json:"caption"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	Attribution string   `yaml:"attribution" json:"attribution"`
	Featured    bool     `yaml:"featured" json:"featured"`

	// Inline display options; zero values fall back to centered/full.
	Alignment  string `yaml:"alignment" json:"alignment"`
	LinkTarget string `yaml:"link_target" json:"link_target"`
	Size       string `yaml:"size" json:"size"`
}

// ArticleMetadata carries taxonomy and publish timing. A zero PublishAt means
// publish immediately; a future timestamp schedules the post.
type ArticleMetadata struct {
	Tags       []string  `yaml:"tags" json:"tags"`
	Categories []string  `yaml:"categories" json:"categories"`
	PublishAt  time.Time `yaml:"publish_at" json:"publish_at"`
}

// PublishRequest is the complete input for one publish task. Immutable once
// submitted.
type PublishRequest struct {
	Article  Article         `yaml:"article" json:"article"`
	Images   []ImageAsset    `yaml:"images" json:"images"`
	Metadata ArticleMetadata `yaml:"metadata" json:"metadata"`
	BaseURL  string          `yaml:"base_url" json:"base_url"` // admin entry of the target site
	Username string          `yaml:"username" json:"username"`
	Password string          `yaml:"password" json:"password"`

	// Cookies optionally carries a previously captured session, letting the
	// task resume mid-session. When present it becomes the task's cookie jar
	// (the jar is set at most once), so the login phase's own capture is a
	// no-op.
	Cookies []driver.Cookie `yaml:"cookies" json:"cookies,omitempty"`
}

// RequestError marks a malformed request, rejected before any driver
// initializes.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// Validate enforces the request invariants the drivers assume.
func (r *PublishRequest) Validate() error {
	switch {
	case r.BaseURL == "":
		return &RequestError{Field: "base_url", Reason: "is required"}
	case r.Username == "":
		return &RequestError{Field: "username", Reason: "is required"}
	case r.Password == "":
		return &RequestError{Field: "password", Reason: "is required"}
	case r.Article.Title == "":
		return &RequestError{Field: "article.title", Reason: "is required"}
	case r.Article.Body == "":
		return &RequestError{Field: "article.body", Reason: "is required"}
	}
	for i, img := range r.Images {
		if img.Path == "" {
			return &RequestError{Field: fmt.Sprintf("images[%d].path", i), Reason: "is required"}
		}
	}
	if !r.Metadata.PublishAt.IsZero() && r.Metadata.PublishAt.Before(time.Now()) {
		return &RequestError{Field: "metadata.publish_at", Reason: "must be in the future"}
	}
	return nil
}

// featuredIndex returns the index of the asset that enters the featured
// sub-flow, or -1 when none is flagged.
func (r *PublishRequest) featuredIndex() int {
	for i, img := range r.Images {
		if img.Featured {
			return i
		}
	}
	return -1
}

// PublishingContext is the mutable per-task state threaded through all
// phases. Owned by exactly one orchestrator run.
type PublishingContext struct {
	TaskID  string
	Request *PublishRequest

	cookies    []driver.Cookie // captured once, at end of login
	cookiesSet bool

	PublishedURL string
}

// SetCookies stores the session cookies captured after login. It is a no-op
// after the first call: the jar is never cleared or replaced mid-task, even
// across a provider switch.
func (c *PublishingContext) SetCookies(cookies []driver.Cookie) {
	if c.cookiesSet {
		return
	}
	c.cookies = cookies
	c.cookiesSet = true
}

// Cookies returns the captured cookie set, nil before login completes.
func (c *PublishingContext) Cookies() []driver.Cookie {
	return c.cookies
}

// TaskError is the structured terminal failure carried by a PublishResult.
type TaskError struct {
	Phase    string
	Attempts int
	Switched bool
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("phase %s failed after %d attempts (switched=%t): %v",
		e.Phase, e.Attempts, e.Switched, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// PublishResult is the terminal, immutable outcome of one task. The audit
// trail is always populated, success or not.
type PublishResult struct {
	Success      bool        `json:"success"`
	TaskID       string      `json:"task"`
	PublishedURL string      `json:"published_url,omitempty"`
	Trail        audit.Trail `json:"trail"`
	Err          error       `json:"-"`
	ErrorDetail  string      `json:"error,omitempty"`
}
