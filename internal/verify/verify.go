// Package verify checks a freshly published post from the public side: it
// fetches the live URL and confirms the page actually carries the article.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"autopress/internal/logging"
)

// Checker fetches live URLs over plain HTTP. It implements the
// orchestrator's Verifier.
type Checker struct {
	client *http.Client
}

// New creates a checker with a bounded request timeout.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Checker{client: &http.Client{Timeout: timeout}}
}

// VerifyPost fetches url and confirms the document's title or first heading
// contains the article title. Scheduled posts are not live yet; a 404 on a
// scheduled post is reported like any other mismatch and left to the caller
// to interpret.
func (c *Checker) VerifyPost(ctx context.Context, url, title string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}

	want := strings.ToLower(strings.TrimSpace(title))
	candidates := []string{
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	}
	for _, got := range candidates {
		if strings.Contains(strings.ToLower(got), want) {
			logging.Orchestrator("live URL verified: %s", url)
			return nil
		}
	}
	return fmt.Errorf("page at %s does not show title %q", url, title)
}
