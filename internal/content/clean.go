// Package content normalizes article bodies before they are typed into the
// editor. Upstream sanitization is a caller responsibility; this only strips
// the residual markup entities rich-text editors leave behind.
package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CleanBody removes residual entities from an HTML fragment: non-breaking
// space runs become plain spaces, paragraphs that contain nothing else are
// dropped, and zero-width characters are removed. Structure is otherwise
// preserved.
func CleanBody(in string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(in), ctx)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, n := range nodes {
		clean(n)
		if isEmptyParagraph(n) {
			continue
		}
		if err := html.Render(&out, n); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

func clean(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		clean(c)
		if isEmptyParagraph(c) {
			n.RemoveChild(c)
		}
		c = next
	}
	if n.Type == html.TextNode {
		n.Data = scrubText(n.Data)
	}
}

func scrubText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u200b", "")
	s = strings.ReplaceAll(s, "\ufeff", "")
	return s
}

func isEmptyParagraph(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.P {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(scrubText(c.Data)) != "" {
				return false
			}
		case html.ElementNode:
			// <br> inside an otherwise empty paragraph is still empty.
			if c.DataAtom != atom.Br {
				return false
			}
		}
	}
	return true
}
