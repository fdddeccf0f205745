package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fetchURL retrieves a web page and extracts heading-structured text.
// HTML responses are reduced to headings and block text so the chunker can
// see document structure; everything else is treated as plain text.
func (c *Client) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d for %s", ErrFetch, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(body)) > c.maxBytes {
		return "", ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "text/html"):
		return extractHTML(strings.NewReader(string(body)))
	case strings.Contains(contentType, "application/pdf"):
		return extractPDF(body)
	default:
		return string(body), nil
	}
}

// extractHTML converts HTML into heading-marked text. Headings h1-h6 are
// re-emitted as Markdown-style "#" lines so the chunker preserves the
// section hierarchy of the original page.
func extractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrFetch, err)
	}

	doc.Find("script, style, noscript, nav, footer").Remove()

	var out strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		// Nested block elements are visited on their own; skip containers
		// whose text would be emitted twice.
		if s.Is("li") && s.Find("p, li").Length() > 0 {
			return
		}

		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		if level := headingLevel(goquery.NodeName(s)); level > 0 {
			text = collapseWhitespace(text)
			out.WriteString(strings.Repeat("#", level))
			out.WriteString(" ")
		}
		out.WriteString(text)
		out.WriteString("\n\n")
	})

	return out.String(), nil
}

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
