package refsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/hlzconv/internal/failure"
	"golang.org/x/net/html"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// HTMLExtractor posts the package to a document-to-HTML service and
// collects the text of its block elements.
type HTMLExtractor struct {
	url        string
	httpClient *http.Client
}

func NewHTMLExtractor(url string, timeout time.Duration) *HTMLExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTMLExtractor{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (x *HTMLExtractor) Paragraphs(ctx context.Context, data []byte) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", docxContentType)
	req.Header.Set("Accept", "text/html")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.ExternalExtractionFailure, err, "extraction service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, failure.New(failure.ExternalExtractionFailure, "extraction service status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return ParseHTML(io.LimitReader(resp.Body, 32<<20))
}

// ParseHTML returns the text of p, li, heading and leaf table cells.
// Paragraph-level br elements split a block into separate lines.
func ParseHTML(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, failure.Wrap(failure.ExternalExtractionFailure, err, "parse html")
	}

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				for _, line := range blockLines(n) {
					out = appendText(out, line)
				}
				return
			case "td", "th":
				if !hasBlock(n) {
					out = appendText(out, strings.Join(blockLines(n), " "))
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func blockLines(n *html.Node) []string {
	var lines []string
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			lines = append(lines, buf.String())
			buf.Reset()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return append(lines, buf.String())
}

func hasBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "p", "li", "table", "div":
				return true
			}
		}
		if hasBlock(c) {
			return true
		}
	}
	return false
}
