// Package mathrender is the client for the external LaTeX-to-SVG renderer.
package mathrender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client posts LaTeX expressions to a rendering service and returns SVG.
type Client struct {
	url        string
	httpClient *http.Client
	stats      *Stats
}

// NewClient returns a client for the renderer at url. stats may be nil.
func NewClient(url string, timeout time.Duration, stats *Stats) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		stats:      stats,
	}
}

type renderRequest struct {
	LaTeX   string `json:"latex"`
	Display bool   `json:"display"`
}

type renderResponse struct {
	SVG   string `json:"svg"`
	Error string `json:"error"`
}

// Render converts one expression. 429 and 5xx responses are returned as
// *RetryableError; the conversion pipeline does not retry them itself.
func (c *Client) Render(ctx context.Context, latex string) (string, error) {
	start := time.Now()
	svg, err := c.render(ctx, latex)
	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds(), err == nil)
	}
	return svg, err
}

func (c *Client) render(ctx context.Context, latex string) (string, error) {
	body, err := json.Marshal(renderRequest{LaTeX: latex})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/svg+xml, application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("math renderer: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("math renderer status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	svg := string(respBody)
	if !strings.Contains(resp.Header.Get("Content-Type"), "svg") {
		var r renderResponse
		if err := json.Unmarshal(respBody, &r); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if r.Error != "" {
			return "", fmt.Errorf("math renderer: %s", r.Error)
		}
		svg = r.SVG
	}
	return extractSVG(svg)
}

// extractSVG drops any XML prolog and checks the payload is an svg element.
func extractSVG(s string) (string, error) {
	i := strings.Index(s, "<svg")
	if i < 0 {
		return "", fmt.Errorf("math renderer returned no svg: %s", truncate(s, 200))
	}
	return strings.TrimSpace(s[i:]), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient renderer failure.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
