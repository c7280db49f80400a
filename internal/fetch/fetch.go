// Package fetch retrieves blog articles and reduces them to plain text for
// forecast extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/camadvisory/forecast-impact-service/internal/observability"
)

// ErrFetchFailed covers every non-success retrieval outcome: transport
// errors, timeouts, non-2xx statuses, and unreadable bodies. The underlying
// cause is wrapped for diagnostics; callers decide whether to retry.
var ErrFetchFailed = errors.New("fetch failed")

// maxBodyBytes caps how much of a page is read. Weather blogs are text;
// anything past this is almost certainly not article content.
const maxBodyBytes = 4 << 20

// Normalizer turns a URL into best-effort plain text.
type Normalizer interface {
	Normalize(ctx context.Context, pageURL string) (string, error)
}

// HTTPNormalizer fetches pages over HTTP with a bounded timeout and strips
// markup from the response.
type HTTPNormalizer struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPNormalizer returns a normalizer whose retrievals are bounded by timeout.
func NewHTTPNormalizer(timeout time.Duration) *HTTPNormalizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNormalizer{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Normalize retrieves pageURL and returns its visible text, block-level
// segments joined by a single newline and the result trimmed.
func (n *HTTPNormalizer) Normalize(ctx context.Context, pageURL string) (string, error) {
	start := time.Now()
	text, err := n.fetch(ctx, pageURL)
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.BlogFetchesTotal.WithLabelValues("error").Inc()
		observability.BlogFetchDuration.WithLabelValues("error").Observe(duration)
		return "", err
	}
	observability.BlogFetchesTotal.WithLabelValues("success").Inc()
	observability.BlogFetchDuration.WithLabelValues("success").Observe(duration)
	return text, nil
}

func (n *HTTPNormalizer) fetch(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", ErrFetchFailed, pageURL)
	}

	reqCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := n.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timeout after %s: %v", ErrFetchFailed, n.timeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d from %s", ErrFetchFailed, resp.StatusCode, parsed.Host)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}

	text, err := extractText(body)
	if err != nil {
		return "", fmt.Errorf("%w: parse content: %v", ErrFetchFailed, err)
	}
	return text, nil
}

// extractText strips markup from an HTML document, joining text segments
// with single newlines. Script, style, and head content carry no article
// text and are skipped.
func extractText(body []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}

	var segments []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "head", "noscript":
				return
			}
		}
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				segments = append(segments, t)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.TrimSpace(strings.Join(segments, "\n")), nil
}
