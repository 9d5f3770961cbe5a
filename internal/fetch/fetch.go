// Package fetch downloads job-posting pages.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/jobfmt/internal/parser"
	"golang.org/x/net/html"
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	// ErrUnsupportedContentType is returned for responses that are not HTML
	// or plain text.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; jobfmt/1.0)"
	defaultMaxBytes  = 5 << 20
	defaultRedirects = 5
)

// Page is a fetched posting.
type Page struct {
	URL         string
	HTML        []byte
	ContentType string
}

// IsHTML reports whether the page body is markup rather than plain text.
func (p *Page) IsHTML() bool {
	mt, _, _ := mime.ParseMediaType(p.ContentType)
	return mt != "text/plain"
}

// Parse parses the page body into an HTML tree.
func (p *Page) Parse() (*html.Node, error) {
	root, err := html.Parse(strings.NewReader(string(p.HTML)))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", p.URL, err)
	}
	return root, nil
}

// Text returns the page content as newline-preserving text.
func (p *Page) Text() (string, error) {
	if !p.IsHTML() {
		return string(p.HTML), nil
	}
	root, err := p.Parse()
	if err != nil {
		return "", err
	}
	return parser.FlattenHTML(root), nil
}

// Client issues GET requests with a per-request timeout and bounded retry on
// transient failures.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxBytes caps the body size. Zero means 5 MiB.
	MaxBytes int64

	// retryDelay is the base pause between attempts.
	retryDelay time.Duration
}

// NewClient returns a Client with the given limits.
func NewClient(userAgent string, timeout time.Duration, maxAttempts int) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		UserAgent:         userAgent,
		MaxAttempts:       maxAttempts,
		PerRequestTimeout: timeout,
		retryDelay:        200 * time.Millisecond,
	}
}

// statusError is a non-2xx answer.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.code)
}

// Fetch downloads rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		page, err := c.tryOnce(ctx, u.String())
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		select {
		case <-time.After(time.Duration(i+1) * c.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
}

func (c *Client) tryOnce(ctx context.Context, rawURL string) (*Page, error) {
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.8")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}
	contentType := resp.Header.Get("Content-Type")
	if !isAllowedContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	max := c.MaxBytes
	if max <= 0 {
		max = defaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, max))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Page{URL: resp.Request.URL.String(), HTML: body, ContentType: contentType}, nil
}

func (c *Client) httpClient() *http.Client {
	base := http.Client{}
	if c.HTTPClient != nil {
		base = *c.HTTPClient
	}
	base.CheckRedirect = c.checkRedirect
	return &base
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = defaultRedirects
	}
	if len(via) >= max {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return fmt.Errorf("redirect: %w", ErrUnsupportedScheme)
	}
	return nil
}

// isTransient treats 5xx answers, 429 and timeouts as worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return false
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch mt {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}
