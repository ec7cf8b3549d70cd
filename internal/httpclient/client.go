package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultRetries is the number of attempts made for a single call.
	DefaultRetries = 3

	// DefaultRetryTimeout is multiplied by the attempt number to get the
	// pause before the next attempt.
	DefaultRetryTimeout = 15 * time.Second

	// DefaultWaitTimeout is the politeness delay between distinct requests.
	DefaultWaitTimeout = time.Second

	// DefaultUserAgent mimics a desktop browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0"
)

// ErrRetriesExhausted is returned when every attempt of a call failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Request describes a single call. URL and Referer may be relative to the
// client's base URL.
type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Form    url.Values
	Referer string
}

// Get returns a GET request for path.
func Get(path string, params url.Values, referer string) Request {
	return Request{Method: http.MethodGet, URL: path, Params: params, Referer: referer}
}

// Post returns a form POST request for path.
func Post(path string, form url.Values, referer string) Request {
	return Request{Method: http.MethodPost, URL: path, Form: form, Referer: referer}
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client performs retried requests against a single site.
type Client struct {
	http         *http.Client
	base         *url.URL
	headers      http.Header
	retries      int
	retryTimeout time.Duration
	waitTimeout  time.Duration
	sleep        SleepFunc
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets the number of attempts per call.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithRetryTimeout sets the backoff unit between attempts.
func WithRetryTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.retryTimeout = d
	}
}

// WithWaitTimeout sets the politeness delay used by Wait.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.waitTimeout = d
	}
}

// WithUserAgent overrides the User-Agent base header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.headers.Set("User-Agent", ua)
		}
	}
}

// WithSleep replaces the function used for every pause. Tests use it to
// record delays instead of waiting.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for the site rooted at baseURL. The given http.Client
// carries the transport and the cookie jar; a nil value gets a default client.
func New(httpClient *http.Client, baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	c := &Client{
		http:         httpClient,
		base:         base,
		headers:      baseHeaders(base),
		retries:      DefaultRetries,
		retryTimeout: DefaultRetryTimeout,
		waitTimeout:  DefaultWaitTimeout,
		sleep:        Sleep,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func baseHeaders(base *url.URL) http.Header {
	h := http.Header{}
	h.Set("DNT", "1")
	h.Set("Origin", base.Scheme+"://"+base.Host)
	h.Set("Cache-Control", "max-age=0")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3")
	h.Set("User-Agent", DefaultUserAgent)
	return h
}

// BaseURL returns a copy of the site root.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Resolve turns a path relative to the site root into an absolute URL.
func (c *Client) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	return c.base.ResolveReference(u), nil
}

// SetJar installs a cookie jar, replacing the previous session state.
func (c *Client) SetJar(jar http.CookieJar) {
	c.http.Jar = jar
}

// Jar returns the current cookie jar.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Wait applies the politeness delay between two distinct requests.
func (c *Client) Wait(ctx context.Context) error {
	return c.sleep(ctx, c.waitTimeout)
}

// Do sends req, retrying on transport errors and non-200 responses. The
// caller owns the returned response body.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err

		if attempt == c.retries {
			break
		}
		delay := c.retryTimeout * time.Duration(attempt)
		c.logger.Warn("request failed, retrying",
			"url", req.URL,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s %s after %d attempts: %w",
		ErrRetriesExhausted, req.method(), req.URL, c.retries, lastErr)
}

func (c *Client) attempt(ctx context.Context, req Request) (*http.Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("request", "method", httpReq.Method, "url", httpReq.URL.String())
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining before close
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	target, err := c.Resolve(req.URL)
	if err != nil {
		return nil, err
	}
	if len(req.Params) > 0 {
		query := target.Query()
		for key, values := range req.Params {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		target.RawQuery = query.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header = c.headers.Clone()
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if req.Referer != "" {
		referer, err := c.Resolve(req.Referer)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Referer", referer.String())
	}
	return httpReq, nil
}

func (r Request) method() string {
	if r.Method != "" {
		return r.Method
	}
	if r.Form != nil {
		return http.MethodPost
	}
	return http.MethodGet
}

// Document performs req and parses the body as HTML, converting it to UTF-8
// from the charset declared by the response.
func (c *Client) Document(ctx context.Context, req Request) (*goquery.Document, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset of %s: %w", req.URL, err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", req.URL, err)
	}
	return doc, nil
}

// Sleep waits for d, returning early with the context error when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
